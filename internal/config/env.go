package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres  = "postgres"
	StorageDriverSQLite    = "sqlite"
	StorageDriverDatastore = "datastore"
)

type envConfig struct {
	APP_PORT      string
	LOG_LEVEL     string
	LOG_FILE_PATH string

	STORAGE_DRIVER string

	DATABASE_URL         string
	DB_HOST              string
	DB_PORT              string
	DB_USER              string
	DB_PASSWORD          string
	DB_NAME              string
	DB_SSL_MODE          string
	DB_MAX_OPEN_CONNS    int
	DB_MAX_IDLE_CONNS    int
	DB_CONN_MAX_LIFETIME time.Duration

	SQLITE_PATH string

	GCP_PROJECT_ID string

	JWT_SECRET string
	JWT_TTL    time.Duration

	CORS_ORIGIN string
}

// DefaultEnvConfig is populated by LoadEnvConfig.
var DefaultEnvConfig envConfig

// LoadEnvConfig reads an optional .env file and then the process environment.
func LoadEnvConfig(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg, err := fromEnv()
	if err != nil {
		return err
	}
	DefaultEnvConfig = cfg
	return nil
}

func fromEnv() (envConfig, error) {
	var (
		cfg envConfig
		err error
	)
	cfg.APP_PORT = getEnv("APP_PORT", "3000")
	cfg.LOG_LEVEL = getEnv("LOG_LEVEL", "info")
	cfg.LOG_FILE_PATH = os.Getenv("LOG_FILE_PATH")

	cfg.STORAGE_DRIVER = strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverPostgres))
	switch cfg.STORAGE_DRIVER {
	case StorageDriverPostgres, StorageDriverSQLite, StorageDriverDatastore:
	default:
		return cfg, fmt.Errorf("STORAGE_DRIVER: unsupported driver %q", cfg.STORAGE_DRIVER)
	}

	cfg.DATABASE_URL = os.Getenv("DATABASE_URL")
	cfg.DB_HOST = getEnv("DB_HOST", "localhost")
	cfg.DB_PORT = getEnv("DB_PORT", "5432")
	cfg.DB_USER = getEnv("DB_USER", "postgres")
	cfg.DB_PASSWORD = os.Getenv("DB_PASSWORD")
	cfg.DB_NAME = getEnv("DB_NAME", "task_manager")
	cfg.DB_SSL_MODE = getEnv("DB_SSL_MODE", "disable")
	if cfg.DB_MAX_OPEN_CONNS, err = getEnvInt("DB_MAX_OPEN_CONNS", 25); err != nil {
		return cfg, err
	}
	if cfg.DB_MAX_IDLE_CONNS, err = getEnvInt("DB_MAX_IDLE_CONNS", 5); err != nil {
		return cfg, err
	}
	if cfg.DB_CONN_MAX_LIFETIME, err = getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute); err != nil {
		return cfg, err
	}

	cfg.SQLITE_PATH = getEnv("SQLITE_PATH", "task_manager.db")
	cfg.GCP_PROJECT_ID = os.Getenv("GCP_PROJECT_ID")
	if cfg.STORAGE_DRIVER == StorageDriverDatastore && cfg.GCP_PROJECT_ID == "" {
		return cfg, errors.New("GCP_PROJECT_ID is required for the datastore driver")
	}

	cfg.JWT_SECRET = os.Getenv("JWT_SECRET")
	if cfg.JWT_SECRET == "" {
		return cfg, errors.New("JWT_SECRET is required")
	}
	if cfg.JWT_TTL, err = getEnvDuration("JWT_TTL", 7*24*time.Hour); err != nil {
		return cfg, err
	}

	cfg.CORS_ORIGIN = getEnv("CORS_ORIGIN", "*")
	return cfg, nil
}

// CORSOrigins splits CORS_ORIGIN on commas.
func (c envConfig) CORSOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORS_ORIGIN, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
