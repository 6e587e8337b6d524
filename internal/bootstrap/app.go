package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/locvowork/task_manager/internal/auth"
	"github.com/locvowork/task_manager/internal/config"
	"github.com/locvowork/task_manager/internal/database"
	"github.com/locvowork/task_manager/internal/domain"
	"github.com/locvowork/task_manager/internal/handler"
	"github.com/locvowork/task_manager/internal/logger"
	"github.com/locvowork/task_manager/internal/middleware"
	"github.com/locvowork/task_manager/internal/repository"
	"github.com/locvowork/task_manager/internal/service"
	"github.com/locvowork/task_manager/pkg/googlecloud"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	Echo *echo.Echo
	DB   *sql.DB
	Gorm *gorm.DB
	GCP  *googlecloud.Client

	users domain.UserRepository
	tasks domain.TaskRepository
}

func NewApp() *App {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	return &App{Echo: e}
}

// LoadConfig reads the environment, plus the given dotenv files (".env" when
// none), and configures logging.
func (a *App) LoadConfig(ctx context.Context, envFiles ...string) error {
	if err := config.LoadEnvConfig(envFiles...); err != nil {
		return fmt.Errorf("failed to load env config: %w", err)
	}
	logger.InitLogging(config.DefaultEnvConfig.LOG_FILE_PATH, config.DefaultEnvConfig.LOG_LEVEL)
	logger.InfoLog(ctx, "environment variables loaded, storage driver %s", config.DefaultEnvConfig.STORAGE_DRIVER)
	return nil
}

// Initialize loads configuration, opens the configured store, migrates SQL
// schemas and wires the HTTP server.
func (a *App) Initialize(ctx context.Context, envFiles ...string) error {
	if err := a.LoadConfig(ctx, envFiles...); err != nil {
		return err
	}
	if err := a.OpenStore(ctx); err != nil {
		return err
	}
	if err := a.Migrate(ctx); err != nil {
		return err
	}

	tokens := auth.NewTokenManager(config.DefaultEnvConfig.JWT_SECRET, config.DefaultEnvConfig.JWT_TTL)
	a.Setup(tokens)
	return nil
}

// OpenStore connects to the backend named by STORAGE_DRIVER and builds the
// repositories on top of it.
func (a *App) OpenStore(ctx context.Context) error {
	cfg := config.DefaultEnvConfig
	switch cfg.STORAGE_DRIVER {
	case config.StorageDriverDatastore:
		client, err := googlecloud.NewClient(ctx, cfg.GCP_PROJECT_ID)
		if err != nil {
			return fmt.Errorf("failed to initialize datastore: %w", err)
		}
		a.GCP = client
		a.users = client.UserStore()
		a.tasks = client.TaskStore()
		return nil

	case config.StorageDriverSQLite:
		gdb, err := database.NewSQLiteDB(cfg.SQLITE_PATH)
		if err != nil {
			return err
		}
		a.Gorm = gdb
		if a.DB, err = gdb.DB(); err != nil {
			return err
		}

	default:
		db, err := database.NewPostgresDB(ctx, database.Config{
			URL:             cfg.DATABASE_URL,
			Host:            cfg.DB_HOST,
			Port:            cfg.DB_PORT,
			User:            cfg.DB_USER,
			Password:        cfg.DB_PASSWORD,
			DBName:          cfg.DB_NAME,
			SSLMode:         cfg.DB_SSL_MODE,
			MaxOpenConns:    cfg.DB_MAX_OPEN_CONNS,
			MaxIdleConns:    cfg.DB_MAX_IDLE_CONNS,
			ConnMaxLifetime: cfg.DB_CONN_MAX_LIFETIME,
			Retry:           database.DefaultRetryConfig(),
		})
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		a.DB = db
		if a.Gorm, err = database.NewGormPostgres(db); err != nil {
			return err
		}
	}

	a.users = repository.NewUserRepository(a.Gorm)
	a.tasks = repository.NewTaskRepository(a.Gorm)
	return nil
}

// Migrate creates the SQL schema. Datastore needs none.
func (a *App) Migrate(ctx context.Context) error {
	if a.Gorm == nil {
		logger.InfoLog(ctx, "no SQL store configured, skipping migration")
		return nil
	}
	if err := database.Migrate(a.Gorm); err != nil {
		return err
	}
	logger.InfoLog(ctx, "database schema is up to date")
	return nil
}

// UseRepositories replaces the store-backed repositories, e.g. with ones
// built over a test database.
func (a *App) UseRepositories(users domain.UserRepository, tasks domain.TaskRepository) {
	a.users = users
	a.tasks = tasks
}

// Setup registers middlewares and routes over the current repositories.
func (a *App) Setup(tokens *auth.TokenManager) {
	authHandler := handler.NewAuthHandler(service.NewAuthService(a.users, tokens))
	taskHandler := handler.NewTaskHandler(service.NewTaskService(a.tasks))
	healthHandler := handler.NewHealthHandler(a.ping)

	a.RegisterMiddlewares()
	a.RegisterRoutes(tokens, authHandler, taskHandler, healthHandler)
}

func (a *App) ping(ctx context.Context) error {
	switch {
	case a.GCP != nil:
		return a.GCP.Ping(ctx)
	case a.DB != nil:
		return a.DB.PingContext(ctx)
	}
	return nil
}

func (a *App) RegisterMiddlewares() {
	a.Echo.HTTPErrorHandler = handler.HTTPErrorHandler
	a.Echo.Use(echomw.Recover())
	a.Echo.Use(echomw.RequestID())
	a.Echo.Use(middleware.RequestContext())
	a.Echo.Use(middleware.AccessLog())
	a.Echo.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: config.DefaultEnvConfig.CORSOrigins(),
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
}

func (a *App) RegisterRoutes(tokens middleware.TokenVerifier, authHandler *handler.AuthHandler, taskHandler *handler.TaskHandler, healthHandler *handler.HealthHandler) {
	a.Echo.GET("/healthz", healthHandler.HealthHandler)

	authGroup := a.Echo.Group("/auth")
	authGroup.POST("/register", authHandler.RegisterHandler)
	authGroup.POST("/login", authHandler.LoginHandler)

	taskGroup := a.Echo.Group("/tasks", middleware.Auth(tokens))
	taskGroup.GET("", taskHandler.ListHandler)
	taskGroup.POST("", taskHandler.CreateHandler)
	taskGroup.GET("/export", taskHandler.ExportHandler)
	taskGroup.GET("/:id", taskHandler.GetHandler)
	taskGroup.PUT("/:id", taskHandler.UpdateHandler)
	taskGroup.DELETE("/:id", taskHandler.DeleteHandler)
	taskGroup.PATCH("/:taskId/items/:itemId/toggle", taskHandler.ToggleItemHandler)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	addr := ":" + config.DefaultEnvConfig.APP_PORT
	errCh := make(chan error, 1)
	go func() {
		logger.InfoLog(ctx, "http server listening on %s", addr)
		if err := a.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.InfoLog(ctx, "shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return a.Echo.Shutdown(shutdownCtx)
}

// Close releases the store connections and the log file.
func (a *App) Close() {
	defer func() {
		if err := logger.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", err)
		}
	}()
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			logger.WarnLog(context.Background(), "failed to close database: %v", err)
		}
	}
	if a.GCP != nil {
		if err := a.GCP.Close(); err != nil {
			logger.WarnLog(context.Background(), "failed to close datastore client: %v", err)
		}
	}
}
