package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type ctxKey struct{}

var (
	mu      sync.Mutex
	logFile *os.File
)

// InitLogging configures the global logger. An empty path logs to stdout.
// A log file opened by an earlier call is closed.
func InitLogging(path, level string) {
	mu.Lock()
	defer mu.Unlock()

	var out io.Writer = os.Stdout
	var opened *os.File
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file %s, falling back to stdout: %v\n", path, err)
		} else {
			out = f
			opened = f
		}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339Nano
	log.Logger = zerolog.New(out).With().Timestamp().Logger()

	if logFile != nil {
		logFile.Close()
	}
	logFile = opened
}

// Close switches logging back to stdout and closes the log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if logFile == nil {
		return nil
	}
	log.Logger = log.Logger.Output(os.Stdout)
	err := logFile.Close()
	logFile = nil
	return err
}

// WithRequestID stores a request id that the *Log helpers attach to every event.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// RequestID returns the id stored by WithRequestID.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func event(ctx context.Context, e *zerolog.Event) *zerolog.Event {
	if ctx != nil {
		if id := RequestID(ctx); id != "" {
			e = e.Str("request_id", id)
		}
	}
	return e
}

func DebugLog(ctx context.Context, format string, args ...interface{}) {
	event(ctx, log.Debug()).Msgf(format, args...)
}

func InfoLog(ctx context.Context, format string, args ...interface{}) {
	event(ctx, log.Info()).Msgf(format, args...)
}

func WarnLog(ctx context.Context, format string, args ...interface{}) {
	event(ctx, log.Warn()).Msgf(format, args...)
}

func ErrorLog(ctx context.Context, format string, args ...interface{}) {
	event(ctx, log.Error()).Msgf(format, args...)
}

// Logger exposes the global zerolog logger for structured fields.
func Logger() *zerolog.Logger {
	return &log.Logger
}
