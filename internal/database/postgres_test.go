package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigDSN(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "URL wins",
			cfg:  Config{URL: "postgres://u:p@db:5432/tasks", Host: "ignored"},
			want: "postgres://u:p@db:5432/tasks",
		},
		{
			name: "key value",
			cfg:  Config{Host: "localhost", Port: "5432", User: "postgres", Password: "pw", DBName: "task_manager", SSLMode: "disable"},
			want: "host=localhost port=5432 user=postgres password=pw dbname=task_manager sslmode=disable",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.cfg.DSN())
		})
	}
}

func TestWithRetry(t *testing.T) {
	ctx := context.Background()
	fast := RetryConfig{MaxAttempts: 4, InitialWait: time.Millisecond, MaxWait: 2 * time.Millisecond}

	t.Run("EventuallySucceeds", func(t *testing.T) {
		calls := 0
		err := withRetry(ctx, fast, func() error {
			calls++
			if calls < 3 {
				return errors.New("connection refused")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("ReturnsLastError", func(t *testing.T) {
		calls := 0
		err := withRetry(ctx, fast, func() error {
			calls++
			return errors.New("connection refused")
		})
		assert.EqualError(t, err, "connection refused")
		assert.Equal(t, 4, calls)
	})

	t.Run("StopsOnCancel", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		calls := 0
		err := withRetry(cctx, RetryConfig{MaxAttempts: 5, InitialWait: time.Hour}, func() error {
			calls++
			cancel()
			return errors.New("connection refused")
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})

	t.Run("BackoffIsCapped", func(t *testing.T) {
		var stamps []time.Time
		cfg := RetryConfig{MaxAttempts: 4, InitialWait: 5 * time.Millisecond, MaxWait: 10 * time.Millisecond}
		start := time.Now()
		_ = withRetry(ctx, cfg, func() error {
			stamps = append(stamps, time.Now())
			return errors.New("connection refused")
		})
		// Waits are 5ms, 10ms, 10ms (capped rather than 20ms).
		assert.Len(t, stamps, 4)
		assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)
		assert.GreaterOrEqual(t, stamps[3].Sub(stamps[2]), 10*time.Millisecond)
	})
}
