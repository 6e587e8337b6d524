package googlecloud

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"cloud.google.com/go/datastore"
	"github.com/stretchr/testify/assert"

	"github.com/locvowork/task_manager/internal/domain"
)

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: 2 * time.Millisecond}
}

func TestWithRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("EventuallySucceeds", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, fastRetry(), func() error {
			calls++
			if calls < 3 {
				return errors.New("unavailable")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("GivesUp", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, fastRetry(), func() error {
			calls++
			return errors.New("unavailable")
		})
		assert.EqualError(t, err, "unavailable")
		assert.Equal(t, 3, calls)
	})

	t.Run("DomainErrorsAreFinal", func(t *testing.T) {
		calls := 0
		err := WithRetry(ctx, fastRetry(), func() error {
			calls++
			return domain.ErrDuplicateKey
		})
		assert.ErrorIs(t, err, domain.ErrDuplicateKey)
		assert.Equal(t, 1, calls)
	})

	t.Run("CancelledContext", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := WithRetry(cctx, fastRetry(), func() error { return errors.New("unavailable") })
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestWrapDatastoreError(t *testing.T) {
	assert.NoError(t, WrapDatastoreError(nil))
	assert.ErrorIs(t, WrapDatastoreError(datastore.ErrNoSuchEntity), domain.ErrNotFound)
	assert.True(t, IsNotFoundError(datastore.ErrNoSuchEntity))

	other := errors.New("boom")
	assert.Equal(t, other, WrapDatastoreError(other))
	assert.False(t, IsNotFoundError(other))
}

func TestWrapOp(t *testing.T) {
	assert.NoError(t, wrapOp(nil, "update task"))

	for _, err := range []error{
		datastore.ErrNoSuchEntity,
		domain.ErrNotFound,
		fmt.Errorf("tx: %w", domain.ErrNotFound),
	} {
		got := wrapOp(err, "update task")
		assert.Equal(t, domain.ErrNotFound, got, "%v", err)
	}

	got := wrapOp(errors.New("deadline exceeded"), "toggle task item")
	assert.EqualError(t, got, "toggle task item: deadline exceeded")
	assert.False(t, IsNotFoundError(got))
}

func TestTaskEntityDescription(t *testing.T) {
	empty := ""
	withEmpty := newTaskEntity(&domain.Task{Title: "a", Description: &empty, Status: domain.StatusPending})
	got := withEmpty.toDomain("u", "t")
	if assert.NotNil(t, got.Description) {
		assert.Equal(t, "", *got.Description)
	}

	none := newTaskEntity(&domain.Task{Title: "a", Status: domain.StatusPending})
	got = none.toDomain("u", "t")
	assert.Nil(t, got.Description)
	assert.NotNil(t, got.Items)
	assert.Equal(t, "u", got.UserID)
}

func TestKeysNestUnderOwner(t *testing.T) {
	k := itemKey("u1", "t1", "i1")
	assert.Equal(t, KindTaskItem, k.Kind)
	assert.Equal(t, "t1", k.Parent.Name)
	assert.Equal(t, "u1", k.Parent.Parent.Name)
	assert.Nil(t, k.Parent.Parent.Parent)
}
