package googlecloud

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/task_manager/internal/domain"
)

// newEmulatorClient connects to the Datastore emulator; tests are skipped
// when DATASTORE_EMULATOR_HOST is unset.
func newEmulatorClient(t *testing.T) *Client {
	t.Helper()
	if os.Getenv("DATASTORE_EMULATOR_HOST") == "" {
		t.Skip("DATASTORE_EMULATOR_HOST not set")
	}
	project := os.Getenv("GCP_PROJECT_ID")
	if project == "" {
		project = "task-manager-test"
	}
	c, err := NewClient(context.Background(), project)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestUserStore(t *testing.T) {
	ctx := context.Background()
	users := newEmulatorClient(t).UserStore()
	email := uuid.NewString() + "@x.com"

	u := &domain.User{Name: "Ana", Email: email, PasswordHash: "hash"}
	require.NoError(t, users.Create(ctx, u))

	got, err := users.GetByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)

	ok, err := users.ExistsByEmail(ctx, email)
	require.NoError(t, err)
	assert.True(t, ok)

	err = users.Create(ctx, &domain.User{Name: "Other", Email: email, PasswordHash: "h"})
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)

	_, err = users.GetByEmail(ctx, "missing-"+email)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTaskStore(t *testing.T) {
	ctx := context.Background()
	tasks := newEmulatorClient(t).TaskStore()
	owner, other := uuid.NewString(), uuid.NewString()

	task := &domain.Task{
		Title:  "Test",
		UserID: owner,
		Items:  []domain.TaskItem{{Text: "a"}, {Text: "b", Completed: true}},
	}
	require.NoError(t, tasks.Create(ctx, task))
	assert.Equal(t, domain.StatusPending, task.Status)

	got, err := tasks.Get(ctx, owner, task.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "a", got.Items[0].Text)
	assert.Equal(t, 1, got.Items[1].Order)

	_, err = tasks.Get(ctx, other, task.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	status := domain.StatusCompleted
	updated, err := tasks.Update(ctx, owner, task.ID, domain.TaskPatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, updated.Status)
	assert.Len(t, updated.Items, 2)

	items := []domain.TaskItem{{Text: "only"}}
	updated, err = tasks.Update(ctx, owner, task.ID, domain.TaskPatch{Items: &items})
	require.NoError(t, err)
	require.Len(t, updated.Items, 1)

	toggled, err := tasks.ToggleItem(ctx, owner, task.ID, updated.Items[0].ID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	list, err := tasks.List(ctx, owner, domain.TaskFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Items, 1)

	assert.ErrorIs(t, tasks.Delete(ctx, other, task.ID), domain.ErrNotFound)
	require.NoError(t, tasks.Delete(ctx, owner, task.ID))

	list, err = tasks.List(ctx, owner, domain.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}
