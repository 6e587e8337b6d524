package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/task_manager/internal/domain"
	"github.com/locvowork/task_manager/internal/repository"
	"github.com/locvowork/task_manager/internal/testutil"
)

func strPtr(s string) *string { return &s }

func seedUsers(t *testing.T, users domain.UserRepository, emails ...string) []*domain.User {
	t.Helper()
	var out []*domain.User
	for _, email := range emails {
		u := &domain.User{Name: email, Email: email, PasswordHash: "hash"}
		require.NoError(t, users.Create(context.Background(), u))
		out = append(out, u)
	}
	return out
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	users := repository.NewUserRepository(testutil.NewTestDB(t))

	u := &domain.User{Name: "Ana", Email: "ana@x.com", PasswordHash: "hash"}
	require.NoError(t, users.Create(ctx, u))
	assert.NotEmpty(t, u.ID)

	t.Run("GetByEmail", func(t *testing.T) {
		got, err := users.GetByEmail(ctx, "ana@x.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		assert.Equal(t, "hash", got.PasswordHash)

		_, err = users.GetByEmail(ctx, "ANA@x.com")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("ExistsByEmail", func(t *testing.T) {
		ok, err := users.ExistsByEmail(ctx, "ana@x.com")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = users.ExistsByEmail(ctx, "bob@x.com")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		err := users.Create(ctx, &domain.User{Name: "Other", Email: "ana@x.com", PasswordHash: "h"})
		assert.ErrorIs(t, err, domain.ErrDuplicateKey)
	})
}

func TestTaskRepository(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	users := seedUsers(t, repository.NewUserRepository(db), "a@x.com", "b@x.com")
	alice, bob := users[0], users[1]
	tasks := repository.NewTaskRepository(db)

	task := &domain.Task{
		Title:  "Groceries",
		UserID: alice.ID,
		Items:  []domain.TaskItem{{Text: "milk"}, {Text: "eggs", Completed: true}},
	}
	require.NoError(t, tasks.Create(ctx, task))
	require.NotEmpty(t, task.ID)
	assert.Equal(t, domain.StatusPending, task.Status)

	t.Run("CreateAssignsOrder", func(t *testing.T) {
		got, err := tasks.Get(ctx, alice.ID, task.ID)
		require.NoError(t, err)
		require.Len(t, got.Items, 2)
		assert.Equal(t, "milk", got.Items[0].Text)
		assert.Equal(t, 0, got.Items[0].Order)
		assert.False(t, got.Items[0].Completed)
		assert.Equal(t, "eggs", got.Items[1].Text)
		assert.Equal(t, 1, got.Items[1].Order)
		assert.True(t, got.Items[1].Completed)
		assert.Equal(t, task.ID, got.Items[1].TaskID)
	})

	t.Run("OwnerScoping", func(t *testing.T) {
		_, err := tasks.Get(ctx, bob.ID, task.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		_, err = tasks.Update(ctx, bob.ID, task.ID, domain.TaskPatch{Title: strPtr("hijack")})
		assert.ErrorIs(t, err, domain.ErrNotFound)

		_, err = tasks.ToggleItem(ctx, bob.ID, task.ID, task.Items[0].ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		assert.ErrorIs(t, tasks.Delete(ctx, bob.ID, task.ID), domain.ErrNotFound)

		list, err := tasks.List(ctx, bob.ID, domain.TaskFilter{})
		require.NoError(t, err)
		assert.Empty(t, list)
		assert.NotNil(t, list)
	})

	t.Run("UpdateWithoutItemsKeepsItems", func(t *testing.T) {
		status := domain.StatusInProgress
		got, err := tasks.Update(ctx, alice.ID, task.ID, domain.TaskPatch{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, domain.StatusInProgress, got.Status)
		assert.Equal(t, "Groceries", got.Title)
		assert.Len(t, got.Items, 2)
	})

	t.Run("UpdateReplacesItems", func(t *testing.T) {
		oldIDs := []string{task.Items[0].ID, task.Items[1].ID}
		items := []domain.TaskItem{{Text: "a"}, {Text: "b"}, {Text: "c"}}
		got, err := tasks.Update(ctx, alice.ID, task.ID, domain.TaskPatch{Items: &items})
		require.NoError(t, err)
		require.Len(t, got.Items, 3)
		for i, want := range []string{"a", "b", "c"} {
			assert.Equal(t, want, got.Items[i].Text)
			assert.Equal(t, i, got.Items[i].Order)
			assert.NotContains(t, oldIDs, got.Items[i].ID)
		}

		var stale int64
		require.NoError(t, db.Model(&domain.TaskItem{}).Where("id IN ?", oldIDs).Count(&stale).Error)
		assert.Zero(t, stale)
	})

	t.Run("UpdateWithEmptyItemsClears", func(t *testing.T) {
		empty := []domain.TaskItem{}
		got, err := tasks.Update(ctx, alice.ID, task.ID, domain.TaskPatch{Items: &empty})
		require.NoError(t, err)
		assert.Empty(t, got.Items)
		assert.NotNil(t, got.Items)
	})

	t.Run("ToggleItem", func(t *testing.T) {
		items := []domain.TaskItem{{Text: "only"}}
		got, err := tasks.Update(ctx, alice.ID, task.ID, domain.TaskPatch{Items: &items})
		require.NoError(t, err)
		itemID := got.Items[0].ID

		item, err := tasks.ToggleItem(ctx, alice.ID, task.ID, itemID)
		require.NoError(t, err)
		assert.True(t, item.Completed)

		item, err = tasks.ToggleItem(ctx, alice.ID, task.ID, itemID)
		require.NoError(t, err)
		assert.False(t, item.Completed)

		_, err = tasks.ToggleItem(ctx, alice.ID, task.ID, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("ListFilter", func(t *testing.T) {
		other := &domain.Task{Title: "Done already", Status: domain.StatusCompleted, UserID: alice.ID}
		require.NoError(t, tasks.Create(ctx, other))

		all, err := tasks.List(ctx, alice.ID, domain.TaskFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 2)

		completed := domain.StatusCompleted
		done, err := tasks.List(ctx, alice.ID, domain.TaskFilter{Status: &completed})
		require.NoError(t, err)
		require.Len(t, done, 1)
		assert.Equal(t, other.ID, done[0].ID)
		assert.NotNil(t, done[0].Items)
	})

	t.Run("DeleteRemovesItems", func(t *testing.T) {
		require.NoError(t, tasks.Delete(ctx, alice.ID, task.ID))

		_, err := tasks.Get(ctx, alice.ID, task.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		var remaining int64
		require.NoError(t, db.Model(&domain.TaskItem{}).Where("task_id = ?", task.ID).Count(&remaining).Error)
		assert.Zero(t, remaining)

		assert.ErrorIs(t, tasks.Delete(ctx, alice.ID, task.ID), domain.ErrNotFound)
	})
}
