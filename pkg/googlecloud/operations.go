package googlecloud

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/datastore"
	"github.com/google/uuid"

	"github.com/locvowork/task_manager/internal/domain"
)

type userStore struct {
	c *Client
}

// UserStore returns a domain.UserRepository backed by Datastore. Email
// uniqueness is enforced by a UserEmail entity written in the same
// transaction as the user.
func (c *Client) UserStore() domain.UserRepository {
	return &userStore{c: c}
}

func (s *userStore) Create(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	}

	_, err := s.c.ds.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var existing emailEntity
		err := tx.Get(emailKey(user.Email), &existing)
		if err == nil {
			return domain.ErrDuplicateKey
		}
		if !IsNotFoundError(err) {
			return err
		}

		if _, err := tx.Put(emailKey(user.Email), &emailEntity{UserID: user.ID}); err != nil {
			return err
		}
		_, err = tx.Put(userKey(user.ID), newUserEntity(user))
		return err
	})
	if err != nil && !errors.Is(err, domain.ErrDuplicateKey) {
		return fmt.Errorf("put user: %w", err)
	}
	return err
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var ref emailEntity
	if err := s.c.ds.Get(ctx, emailKey(email), &ref); err != nil {
		return nil, WrapDatastoreError(err)
	}
	var e userEntity
	if err := s.c.ds.Get(ctx, userKey(ref.UserID), &e); err != nil {
		return nil, WrapDatastoreError(err)
	}
	return e.toDomain(ref.UserID), nil
}

func (s *userStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var ref emailEntity
	err := s.c.ds.Get(ctx, emailKey(email), &ref)
	if IsNotFoundError(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get user email: %w", err)
	}
	return true, nil
}

type taskStore struct {
	c *Client
}

// TaskStore returns a domain.TaskRepository backed by Datastore.
func (c *Client) TaskStore() domain.TaskRepository {
	return &taskStore{c: c}
}

func (s *taskStore) List(ctx context.Context, userID string, filter domain.TaskFilter) ([]domain.Task, error) {
	q := datastore.NewQuery(KindTask).Ancestor(userKey(userID))
	var entities []taskEntity
	keys, err := s.c.ds.GetAll(ctx, q, &entities)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}

	// Items of every task share the user as ancestor, so one query covers them.
	itemQ := datastore.NewQuery(KindTaskItem).Ancestor(userKey(userID))
	var items []itemEntity
	itemKeys, err := s.c.ds.GetAll(ctx, itemQ, &items)
	if err != nil {
		return nil, fmt.Errorf("query task items: %w", err)
	}
	byTask := make(map[string][]domain.TaskItem)
	for i, k := range itemKeys {
		taskID := k.Parent.Name
		byTask[taskID] = append(byTask[taskID], items[i].toDomain(taskID, k.Name))
	}

	tasks := make([]domain.Task, 0, len(entities))
	for i, k := range keys {
		if filter.Status != nil && domain.TaskStatus(entities[i].Status) != *filter.Status {
			continue
		}
		t := entities[i].toDomain(userID, k.Name)
		if its, ok := byTask[k.Name]; ok {
			sortItems(its)
			t.Items = its
		}
		tasks = append(tasks, t)
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		}
		return tasks[i].ID < tasks[j].ID
	})
	return tasks, nil
}

func (s *taskStore) Get(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	return s.get(ctx, nil, userID, taskID)
}

// get loads a task and its items, inside tx when one is given.
func (s *taskStore) get(ctx context.Context, tx *datastore.Transaction, userID, taskID string) (*domain.Task, error) {
	key := taskKey(userID, taskID)
	var e taskEntity
	var err error
	if tx != nil {
		err = tx.Get(key, &e)
	} else {
		err = s.c.ds.Get(ctx, key, &e)
	}
	if err != nil {
		return nil, WrapDatastoreError(err)
	}

	q := datastore.NewQuery(KindTaskItem).Ancestor(key)
	if tx != nil {
		q = q.Transaction(tx)
	}
	var items []itemEntity
	itemKeys, err := s.c.ds.GetAll(ctx, q, &items)
	if err != nil {
		return nil, fmt.Errorf("query task items: %w", err)
	}

	t := e.toDomain(userID, taskID)
	for i, k := range itemKeys {
		t.Items = append(t.Items, items[i].toDomain(taskID, k.Name))
	}
	sortItems(t.Items)
	return &t, nil
}

func (s *taskStore) Create(ctx context.Context, task *domain.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Status == "" {
		task.Status = domain.StatusPending
	}
	now := time.Now().UTC().Truncate(time.Microsecond)
	task.CreatedAt, task.UpdatedAt = now, now
	task.Items = prepareItems(task.ID, task.Items)

	_, err := s.c.ds.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		if _, err := tx.Put(taskKey(task.UserID, task.ID), newTaskEntity(task)); err != nil {
			return err
		}
		return putItems(tx, task.UserID, task.ID, task.Items)
	})
	if err != nil {
		return fmt.Errorf("put task: %w", err)
	}
	return nil
}

// Update reads the task and its checklist before writing anything, since
// Datastore transactions do not observe their own writes.
func (s *taskStore) Update(ctx context.Context, userID, taskID string, patch domain.TaskPatch) (*domain.Task, error) {
	key := taskKey(userID, taskID)
	var updated *domain.Task
	_, err := s.c.ds.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		cur, err := s.get(ctx, tx, userID, taskID)
		if err != nil {
			return err
		}
		e := newTaskEntity(cur)

		if patch.Title != nil {
			e.Title = *patch.Title
		}
		if patch.Description != nil {
			e.Description = *patch.Description
			e.HasDescription = true
		}
		if patch.Status != nil {
			e.Status = string(*patch.Status)
		}
		e.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)

		t := e.toDomain(userID, taskID)
		t.Items = cur.Items
		if patch.Items != nil {
			if len(cur.Items) > 0 {
				oldKeys := make([]*datastore.Key, len(cur.Items))
				for i, it := range cur.Items {
					oldKeys[i] = itemKey(userID, taskID, it.ID)
				}
				if err := tx.DeleteMulti(oldKeys); err != nil {
					return err
				}
			}
			t.Items = prepareItems(taskID, *patch.Items)
			if err := putItems(tx, userID, taskID, t.Items); err != nil {
				return err
			}
		}

		if _, err := tx.Put(key, e); err != nil {
			return err
		}
		updated = &t
		return nil
	})
	if err != nil {
		return nil, wrapOp(err, "update task")
	}
	return updated, nil
}

func (s *taskStore) Delete(ctx context.Context, userID, taskID string) error {
	key := taskKey(userID, taskID)
	_, err := s.c.ds.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var e taskEntity
		if err := tx.Get(key, &e); err != nil {
			return WrapDatastoreError(err)
		}
		itemKeys, err := s.c.ds.GetAll(ctx, datastore.NewQuery(KindTaskItem).Ancestor(key).KeysOnly().Transaction(tx), nil)
		if err != nil {
			return err
		}
		return tx.DeleteMulti(append(itemKeys, key))
	})
	return wrapOp(err, "delete task")
}

func (s *taskStore) ToggleItem(ctx context.Context, userID, taskID, itemID string) (*domain.TaskItem, error) {
	var item domain.TaskItem
	_, err := s.c.ds.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var t taskEntity
		if err := tx.Get(taskKey(userID, taskID), &t); err != nil {
			return WrapDatastoreError(err)
		}
		key := itemKey(userID, taskID, itemID)
		var e itemEntity
		if err := tx.Get(key, &e); err != nil {
			return WrapDatastoreError(err)
		}
		e.Completed = !e.Completed
		if _, err := tx.Put(key, &e); err != nil {
			return err
		}
		item = e.toDomain(taskID, itemID)
		return nil
	})
	if err != nil {
		return nil, wrapOp(err, "toggle task item")
	}
	return &item, nil
}

func putItems(tx *datastore.Transaction, userID, taskID string, items []domain.TaskItem) error {
	if len(items) == 0 {
		return nil
	}
	keys := make([]*datastore.Key, len(items))
	entities := make([]itemEntity, len(items))
	for i, it := range items {
		keys[i] = itemKey(userID, taskID, it.ID)
		entities[i] = itemEntity{Text: it.Text, Completed: it.Completed, Order: it.Order}
	}
	_, err := tx.PutMulti(keys, entities)
	return err
}

// prepareItems assigns fresh ids and dense zero-based order from array position.
func prepareItems(taskID string, items []domain.TaskItem) []domain.TaskItem {
	out := make([]domain.TaskItem, len(items))
	for i, it := range items {
		out[i] = domain.TaskItem{
			ID:        uuid.NewString(),
			TaskID:    taskID,
			Text:      it.Text,
			Completed: it.Completed,
			Order:     i,
		}
	}
	return out
}

func sortItems(items []domain.TaskItem) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].Order < items[j].Order })
}
