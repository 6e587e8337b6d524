package googlecloud

import (
	"time"

	"cloud.google.com/go/datastore"

	"github.com/locvowork/task_manager/internal/domain"
)

const (
	KindUser      = "User"
	KindUserEmail = "UserEmail"
	KindTask      = "Task"
	KindTaskItem  = "TaskItem"
)

// Entity groups: User > Task > TaskItem. Every task query is an ancestor
// query on the owner's key, so a task outside that group cannot be reached.

func userKey(userID string) *datastore.Key {
	return datastore.NameKey(KindUser, userID, nil)
}

// emailKey reserves an email address; its name is the exact address.
func emailKey(email string) *datastore.Key {
	return datastore.NameKey(KindUserEmail, email, nil)
}

func taskKey(userID, taskID string) *datastore.Key {
	return datastore.NameKey(KindTask, taskID, userKey(userID))
}

func itemKey(userID, taskID, itemID string) *datastore.Key {
	return datastore.NameKey(KindTaskItem, itemID, taskKey(userID, taskID))
}

type userEntity struct {
	Name         string    `datastore:"name,noindex"`
	Email        string    `datastore:"email"`
	PasswordHash string    `datastore:"password_hash,noindex"`
	CreatedAt    time.Time `datastore:"created_at"`
}

type emailEntity struct {
	UserID string `datastore:"user_id,noindex"`
}

type taskEntity struct {
	Title          string    `datastore:"title,noindex"`
	Description    string    `datastore:"description,noindex"`
	HasDescription bool      `datastore:"has_description,noindex"`
	Status         string    `datastore:"status"`
	CreatedAt      time.Time `datastore:"created_at"`
	UpdatedAt      time.Time `datastore:"updated_at"`
}

type itemEntity struct {
	Text      string `datastore:"text,noindex"`
	Completed bool   `datastore:"completed"`
	Order     int    `datastore:"order"`
}

func newUserEntity(u *domain.User) *userEntity {
	return &userEntity{
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}

func (e *userEntity) toDomain(id string) *domain.User {
	return &domain.User{
		ID:           id,
		Name:         e.Name,
		Email:        e.Email,
		PasswordHash: e.PasswordHash,
		CreatedAt:    e.CreatedAt,
	}
}

func newTaskEntity(t *domain.Task) *taskEntity {
	e := &taskEntity{
		Title:     t.Title,
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
	if t.Description != nil {
		e.Description = *t.Description
		e.HasDescription = true
	}
	return e
}

func (e *taskEntity) toDomain(userID, taskID string) domain.Task {
	t := domain.Task{
		ID:        taskID,
		Title:     e.Title,
		Status:    domain.TaskStatus(e.Status),
		UserID:    userID,
		CreatedAt: e.CreatedAt.UTC(),
		UpdatedAt: e.UpdatedAt.UTC(),
		Items:     []domain.TaskItem{},
	}
	if e.HasDescription {
		d := e.Description
		t.Description = &d
	}
	return t
}

func (e *itemEntity) toDomain(taskID, itemID string) domain.TaskItem {
	return domain.TaskItem{
		ID:        itemID,
		TaskID:    taskID,
		Text:      e.Text,
		Completed: e.Completed,
		Order:     e.Order,
	}
}
