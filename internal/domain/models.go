package domain

import (
	"context"
	"time"
)

// TaskStatus is the lifecycle state of a task. Any status may move to any other.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

const (
	MaxTitleLength = 255
	MaxNameLength  = 255
	MaxEmailLength = 255
)

// User is a registered account. PasswordHash never leaves the service layer.
type User struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:text;not null" json:"-"`
	CreatedAt    time.Time `json:"-"`

	Tasks []Task `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string { return "users" }

// UserSummary is the public view of a user.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Task is a user-owned unit of work with an optional checklist.
type Task struct {
	ID          string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Description *string    `gorm:"type:text" json:"description"`
	Status      TaskStatus `gorm:"type:varchar(20);not null;default:pending;check:chk_tasks_status,status IN ('pending','in_progress','completed')" json:"status"`
	UserID      string     `gorm:"type:varchar(36);not null;index" json:"userId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	Items []TaskItem `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"items"`
}

func (Task) TableName() string { return "tasks" }

// TaskItem is a checklist line. Order is the zero-based position assigned at write time.
type TaskItem struct {
	ID        string `gorm:"type:varchar(36);primaryKey" json:"id"`
	TaskID    string `gorm:"type:varchar(36);not null;index" json:"taskId"`
	Text      string `gorm:"type:text;not null" json:"text"`
	Completed bool   `gorm:"not null;default:false" json:"completed"`
	Order     int    `gorm:"column:order;not null;default:0" json:"order"`
}

func (TaskItem) TableName() string { return "task_items" }

// TaskFilter narrows ListTasks. A nil Status means all statuses.
type TaskFilter struct {
	Status *TaskStatus
}

// TaskPatch carries the fields of a partial update. Nil means "leave as is";
// a non-nil Items replaces the whole checklist, even when empty.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *TaskStatus
	Items       *[]TaskItem
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// TaskRepository implementations scope every call by userID and report
// tasks owned by someone else as not found.
type TaskRepository interface {
	List(ctx context.Context, userID string, filter TaskFilter) ([]Task, error)
	Get(ctx context.Context, userID, taskID string) (*Task, error)
	Create(ctx context.Context, task *Task) error
	Update(ctx context.Context, userID, taskID string, patch TaskPatch) (*Task, error)
	Delete(ctx context.Context, userID, taskID string) error
	ToggleItem(ctx context.Context, userID, taskID, itemID string) (*TaskItem, error)
}
