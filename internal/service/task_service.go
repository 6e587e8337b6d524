package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/locvowork/task_manager/internal/domain"
)

const (
	msgTaskNotFound = "task not found"
	msgItemNotFound = "task item not found"
	msgTitleEmpty   = "title is required"
	msgItemText     = "item text is required"
)

var msgTitleTooLong = fmt.Sprintf("title must be at most %d characters", domain.MaxTitleLength)

type ItemInput struct {
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

type CreateTaskInput struct {
	Title       string      `json:"title"`
	Description *string     `json:"description"`
	Status      *string     `json:"status"`
	Items       []ItemInput `json:"items"`
}

// UpdateTaskInput is a partial update. A non-nil Items replaces the whole
// checklist, even when it is empty.
type UpdateTaskInput struct {
	Title       *string      `json:"title"`
	Description *string      `json:"description"`
	Status      *string      `json:"status"`
	Items       *[]ItemInput `json:"items"`
}

type TaskService interface {
	List(ctx context.Context, userID string, status string) ([]domain.Task, error)
	Get(ctx context.Context, userID, taskID string) (*domain.Task, error)
	Create(ctx context.Context, userID string, in CreateTaskInput) (*domain.Task, error)
	Update(ctx context.Context, userID, taskID string, in UpdateTaskInput) (*domain.Task, error)
	Delete(ctx context.Context, userID, taskID string) error
	ToggleItem(ctx context.Context, userID, taskID, itemID string) (*domain.TaskItem, error)
	Export(ctx context.Context, userID string, w io.Writer) error
}

type taskService struct {
	repo domain.TaskRepository
}

func NewTaskService(repo domain.TaskRepository) TaskService {
	return &taskService{repo: repo}
}

func (s *taskService) List(ctx context.Context, userID string, status string) ([]domain.Task, error) {
	var filter domain.TaskFilter
	if status != "" {
		st, err := parseStatus(status)
		if err != nil {
			return nil, err
		}
		filter.Status = &st
	}

	tasks, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (s *taskService) Get(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	task, err := s.repo.Get(ctx, userID, taskID)
	if err != nil {
		return nil, translate(err, msgTaskNotFound, "failed to get task")
	}
	return task, nil
}

func (s *taskService) Create(ctx context.Context, userID string, in CreateTaskInput) (*domain.Task, error) {
	title, err := validateTitle(in.Title)
	if err != nil {
		return nil, err
	}
	status := domain.StatusPending
	if in.Status != nil {
		if status, err = parseStatus(*in.Status); err != nil {
			return nil, err
		}
	}
	items, err := toItems(in.Items)
	if err != nil {
		return nil, err
	}

	task := &domain.Task{
		Title:       title,
		Description: in.Description,
		Status:      status,
		UserID:      userID,
		Items:       items,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

func (s *taskService) Update(ctx context.Context, userID, taskID string, in UpdateTaskInput) (*domain.Task, error) {
	var patch domain.TaskPatch
	if in.Title != nil {
		title, err := validateTitle(*in.Title)
		if err != nil {
			return nil, err
		}
		patch.Title = &title
	}
	patch.Description = in.Description
	if in.Status != nil {
		st, err := parseStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		patch.Status = &st
	}
	if in.Items != nil {
		items, err := toItems(*in.Items)
		if err != nil {
			return nil, err
		}
		patch.Items = &items
	}

	task, err := s.repo.Update(ctx, userID, taskID, patch)
	if err != nil {
		return nil, translate(err, msgTaskNotFound, "failed to update task")
	}
	return task, nil
}

func (s *taskService) Delete(ctx context.Context, userID, taskID string) error {
	if err := s.repo.Delete(ctx, userID, taskID); err != nil {
		return translate(err, msgTaskNotFound, "failed to delete task")
	}
	return nil
}

func (s *taskService) ToggleItem(ctx context.Context, userID, taskID, itemID string) (*domain.TaskItem, error) {
	item, err := s.repo.ToggleItem(ctx, userID, taskID, itemID)
	if err != nil {
		return nil, translate(err, msgItemNotFound, "failed to toggle task item")
	}
	return item, nil
}

func validateTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", domain.NewValidationError(msgTitleEmpty)
	}
	if utf8.RuneCountInString(title) > domain.MaxTitleLength {
		return "", domain.NewValidationError(msgTitleTooLong)
	}
	return title, nil
}

func parseStatus(raw string) (domain.TaskStatus, error) {
	st := domain.TaskStatus(raw)
	if !st.Valid() {
		return "", domain.NewValidationError(fmt.Sprintf("invalid status %q: must be one of pending, in_progress, completed", raw))
	}
	return st, nil
}

func toItems(in []ItemInput) ([]domain.TaskItem, error) {
	items := make([]domain.TaskItem, 0, len(in))
	for _, it := range in {
		text := strings.TrimSpace(it.Text)
		if text == "" {
			return nil, domain.NewValidationError(msgItemText)
		}
		items = append(items, domain.TaskItem{Text: text, Completed: it.Completed})
	}
	return items, nil
}

// translate turns a repository not-found into a caller-facing NotFound and
// wraps everything else.
func translate(err error, notFoundMsg, op string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewNotFoundError(notFoundMsg)
	}
	return fmt.Errorf("%s: %w", op, err)
}
