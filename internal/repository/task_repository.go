package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/locvowork/task_manager/internal/domain"
)

// "order" is a reserved word; a clause column is quoted by every dialect.
var itemOrder = clause.OrderByColumn{Column: clause.Column{Name: "order"}}

type taskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) domain.TaskRepository {
	return &taskRepository{db: db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order(itemOrder)
	})
}

func (r *taskRepository) List(ctx context.Context, userID string, filter domain.TaskFilter) ([]domain.Task, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}

	tasks := []domain.Task{}
	if err := preloadItems(q).Order("created_at DESC").Order("id").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("select tasks: %w", err)
	}
	for i := range tasks {
		normalizeItems(&tasks[i])
	}
	return tasks, nil
}

func (r *taskRepository) Get(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	return r.get(r.db.WithContext(ctx), userID, taskID)
}

func (r *taskRepository) get(db *gorm.DB, userID, taskID string) (*domain.Task, error) {
	var task domain.Task
	err := preloadItems(db).Where("id = ? AND user_id = ?", taskID, userID).Take(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select task: %w", err)
	}
	normalizeItems(&task)
	return &task, nil
}

// Create inserts the task and its items in one transaction. Item ids, task
// ids and order are assigned here.
func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Status == "" {
		task.Status = domain.StatusPending
	}
	task.Items = prepareItems(task.ID, task.Items)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(task).Error; err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		if len(task.Items) > 0 {
			if err := tx.Create(&task.Items).Error; err != nil {
				return fmt.Errorf("insert task items: %w", err)
			}
		}
		return nil
	})
}

// Update applies patch to an owned task. Field updates and checklist
// replacement commit together or not at all.
func (r *taskRepository) Update(ctx context.Context, userID, taskID string, patch domain.TaskPatch) (*domain.Task, error) {
	var updated *domain.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task domain.Task
		err := tx.Select("id").Where("id = ? AND user_id = ?", taskID, userID).Take(&task).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("select task: %w", err)
		}

		updates := map[string]interface{}{}
		if patch.Title != nil {
			updates["title"] = *patch.Title
		}
		if patch.Description != nil {
			updates["description"] = *patch.Description
		}
		if patch.Status != nil {
			updates["status"] = *patch.Status
		}
		if len(updates) > 0 || patch.Items != nil {
			updates["updated_at"] = time.Now().UTC()
			if err := tx.Model(&domain.Task{}).Where("id = ?", task.ID).Updates(updates).Error; err != nil {
				return fmt.Errorf("update task: %w", err)
			}
		}

		if patch.Items != nil {
			if err := tx.Where("task_id = ?", task.ID).Delete(&domain.TaskItem{}).Error; err != nil {
				return fmt.Errorf("delete task items: %w", err)
			}
			items := prepareItems(task.ID, *patch.Items)
			if len(items) > 0 {
				if err := tx.Create(&items).Error; err != nil {
					return fmt.Errorf("insert task items: %w", err)
				}
			}
		}

		updated, err = r.get(tx, userID, taskID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *taskRepository) Delete(ctx context.Context, userID, taskID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", taskID, userID).Limit(1).Find(&domain.Task{})
		if res.Error != nil {
			return fmt.Errorf("select task: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		// The foreign key cascades on Postgres; sqlite builds without
		// foreign key support still need the explicit delete.
		if err := tx.Where("task_id = ?", taskID).Delete(&domain.TaskItem{}).Error; err != nil {
			return fmt.Errorf("delete task items: %w", err)
		}
		if err := tx.Where("id = ? AND user_id = ?", taskID, userID).Delete(&domain.Task{}).Error; err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		return nil
	})
}

func (r *taskRepository) ToggleItem(ctx context.Context, userID, taskID, itemID string) (*domain.TaskItem, error) {
	var item domain.TaskItem
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned int64
		if err := tx.Model(&domain.Task{}).Where("id = ? AND user_id = ?", taskID, userID).Count(&owned).Error; err != nil {
			return fmt.Errorf("select task: %w", err)
		}
		if owned == 0 {
			return domain.ErrNotFound
		}

		res := tx.Model(&domain.TaskItem{}).
			Where("id = ? AND task_id = ?", itemID, taskID).
			Update("completed", gorm.Expr("NOT completed"))
		if res.Error != nil {
			return fmt.Errorf("toggle task item: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		if err := tx.Where("id = ?", itemID).Take(&item).Error; err != nil {
			return fmt.Errorf("select task item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
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

func normalizeItems(task *domain.Task) {
	if task.Items == nil {
		task.Items = []domain.TaskItem{}
	}
}
