package service

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"time"

	"github.com/locvowork/task_manager/internal/domain"
	"github.com/locvowork/task_manager/internal/logger"
	"github.com/locvowork/task_manager/pkg/simpleexcel"
)

//go:embed export_layout.yaml
var exportLayout string

const (
	exportTasksSheet = "Tasks"
	exportItemsSheet = "Items"
)

type taskRow struct {
	ID             string
	Title          string
	Description    *string
	Status         domain.TaskStatus
	ItemCount      int
	CompletedItems int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type itemRow struct {
	TaskID    string
	TaskTitle string
	Order     int
	Text      string
	Completed bool
}

var statusLabels = map[domain.TaskStatus]string{
	domain.StatusPending:    "Pending",
	domain.StatusInProgress: "In progress",
	domain.StatusCompleted:  "Completed",
}

func exportFormatters(e *simpleexcel.StreamExporter) {
	e.RegisterFormatter("datetime", func(v interface{}) interface{} {
		if t, ok := v.(time.Time); ok && !t.IsZero() {
			return t.UTC().Format(time.RFC3339)
		}
		return ""
	}).RegisterFormatter("yesno", func(v interface{}) interface{} {
		if b, ok := v.(bool); ok && b {
			return "yes"
		}
		return "no"
	}).RegisterFormatter("status", func(v interface{}) interface{} {
		if s, ok := v.(domain.TaskStatus); ok {
			if label, ok := statusLabels[s]; ok {
				return label
			}
			return string(s)
		}
		return v
	})
}

// Export writes the caller's tasks and checklist items as an xlsx workbook.
func (s *taskService) Export(ctx context.Context, userID string, w io.Writer) error {
	tmpl, err := simpleexcel.ParseReportTemplate(exportLayout)
	if err != nil {
		return fmt.Errorf("failed to parse export layout: %w", err)
	}

	tasks, err := s.repo.List(ctx, userID, domain.TaskFilter{})
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}

	tasksRows := make([]taskRow, 0, len(tasks))
	var itemRows []itemRow
	for _, t := range tasks {
		done := 0
		for _, it := range t.Items {
			if it.Completed {
				done++
			}
			itemRows = append(itemRows, itemRow{
				TaskID:    t.ID,
				TaskTitle: t.Title,
				Order:     it.Order,
				Text:      it.Text,
				Completed: it.Completed,
			})
		}
		tasksRows = append(tasksRows, taskRow{
			ID:             t.ID,
			Title:          t.Title,
			Description:    t.Description,
			Status:         t.Status,
			ItemCount:      len(t.Items),
			CompletedItems: done,
			CreatedAt:      t.CreatedAt,
			UpdatedAt:      t.UpdatedAt,
		})
	}

	exporter := simpleexcel.NewStreamExporter(w)
	exportFormatters(exporter)

	sheets := []struct {
		name string
		rows interface{}
	}{
		{exportTasksSheet, tasksRows},
		{exportItemsSheet, itemRows},
	}
	for _, sh := range sheets {
		sheetTmpl, ok := tmpl.Sheet(sh.name)
		if !ok {
			return fmt.Errorf("export layout has no %s sheet", sh.name)
		}
		sheet, err := exporter.AddTemplateSheet(sheetTmpl)
		if err != nil {
			return fmt.Errorf("failed to start %s sheet: %w", sh.name, err)
		}
		if err := sheet.WriteBatch(sh.rows); err != nil {
			return fmt.Errorf("failed to write %s sheet: %w", sh.name, err)
		}
		logger.DebugLog(ctx, "export for user %s: %d rows on %s sheet", userID, sheet.Rows()-1, sh.name)
	}

	if err := exporter.Close(); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
