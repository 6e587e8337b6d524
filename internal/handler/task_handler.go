package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/task_manager/internal/domain"
	"github.com/locvowork/task_manager/internal/logger"
	"github.com/locvowork/task_manager/internal/middleware"
	"github.com/locvowork/task_manager/internal/service"
	"github.com/locvowork/task_manager/internal/service/serviceutils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type TaskHandler struct {
	svc service.TaskService
}

func NewTaskHandler(svc service.TaskService) *TaskHandler {
	return &TaskHandler{svc: svc}
}

func currentUser(c echo.Context) (string, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return "", domain.NewUnauthorizedError("authentication required")
	}
	return id, nil
}

// ListHandler handles GET /tasks?status=
func (h *TaskHandler) ListHandler(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	tasks, err := h.svc.List(c.Request().Context(), userID, c.QueryParam("status"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tasks)
}

// GetHandler handles GET /tasks/:id
func (h *TaskHandler) GetHandler(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	task, err := h.svc.Get(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// CreateHandler handles POST /tasks
func (h *TaskHandler) CreateHandler(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var in service.CreateTaskInput
	if err := c.Bind(&in); err != nil {
		return domain.NewValidationError("invalid request body")
	}

	task, err := h.svc.Create(ctx, userID, in)
	if err != nil {
		return err
	}

	logger.DebugLog(ctx, "user %s created task %s", userID, task.ID)
	return c.JSON(http.StatusCreated, task)
}

// UpdateHandler handles PUT /tasks/:id
func (h *TaskHandler) UpdateHandler(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var in service.UpdateTaskInput
	if err := c.Bind(&in); err != nil {
		return domain.NewValidationError("invalid request body")
	}

	task, err := h.svc.Update(c.Request().Context(), userID, c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// DeleteHandler handles DELETE /tasks/:id
func (h *TaskHandler) DeleteHandler(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	taskID := c.Param("id")
	if err := h.svc.Delete(ctx, userID, taskID); err != nil {
		return err
	}

	logger.DebugLog(ctx, "user %s deleted task %s", userID, taskID)
	return serviceutils.ResponseMessage(c, http.StatusOK, "task deleted")
}

// ToggleItemHandler handles PATCH /tasks/:taskId/items/:itemId/toggle
func (h *TaskHandler) ToggleItemHandler(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	item, err := h.svc.ToggleItem(c.Request().Context(), userID, c.Param("taskId"), c.Param("itemId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

// ExportHandler handles GET /tasks/export
func (h *TaskHandler) ExportHandler(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	// Buffer so a failed export still gets a JSON error instead of a truncated file.
	var buf bytes.Buffer
	if err := h.svc.Export(c.Request().Context(), userID, &buf); err != nil {
		return err
	}

	filename := fmt.Sprintf("tasks_%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Response().Header().Set(echo.HeaderContentLength, strconv.Itoa(buf.Len()))
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}
