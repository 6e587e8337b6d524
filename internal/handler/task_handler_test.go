package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/task_manager/internal/auth"
	"github.com/locvowork/task_manager/internal/domain"
	"github.com/locvowork/task_manager/internal/service"
)

type listOnlyService struct {
	service.TaskService
	gotUser string
}

func (s *listOnlyService) List(_ context.Context, userID, _ string) ([]domain.Task, error) {
	s.gotUser = userID
	return []domain.Task{}, nil
}

func TestTaskHandlerReadsUserFromRequestContext(t *testing.T) {
	e := echo.New()
	svc := &listOnlyService{}
	h := NewTaskHandler(svc)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/tasks", nil), rec)
	err := h.ListHandler(c)
	assert.True(t, domain.IsKind(err, domain.KindUnauthorized), "%v", err)
	assert.Empty(t, svc.gotUser)

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req = req.WithContext(auth.ContextWithUserID(req.Context(), "user-1"))
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	require.NoError(t, h.ListHandler(c))
	assert.Equal(t, "user-1", svc.gotUser)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
