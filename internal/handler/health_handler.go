package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/task_manager/internal/logger"
	"github.com/locvowork/task_manager/internal/service/serviceutils"
)

// Pinger checks that the backing store is reachable.
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	ping Pinger
}

func NewHealthHandler(ping Pinger) *HealthHandler {
	return &HealthHandler{ping: ping}
}

// HealthHandler handles GET /healthz
func (h *HealthHandler) HealthHandler(c echo.Context) error {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			logger.ErrorLog(ctx, "health check failed: %v", err)
			return serviceutils.ResponseError(c, http.StatusServiceUnavailable, "store unavailable")
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
