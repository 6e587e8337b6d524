package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/task_manager/internal/domain"
	"github.com/locvowork/task_manager/internal/logger"
	"github.com/locvowork/task_manager/internal/service/serviceutils"
)

const msgInternal = "internal server error"

// StatusFor maps a domain error kind to its HTTP status.
func StatusFor(k domain.Kind) int {
	switch k {
	case domain.KindValidation, domain.KindConflict:
		return http.StatusBadRequest
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// HTTPErrorHandler renders every error as {"error": message}. Unexpected
// errors are logged and hidden behind a generic message.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	ctx := c.Request().Context()

	code := http.StatusInternalServerError
	msg := msgInternal

	var de *domain.Error
	var he *echo.HTTPError
	switch {
	case errors.As(err, &de) && de.Kind != domain.KindInternal:
		code = StatusFor(de.Kind)
		msg = de.Message
	case errors.As(err, &he):
		code = he.Code
		if s, ok := he.Message.(string); ok {
			msg = s
		} else {
			msg = http.StatusText(code)
		}
		if code >= http.StatusInternalServerError {
			logger.ErrorLog(ctx, "%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
		}
	default:
		logger.ErrorLog(ctx, "%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}

	if rerr := serviceutils.ResponseError(c, code, msg); rerr != nil {
		logger.ErrorLog(ctx, "failed to write error response: %v", rerr)
	}
}
