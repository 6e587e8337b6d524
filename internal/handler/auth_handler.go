package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/task_manager/internal/domain"
	"github.com/locvowork/task_manager/internal/logger"
	"github.com/locvowork/task_manager/internal/service"
	"github.com/locvowork/task_manager/internal/service/serviceutils"
)

type AuthHandler struct {
	svc service.AuthService
}

func NewAuthHandler(svc service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// RegisterHandler handles POST /auth/register
func (h *AuthHandler) RegisterHandler(c echo.Context) error {
	ctx := c.Request().Context()
	var in service.RegisterInput
	if err := c.Bind(&in); err != nil {
		return domain.NewValidationError("invalid request body")
	}

	user, err := h.svc.Register(ctx, in)
	if err != nil {
		return err
	}

	logger.InfoLog(ctx, "registered user %s", user.ID)
	return serviceutils.ResponseWithMessage(c, http.StatusCreated, "user created", map[string]interface{}{
		"user": user,
	})
}

// LoginHandler handles POST /auth/login
func (h *AuthHandler) LoginHandler(c echo.Context) error {
	var in service.LoginInput
	if err := c.Bind(&in); err != nil {
		return domain.NewValidationError("invalid request body")
	}

	res, err := h.svc.Login(c.Request().Context(), in)
	if err != nil {
		return err
	}

	return serviceutils.ResponseWithMessage(c, http.StatusOK, "login successful", map[string]interface{}{
		"token": res.Token,
		"user":  res.User,
	})
}
