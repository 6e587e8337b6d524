package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/task_manager/internal/auth"
	"github.com/locvowork/task_manager/internal/domain"
	"github.com/locvowork/task_manager/internal/logger"
)

// TokenVerifier returns the user id embedded in a valid token.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Auth rejects requests without a valid bearer token and attaches the
// token's user id to the request context.
func Auth(tokens TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return domain.NewUnauthorizedError("authorization header required")
			}

			scheme, token, ok := strings.Cut(header, " ")
			token = strings.TrimSpace(token)
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				return domain.NewUnauthorizedError("invalid authorization header format")
			}

			userID, err := tokens.Verify(token)
			if err != nil {
				logger.DebugLog(ctx, "rejected bearer token: %v", err)
				return domain.NewUnauthorizedError("invalid or expired token")
			}

			c.SetRequest(c.Request().WithContext(auth.ContextWithUserID(ctx, userID)))
			return next(c)
		}
	}
}

// UserID returns the id stored by Auth.
func UserID(c echo.Context) (string, bool) {
	return auth.UserIDFromContext(c.Request().Context())
}
