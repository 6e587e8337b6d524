package serviceutils

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func ResponseError(c echo.Context, code int, msg string) error {
	if c.Request().Method == http.MethodHead {
		return c.NoContent(code)
	}
	return c.JSON(code, ErrorResponse{Error: msg})
}

func ResponseMessage(c echo.Context, code int, msg string) error {
	return c.JSON(code, MessageResponse{Message: msg})
}

// ResponseWithMessage merges a message into a payload object, e.g.
// {"message": "...", "user": {...}}.
func ResponseWithMessage(c echo.Context, code int, msg string, fields map[string]interface{}) error {
	body := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["message"] = msg
	return c.JSON(code, body)
}
