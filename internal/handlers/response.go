package handlers

import (
	"net/http"

	"github.com/anonto42/story-branch/backend/internal/services"
	"github.com/labstack/echo/v4"
)

var kindStatus = map[services.Kind]int{
	services.KindInvalidArgument:     http.StatusBadRequest,
	services.KindNotFound:            http.StatusNotFound,
	services.KindForbidden:           http.StatusForbidden,
	services.KindConflict:            http.StatusConflict,
	services.KindUnauthorized:        http.StatusUnauthorized,
	services.KindStructuralIntegrity: http.StatusInternalServerError,
	services.KindInternal:            http.StatusInternalServerError,
}

// respond writes the success envelope shared by every endpoint
func respond(c echo.Context, status int, data interface{}, message string) error {
	return c.JSON(status, echo.Map{
		"success":     true,
		"status_code": status,
		"data":        data,
		"message":     message,
	})
}

// fail maps a service error to an HTTP error with a stable kind and message
func fail(err error) error {
	kind := services.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	he := echo.NewHTTPError(status, echo.Map{
		"success": false,
		"error":   string(kind),
		"message": services.MessageOf(err),
	})
	return he.SetInternal(err)
}

// badRequest reports malformed input detected before reaching a service
func badRequest(message string) error {
	return echo.NewHTTPError(http.StatusBadRequest, echo.Map{
		"success": false,
		"error":   string(services.KindInvalidArgument),
		"message": message,
	})
}

// bindAndValidate binds the request into req and runs the installed validator
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return badRequest("Invalid request payload")
	}
	if err := c.Validate(req); err != nil {
		return badRequest(err.Error())
	}
	return nil
}
