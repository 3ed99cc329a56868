package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"finmetrics/internal/provider"
)

// Response is the envelope of every JSON answer.
type Response struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ValidationError describes one rejected request parameter.
type ValidationError struct {
	Code    string `json:"code,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message,omitempty"`
}

func dataResponse(c echo.Context, status int, data any) error {
	return c.JSON(status, Response{Status: status, Message: http.StatusText(status), Data: data})
}

func errorResponse(c echo.Context, status int, message string) error {
	return c.JSON(status, Response{Status: status, Message: message})
}

// StatusOf maps fetch errors onto HTTP statuses.
func StatusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, provider.ErrEmptyResult):
		return http.StatusNotFound
	case errors.Is(err, provider.ErrUnreachable):
		return http.StatusBadGateway
	case errors.Is(err, provider.ErrInvalidTicker), errors.Is(err, provider.ErrUnsupported):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func fetchErrorResponse(c echo.Context, err error) error {
	return errorResponse(c, StatusOf(err), provider.UserMessage(err))
}
