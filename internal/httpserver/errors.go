package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/records/internal/errs"
)

// statusOf maps an error kind to its HTTP status and a public message.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, errs.ErrConfiguration):
		return http.StatusInternalServerError, "internal server error"
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, errs.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden, "you don't have enough rights for this operation"
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, errs.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "request canceled"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// fail logs err under event and turns it into an echo.HTTPError.
func fail(l *slog.Logger, event string, err error) error {
	code, msg := statusOf(err)
	if code >= http.StatusInternalServerError {
		l.Error(event, "status", code, "error", err)
	} else {
		l.Warn(event, "status", code, "reason", msg, "error", err)
	}
	if errors.Is(err, errs.ErrValidation) {
		msg = err.Error()
	}
	return echo.NewHTTPError(code, msg)
}
