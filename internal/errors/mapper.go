package errors

import (
	"context"
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/emberapp/discovery/internal/utils/pagination"
)

// HTTPStatus converts repo/service errors into an HTTP status code.
// Keeps handlers clean by centralizing error mapping.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound

	case errors.Is(err, ErrInvalidOperation), errors.Is(err, pagination.ErrInvalidToken):
		return http.StatusBadRequest

	case errors.Is(err, ErrQuotaExceeded):
		return http.StatusTooManyRequests

	case errors.Is(err, ErrConflict):
		return http.StatusConflict

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout

	default:
		return http.StatusInternalServerError
	}
}
