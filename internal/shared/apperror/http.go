package apperror

import (
	"context"
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
)

type HTTPError struct {
	Status    int
	Code      string
	Message   string
	Details   any
	Retryable bool
}

// ToHTTP maps any error to the status, code and message sent to clients.
// Unknown errors never leak their text.
func ToHTTP(err error) HTTPError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return HTTPError{
			Status:    appErr.HTTPStatus,
			Code:      appErr.Code,
			Message:   appErr.Message,
			Retryable: appErr.Retryable,
		}
	}

	if IsRetryable(err) {
		return HTTPError{
			Status:    ErrUnavailable.HTTPStatus,
			Code:      ErrUnavailable.Code,
			Message:   ErrUnavailable.Message,
			Retryable: true,
		}
	}

	return HTTPError{
		Status:  ErrInternal.HTTPStatus,
		Code:    ErrInternal.Code,
		Message: ErrInternal.Message,
	}
}

// IsRetryable reports store failures that are worth retrying: deadlines,
// network errors and postgres connection/availability classes.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		switch pgErr.Code[:2] {
		case "08", "53", "57", "40":
			return true
		}
	}
	return false
}
