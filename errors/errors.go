package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrEmptyWords  = fmt.Errorf("no words have been found")

	// ErrStorage marks any persistence failure. Callers on the real-time path
	// log it and abandon the operation.
	ErrStorage = fmt.Errorf("storage unavailable")
	// ErrRecipientOffline is a routing outcome, not a failure.
	ErrRecipientOffline = fmt.Errorf("recipient offline")
	// ErrInvalidEvent is returned for malformed inbound real-time payloads.
	ErrInvalidEvent     = fmt.Errorf("invalid event")
	ErrConnectionClosed = fmt.Errorf("connection closed")
	ErrSendBufferFull   = fmt.Errorf("send buffer full")

	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidCredentials = fmt.Errorf("invalid email or password")
	ErrInvalidPassword    = fmt.Errorf("password must contain at least one uppercase letter and one special character")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrUnauthorized       = fmt.Errorf("not authorized")
	ErrForbidden          = fmt.Errorf("user not authorized")
	ErrNotFound           = fmt.Errorf("not found")
	ErrInvalidInput       = fmt.Errorf("invalid input")
	ErrUnsupportedMedia   = fmt.Errorf("unsupported media type")
	ErrMediaTooLarge      = fmt.Errorf("media too large")
)

// Is and As re-export the standard helpers so callers only import this package.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

// HTTPStatus maps a domain error to the status code returned by the REST layer.
// Ownership failures answer 401.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case Is(err, ErrInvalidInput), Is(err, ErrInvalidPassword), Is(err, ErrUserAlreadyExists):
		return http.StatusBadRequest
	case Is(err, ErrInvalidCredentials), Is(err, ErrUnauthorized), Is(err, ErrForbidden):
		return http.StatusUnauthorized
	case Is(err, ErrNotFound):
		return http.StatusNotFound
	case Is(err, ErrUnsupportedMedia):
		return http.StatusUnsupportedMediaType
	case Is(err, ErrMediaTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
