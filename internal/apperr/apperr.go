// Package apperr carries the typed errors every operation returns. Handlers map
// them to HTTP status codes exactly once, at the boundary.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an AppError.
type Kind string

const (
	Validation       Kind = "validation"
	Authentication   Kind = "authentication"
	NotFound         Kind = "not_found"
	Gateway          Kind = "gateway"
	Unauthorized     Kind = "unauthorized"
	Forbidden        Kind = "forbidden"
	MethodNotAllowed Kind = "method_not_allowed"
	Internal         Kind = "internal"
)

const internalMsg = "internal server error"

// AppError pairs a caller-safe message with the underlying cause.
type AppError struct {
	Kind      Kind
	PublicMsg string // safe to show to the caller
	Err       error  // internal cause, logged only
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.PublicMsg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.PublicMsg)
}

func (e *AppError) Unwrap() error { return e.Err }

func ValidationErr(msg string) *AppError {
	return &AppError{Kind: Validation, PublicMsg: msg}
}

// AuthenticationErr reports a failed signature check. It maps to 400, not 401,
// so the response does not reveal which check failed.
func AuthenticationErr(msg string) *AppError {
	return &AppError{Kind: Authentication, PublicMsg: msg}
}

func NotFoundErr(msg string) *AppError {
	return &AppError{Kind: NotFound, PublicMsg: msg}
}

// GatewayErr passes the upstream rejection text through to the caller.
func GatewayErr(msg string) *AppError {
	return &AppError{Kind: Gateway, PublicMsg: msg}
}

func UnauthorizedErr(msg string) *AppError {
	return &AppError{Kind: Unauthorized, PublicMsg: msg}
}

func ForbiddenErr(msg string) *AppError {
	return &AppError{Kind: Forbidden, PublicMsg: msg}
}

func MethodNotAllowedErr(msg string) *AppError {
	return &AppError{Kind: MethodNotAllowed, PublicMsg: msg}
}

// Wrap hides err behind a generic internal error.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Kind: Internal, PublicMsg: internalMsg, Err: err}
}

func As(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsKind reports whether err is an AppError of kind k.
func IsKind(err error, k Kind) bool {
	ae, ok := As(err)
	return ok && ae.Kind == k
}

func HTTPStatus(err error) int {
	ae, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch ae.Kind {
	case Validation, Authentication, Gateway:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case MethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

func PublicMessage(err error) string {
	if ae, ok := As(err); ok && ae.PublicMsg != "" {
		return ae.PublicMsg
	}
	return internalMsg
}
