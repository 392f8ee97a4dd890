// Package apperr defines the error taxonomy surfaced to API callers and its
// mapping onto HTTP responses.
package apperr

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Kind classifies an application error.
type Kind string

const (
	KindValidation         Kind = "validation"
	KindConflict           Kind = "conflict"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindUnauthorized       Kind = "unauthorized"
	KindForbidden          Kind = "forbidden"
	KindNotFound           Kind = "not_found"
	// KindEmptyResult is not a failure: it signals a listing with nothing in it.
	KindEmptyResult Kind = "empty_result"
)

var kindStatus = map[Kind]int{
	KindValidation:         http.StatusBadRequest,
	KindConflict:           http.StatusBadRequest,
	KindInvalidCredentials: http.StatusBadRequest,
	KindUnauthorized:       http.StatusUnauthorized,
	KindForbidden:          http.StatusForbidden,
	KindNotFound:           http.StatusNotFound,
	KindEmptyResult:        http.StatusOK,
}

// Error is a caller-facing error with a human readable message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error of the same kind, so errors.Is(err, apperr.NotFound(""))
// style checks work regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Validation reports malformed or out of range input.
func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

// Conflict reports a write that would break a uniqueness rule.
func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Message: msg} }

// InvalidCredentials reports a failed login.
func InvalidCredentials(msg string) *Error {
	return &Error{Kind: KindInvalidCredentials, Message: msg}
}

// Unauthorized reports a missing or invalid bearer token.
func Unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Message: msg} }

// Forbidden reports an authenticated caller acting on someone else's resource.
func Forbidden(msg string) *Error { return &Error{Kind: KindForbidden, Message: msg} }

// NotFound reports a missing resource.
func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

// EmptyResult signals a listing with nothing in it.
func EmptyResult(msg string) *Error { return &Error{Kind: KindEmptyResult, Message: msg} }

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return "", false
}

// Status maps err to an HTTP status code. Unknown errors are 500.
func Status(err error) int {
	if kind, ok := KindOf(err); ok {
		if status, ok := kindStatus[kind]; ok {
			return status
		}
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return http.StatusInternalServerError
}

// Body is the JSON error envelope.
type Body struct {
	Detail string `json:"detail"`
}

// Handler renders errors returned by fiber handlers as {"detail": ...}.
// Internal errors are logged and replaced by a generic message.
func Handler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := Status(err)
		detail := err.Error()
		if status == http.StatusInternalServerError {
			if logger != nil {
				logger.Error("unhandled error", slog.String("path", c.Path()), slog.Any("error", err))
			}
			detail = "internal server error"
		}
		if status == http.StatusUnauthorized {
			c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
		}
		return c.Status(status).JSON(Body{Detail: detail})
	}
}
