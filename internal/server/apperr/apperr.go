// Package apperr defines the closed set of domain error kinds returned by the
// services and their HTTP status mapping.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies application failures for consistent HTTP mapping.
type Kind string

const (
	KindUserNotFound      Kind = "user_not_found"
	KindEmailExists       Kind = "email_exists"
	KindIncorrectPassword Kind = "incorrect_password"
	KindValidation        Kind = "validation"
	KindUnauthorized      Kind = "unauthorized"
	KindForbidden         Kind = "forbidden"
	KindBadRequest        Kind = "bad_request"
	KindInternal          Kind = "internal"
)

// Error is a typed domain failure. Code is the stable machine-readable
// identifier sent to clients; Fields carries per-field validation messages.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// codes holds the default machine code of each kind.
var codes = map[Kind]string{
	KindUserNotFound:      "USER_NOT_FOUND",
	KindEmailExists:       "EMAIL_EXISTS",
	KindIncorrectPassword: "INCORRECT_PASSWORD",
	KindValidation:        "VALIDATION_ERROR",
	KindUnauthorized:      "UNAUTHORIZED",
	KindForbidden:         "FORBIDDEN",
	KindBadRequest:        "BAD_REQUEST",
	KindInternal:          "INTERNAL_SERVER_ERROR",
}

// E builds an Error with the default code of kind.
func E(kind Kind, message string) *Error {
	return &Error{Kind: kind, Code: codes[kind], Message: message}
}

// Validation builds a KindValidation error with one message per field.
func Validation(fields map[string]string) *Error {
	e := E(KindValidation, "request validation failed")
	e.Fields = fields
	return e
}

func UserNotFound() *Error      { return E(KindUserNotFound, "user not found") }
func EmailExists() *Error       { return E(KindEmailExists, "email already exists") }
func IncorrectPassword() *Error { return E(KindIncorrectPassword, "incorrect password") }
func Unauthorized() *Error      { return E(KindUnauthorized, "unauthorized") }
func Forbidden() *Error         { return E(KindForbidden, "forbidden") }
func Internal() *Error          { return E(KindInternal, "internal server error") }

// StatusCode maps kind to an HTTP status. Unknown kinds map to 500.
func StatusCode(kind Kind) int {
	switch kind {
	case KindUserNotFound:
		return http.StatusNotFound
	case KindEmailExists:
		return http.StatusConflict
	case KindIncorrectPassword, KindUnauthorized:
		return http.StatusUnauthorized
	case KindValidation, KindBadRequest:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err carries an *Error of the given kind.
func Is(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}
