package httputil

import (
	"net/http"
)

// HTTPError represents an error that can be sent to clients
type HTTPError struct {
	Status  int    // HTTP status code
	Code    string // Machine-readable error kind, mirrors the domain taxonomy
	Message string // User-facing message
	Cause   error  // Optional wrapped internal error (for logging)
	Details any    // Optional extra context (e.g. validation errors)
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Cause
}

func newError(status int, code, msg string) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: msg}
}

// BadRequest carries one detail value as is, several as a slice.
func BadRequest(msg string, details ...any) error {
	e := newError(http.StatusBadRequest, "InvalidArgument", msg)
	switch len(details) {
	case 0:
	case 1:
		e.Details = details[0]
	default:
		e.Details = details
	}
	return e
}

func NotFound(msg string) error {
	return newError(http.StatusNotFound, "NotFound", msg)
}

// Internal hides err from the client; it is only logged.
func Internal(err error) error {
	e := newError(http.StatusInternalServerError, "Internal", "Something went wrong")
	e.Cause = err
	return e
}

func Unauthorized(msg string) error {
	return newError(http.StatusUnauthorized, "Unauthorized", msg)
}
