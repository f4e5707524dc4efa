// Package errs holds the error taxonomy shared by the ledger, the room engine
// and the transport layers. Callers wrap these sentinels with context and
// match them with errors.Is.
package errs

import (
	"errors"
	"net/http"
)

// Error is one kind of the taxonomy. Each kind knows the HTTP status it
// answers with, so transports need not import this package to map it.
type Error struct {
	code   string
	status int
	msg    string
}

func (e *Error) Error() string { return e.msg }

// Code is the taxonomy name, e.g. "NotAMember".
func (e *Error) Code() string { return e.code }

func (e *Error) HTTPStatus() int { return e.status }

var (
	ErrNotFound          = &Error{"NotFound", http.StatusNotFound, "not found"}
	ErrNotAMember        = &Error{"NotAMember", http.StatusForbidden, "not a member"}
	ErrNotHost           = &Error{"NotHost", http.StatusForbidden, "host privilege required"}
	ErrForbidden         = &Error{"Forbidden", http.StatusForbidden, "forbidden"}
	ErrAlreadyFinalized  = &Error{"AlreadyFinalized", http.StatusConflict, "ratings already finalized"}
	ErrInvalidEmotionKey = &Error{"InvalidEmotionKey", http.StatusBadRequest, "invalid emotion key"}
	ErrInvalidArgument   = &Error{"InvalidArgument", http.StatusBadRequest, "invalid argument"}
	ErrConflict          = &Error{"Conflict", http.StatusConflict, "already exists"}
	ErrInternal          = &Error{"Internal", http.StatusInternalServerError, "internal error"}
)

// ErrRoomClosed is returned for commands that reach a room after disposal.
var ErrRoomClosed = &kindError{kind: ErrNotFound, msg: "room closed"}

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// Kind returns the taxonomy name of err, or "Internal" when err does not
// belong to the taxonomy.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}
	return "Internal"
}
