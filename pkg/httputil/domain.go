package httputil

import (
	"context"
	"errors"
	"net/http"
)

// Coded is implemented by application errors that carry a machine-readable
// code and the HTTP status they answer with.
type Coded interface {
	error
	Code() string
	HTTPStatus() int
}

// FromDomain converts an application error into an HTTPError. Errors that
// carry no code become 500s, except an expired deadline which becomes a 504.
func FromDomain(err error) error {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		e := newError(http.StatusGatewayTimeout, "Timeout", "The request took too long, try again")
		e.Cause = err
		return e
	}

	var coded Coded
	if !errors.As(err, &coded) || coded.HTTPStatus() >= http.StatusInternalServerError {
		return Internal(err)
	}
	return &HTTPError{
		Status:  coded.HTTPStatus(),
		Code:    coded.Code(),
		Message: err.Error(),
		Cause:   err,
	}
}
