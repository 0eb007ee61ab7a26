package trigger

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrNotFound      = errors.New("webhook not found")
	ErrMisconfigured = errors.New("misconfigured")
)

/* RejectionError is a terminal resolution outcome
 * No dispatch happens and no audit record is written for a rejection
 */
type RejectionError struct {
	Kind   error
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *RejectionError) Unwrap() error {
	return e.Kind
}

// StatusCode maps the rejection kind to an HTTP status
func (e *RejectionError) StatusCode() int {
	switch {
	case errors.Is(e.Kind, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(e.Kind, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func reject(kind error, reason string) *RejectionError {
	return &RejectionError{Kind: kind, Reason: reason}
}
