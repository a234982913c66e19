package client

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials is returned by Login when the resource layer
	// rejects the email/password pair.
	ErrInvalidCredentials = errors.New("invalid login credentials")

	// ErrSessionExpired is returned once the refresh flow also fails; the
	// local session has already been cleared when this surfaces.
	ErrSessionExpired = errors.New("session expired")
)

// APIError is a non-2xx response with the server's message field verbatim.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// NetworkError wraps transport-level failures, timeouts included. These are
// surfaced to the user as retryable rather than fatal.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "network error: " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }
