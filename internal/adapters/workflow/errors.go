package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the remote system has no record of a search.
	ErrNotFound = errors.New("remote search not found")
	// ErrNoEndpoint is returned by New when the base URL is empty.
	ErrNoEndpoint = errors.New("workflow endpoint not configured")
	// ErrInvalidAuth is returned by New when the selected auth mode lacks credentials.
	ErrInvalidAuth = errors.New("invalid workflow auth")
	// ErrUnknownAuthMode is returned by ParseAuthMode.
	ErrUnknownAuthMode = errors.New("unknown workflow auth mode")
)

// StatusError carries a non-2xx response other than 404.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("workflow %s: unexpected status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("workflow %s: unexpected status %d: %s", e.Op, e.Code, e.Body)
}
