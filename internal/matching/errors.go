package matching

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the orchestrator.
var (
	ErrNotFound     = errors.New("search not found")
	ErrUserNotFound = errors.New("user not found")
	ErrDelegation   = errors.New("workflow delegation failed")
	ErrBackpressure = errors.New("matching queue is full")
	ErrEmptySeeker  = errors.New("seeker id is required")

	ErrStoreRequired  = errors.New("search store is required")
	ErrSourceRequired = errors.New("candidate source is required")
	ErrQueueRequired  = errors.New("job queue is required")
	ErrPipelinePanic  = errors.New("matching pipeline panicked")
)

// NotFoundError reports an unknown or expired search and echoes its id.
type NotFoundError struct {
	SearchID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("search %s not found", e.SearchID)
}

// Is makes errors.Is(err, ErrNotFound) hold.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
