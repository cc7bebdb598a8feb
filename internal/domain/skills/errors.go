package skills

import "errors"

// Sentinel kinds for skill analysis.
var (
	ErrVectorNotFound = errors.New("skill vector not found")
	ErrEmptyUserID    = errors.New("user id is required")
)
