package filter

import "errors"

// ErrUnknownStrategy is returned for skill strategy names that do not exist.
var ErrUnknownStrategy = errors.New("unknown skill strategy")
