package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrMissingUser  = errors.New("missing X-User-ID header")
	ErrBodyTooLarge = errors.New("request body too large")
)
