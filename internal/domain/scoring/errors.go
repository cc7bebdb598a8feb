package scoring

import "errors"

// Sentinel errors for model configuration.
var (
	ErrUnknownModel   = errors.New("unknown scoring model")
	ErrInvalidWeights = errors.New("invalid scoring weights")
)
