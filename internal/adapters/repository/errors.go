package repository

import "errors"

// Sentinel errors for the stores.
var (
	ErrNotFound    = errors.New("search not found")
	ErrEmptySearch = errors.New("search id is empty")
	ErrStoreClosed = errors.New("store is closed")
)
