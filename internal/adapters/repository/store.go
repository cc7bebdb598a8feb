// Package repository holds the search state and skill vector stores.
package repository

import (
	"context"
	"time"

	"github.com/okian/tripbuddy/internal/domain/model"
)

// Default store settings.
const (
	DefaultTTL             = 3600 * time.Second
	DefaultKeyPrefix       = "tripbuddy:search:"
	defaultJanitorInterval = time.Minute
)

// SearchStore keeps the lifecycle state of searches. Every write replaces
// the whole state and restarts its TTL. Expired and unknown searches both
// return ErrNotFound.
type SearchStore interface {
	SetProcessing(ctx context.Context, searchID, seekerID string) error
	SetCompleted(ctx context.Context, searchID, seekerID string, results []model.MatchSummary) error
	SetFailed(ctx context.Context, searchID, seekerID, reason string) error
	Get(ctx context.Context, searchID string) (model.SearchState, error)
}

// buildState builds the replacement state for a write. prev is the stored
// state if one exists and is used to carry the creation time forward.
func buildState(prev *model.SearchState, now time.Time, ttl time.Duration, searchID, seekerID string, status model.SearchStatus) model.SearchState {
	created := now
	if prev != nil && !prev.CreatedAt.IsZero() {
		created = prev.CreatedAt
	}
	return model.SearchState{
		SearchID:  searchID,
		SeekerID:  seekerID,
		Status:    status,
		Results:   []model.MatchSummary{},
		CreatedAt: created,
		ExpiresAt: now.Add(ttl),
	}
}
