package model

import "time"

// SearchStatus is the lifecycle state of one search.
type SearchStatus string

// Search states. A search moves from processing to exactly one terminal state.
const (
	SearchProcessing SearchStatus = "processing"
	SearchCompleted  SearchStatus = "completed"
	SearchFailed     SearchStatus = "failed"
)

// Terminal reports whether no further writes follow.
func (s SearchStatus) Terminal() bool {
	return s == SearchCompleted || s == SearchFailed
}

// SearchState is the stored view of one search.
type SearchState struct {
	SearchID  string         `json:"search_id"`
	SeekerID  string         `json:"seeker_id,omitempty"`
	Status    SearchStatus   `json:"status"`
	Results   []MatchSummary `json:"results"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// MatchJob is one local search waiting for a worker.
type MatchJob struct {
	SearchID    string
	SeekerID    string
	Preferences MatchingPreference
	EnqueuedAt  time.Time
}
