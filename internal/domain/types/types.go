// Package types contains the JSON shapes exchanged over the HTTP API.
package types

import "github.com/okian/tripbuddy/internal/domain/model"

// SearchAccepted is returned when a search has been started.
type SearchAccepted struct {
	SearchID string `json:"search_id"`
}

// SearchStatus is the polled view of a search.
type SearchStatus struct {
	SearchID string               `json:"search_id"`
	Status   model.SearchStatus   `json:"status"`
	Results  []model.MatchSummary `json:"results"`
	Error    string               `json:"error,omitempty"`
}

// NewSearchStatus builds the response for a stored state. Results are
// always a list, empty while processing.
func NewSearchStatus(s model.SearchState) SearchStatus {
	results := s.Results
	if results == nil {
		results = []model.MatchSummary{}
	}
	return SearchStatus{SearchID: s.SearchID, Status: s.Status, Results: results, Error: s.Error}
}

// Similarity is the response of the pairwise skill similarity endpoint.
type Similarity struct {
	UserA      string  `json:"user_a"`
	UserB      string  `json:"user_b"`
	Similarity float64 `json:"similarity"`
}

// Error is the body of every non-2xx response.
type Error struct {
	Code     string `json:"code"`
	Message  string `json:"message,omitempty"`
	Field    string `json:"field,omitempty"`
	SearchID string `json:"search_id,omitempty"`
}
