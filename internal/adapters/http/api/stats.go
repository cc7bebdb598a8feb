package api

import (
	"net/http"
)

// StatsProvider exposes a snapshot of service internals.
type StatsProvider interface {
	Stats() map[string]any
}

// StatsHandler handles stats requests.
type StatsHandler struct {
	statsProvider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsProvider StatsProvider) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	stats := map[string]any{}
	if h.statsProvider != nil {
		stats = h.statsProvider.Stats()
	}
	writeJSON(w, http.StatusOK, stats)
}
