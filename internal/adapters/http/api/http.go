// Package api exposes the matching service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/tripbuddy/internal/domain/model"
	"github.com/okian/tripbuddy/internal/domain/types"
)

// UserHeader carries the authenticated caller. It is set by a trusted proxy.
const UserHeader = "X-User-ID"

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Searches starts searches and reports their state.
type Searches interface {
	Submit(ctx context.Context, seekerID string, prefs model.MatchingPreference) (string, error)
	Results(ctx context.Context, searchID string, includeCandidates bool) (model.SearchState, error)
}

// Skills reads skill vectors and learning focus.
type Skills interface {
	Analyze(ctx context.Context, userID string, refresh bool) (model.SkillVector, error)
	Focus(ctx context.Context, userID string) (model.LearningFocus, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	searchHandler *SearchHandler
	skillsHandler *SkillsHandler
}

// NewServer creates a new API server. skills may be nil, in which case the
// skill endpoints are not registered.
func NewServer(searches Searches, skills Skills, statsProvider StatsProvider) *Server {
	s := &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		searchHandler: NewSearchHandler(searches),
	}
	if skills != nil {
		s.skillsHandler = NewSkillsHandler(skills)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /matching/searches", MetricsMiddleware(s.searchHandler.HandleSubmit, "submit_search"))
	mux.HandleFunc("GET /matching/searches/{search_id}", MetricsMiddleware(s.searchHandler.HandleGet, "get_search"))

	if s.skillsHandler != nil {
		mux.HandleFunc("GET /skills/{user_id}", MetricsMiddleware(s.skillsHandler.HandleVector, "skill_vector"))
		mux.HandleFunc("GET /skills/{user_id}/focus", MetricsMiddleware(s.skillsHandler.HandleFocus, "skill_focus"))
		mux.HandleFunc("GET /skills/{user_id}/similarity/{other_id}", MetricsMiddleware(s.skillsHandler.HandleSimilarity, "skill_similarity"))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, types.Error{Code: code, Message: msg})
}
