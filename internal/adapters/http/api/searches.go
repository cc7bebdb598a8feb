package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/tripbuddy/internal/domain/model"
	"github.com/okian/tripbuddy/internal/domain/types"
	"github.com/okian/tripbuddy/internal/matching"
)

// SearchHandler handles the matching search endpoints.
type SearchHandler struct {
	searches Searches
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(searches Searches) *SearchHandler {
	return &SearchHandler{searches: searches}
}

// HandleSubmit handles POST /matching/searches.
func (h *SearchHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	seekerID := strings.TrimSpace(r.Header.Get(UserHeader))
	if seekerID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized", ErrMissingUser)
		return
	}

	var prefs model.MatchingPreference
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&prefs); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", ErrBodyTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}

	searchID, err := h.searches.Submit(r.Context(), seekerID, prefs)
	if err != nil {
		h.writeSubmitError(w, searchID, err)
		return
	}
	writeJSON(w, http.StatusAccepted, types.SearchAccepted{SearchID: searchID})
}

func (h *SearchHandler) writeSubmitError(w http.ResponseWriter, searchID string, err error) {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, types.Error{Code: "invalid_request", Message: verr.Message, Field: verr.Field})
	case errors.Is(err, matching.ErrEmptySeeker):
		writeError(w, http.StatusUnauthorized, "unauthorized", err)
	case errors.Is(err, matching.ErrBackpressure):
		writeJSON(w, http.StatusTooManyRequests, types.Error{Code: "backpressure", Message: err.Error(), SearchID: searchID})
	case errors.Is(err, matching.ErrDelegation):
		writeError(w, http.StatusBadGateway, "delegation_failed", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// HandleGet handles GET /matching/searches/{search_id}.
func (h *SearchHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	searchID := r.PathValue("search_id")
	if searchID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	include := false
	if raw := r.URL.Query().Get("include_candidates"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: include_candidates must be a boolean", ErrBadRequest))
			return
		}
		include = v
	}

	st, err := h.searches.Results(r.Context(), searchID, include)
	if err != nil {
		var nf *matching.NotFoundError
		if errors.As(err, &nf) {
			writeJSON(w, http.StatusNotFound, types.Error{Code: "not_found", Message: err.Error(), SearchID: nf.SearchID})
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, types.NewSearchStatus(st))
}
