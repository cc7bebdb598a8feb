package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/okian/tripbuddy/internal/domain/model"
	"github.com/okian/tripbuddy/internal/domain/skills"
	"github.com/okian/tripbuddy/internal/domain/types"
)

// SkillsHandler handles the skill analysis endpoints.
type SkillsHandler struct {
	skills Skills
}

// NewSkillsHandler creates a new skills handler.
func NewSkillsHandler(s Skills) *SkillsHandler {
	return &SkillsHandler{skills: s}
}

// HandleVector handles GET /skills/{user_id}[?refresh=true].
func (h *SkillsHandler) HandleVector(w http.ResponseWriter, r *http.Request) {
	refresh := false
	if raw := r.URL.Query().Get("refresh"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		refresh = v
	}
	v, err := h.skills.Analyze(r.Context(), r.PathValue("user_id"), refresh)
	if err != nil {
		writeSkillError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandleFocus handles GET /skills/{user_id}/focus.
func (h *SkillsHandler) HandleFocus(w http.ResponseWriter, r *http.Request) {
	f, err := h.skills.Focus(r.Context(), r.PathValue("user_id"))
	if err != nil {
		writeSkillError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// HandleSimilarity handles GET /skills/{user_id}/similarity/{other_id}.
func (h *SkillsHandler) HandleSimilarity(w http.ResponseWriter, r *http.Request) {
	a, b := r.PathValue("user_id"), r.PathValue("other_id")

	var va, vb model.SkillVector
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) { va, err = h.analyze(ctx, a); return err })
	g.Go(func() (err error) { vb, err = h.analyze(ctx, b); return err })
	if err := g.Wait(); err != nil {
		writeSkillError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.Similarity{UserA: a, UserB: b, Similarity: skills.Similarity(va, vb)})
}

func (h *SkillsHandler) analyze(ctx context.Context, userID string) (model.SkillVector, error) {
	return h.skills.Analyze(ctx, userID, false)
}

func writeSkillError(w http.ResponseWriter, err error) {
	if errors.Is(err, skills.ErrEmptyUserID) {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", err)
}
