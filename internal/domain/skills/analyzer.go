package skills

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/okian/tripbuddy/internal/domain/model"
	"github.com/okian/tripbuddy/pkg/logger"
	"github.com/okian/tripbuddy/pkg/metrics"
)

// Default analysis window.
const (
	defaultLookback  = 90 * 24 * time.Hour
	defaultMaxEvents = 500
)

// EventSource returns a user's practice events since a point in time,
// most recent first, at most limit of them.
type EventSource interface {
	PracticeEvents(ctx context.Context, userID string, since time.Time, limit int) ([]model.PracticeEvent, error)
}

// VectorStore caches computed skill vectors.
// GetVector returns ErrVectorNotFound for unknown users.
type VectorStore interface {
	GetVector(ctx context.Context, userID string) (model.SkillVector, error)
	PutVector(ctx context.Context, v model.SkillVector) error
}

// Analyzer infers CASI skill vectors and learning focus from practice events.
type Analyzer struct {
	events    EventSource
	store     VectorStore
	lessons   *LessonTable
	lookback  time.Duration
	maxEvents int
	now       func() time.Time
	logger    logger.Logger
}

// NewAnalyzer creates an analyzer. store may be nil, in which case nothing is cached.
func NewAnalyzer(events EventSource, store VectorStore, opts ...Option) *Analyzer {
	a := &Analyzer{
		events:    events,
		store:     store,
		lessons:   DefaultLessonTable(),
		lookback:  defaultLookback,
		maxEvents: defaultMaxEvents,
		now:       time.Now,
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze returns the user's skill vector. The cached vector is used unless
// refresh is set or nothing is cached yet.
func (a *Analyzer) Analyze(ctx context.Context, userID string, refresh bool) (model.SkillVector, error) {
	if userID == "" {
		return model.SkillVector{}, ErrEmptyUserID
	}
	if !refresh && a.store != nil {
		v, err := a.store.GetVector(ctx, userID)
		switch {
		case err == nil:
			metrics.RecordSkillCacheHit()
			return v, nil
		case !errors.Is(err, ErrVectorNotFound):
			a.logger.Warn(ctx, "skill vector cache read failed", logger.String("user_id", userID), logger.Error(err))
		}
	}
	metrics.RecordSkillCacheMiss()

	events, err := a.recentEvents(ctx, userID)
	if err != nil {
		return model.SkillVector{}, err
	}
	v := a.Compute(userID, events)

	if a.store != nil {
		if err := a.store.PutVector(ctx, v); err != nil {
			a.logger.Warn(ctx, "skill vector cache write failed", logger.String("user_id", userID), logger.Error(err))
		}
	}
	a.logger.Debug(ctx, "skill vector computed",
		logger.String("user_id", userID),
		logger.Int("events", len(events)),
	)
	return v, nil
}

// Compute builds a vector from events. For every component a lesson trains,
// the normalized rating times the lesson weight is accumulated; the score is
// the accumulated value divided by the number of contributing events.
func (a *Analyzer) Compute(userID string, events []model.PracticeEvent) model.SkillVector {
	var acc, count [5]float64
	for _, e := range events {
		w := a.lessons.Lookup(e.LessonID)
		r := e.NormalizedRating()
		for i, c := range model.SkillComponents {
			if weight := w[c]; weight > 0 {
				acc[i] += r * weight
				count[i]++
			}
		}
	}
	var vals [5]float64
	for i := range vals {
		if count[i] > 0 {
			vals[i] = acc[i] / count[i]
		}
	}
	v := model.SkillVector{UserID: userID, SampleCount: len(events), UpdatedAt: a.now().UTC()}
	return v.WithValues(vals)
}

// recentEvents loads the lookback window, newest first, capped at maxEvents.
func (a *Analyzer) recentEvents(ctx context.Context, userID string) ([]model.PracticeEvent, error) {
	if a.events == nil {
		return nil, nil
	}
	since := a.now().Add(-a.lookback)
	events, err := a.events.PracticeEvents(ctx, userID, since, a.maxEvents)
	if err != nil {
		return nil, fmt.Errorf("load practice events for %s: %w", userID, err)
	}
	sorted := make([]model.PracticeEvent, 0, len(events))
	for _, e := range events {
		if e.OccurredAt.Before(since) {
			continue
		}
		sorted = append(sorted, e)
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].OccurredAt.After(sorted[j].OccurredAt) })
	if len(sorted) > a.maxEvents {
		sorted = sorted[:a.maxEvents]
	}
	return sorted, nil
}
