package matching

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/okian/tripbuddy/internal/domain/filter"
	"github.com/okian/tripbuddy/internal/domain/model"
	"github.com/okian/tripbuddy/internal/domain/scoring"
	"github.com/okian/tripbuddy/pkg/logger"
	"github.com/okian/tripbuddy/pkg/metrics"
)

// DefaultPipelineTimeout bounds one local run.
const DefaultPipelineTimeout = 2 * time.Minute

// Source names used in logs and the source error metric.
const (
	sourceProfile   = "profile"
	sourcePool      = "candidates"
	sourceResorts   = "resorts"
	sourceFollowing = "following"
	sourceFollowers = "followers"
	sourceKnowledge = "knowledge"
	sourceSkills    = "skills"
)

// Pipeline fetches, filters and ranks candidates for one search and writes
// the terminal state. It implements worker.Runner.
type Pipeline struct {
	store      SearchStore
	candidates CandidateSource
	catalog    ResortCatalog
	graph      FollowGraph
	knowledge  KnowledgeSource
	analyzer   SkillAnalyzer
	filter     *filter.Filter
	aggregator *scoring.Aggregator
	notifier   Notifier

	pool     *ants.Pool
	poolSize int
	timeout  time.Duration
	logger   logger.Logger
}

// NewPipeline creates a pipeline. Optional sources left unset count as empty.
// Call Release when done.
func NewPipeline(store SearchStore, candidates CandidateSource, opts ...PipelineOption) (*Pipeline, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if candidates == nil {
		return nil, ErrSourceRequired
	}
	p := &Pipeline{
		store:      store,
		candidates: candidates,
		filter:     filter.New(),
		aggregator: scoring.NewAggregator(),
		poolSize:   runtime.NumCPU() * 4,
		timeout:    DefaultPipelineTimeout,
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	pool, err := ants.NewPool(p.poolSize, ants.WithPanicHandler(func(r any) {
		metrics.RecordErrorByComponent("matching", "fetch_panic")
		p.logger.Error(context.Background(), "fetch task panicked", logger.Any("panic", r))
	}))
	if err != nil {
		return nil, fmt.Errorf("fetch pool: %w", err)
	}
	p.pool = pool
	return p, nil
}

// Release frees the fetch pool.
func (p *Pipeline) Release() {
	p.pool.Release()
}

// Run executes a queued job and records its outcome. Errors and panics end
// in a failed state carrying the reason.
func (p *Pipeline) Run(ctx context.Context, job model.MatchJob) (err error) { //nolint:gocritic // hugeParam: jobs travel by value
	ctx, span := tracer.Start(ctx, "matching.run", trace.WithAttributes(
		attribute.String("search.id", job.SearchID),
		attribute.String("seeker.id", job.SeekerID),
	))
	defer span.End()

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPipelinePanic, r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			p.fail(ctx, job, err)
		}
		metrics.RecordPipelineLatency(float64(time.Since(start).Milliseconds()))
	}()

	results, err := p.Match(ctx, job.SeekerID, job.Preferences)
	if err != nil {
		return err
	}
	if err := p.store.SetCompleted(ctx, job.SearchID, job.SeekerID, results); err != nil {
		return fmt.Errorf("store results: %w", err)
	}
	metrics.RecordSearchCompleted(len(results))
	span.SetAttributes(attribute.Int("results", len(results)))
	p.logger.Info(ctx, "search completed",
		logger.String("search_id", job.SearchID),
		logger.Int("results", len(results)),
		logger.Duration("took", time.Since(start)),
	)

	if p.notifier != nil {
		p.notifier.Notify(context.WithoutCancel(ctx), job.SearchID, job.SeekerID, results)
	}
	return nil
}

func (p *Pipeline) fail(ctx context.Context, job model.MatchJob, cause error) { //nolint:gocritic // hugeParam: jobs travel by value
	reason := "matching failed"
	switch {
	case errors.Is(cause, context.DeadlineExceeded):
		reason = "matching timed out"
		metrics.RecordSearchFailed("timeout")
	case errors.Is(cause, ErrPipelinePanic):
		metrics.RecordSearchFailed("panic")
	default:
		metrics.RecordSearchFailed("pipeline")
	}
	p.logger.Error(ctx, "search failed",
		logger.String("search_id", job.SearchID),
		logger.Error(cause),
	)
	if err := p.store.SetFailed(context.WithoutCancel(ctx), job.SearchID, job.SeekerID, reason+": "+cause.Error()); err != nil {
		p.logger.Error(ctx, "failed state not recorded", logger.String("search_id", job.SearchID), logger.Error(err))
	}
}

// Match ranks candidates for a seeker. Source failures degrade to empty
// data; only cancellation of ctx is returned as an error.
func (p *Pipeline) Match(ctx context.Context, seekerID string, prefs model.MatchingPreference) ([]model.MatchSummary, error) {
	prefs = prefs.Normalize()

	var (
		profile   model.CandidateProfile
		pool      []model.CandidateProfile
		catalog   model.ResortCatalog
		following []string
		followers []string
	)
	p.parallel(ctx,
		func(ctx context.Context) { profile = p.fetchProfile(ctx, seekerID) },
		func(ctx context.Context) {
			pool = fetch(ctx, p, sourcePool, func() ([]model.CandidateProfile, error) { return p.candidates.Candidates(ctx, seekerID) })
		},
		func(ctx context.Context) {
			if p.catalog != nil {
				catalog = fetch(ctx, p, sourceResorts, func() (model.ResortCatalog, error) { return p.catalog.Resorts(ctx) })
			}
		},
		func(ctx context.Context) {
			if p.graph != nil {
				following = fetch(ctx, p, sourceFollowing, func() ([]string, error) { return p.graph.Following(ctx, seekerID) })
			}
		},
		func(ctx context.Context) {
			if p.graph != nil {
				followers = fetch(ctx, p, sourceFollowers, func() ([]string, error) { return p.graph.Followers(ctx, seekerID) })
			}
		},
	)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seeker := model.NewSeeker(profile, prefs)
	kept, steps := p.filter.Apply(ctx, seeker, pool, catalog)

	in := scoring.Input{
		Seeker:     seeker,
		Catalog:    catalog,
		Candidates: make([]scoring.Candidate, len(kept)),
	}
	followsSet, followersSet := toSet(following), toSet(followers)
	for i, c := range kept {
		_, out := followsSet[c.UserID]
		_, back := followersSet[c.UserID]
		in.Candidates[i] = scoring.Candidate{Profile: c, Follow: scoring.Relation(out, back)}
	}

	if p.wantsEnrichment(seeker) {
		p.enrich(ctx, &in)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	results := p.aggregator.Aggregate(in)
	metrics.RecordCandidates(len(kept), len(results))
	p.logger.Debug(ctx, "candidates ranked",
		logger.String("seeker_id", seekerID),
		logger.Int("pool", len(pool)),
		logger.Int("filtered", len(kept)),
		logger.Int("matched", len(results)),
		logger.Any("steps", steps),
	)
	return results, nil
}

func (p *Pipeline) fetchProfile(ctx context.Context, seekerID string) model.CandidateProfile {
	profile, err := p.candidates.Profile(ctx, seekerID)
	switch {
	case err == nil:
		return profile
	case errors.Is(err, ErrUserNotFound):
		p.logger.Debug(ctx, "seeker has no profile", logger.String("seeker_id", seekerID))
	default:
		metrics.RecordSourceError(sourceProfile)
		p.logger.Warn(ctx, "seeker profile unavailable", logger.String("seeker_id", seekerID), logger.Error(err))
	}
	return model.CandidateProfile{UserID: seekerID, OptedIn: true}
}

func (p *Pipeline) wantsEnrichment(seeker model.Seeker) bool {
	m, ok := p.aggregator.Model().(interface{ WantsEnrichment(model.Seeker) bool })
	return ok && m.WantsEnrichment(seeker)
}

// enrich attaches knowledge scores, skill vectors and learning focus to the
// seeker and every candidate.
func (p *Pipeline) enrich(ctx context.Context, in *scoring.Input) {
	ids := make([]string, 0, len(in.Candidates)+1)
	ids = append(ids, in.Seeker.Profile.UserID)
	for _, c := range in.Candidates {
		ids = append(ids, c.Profile.UserID)
	}

	signals := make([]scoring.Signals, len(ids))
	tasks := make([]func(context.Context), 0, len(ids)+1)
	if p.knowledge != nil {
		tasks = append(tasks, func(ctx context.Context) {
			scores := fetch(ctx, p, sourceKnowledge, func() (map[string]float64, error) { return p.knowledge.KnowledgeScores(ctx, ids) })
			for i, id := range ids {
				if v, ok := scores[id]; ok {
					signals[i].Knowledge = &v
				}
			}
		})
	}
	if p.analyzer != nil {
		for i, id := range ids {
			tasks = append(tasks, func(ctx context.Context) {
				signals[i].Vector, signals[i].Focus = p.skillSignals(ctx, id)
			})
		}
	}
	p.parallel(ctx, tasks...)

	in.SeekerSignals = signals[0]
	for i := range in.Candidates {
		in.Candidates[i].Signals = signals[i+1]
	}
}

// skillSignals loads one user's vector and focus. A user without practice
// history yields nil for both.
func (p *Pipeline) skillSignals(ctx context.Context, userID string) (*model.SkillVector, *model.LearningFocus) {
	var (
		vec   *model.SkillVector
		focus *model.LearningFocus
	)
	if v, err := p.analyzer.Analyze(ctx, userID, false); err != nil {
		metrics.RecordSourceError(sourceSkills)
		p.logger.Warn(ctx, "skill vector unavailable", logger.String("user_id", userID), logger.Error(err))
	} else if v.SampleCount > 0 {
		vec = &v
	}
	if f, err := p.analyzer.Focus(ctx, userID); err != nil {
		metrics.RecordSourceError(sourceSkills)
		p.logger.Warn(ctx, "learning focus unavailable", logger.String("user_id", userID), logger.Error(err))
	} else if len(f.RecentLessonIDs) > 0 {
		focus = &f
	}
	return vec, focus
}

// parallel runs tasks on the fetch pool and waits for all of them. A task
// the pool rejects runs on the calling goroutine.
func (p *Pipeline) parallel(ctx context.Context, tasks ...func(context.Context)) {
	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		run := func() {
			defer wg.Done()
			task(ctx)
		}
		if err := p.pool.Submit(run); err != nil {
			p.logger.Debug(ctx, "fetch pool rejected task", logger.Error(err))
			run()
		}
	}
	wg.Wait()
}

// fetch calls load and degrades a failure to the zero value.
func fetch[T any](ctx context.Context, p *Pipeline, source string, load func() (T, error)) T {
	v, err := load()
	if err != nil {
		var zero T
		metrics.RecordSourceError(source)
		p.logger.Warn(ctx, "source unavailable, continuing without it",
			logger.String("source", source),
			logger.Error(err),
		)
		return zero
	}
	return v
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
