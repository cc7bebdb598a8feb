// Package service assembles the matching engine from configuration and
// implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/tripbuddy/internal/adapters/fixture"
	eventqueue "github.com/okian/tripbuddy/internal/adapters/mq/queue"
	workerpool "github.com/okian/tripbuddy/internal/adapters/mq/worker"
	"github.com/okian/tripbuddy/internal/adapters/notify"
	"github.com/okian/tripbuddy/internal/adapters/postgres"
	"github.com/okian/tripbuddy/internal/adapters/repository"
	"github.com/okian/tripbuddy/internal/adapters/workflow"
	"github.com/okian/tripbuddy/internal/config"
	"github.com/okian/tripbuddy/internal/domain/filter"
	"github.com/okian/tripbuddy/internal/domain/model"
	"github.com/okian/tripbuddy/internal/domain/scoring"
	"github.com/okian/tripbuddy/internal/domain/skills"
	"github.com/okian/tripbuddy/internal/matching"
	"github.com/okian/tripbuddy/pkg/logger"
)

// ErrNotStarted is returned by calls made before Start.
var ErrNotStarted = errors.New("service not started")

// Source is everything the engine pulls from the user database.
type Source interface {
	matching.CandidateSource
	matching.ResortCatalog
	matching.FollowGraph
	matching.KnowledgeSource
	skills.EventSource
}

// Service owns the matching components and their lifecycle.
type Service struct {
	mu sync.RWMutex

	cfg *config.Config

	source       Source
	redisClient  redis.UniversalClient
	httpClient   *http.Client
	store        repository.SearchStore
	queue        *eventqueue.InMemoryQueue
	workerPool   *workerpool.Pool
	pipeline     *matching.Pipeline
	orchestrator *matching.Orchestrator
	analyzer     *skills.Analyzer

	closers   []func() error
	cancelRun context.CancelFunc
	started   bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSource replaces the configured user data source.
func WithSource(src Source) Option {
	return func(s *Service) { s.source = src }
}

// WithRedisClient replaces the client built from store.redis.
func WithRedisClient(c redis.UniversalClient) Option {
	return func(s *Service) { s.redisClient = c }
}

// WithHTTPClient sets the client used for the workflow and webhook calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Service) { s.httpClient = hc }
}

// New constructs a Service. A nil cfg selects the defaults.
func New(cfg *config.Config, opts ...Option) *Service {
	if cfg == nil {
		cfg = config.New()
	}
	s := &Service{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds and starts every component. On error everything opened so
// far is closed again.
func (s *Service) Start(ctx context.Context) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	defer func() {
		if err != nil {
			s.closeAll()
		}
	}()

	if err := s.openSource(ctx); err != nil {
		return err
	}
	if err := s.openAnalyzer(); err != nil {
		return err
	}

	if s.cfg.Workflow.Delegated() {
		err = s.startDelegated()
	} else {
		err = s.startLocal(ctx)
	}
	if err != nil {
		return err
	}

	s.started = true
	s.logger.Info(ctx, "matching service started",
		logger.Bool("delegated", s.cfg.Workflow.Delegated()),
		logger.String("store", s.cfg.Store.Backend),
		logger.String("model", s.cfg.Scoring.Model),
	)
	return nil
}

func (s *Service) openSource(ctx context.Context) error {
	if s.source != nil {
		return nil
	}
	src := s.cfg.Source
	switch {
	case src.PostgresDSN != "":
		db, err := postgres.Open(ctx, src.PostgresDSN, 0)
		if err != nil {
			return err
		}
		s.closers = append(s.closers, db.Close)
		s.source = postgres.New(db,
			postgres.WithPoolLimit(uint(max(src.CandidateCap, 0))),
			postgres.WithLogger(s.logger.Named("postgres")),
		)
	case src.FixturePath != "":
		f, err := fixture.Load(src.FixturePath)
		if err != nil {
			return err
		}
		s.source = f
	default:
		s.logger.Warn(ctx, "no user source configured, matching against an empty pool")
		f, err := fixture.Parse(nil)
		if err != nil {
			return err
		}
		s.source = f
	}
	return nil
}

func (s *Service) openAnalyzer() error {
	var vectors skills.VectorStore = repository.NewMemoryVectorStore()
	if dir := s.cfg.Skills.VectorDir; dir != "" {
		b, err := repository.OpenBadgerVectorStore(dir, false,
			repository.WithTTL(s.cfg.Skills.VectorTTL),
			repository.WithLogger(s.logger.Named("badger")),
		)
		if err != nil {
			return err
		}
		s.closers = append(s.closers, b.Close)
		vectors = b
	}
	s.analyzer = skills.NewAnalyzer(s.source, vectors,
		skills.WithLookback(s.cfg.Skills.Lookback),
		skills.WithMaxEvents(s.cfg.Skills.MaxEvents),
		skills.WithLogger(s.logger.Named("skills")),
	)
	return nil
}

func (s *Service) startDelegated() error {
	wf := s.cfg.Workflow
	mode, err := workflow.ParseAuthMode(wf.AuthMode)
	if err != nil {
		return err
	}
	opts := []workflow.Option{workflow.WithLogger(s.logger.Named("workflow"))}
	if s.httpClient != nil {
		opts = append(opts, workflow.WithHTTPClient(s.httpClient))
	}
	switch mode {
	case workflow.AuthSigV4:
		opts = append(opts, workflow.WithSigV4(workflow.SigV4Credentials{
			Region:          wf.Region,
			AccessKeyID:     wf.AccessKeyID,
			SecretAccessKey: wf.SecretAccessKey,
			SessionToken:    wf.SessionToken,
			Service:         wf.Service,
		}))
	default:
		opts = append(opts, workflow.WithAPIKey(wf.APIKey))
	}
	client, err := workflow.New(wf.BaseURL, opts...)
	if err != nil {
		return err
	}

	s.orchestrator, err = matching.NewOrchestrator(nil, nil,
		matching.WithDelegator(client),
		matching.WithCallbackWebhook(wf.CallbackWebhook),
		matching.WithWorkflowTimeout(wf.Timeout),
		matching.WithLogger(s.logger.Named("orchestrator")),
	)
	return err
}

func (s *Service) startLocal(ctx context.Context) error {
	if err := s.openStore(ctx); err != nil {
		return err
	}

	aggregator, err := NewAggregator(s.cfg.Scoring)
	if err != nil {
		return err
	}
	strategy, err := filter.ParseSkillStrategy(s.cfg.Filter.SkillStrategy)
	if err != nil {
		return err
	}

	notifyOpts := []notify.Option{
		notify.WithSecret(s.cfg.Webhook.Secret),
		notify.WithMaxAttempts(s.cfg.Webhook.MaxAttempts),
		notify.WithLogger(s.logger.Named("webhook")),
	}
	if s.httpClient != nil {
		notifyOpts = append(notifyOpts, notify.WithHTTPClient(s.httpClient))
	}

	s.pipeline, err = matching.NewPipeline(s.store, s.source,
		matching.WithResortCatalog(s.source),
		matching.WithFollowGraph(s.source),
		matching.WithKnowledgeSource(s.source),
		matching.WithSkillAnalyzer(s.analyzer),
		matching.WithFilter(filter.New(filter.WithSkillStrategy(strategy), filter.WithLogger(s.logger.Named("filter")))),
		matching.WithAggregator(aggregator),
		matching.WithNotifier(notify.New(s.cfg.Webhook.URL, notifyOpts...)),
		matching.WithFetchConcurrency(s.cfg.Pipeline.FetchConcurrency),
		matching.WithPipelineTimeout(s.cfg.Pipeline.Timeout),
		matching.WithPipelineLogger(s.logger.Named("pipeline")),
	)
	if err != nil {
		return err
	}
	s.closers = append(s.closers, func() error { s.pipeline.Release(); return nil })

	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.cfg.Queue.Size))
	s.orchestrator, err = matching.NewOrchestrator(s.store, s.queue,
		matching.WithLogger(s.logger.Named("orchestrator")),
	)
	if err != nil {
		return err
	}

	// Workers outlive the caller's context so Stop can drain them.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancelRun = cancel
	s.workerPool = workerpool.NewPool(s.cfg.Queue.WorkerCount, s.queue, s.pipeline)
	s.workerPool.Start(runCtx)
	return nil
}

func (s *Service) openStore(ctx context.Context) error {
	st := s.cfg.Store
	opts := []repository.Option{
		repository.WithTTL(st.TTL),
		repository.WithKeyPrefix(st.KeyPrefix),
		repository.WithLogger(s.logger.Named("store")),
	}
	switch st.Backend {
	case config.BackendRedis:
		client := s.redisClient
		if client == nil {
			c, err := repository.NewRedisClient(ctx, st.Redis.Addr, st.Redis.Password, st.Redis.DB)
			if err != nil {
				return err
			}
			s.closers = append(s.closers, c.Close)
			client = c
		}
		s.store = repository.NewRedisStore(client, opts...)
	case config.BackendMemory:
		mem := repository.NewMemoryStore(context.WithoutCancel(ctx), opts...)
		s.closers = append(s.closers, mem.Close)
		s.store = mem
	default:
		return fmt.Errorf("%w: store backend %q", config.ErrInvalidConfig, st.Backend)
	}
	return nil
}

// NewAggregator builds the configured scoring model.
func NewAggregator(cfg config.ScoringConfig) (*scoring.Aggregator, error) {
	name, err := scoring.ParseModel(cfg.Model)
	if err != nil {
		return nil, err
	}
	var m scoring.Model
	switch name {
	case scoring.ModelPercentage:
		pm := scoring.NewPercentageModel()
		if cfg.Threshold > 0 {
			pm.Threshold = cfg.Threshold
		}
		m = pm
	default:
		nm := scoring.NewNormalizedModel()
		nm.Weights = cfg.Weights
		nm.KnowledgeWeight = cfg.KnowledgeWeight
		if cfg.Threshold > 0 {
			nm.Threshold = cfg.Threshold
		}
		if err := nm.Validate(); err != nil {
			return nil, err
		}
		m = nm
	}
	return scoring.NewAggregator(scoring.WithModel(m), scoring.WithLimit(cfg.Limit)), nil
}

// Stop drains queued jobs until ctx ends and then closes every component.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping matching service...")

	var errs []error
	if s.workerPool != nil {
		if err := s.workerPool.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if s.cancelRun != nil {
		s.cancelRun()
	}
	if err := s.closeAll(); err != nil {
		errs = append(errs, err)
	}

	s.started = false
	s.logger.Info(ctx, "matching service stopped")
	return errors.Join(errs...)
}

// closeAll runs the closers in reverse order of opening.
func (s *Service) closeAll() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// Submit starts a search for seekerID.
func (s *Service) Submit(ctx context.Context, seekerID string, prefs model.MatchingPreference) (string, error) {
	o, err := s.orch()
	if err != nil {
		return "", err
	}
	return o.Submit(ctx, seekerID, prefs)
}

// Results returns the state of a search.
func (s *Service) Results(ctx context.Context, searchID string, includeCandidates bool) (model.SearchState, error) {
	o, err := s.orch()
	if err != nil {
		return model.SearchState{}, err
	}
	return o.Results(ctx, searchID, includeCandidates)
}

// Analyze returns a user's skill vector.
func (s *Service) Analyze(ctx context.Context, userID string, refresh bool) (model.SkillVector, error) {
	a, err := s.skills()
	if err != nil {
		return model.SkillVector{}, err
	}
	return a.Analyze(ctx, userID, refresh)
}

// Focus returns a user's learning focus.
func (s *Service) Focus(ctx context.Context, userID string) (model.LearningFocus, error) {
	a, err := s.skills()
	if err != nil {
		return model.LearningFocus{}, err
	}
	return a.Focus(ctx, userID)
}

func (s *Service) orch() (*matching.Orchestrator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.orchestrator, nil
}

func (s *Service) skills() (*skills.Analyzer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.analyzer, nil
}

// Stats returns service statistics for monitoring.
func (s *Service) Stats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":   s.started,
		"delegated": s.cfg.Workflow.Delegated(),
		"store":     s.cfg.Store.Backend,
		"model":     s.cfg.Scoring.Model,
		"time":      time.Now().UTC().Format(time.RFC3339),
	}
	if s.started && s.queue != nil {
		stats["queue_length"] = s.queue.Len(context.Background())
		stats["queue_capacity"] = s.queue.Capacity()
		stats["workers"] = s.workerPool.Size()
	}
	return stats
}
