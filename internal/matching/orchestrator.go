// Package matching runs trip-buddy searches. The orchestrator accepts a
// search and either delegates it to the remote workflow system or queues it
// for the local pipeline; callers poll for the outcome by search id.
package matching

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/okian/tripbuddy/internal/adapters/repository"
	"github.com/okian/tripbuddy/internal/adapters/workflow"
	"github.com/okian/tripbuddy/internal/domain/model"
	"github.com/okian/tripbuddy/pkg/logger"
	"github.com/okian/tripbuddy/pkg/metrics"
)

// DefaultWorkflowTimeout is handed to the remote system when none is configured.
const DefaultWorkflowTimeout = 5 * time.Minute

var tracer = otel.Tracer("github.com/okian/tripbuddy/internal/matching")

// Orchestrator accepts searches and answers status queries.
type Orchestrator struct {
	store           SearchStore
	queue           Enqueuer
	workflow        Delegator
	callback        string
	workflowTimeout time.Duration
	newID           func() string
	now             func() time.Time
	logger          logger.Logger
}

// NewOrchestrator creates an orchestrator. The queue is only used when no
// delegator is configured.
func NewOrchestrator(store SearchStore, queue Enqueuer, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		store:           store,
		queue:           queue,
		workflowTimeout: DefaultWorkflowTimeout,
		newID:           uuid.NewString,
		now:             time.Now,
		logger:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.workflow == nil {
		if o.store == nil {
			return nil, ErrStoreRequired
		}
		if o.queue == nil {
			return nil, ErrQueueRequired
		}
	}
	return o, nil
}

// Delegated reports whether searches run on the remote workflow system.
func (o *Orchestrator) Delegated() bool { return o.workflow != nil }

// Submit validates a request, allocates a search id and starts the search.
// Validation errors are returned before any state exists. On ErrBackpressure
// the id is returned with the error and its state is failed.
func (o *Orchestrator) Submit(ctx context.Context, seekerID string, prefs model.MatchingPreference) (string, error) {
	if seekerID == "" {
		return "", ErrEmptySeeker
	}
	if err := prefs.Validate(); err != nil {
		return "", err
	}
	prefs = prefs.Normalize()

	searchID := o.newID()
	metrics.RecordSearchSubmitted()
	if err := o.Start(ctx, searchID, seekerID, prefs); err != nil {
		if errors.Is(err, ErrBackpressure) {
			return searchID, err
		}
		return "", err
	}
	return searchID, nil
}

// Start runs an already identified search.
func (o *Orchestrator) Start(ctx context.Context, searchID, seekerID string, prefs model.MatchingPreference) (err error) {
	ctx, span := tracer.Start(ctx, "matching.start", trace.WithAttributes(
		attribute.String("search.id", searchID),
		attribute.Bool("delegated", o.Delegated()),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if o.workflow != nil {
		return o.delegate(ctx, searchID, seekerID, prefs)
	}

	if err := o.store.SetProcessing(ctx, searchID, seekerID); err != nil {
		return fmt.Errorf("record processing state: %w", err)
	}
	job := model.MatchJob{
		SearchID:    searchID,
		SeekerID:    seekerID,
		Preferences: prefs,
		EnqueuedAt:  o.now(),
	}
	if qerr := o.queue.Enqueue(ctx, job); qerr != nil {
		metrics.RecordSearchFailed("backpressure")
		if ferr := o.store.SetFailed(context.WithoutCancel(ctx), searchID, seekerID, ErrBackpressure.Error()); ferr != nil {
			o.logger.Error(ctx, "failed state not recorded", logger.String("search_id", searchID), logger.Error(ferr))
		}
		o.logger.Warn(ctx, "search rejected", logger.String("search_id", searchID), logger.Error(qerr))
		return fmt.Errorf("%w: %w", ErrBackpressure, qerr)
	}

	o.logger.Info(ctx, "search queued",
		logger.String("search_id", searchID),
		logger.String("seeker_id", seekerID),
	)
	return nil
}

func (o *Orchestrator) delegate(ctx context.Context, searchID, seekerID string, prefs model.MatchingPreference) error {
	ctx, span := tracer.Start(ctx, "matching.delegate")
	defer span.End()

	ack, err := o.workflow.StartMatchingWorkflow(ctx, workflow.StartRequest{
		SearchID:        searchID,
		SeekerID:        seekerID,
		Preferences:     prefs,
		CallbackWebhook: o.callback,
		TimeoutSeconds:  int(o.workflowTimeout / time.Second),
	})
	if err != nil {
		metrics.RecordSearchFailed("delegation")
		span.RecordError(err)
		o.logger.Error(ctx, "delegation failed", logger.String("search_id", searchID), logger.Error(err))
		return fmt.Errorf("%w: %w", ErrDelegation, err)
	}
	metrics.RecordSearchDelegated()
	o.logger.Info(ctx, "search delegated",
		logger.String("search_id", searchID),
		logger.String("execution_id", ack.ExecutionID),
	)
	return nil
}

// Results returns the current state of a search. Unknown and expired
// searches yield a *NotFoundError.
func (o *Orchestrator) Results(ctx context.Context, searchID string, includeCandidates bool) (model.SearchState, error) {
	if o.workflow != nil {
		st, err := o.workflow.GetSearchStatus(ctx, searchID, includeCandidates)
		switch {
		case errors.Is(err, workflow.ErrNotFound):
			return model.SearchState{}, &NotFoundError{SearchID: searchID}
		case err != nil:
			return model.SearchState{}, fmt.Errorf("remote search status: %w", err)
		}
		return st.State(), nil
	}

	st, err := o.store.Get(ctx, searchID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return model.SearchState{}, &NotFoundError{SearchID: searchID}
	case err != nil:
		return model.SearchState{}, fmt.Errorf("read search state: %w", err)
	}
	if st.Results == nil {
		st.Results = []model.MatchSummary{}
	}
	return st, nil
}
