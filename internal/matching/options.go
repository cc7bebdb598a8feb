package matching

import (
	"time"

	"github.com/okian/tripbuddy/internal/domain/filter"
	"github.com/okian/tripbuddy/internal/domain/scoring"
	"github.com/okian/tripbuddy/pkg/logger"
)

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithResortCatalog sets the resort to region source.
func WithResortCatalog(c ResortCatalog) PipelineOption {
	return func(p *Pipeline) { p.catalog = c }
}

// WithFollowGraph sets the social graph source.
func WithFollowGraph(g FollowGraph) PipelineOption {
	return func(p *Pipeline) { p.graph = g }
}

// WithKnowledgeSource sets the knowledge-profile source.
func WithKnowledgeSource(k KnowledgeSource) PipelineOption {
	return func(p *Pipeline) { p.knowledge = k }
}

// WithSkillAnalyzer enables skill vector and learning focus enrichment.
func WithSkillAnalyzer(a SkillAnalyzer) PipelineOption {
	return func(p *Pipeline) { p.analyzer = a }
}

// WithFilter replaces the default candidate filter.
func WithFilter(f *filter.Filter) PipelineOption {
	return func(p *Pipeline) {
		if f != nil {
			p.filter = f
		}
	}
}

// WithAggregator replaces the default aggregator.
func WithAggregator(a *scoring.Aggregator) PipelineOption {
	return func(p *Pipeline) {
		if a != nil {
			p.aggregator = a
		}
	}
}

// WithNotifier sets the completion notifier.
func WithNotifier(n Notifier) PipelineOption {
	return func(p *Pipeline) { p.notifier = n }
}

// WithFetchConcurrency sizes the pool used for source fetches.
func WithFetchConcurrency(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.poolSize = n
		}
	}
}

// WithPipelineTimeout bounds one run. Zero disables the bound.
func WithPipelineTimeout(d time.Duration) PipelineOption {
	return func(p *Pipeline) {
		if d >= 0 {
			p.timeout = d
		}
	}
}

// WithPipelineLogger sets the pipeline logger.
func WithPipelineLogger(l logger.Logger) PipelineOption {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithDelegator routes every search to the remote workflow system.
func WithDelegator(d Delegator) Option {
	return func(o *Orchestrator) { o.workflow = d }
}

// WithCallbackWebhook is passed to the remote workflow as callback_webhook.
func WithCallbackWebhook(url string) Option {
	return func(o *Orchestrator) { o.callback = url }
}

// WithWorkflowTimeout is passed to the remote workflow as timeout_seconds.
func WithWorkflowTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.workflowTimeout = d
		}
	}
}

// WithIDGenerator replaces uuid based search ids.
func WithIDGenerator(gen func() string) Option {
	return func(o *Orchestrator) {
		if gen != nil {
			o.newID = gen
		}
	}
}

// WithClock sets the time source used for job timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the orchestrator logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}
