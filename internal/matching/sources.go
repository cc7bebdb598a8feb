package matching

import (
	"context"

	"github.com/okian/tripbuddy/internal/adapters/workflow"
	"github.com/okian/tripbuddy/internal/domain/model"
)

// CandidateSource lists users eligible for matching.
type CandidateSource interface {
	// Profile returns one user's profile or ErrUserNotFound.
	Profile(ctx context.Context, userID string) (model.CandidateProfile, error)
	// Candidates returns the pool considered for a seeker.
	Candidates(ctx context.Context, seekerID string) ([]model.CandidateProfile, error)
}

// ResortCatalog maps resorts to regions.
type ResortCatalog interface {
	Resorts(ctx context.Context) (model.ResortCatalog, error)
}

// FollowGraph answers who follows whom.
type FollowGraph interface {
	// Following returns the ids userID follows.
	Following(ctx context.Context, userID string) ([]string, error)
	// Followers returns the ids following userID.
	Followers(ctx context.Context, userID string) ([]string, error)
}

// KnowledgeSource returns knowledge-profile scores. Users without a profile
// are absent from the result.
type KnowledgeSource interface {
	KnowledgeScores(ctx context.Context, userIDs []string) (map[string]float64, error)
}

// SearchStore keeps search lifecycle state. Get returns an error matching
// repository.ErrNotFound for unknown or expired searches.
type SearchStore interface {
	SetProcessing(ctx context.Context, searchID, seekerID string) error
	SetCompleted(ctx context.Context, searchID, seekerID string, results []model.MatchSummary) error
	SetFailed(ctx context.Context, searchID, seekerID, reason string) error
	Get(ctx context.Context, searchID string) (model.SearchState, error)
}

// SkillAnalyzer provides skill vectors and learning focus for enrichment.
type SkillAnalyzer interface {
	Analyze(ctx context.Context, userID string, refresh bool) (model.SkillVector, error)
	Focus(ctx context.Context, userID string) (model.LearningFocus, error)
}

// Notifier announces completed searches. It must not block for long and
// never reports failures.
type Notifier interface {
	Notify(ctx context.Context, searchID, seekerID string, results []model.MatchSummary)
}

// Enqueuer hands match jobs to workers without blocking.
type Enqueuer interface {
	Enqueue(ctx context.Context, job model.MatchJob) error
}

// Delegator runs searches on the remote workflow system.
type Delegator interface {
	StartMatchingWorkflow(ctx context.Context, req workflow.StartRequest) (workflow.Ack, error)
	GetSearchStatus(ctx context.Context, searchID string, includeCandidates bool) (workflow.RemoteStatus, error)
}
