package scoring

import (
	"sort"

	"github.com/okian/tripbuddy/internal/domain/model"
)

const defaultLimit = 50

// Aggregator ranks candidates with a Model.
type Aggregator struct {
	model Model
	limit int
}

// NewAggregator creates an aggregator using the normalized model by default.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		model: NewNormalizedModel(),
		limit: defaultLimit,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Model returns the configured model.
func (a *Aggregator) Model() Model { return a.model }

// Aggregate scores every candidate, keeps those above the model threshold
// and returns them by total score descending. Equal totals keep input order.
// TotalScore is always the sum of the dimension scores.
func (a *Aggregator) Aggregate(in Input) []model.MatchSummary {
	out := make([]model.MatchSummary, 0, len(in.Candidates))
	ps, shared := a.model.(pairScorer)
	for _, c := range in.Candidates {
		var (
			scores  model.DimensionScores
			reasons []string
		)
		if shared {
			p := evaluatePair(in, c)
			scores, reasons = ps.scorePair(in, c, p), reasonsFor(p)
		} else {
			scores, reasons = a.model.Score(in, c), Reasons(in, c)
		}
		total := scores.Sum()
		if !a.model.Include(total) {
			continue
		}
		out = append(out, model.MatchSummary{
			UserID:     c.Profile.UserID,
			Nickname:   c.Profile.Nickname,
			SkillLevel: c.Profile.SkillLevel,
			Role:       c.Profile.Role,
			TotalScore: total,
			Scores:     scores,
			Reasons:    reasons,
			Model:      a.model.Name(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalScore > out[j].TotalScore })
	if a.limit > 0 && len(out) > a.limit {
		out = out[:a.limit]
	}
	return out
}
