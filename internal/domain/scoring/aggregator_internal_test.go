package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/okian/tripbuddy/internal/domain/model"
)

// plainModel satisfies Model without the shared pair path.
type plainModel struct{ m NormalizedModel }

func (p plainModel) Name() string { return p.m.Name() }

func (p plainModel) Score(in Input, c Candidate) model.DimensionScores { return p.m.Score(in, c) }

func (p plainModel) Include(total float64) bool { return p.m.Include(total) }

func TestAggregate_EvaluatesEachCandidateOnce(t *testing.T) {
	calls := 0
	evaluatePair = func(in Input, c Candidate) pair {
		calls++
		return evaluate(in, c)
	}
	t.Cleanup(func() { evaluatePair = evaluate })

	day := func(d int) model.Date { return model.NewDate(2026, time.January, d) }
	seeker := model.NewSeeker(
		model.CandidateProfile{UserID: "seeker", SkillLevel: 5},
		model.MatchingPreference{SkillLevelMin: 1, SkillLevelMax: 10, PreferredResorts: []string{"niseko"}, Availability: []model.Date{day(1), day(5)}},
	)
	var candidates []Candidate
	for _, id := range []string{"a", "b", "c"} {
		candidates = append(candidates, Candidate{Profile: model.CandidateProfile{
			UserID:     id,
			SkillLevel: 5,
			Role:       model.RoleBuddy,
			Trips:      []model.Trip{{ID: id, UserID: id, ResortID: "niseko", Range: model.DateRange{Start: day(1), End: day(5)}}},
		}})
	}
	in := Input{Seeker: seeker, Candidates: candidates}

	for _, m := range []Model{NewPercentageModel(), NewNormalizedModel()} {
		calls = 0
		out := NewAggregator(WithModel(m)).Aggregate(in)
		assert.Len(t, out, 3, m.Name())
		assert.Equal(t, len(candidates), calls, m.Name())
		for i, s := range out {
			assert.Equal(t, m.Score(in, candidates[i]), s.Scores)
			assert.Equal(t, Reasons(in, candidates[i]), s.Reasons)
		}
	}

	calls = 0
	out := NewAggregator(WithModel(plainModel{NewNormalizedModel()})).Aggregate(in)
	assert.Len(t, out, 3)
	assert.Equal(t, 2*len(candidates), calls)
}
