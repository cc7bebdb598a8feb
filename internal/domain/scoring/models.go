package scoring

import (
	"fmt"
	"strings"

	"github.com/okian/tripbuddy/internal/domain/model"
)

// Model names accepted by ParseModel.
const (
	ModelPercentage = "percentage"
	ModelNormalized = "normalized"
)

// Percentage model maxima.
const (
	PercentTimeMax     = 40.0
	PercentLocationMax = 30.0
	PercentSkillMax    = 20.0
	PercentSocialMax   = 10.0

	DefaultPercentageThreshold = 20.0
	DefaultNormalizedThreshold = 0.2
	DefaultKnowledgeWeight     = 0.2
)

// Model turns one pair into dimension scores and decides inclusion.
type Model interface {
	Name() string
	Score(in Input, c Candidate) model.DimensionScores
	Include(total float64) bool
}

// pairScorer is implemented by the built-in models so the aggregator can
// score and explain a candidate from one evaluation.
type pairScorer interface {
	scorePair(in Input, c Candidate, p pair) model.DimensionScores
}

// PercentageModel scores on a 0..100 scale from four banded dimensions.
type PercentageModel struct {
	Threshold float64
}

// NewPercentageModel returns the percentage model with the default threshold.
func NewPercentageModel() PercentageModel {
	return PercentageModel{Threshold: DefaultPercentageThreshold}
}

func (PercentageModel) Name() string { return ModelPercentage }

func (m PercentageModel) Score(in Input, c Candidate) model.DimensionScores {
	return m.scorePair(in, c, evaluatePair(in, c))
}

func (PercentageModel) scorePair(in Input, c Candidate, p pair) model.DimensionScores {
	return model.DimensionScores{
		Time:     p.time * PercentTimeMax,
		Location: p.location * PercentLocationMax,
		Skill:    SkillPercentage(in.Seeker.Profile.SkillLevel, c.Profile.SkillLevel, PercentSkillMax),
		Social:   Social(c.Follow, PercentSocialMax),
	}
}

func (m PercentageModel) Include(total float64) bool { return total > m.Threshold }

// Weights are the normalized model's base dimension weights. They sum to 1.
type Weights struct {
	Time         float64 `koanf:"time"`
	Location     float64 `koanf:"location"`
	Availability float64 `koanf:"availability"`
	Role         float64 `koanf:"role"`
}

// DefaultWeights returns {time .4, location .3, availability .2, role .1}.
func DefaultWeights() Weights {
	return Weights{Time: 0.4, Location: 0.3, Availability: 0.2, Role: 0.1}
}

// Sum adds the weights.
func (w Weights) Sum() float64 { return w.Time + w.Location + w.Availability + w.Role }

// Scale multiplies every weight by k.
func (w Weights) Scale(k float64) Weights {
	return Weights{Time: w.Time * k, Location: w.Location * k, Availability: w.Availability * k, Role: w.Role * k}
}

// NormalizedModel scores on a 0..1 scale as weight times dimension value.
// When the seeker asks for knowledge scoring the base weights are scaled
// down to make room for the knowledge weight.
type NormalizedModel struct {
	Weights         Weights
	KnowledgeWeight float64
	Threshold       float64
}

// NewNormalizedModel returns the normalized model with default weights.
func NewNormalizedModel() NormalizedModel {
	return NormalizedModel{
		Weights:         DefaultWeights(),
		KnowledgeWeight: DefaultKnowledgeWeight,
		Threshold:       DefaultNormalizedThreshold,
	}
}

func (NormalizedModel) Name() string { return ModelNormalized }

func (m NormalizedModel) Score(in Input, c Candidate) model.DimensionScores {
	return m.scorePair(in, c, evaluatePair(in, c))
}

func (m NormalizedModel) scorePair(in Input, _ Candidate, p pair) model.DimensionScores {
	w := m.Weights
	var knowledge float64
	if in.Seeker.Preferences.IncludeKnowledgeScore {
		w = w.Scale(1 - m.KnowledgeWeight)
		knowledge = m.KnowledgeWeight * p.knowledgeSignal
	}
	return model.DimensionScores{
		Time:         w.Time * p.time,
		Location:     w.Location * p.location,
		Availability: w.Availability * p.availability,
		Role:         w.Role * p.role,
		Knowledge:    knowledge,
	}
}

func (m NormalizedModel) Include(total float64) bool { return total > m.Threshold }

// WantsEnrichment reports whether skill vectors and learning focus affect
// the score for this seeker.
func (m NormalizedModel) WantsEnrichment(seeker model.Seeker) bool {
	return seeker.Preferences.IncludeKnowledgeScore && m.KnowledgeWeight > 0
}

// Validate checks that weights are usable.
func (m NormalizedModel) Validate() error {
	if m.KnowledgeWeight < 0 || m.KnowledgeWeight >= 1 {
		return fmt.Errorf("%w: knowledge weight %.2f outside [0,1)", ErrInvalidWeights, m.KnowledgeWeight)
	}
	for _, v := range []float64{m.Weights.Time, m.Weights.Location, m.Weights.Availability, m.Weights.Role} {
		if v < 0 {
			return fmt.Errorf("%w: negative weight", ErrInvalidWeights)
		}
	}
	if s := m.Weights.Sum(); s < 0.999 || s > 1.001 {
		return fmt.Errorf("%w: base weights sum to %.3f", ErrInvalidWeights, s)
	}
	return nil
}

// ParseModel resolves a configured model name.
func ParseModel(name string) (string, error) {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case ModelPercentage, ModelNormalized:
		return n, nil
	case "":
		return ModelNormalized, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModel, name)
}
