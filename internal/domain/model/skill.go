package model

import (
	"math"
	"time"
)

// SkillComponent names one axis of the CASI skill vector.
type SkillComponent string

// The five CASI components.
const (
	StanceBalance      SkillComponent = "stance_balance"
	Rotation           SkillComponent = "rotation"
	Edging             SkillComponent = "edging"
	Pressure           SkillComponent = "pressure"
	TimingCoordination SkillComponent = "timing_coordination"
)

// SkillComponents lists the components in vector order.
var SkillComponents = [...]SkillComponent{StanceBalance, Rotation, Edging, Pressure, TimingCoordination}

// SkillVector is a rider's inferred proficiency, each component in [0,1].
type SkillVector struct {
	UserID             string    `json:"user_id"`
	StanceBalance      float64   `json:"stance_balance"`
	Rotation           float64   `json:"rotation"`
	Edging             float64   `json:"edging"`
	Pressure           float64   `json:"pressure"`
	TimingCoordination float64   `json:"timing_coordination"`
	SampleCount        int       `json:"sample_count"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Values returns the components in SkillComponents order.
func (v SkillVector) Values() [5]float64 {
	return [5]float64{v.StanceBalance, v.Rotation, v.Edging, v.Pressure, v.TimingCoordination}
}

// WithValues returns a copy of v with components taken from vals, clamped to [0,1].
func (v SkillVector) WithValues(vals [5]float64) SkillVector {
	v.StanceBalance = Clamp01(vals[0])
	v.Rotation = Clamp01(vals[1])
	v.Edging = Clamp01(vals[2])
	v.Pressure = Clamp01(vals[3])
	v.TimingCoordination = Clamp01(vals[4])
	return v
}

// Clamp01 limits x to [0,1]; NaN maps to 0.
func Clamp01(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return math.Max(0, math.Min(1, x))
}

// DefaultRating is assumed when a practice event carries no rating.
const DefaultRating = 3.0

// MaxRating is the top of the rating scale.
const MaxRating = 5.0

// PracticeEvent is one completed lesson or drill.
type PracticeEvent struct {
	UserID     string    `json:"user_id"`
	LessonID   string    `json:"lesson_id"`
	Rating     *float64  `json:"rating,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NormalizedRating maps the rating onto [0,1], using DefaultRating when absent.
func (e PracticeEvent) NormalizedRating() float64 {
	r := DefaultRating
	if e.Rating != nil {
		r = *e.Rating
	}
	return Clamp01(r / MaxRating)
}

// Trend describes the direction of one component over recent practice.
type Trend string

// Trend labels.
const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// LearningFocus summarizes what a user is currently practicing.
type LearningFocus struct {
	UserID          string                   `json:"user_id"`
	PrimarySkill    SkillComponent           `json:"primary_skill"`
	RecentLessonIDs []string                 `json:"recent_lesson_ids"`
	SkillTrend      map[SkillComponent]Trend `json:"skill_trend"`
	FocusStrength   float64                  `json:"focus_strength"`
}
