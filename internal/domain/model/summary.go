package model

// DimensionScores holds one value per scoring axis. Axes a model does not
// use stay zero.
type DimensionScores struct {
	Time         float64 `json:"time"`
	Location     float64 `json:"location"`
	Availability float64 `json:"availability"`
	Skill        float64 `json:"skill"`
	Role         float64 `json:"role"`
	Social       float64 `json:"social"`
	Knowledge    float64 `json:"knowledge"`
}

// Sum adds the dimensions in a fixed order. Aggregators assign the total
// from this method so that total == Sum() holds bit for bit.
func (d DimensionScores) Sum() float64 {
	total := 0.0
	total += d.Time
	total += d.Location
	total += d.Availability
	total += d.Skill
	total += d.Role
	total += d.Social
	total += d.Knowledge
	return total
}

// MatchSummary is one ranked candidate with its explanation.
type MatchSummary struct {
	UserID     string          `json:"user_id"`
	Nickname   string          `json:"nickname"`
	SkillLevel int             `json:"skill_level"`
	Role       Role            `json:"self_role"`
	TotalScore float64         `json:"total_score"`
	Scores     DimensionScores `json:"scores"`
	Reasons    []string        `json:"reasons"`
	Model      string          `json:"model"`
}
