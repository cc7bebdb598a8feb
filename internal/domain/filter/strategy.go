package filter

import (
	"fmt"
	"strings"

	"github.com/okian/tripbuddy/internal/domain/model"
)

// SkillStrategy names how candidate skill compatibility is judged.
type SkillStrategy string

const (
	// SkillRange keeps candidates whose level is inside the seeker's requested range.
	SkillRange SkillStrategy = "range"
	// SkillDelta keeps candidates within one level of the seeker.
	SkillDelta SkillStrategy = "delta"
)

const maxSkillDelta = 1

// ParseSkillStrategy resolves a configured strategy name.
func ParseSkillStrategy(s string) (SkillStrategy, error) {
	switch st := SkillStrategy(strings.ToLower(strings.TrimSpace(s))); st {
	case SkillRange, SkillDelta:
		return st, nil
	case "":
		return SkillRange, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// Compatible reports whether the candidate's skill suits the seeker.
func (s SkillStrategy) Compatible(seeker model.Seeker, c model.CandidateProfile) bool {
	if s == SkillDelta {
		d := seeker.Profile.SkillLevel - c.SkillLevel
		if d < 0 {
			d = -d
		}
		return d <= maxSkillDelta
	}
	return seeker.Preferences.InSkillRange(c.SkillLevel)
}
