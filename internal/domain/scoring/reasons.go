package scoring

import (
	"fmt"

	"github.com/okian/tripbuddy/internal/domain/model"
)

// Thresholds above which a similarity signal is worth explaining.
const (
	similarKnowledge = 0.8
	similarStyle     = 0.8
	sharedFocus      = 0.6
)

// Reasons explains a pair in human terms, one entry per notable dimension.
func Reasons(in Input, c Candidate) []string {
	return reasonsFor(evaluatePair(in, c))
}

func reasonsFor(p pair) []string {
	reasons := make([]string, 0, 6)
	switch {
	case p.sameDates:
		reasons = append(reasons, "same dates")
	case p.overlapDays > 0:
		reasons = append(reasons, fmt.Sprintf("overlapping dates (%d days)", p.overlapDays))
	}
	switch {
	case p.location >= 1:
		reasons = append(reasons, "same resort")
	case p.location > 0:
		reasons = append(reasons, "same region")
	}
	if p.sharedDays > 0 {
		reasons = append(reasons, "shared availability")
	}
	switch p.skillDelta {
	case 0:
		reasons = append(reasons, "same skill level")
	case 1:
		reasons = append(reasons, "similar skill level")
	}
	switch {
	case p.wants == p.has:
		reasons = append(reasons, "role match")
	case p.wants == model.RoleBuddy && p.has == model.RoleCoach:
		reasons = append(reasons, "coach available")
	}
	switch p.follow {
	case FollowMutual:
		reasons = append(reasons, "mutual follow")
	case FollowOneWay:
		reasons = append(reasons, "one-way follow")
	}
	if p.hasKnowledge && p.knowledge >= similarKnowledge {
		reasons = append(reasons, "similar knowledge")
	}
	if p.hasVectors && p.vectorSim >= similarStyle {
		reasons = append(reasons, "similar riding style")
	}
	if p.hasFocus && p.focusSim >= sharedFocus {
		reasons = append(reasons, "shared learning focus")
	}
	return reasons
}
