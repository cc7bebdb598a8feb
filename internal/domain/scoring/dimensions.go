// Package scoring turns seeker/candidate pairs into bounded, explainable
// compatibility scores. Dimension scorers are pure functions taking the
// dimension maximum as a parameter; a Model combines them.
package scoring

import (
	"math"
	"strings"

	"github.com/okian/tripbuddy/internal/domain/model"
)

// Skill band factors for SkillPercentage.
const (
	skillNearFactor = 0.75
	skillFarFactor  = 0.25

	roleCoachFactor = 0.8
	roleOtherFactor = 0.1

	neutralValue    = 0.5
	knowledgeSpread = 100.0
)

// FollowRelation describes the follow edges between seeker and candidate.
type FollowRelation int

const (
	FollowNone FollowRelation = iota
	FollowOneWay
	FollowMutual
)

// Relation derives the relation from the two directed edges.
func Relation(seekerFollows, followedBy bool) FollowRelation {
	switch {
	case seekerFollows && followedBy:
		return FollowMutual
	case seekerFollows || followedBy:
		return FollowOneWay
	}
	return FollowNone
}

// TimeOverlap scores overlapping days relative to the mean trip length.
// Identical ranges score maxScore; disjoint ranges score 0.
func TimeOverlap(a, b model.DateRange, maxScore float64) float64 {
	if a.Days() == 0 || b.Days() == 0 {
		return 0
	}
	if a.Equal(b) {
		return maxScore
	}
	overlap := a.Overlap(b)
	if overlap == 0 {
		return 0
	}
	avg := float64(a.Days()+b.Days()) / 2
	return math.Min(maxScore, float64(overlap)/avg*maxScore)
}

// Location scores maxScore for the same resort and half of maxScore for a shared region.
func Location(resortA, resortB string, regionsA, regionsB []string, maxScore float64) float64 {
	if resortA != "" && strings.EqualFold(resortA, resortB) {
		return maxScore
	}
	if model.Overlaps(regionsA, regionsB) {
		return maxScore / 2
	}
	return 0
}

// SkillPercentage scores the level gap in bands: equal, one apart, further.
func SkillPercentage(a, b int, maxScore float64) float64 {
	switch skillDelta(a, b) {
	case 0:
		return maxScore
	case 1:
		return skillNearFactor * maxScore
	}
	return skillFarFactor * maxScore
}

// SkillInRange is 1 when level lies within [lo, hi] and 0 otherwise.
func SkillInRange(level, lo, hi int) float64 {
	if level >= lo && level <= hi {
		return 1
	}
	return 0
}

func skillDelta(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

// Role scores how well a candidate's own role fits the sought role.
func Role(wants, has model.Role, maxScore float64) float64 {
	switch {
	case wants == has:
		return maxScore
	case wants == model.RoleBuddy && has == model.RoleCoach:
		return roleCoachFactor * maxScore
	}
	return roleOtherFactor * maxScore
}

// Social scores the follow relation.
func Social(rel FollowRelation, maxScore float64) float64 {
	switch rel {
	case FollowMutual:
		return maxScore
	case FollowOneWay:
		return maxScore / 2
	}
	return 0
}

// Knowledge compares two knowledge-profile scores. A missing side is neutral.
func Knowledge(a, b *float64) float64 {
	if a == nil || b == nil {
		return neutralValue
	}
	return 1 - math.Min(1, math.Abs(*a-*b)/knowledgeSpread)
}

// Availability is the share of the smaller availability set that the other
// set also contains. An empty side is neutral.
func Availability(a, b []model.Date) float64 {
	if len(a) == 0 || len(b) == 0 {
		return neutralValue
	}
	shared := sharedDates(a, b)
	smaller := len(a)
	if len(b) < smaller {
		smaller = len(b)
	}
	return math.Min(1, float64(shared)/float64(smaller))
}

func sharedDates(a, b []model.Date) int {
	set := make(map[string]struct{}, len(a))
	for _, d := range a {
		set[d.String()] = struct{}{}
	}
	n := 0
	seen := make(map[string]struct{}, len(b))
	for _, d := range b {
		k := d.String()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if _, ok := set[k]; ok {
			n++
		}
	}
	return n
}
