package model

import (
	"fmt"
	"sort"
	"strings"
)

// Skill level bounds accepted in preferences and profiles.
const (
	MinSkillLevel = 1
	MaxSkillLevel = 10
)

// Role is what a user wants to be, or is looking for, on a trip.
type Role string

// Known roles.
const (
	RoleBuddy   Role = "buddy"
	RoleStudent Role = "student"
	RoleCoach   Role = "coach"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleBuddy, RoleStudent, RoleCoach:
		return true
	}
	return false
}

// MatchingPreference is the request-scoped description of what a seeker wants.
type MatchingPreference struct {
	SkillLevelMin         int      `json:"skill_level_min"`
	SkillLevelMax         int      `json:"skill_level_max"`
	PreferredResorts      []string `json:"preferred_resorts"`
	PreferredRegions      []string `json:"preferred_regions"`
	Availability          []Date   `json:"availability"`
	SeekingRole           Role     `json:"seeking_role"`
	IncludeKnowledgeScore bool     `json:"include_knowledge_score"`
}

// Normalize collapses duplicate set members, sorts sets and applies the
// default seeking role. It returns a copy.
func (p MatchingPreference) Normalize() MatchingPreference {
	out := p
	out.PreferredResorts = normalizeSet(p.PreferredResorts)
	out.PreferredRegions = normalizeSet(p.PreferredRegions)
	out.Availability = normalizeDates(p.Availability)
	if out.SeekingRole == "" {
		out.SeekingRole = RoleBuddy
	}
	return out
}

// Validate checks the preference bounds.
func (p MatchingPreference) Validate() error {
	switch {
	case p.SkillLevelMin < MinSkillLevel || p.SkillLevelMin > MaxSkillLevel:
		return NewValidationError("skill_level_min", fmt.Sprintf("must be between %d and %d", MinSkillLevel, MaxSkillLevel))
	case p.SkillLevelMax < MinSkillLevel || p.SkillLevelMax > MaxSkillLevel:
		return NewValidationError("skill_level_max", fmt.Sprintf("must be between %d and %d", MinSkillLevel, MaxSkillLevel))
	case p.SkillLevelMin > p.SkillLevelMax:
		return NewValidationError("skill_level_min", "must not exceed skill_level_max")
	case p.SeekingRole != "" && !p.SeekingRole.Valid():
		return NewValidationError("seeking_role", fmt.Sprintf("unknown role %q", p.SeekingRole))
	}
	for _, d := range p.Availability {
		if d.IsZero() {
			return NewValidationError("availability", "dates must be set")
		}
	}
	return nil
}

// InSkillRange reports whether level lies within [SkillLevelMin, SkillLevelMax].
func (p MatchingPreference) InSkillRange(level int) bool {
	return level >= p.SkillLevelMin && level <= p.SkillLevelMax
}

func normalizeSet(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func normalizeDates(in []Date) []Date {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]Date, 0, len(in))
	for _, d := range in {
		key := d.String()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j].Time) })
	return out
}

// Overlaps reports whether the two sets share a member. Inputs need not be sorted.
func Overlaps(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	for _, v := range b {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}
