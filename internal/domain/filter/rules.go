package filter

import (
	"github.com/okian/tripbuddy/internal/domain/model"
)

type selfRule struct{}

func (selfRule) Name() string { return "self" }

func (selfRule) Keep(env *Env, c model.CandidateProfile) bool {
	return c.UserID != env.Seeker.Profile.UserID
}

type optedInRule struct{}

func (optedInRule) Name() string { return "opted_in" }

func (optedInRule) Keep(_ *Env, c model.CandidateProfile) bool {
	return c.OptedIn
}

type skillRule struct {
	strategy SkillStrategy
}

func (skillRule) Name() string { return "skill" }

func (r skillRule) Keep(env *Env, c model.CandidateProfile) bool {
	return r.strategy.Compatible(env.Seeker, c)
}

// locationRule treats an empty preference on either side as compatible.
type locationRule struct{}

func (locationRule) Name() string { return "location" }

func (locationRule) Keep(env *Env, c model.CandidateProfile) bool {
	sp, cp := env.Seeker.Preferences, c.Preferences.Normalize()
	if len(sp.PreferredResorts) == 0 && len(sp.PreferredRegions) == 0 {
		return true
	}
	if len(cp.PreferredResorts) == 0 && len(cp.PreferredRegions) == 0 {
		return true
	}
	if model.Overlaps(sp.PreferredResorts, cp.PreferredResorts) {
		return true
	}
	return model.Overlaps(
		env.Catalog.Regions(sp.PreferredResorts, sp.PreferredRegions),
		env.Catalog.Regions(cp.PreferredResorts, cp.PreferredRegions),
	)
}

// timeRule requires a candidate trip that intersects the seeker's window.
// A seeker without a window accepts everyone.
type timeRule struct{}

func (timeRule) Name() string { return "time" }

func (timeRule) Keep(env *Env, c model.CandidateProfile) bool {
	if !env.Seeker.HasWindow() {
		return true
	}
	for _, t := range c.EffectiveTrips() {
		if t.Range.Intersects(env.Seeker.Trip.Range) {
			return true
		}
	}
	return false
}

type blockRule struct{}

func (blockRule) Name() string { return "block_list" }

func (blockRule) Keep(env *Env, c model.CandidateProfile) bool {
	_, blocked := env.Blocked[c.UserID]
	return !blocked
}
