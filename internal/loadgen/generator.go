package loadgen

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/okian/tripbuddy/internal/domain/model"
	"github.com/okian/tripbuddy/pkg/logger"
)

const (
	maxWindowDays = 5
	horizonDays   = 60
	maxSkillSpan  = 4
)

var seekingRoles = []model.Role{"", model.RoleBuddy, model.RoleStudent, model.RoleCoach}

// generateSearches creates cfg.Searches valid requests starting from day.
func generateSearches(ctx context.Context, cfg *Config, day model.Date, rng *rand.Rand) []Search {
	logger.Get().Info(ctx, "generating searches", logger.Int("searches", cfg.Searches))

	out := make([]Search, cfg.Searches)
	for i := range out {
		seeker := uuid.NewString()
		if len(cfg.Seekers) > 0 {
			seeker = cfg.Seekers[i%len(cfg.Seekers)]
		}
		out[i] = Search{SeekerID: seeker, Preferences: randomPreference(cfg.Resorts, day, rng)}
	}
	return out
}

func randomPreference(resorts []string, day model.Date, rng *rand.Rand) model.MatchingPreference {
	lo := 1 + rng.IntN(model.MaxSkillLevel)
	hi := min(lo+rng.IntN(maxSkillSpan+1), model.MaxSkillLevel)

	start := day.AddDays(rng.IntN(horizonDays))
	n := 1 + rng.IntN(maxWindowDays)
	dates := make([]model.Date, n)
	for i := range dates {
		dates[i] = start.AddDays(i)
	}

	return model.MatchingPreference{
		SkillLevelMin:         lo,
		SkillLevelMax:         hi,
		PreferredResorts:      []string{resorts[rng.IntN(len(resorts))]},
		Availability:          dates,
		SeekingRole:           seekingRoles[rng.IntN(len(seekingRoles))],
		IncludeKnowledgeScore: rng.IntN(2) == 0,
	}
}

func today() model.Date {
	now := time.Now().UTC()
	return model.NewDate(now.Year(), now.Month(), now.Day())
}
