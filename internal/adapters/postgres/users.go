package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"

	"github.com/okian/tripbuddy/internal/domain/model"
	"github.com/okian/tripbuddy/internal/matching"
	"github.com/okian/tripbuddy/pkg/logger"
)

var userColumns = []any{
	"id", "nickname", "skill_level", "self_role", "opted_in",
	"skill_level_min", "skill_level_max",
	"preferred_resorts", "preferred_regions", "availability",
}

// Profile loads one user with their trips.
func (s *Source) Profile(ctx context.Context, userID string) (model.CandidateProfile, error) {
	ds := s.q.From("users").Select(userColumns...).Where(goqu.Ex{"id": userID})
	profiles, err := s.loadUsers(ctx, ds)
	if err != nil {
		return model.CandidateProfile{}, fmt.Errorf("load user %s: %w", userID, err)
	}
	if len(profiles) == 0 {
		return model.CandidateProfile{}, fmt.Errorf("%w: %s", matching.ErrUserNotFound, userID)
	}
	return profiles[0], nil
}

// Candidates loads opted-in users other than the seeker, up to the pool limit.
func (s *Source) Candidates(ctx context.Context, seekerID string) ([]model.CandidateProfile, error) {
	ds := s.q.From("users").
		Select(userColumns...).
		Where(goqu.Ex{"opted_in": true}, goqu.C("id").Neq(seekerID)).
		Order(goqu.C("id").Asc()).
		Limit(s.poolLimit)
	profiles, err := s.loadUsers(ctx, ds)
	if err != nil {
		return nil, fmt.Errorf("load candidates for %s: %w", seekerID, err)
	}
	s.logger.Debug(ctx, "candidate pool loaded", logger.String("seeker_id", seekerID), logger.Int("size", len(profiles)))
	return profiles, nil
}

func (s *Source) loadUsers(ctx context.Context, ds *goqu.SelectDataset) ([]model.CandidateProfile, error) {
	var profiles []model.CandidateProfile
	err := s.query(ctx, ds, func(rows *sql.Rows) error {
		var (
			p                  model.CandidateProfile
			nickname, role     sql.NullString
			minLevel, maxLevel sql.NullInt64
			resorts, regions   pq.StringArray
			availability       pq.StringArray
		)
		if err := rows.Scan(&p.UserID, &nickname, &p.SkillLevel, &role, &p.OptedIn,
			&minLevel, &maxLevel, &resorts, &regions, &availability); err != nil {
			return err
		}
		p.Nickname = nickname.String
		p.Role = model.Role(role.String)
		p.Preferences = model.MatchingPreference{
			SkillLevelMin:    int(minLevel.Int64),
			SkillLevelMax:    int(maxLevel.Int64),
			PreferredResorts: resorts,
			PreferredRegions: regions,
		}
		for _, raw := range availability {
			d, err := model.ParseDate(raw)
			if err != nil {
				return fmt.Errorf("availability of %s: %w", p.UserID, err)
			}
			p.Preferences.Availability = append(p.Preferences.Availability, d)
		}
		p.Preferences = p.Preferences.Normalize()
		profiles = append(profiles, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.attachTrips(ctx, profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (s *Source) attachTrips(ctx context.Context, profiles []model.CandidateProfile) error {
	if len(profiles) == 0 {
		return nil
	}
	index := make(map[string]int, len(profiles))
	ids := make([]string, 0, len(profiles))
	for i, p := range profiles {
		index[p.UserID] = i
		ids = append(ids, p.UserID)
	}
	ds := s.q.From("trips").
		Select("id", "user_id", "resort_id", "start_date", "end_date").
		Where(goqu.Ex{"user_id": ids}).
		Order(goqu.C("user_id").Asc(), goqu.C("start_date").Asc())
	return s.query(ctx, ds, func(rows *sql.Rows) error {
		var (
			t          model.Trip
			resort     sql.NullString
			start, end sql.NullTime
		)
		if err := rows.Scan(&t.ID, &t.UserID, &resort, &start, &end); err != nil {
			return err
		}
		t.ResortID = resort.String
		t.Range = model.DateRange{Start: model.DateOf(start.Time), End: model.DateOf(end.Time)}
		if i, ok := index[t.UserID]; ok {
			profiles[i].Trips = append(profiles[i].Trips, t)
		}
		return nil
	})
}
