package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/okian/tripbuddy/internal/domain/model"
)

// Resorts loads the resort catalog.
func (s *Source) Resorts(ctx context.Context) (model.ResortCatalog, error) {
	catalog := make(model.ResortCatalog)
	ds := s.q.From("resorts").Select("id", "region")
	err := s.query(ctx, ds, func(rows *sql.Rows) error {
		var id string
		var region sql.NullString
		if err := rows.Scan(&id, &region); err != nil {
			return err
		}
		if region.Valid && region.String != "" {
			catalog[strings.ToLower(id)] = strings.ToLower(region.String)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load resorts: %w", err)
	}
	return catalog, nil
}

// Following returns the users userID follows.
func (s *Source) Following(ctx context.Context, userID string) ([]string, error) {
	return s.follows(ctx, "followee_id", "follower_id", userID)
}

// Followers returns the users following userID.
func (s *Source) Followers(ctx context.Context, userID string) ([]string, error) {
	return s.follows(ctx, "follower_id", "followee_id", userID)
}

func (s *Source) follows(ctx context.Context, selectCol, whereCol, userID string) ([]string, error) {
	var ids []string
	ds := s.q.From("follows").Select(selectCol).Where(goqu.Ex{whereCol: userID})
	err := s.query(ctx, ds, func(rows *sql.Rows) error {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load follows of %s: %w", userID, err)
	}
	return ids, nil
}

// KnowledgeScores loads knowledge-profile scores for the given users.
func (s *Source) KnowledgeScores(ctx context.Context, userIDs []string) (map[string]float64, error) {
	scores := make(map[string]float64, len(userIDs))
	if len(userIDs) == 0 {
		return scores, nil
	}
	ds := s.q.From("knowledge_profiles").Select("user_id", "score").Where(goqu.Ex{"user_id": userIDs})
	err := s.query(ctx, ds, func(rows *sql.Rows) error {
		var id string
		var score sql.NullFloat64
		if err := rows.Scan(&id, &score); err != nil {
			return err
		}
		if score.Valid {
			scores[id] = score.Float64
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load knowledge scores: %w", err)
	}
	return scores, nil
}

// PracticeEvents loads a user's events since a time, newest first.
func (s *Source) PracticeEvents(ctx context.Context, userID string, since time.Time, limit int) ([]model.PracticeEvent, error) {
	ds := s.q.From("practice_events").
		Select("user_id", "lesson_id", "rating", "occurred_at").
		Where(goqu.Ex{"user_id": userID}, goqu.C("occurred_at").Gte(since)).
		Order(goqu.C("occurred_at").Desc())
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}
	var events []model.PracticeEvent
	err := s.query(ctx, ds, func(rows *sql.Rows) error {
		var (
			e      model.PracticeEvent
			rating sql.NullFloat64
		)
		if err := rows.Scan(&e.UserID, &e.LessonID, &rating, &e.OccurredAt); err != nil {
			return err
		}
		if rating.Valid {
			r := rating.Float64
			e.Rating = &r
		}
		events = append(events, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load practice events of %s: %w", userID, err)
	}
	return events, nil
}
