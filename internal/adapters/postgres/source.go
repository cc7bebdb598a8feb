// Package postgres implements the matching pull sources on PostgreSQL.
//
// Expected tables:
//
//	users(id, nickname, skill_level, self_role, opted_in, skill_level_min,
//	      skill_level_max, preferred_resorts text[], preferred_regions text[],
//	      availability date[])
//	trips(id, user_id, resort_id, start_date, end_date)
//	resorts(id, region)
//	follows(follower_id, followee_id)
//	knowledge_profiles(user_id, score)
//	practice_events(user_id, lesson_id, rating, occurred_at)
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // registers the dialect
	_ "github.com/lib/pq"                                // registers the driver

	"github.com/okian/tripbuddy/internal/domain/skills"
	"github.com/okian/tripbuddy/internal/matching"
	"github.com/okian/tripbuddy/pkg/logger"
)

const defaultPoolLimit = 1000

// Source serves candidates, resorts, follows, knowledge scores and
// practice events from one database.
type Source struct {
	db        *sql.DB
	q         goqu.DialectWrapper
	poolLimit uint
	logger    logger.Logger
}

var (
	_ matching.CandidateSource = (*Source)(nil)
	_ matching.ResortCatalog   = (*Source)(nil)
	_ matching.FollowGraph     = (*Source)(nil)
	_ matching.KnowledgeSource = (*Source)(nil)
	_ skills.EventSource       = (*Source)(nil)
)

// Option configures a Source.
type Option func(*Source)

// WithPoolLimit caps how many candidates one search loads.
func WithPoolLimit(n uint) Option {
	return func(s *Source) {
		if n > 0 {
			s.poolLimit = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Source) {
		if l != nil {
			s.logger = l
		}
	}
}

// New wraps an open database handle.
func New(db *sql.DB, opts ...Option) *Source {
	s := &Source{
		db:        db,
		q:         goqu.Dialect("postgres"),
		poolLimit: defaultPoolLimit,
		logger:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects with lib/pq and verifies the connection.
func Open(ctx context.Context, dsn string, maxOpenConns int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxOpenConns)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// query runs a goqu select and hands every row to scan.
func (s *Source) query(ctx context.Context, ds *goqu.SelectDataset, scan func(*sql.Rows) error) error {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("run query: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
	}
	return rows.Err()
}
