package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/okian/tripbuddy/internal/domain/model"
)

// RedisStore is a SearchStore backed by Redis string keys with expiry.
type RedisStore struct {
	client redis.Cmdable
	cfg    storeConfig
}

var _ SearchStore = (*RedisStore)(nil)

// NewRedisStore wraps an existing client.
func NewRedisStore(client redis.Cmdable, opts ...Option) *RedisStore {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &RedisStore{client: client, cfg: cfg}
}

// NewRedisClient connects to addr and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

func (s *RedisStore) key(searchID string) string {
	return s.cfg.keyPrefix + searchID
}

func (s *RedisStore) SetProcessing(ctx context.Context, searchID, seekerID string) error {
	return s.write(ctx, searchID, seekerID, model.SearchProcessing, func(*model.SearchState) {})
}

func (s *RedisStore) SetCompleted(ctx context.Context, searchID, seekerID string, results []model.MatchSummary) error {
	return s.write(ctx, searchID, seekerID, model.SearchCompleted, func(st *model.SearchState) {
		if results != nil {
			st.Results = results
		}
	})
}

func (s *RedisStore) SetFailed(ctx context.Context, searchID, seekerID, reason string) error {
	return s.write(ctx, searchID, seekerID, model.SearchFailed, func(st *model.SearchState) {
		st.Error = reason
	})
}

func (s *RedisStore) write(ctx context.Context, searchID, seekerID string, status model.SearchStatus, fill func(*model.SearchState)) error {
	if searchID == "" {
		return ErrEmptySearch
	}
	var prev *model.SearchState
	if old, err := s.Get(ctx, searchID); err == nil {
		prev = &old
	}
	st := buildState(prev, s.cfg.now(), s.cfg.ttl, searchID, seekerID, status)
	fill(&st)

	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode search %s: %w", searchID, err)
	}
	if err := s.client.Set(ctx, s.key(searchID), payload, s.cfg.ttl).Err(); err != nil {
		return fmt.Errorf("store search %s: %w", searchID, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, searchID string) (model.SearchState, error) {
	raw, err := s.client.Get(ctx, s.key(searchID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.SearchState{}, ErrNotFound
	}
	if err != nil {
		return model.SearchState{}, fmt.Errorf("load search %s: %w", searchID, err)
	}
	var st model.SearchState
	if err := json.Unmarshal(raw, &st); err != nil {
		return model.SearchState{}, fmt.Errorf("decode search %s: %w", searchID, err)
	}
	if st.Results == nil {
		st.Results = []model.MatchSummary{}
	}
	return st, nil
}
