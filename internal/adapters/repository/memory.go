package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/tripbuddy/internal/domain/model"
	"github.com/okian/tripbuddy/pkg/logger"
)

// MemoryStore is an in-process SearchStore. Expired states are hidden on
// read and purged by a janitor goroutine.
type MemoryStore struct {
	cfg    storeConfig
	mu     sync.RWMutex
	states map[string]model.SearchState

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

var _ SearchStore = (*MemoryStore)(nil)

// NewMemoryStore creates the store and starts its janitor, which stops when
// ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &MemoryStore{
		cfg:      cfg,
		states:   make(map[string]model.SearchState),
		stopChan: make(chan struct{}),
	}
	s.startJanitor(ctx)
	return s
}

func (s *MemoryStore) startJanitor(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cfg.janitorInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				if n := s.Purge(); n > 0 {
					s.cfg.logger.Debug(ctx, "expired searches purged", logger.Int("count", n))
				}
			}
		}
	}()
}

// Purge removes expired states and returns how many were removed.
func (s *MemoryStore) Purge() int {
	now := s.cfg.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, st := range s.states {
		if !now.Before(st.ExpiresAt) {
			delete(s.states, id)
			n++
		}
	}
	return n
}

// Len returns the number of stored states, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

// Close stops the janitor.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

func (s *MemoryStore) SetProcessing(_ context.Context, searchID, seekerID string) error {
	return s.write(searchID, seekerID, model.SearchProcessing, func(*model.SearchState) {})
}

func (s *MemoryStore) SetCompleted(_ context.Context, searchID, seekerID string, results []model.MatchSummary) error {
	return s.write(searchID, seekerID, model.SearchCompleted, func(st *model.SearchState) {
		if results != nil {
			st.Results = append([]model.MatchSummary(nil), results...)
		}
	})
}

func (s *MemoryStore) SetFailed(_ context.Context, searchID, seekerID, reason string) error {
	return s.write(searchID, seekerID, model.SearchFailed, func(st *model.SearchState) {
		st.Error = reason
	})
}

func (s *MemoryStore) write(searchID, seekerID string, status model.SearchStatus, fill func(*model.SearchState)) error {
	if searchID == "" {
		return ErrEmptySearch
	}
	now := s.cfg.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	var prev *model.SearchState
	if old, ok := s.states[searchID]; ok && now.Before(old.ExpiresAt) {
		prev = &old
	}
	st := buildState(prev, now, s.cfg.ttl, searchID, seekerID, status)
	fill(&st)
	s.states[searchID] = st
	return nil
}

func (s *MemoryStore) Get(_ context.Context, searchID string) (model.SearchState, error) {
	now := s.cfg.now()
	s.mu.RLock()
	st, ok := s.states[searchID]
	s.mu.RUnlock()
	if !ok || !now.Before(st.ExpiresAt) {
		return model.SearchState{}, ErrNotFound
	}
	st.Results = append([]model.MatchSummary{}, st.Results...)
	return st, nil
}
