package repository

import (
	"context"
	"sync"

	"github.com/okian/tripbuddy/internal/domain/model"
	"github.com/okian/tripbuddy/internal/domain/skills"
)

// MemoryVectorStore caches skill vectors in a map.
type MemoryVectorStore struct {
	mu      sync.RWMutex
	vectors map[string]model.SkillVector
}

var _ skills.VectorStore = (*MemoryVectorStore)(nil)

// NewMemoryVectorStore creates an empty store.
func NewMemoryVectorStore() *MemoryVectorStore {
	return &MemoryVectorStore{vectors: make(map[string]model.SkillVector)}
}

func (s *MemoryVectorStore) GetVector(_ context.Context, userID string) (model.SkillVector, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vectors[userID]
	if !ok {
		return model.SkillVector{}, skills.ErrVectorNotFound
	}
	return v, nil
}

func (s *MemoryVectorStore) PutVector(_ context.Context, v model.SkillVector) error {
	if v.UserID == "" {
		return skills.ErrEmptyUserID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors[v.UserID] = v
	return nil
}
