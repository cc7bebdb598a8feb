package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/okian/tripbuddy/internal/domain/model"
	"github.com/okian/tripbuddy/internal/domain/skills"
	"github.com/okian/tripbuddy/pkg/logger"
)

const (
	vectorKeyPrefix = "skill:vector:"

	// DefaultVectorTTL is how long a cached vector lives before it is recomputed.
	DefaultVectorTTL = 24 * time.Hour
)

// BadgerVectorStore persists skill vectors in an embedded Badger database.
// Entries expire after the configured TTL.
type BadgerVectorStore struct {
	db  *badger.DB
	ttl time.Duration
}

var _ skills.VectorStore = (*BadgerVectorStore)(nil)

// badgerLogger routes Badger's internal logging to the service logger.
type badgerLogger struct {
	log logger.Logger
}

var _ badger.Logger = (*badgerLogger)(nil)

func (l *badgerLogger) Errorf(msg string, args ...any) {
	l.log.Error(context.Background(), fmt.Sprintf(msg, args...))
}

func (l *badgerLogger) Warningf(msg string, args ...any) {
	l.log.Warn(context.Background(), fmt.Sprintf(msg, args...))
}

func (l *badgerLogger) Infof(msg string, args ...any) {
	l.log.Debug(context.Background(), fmt.Sprintf(msg, args...))
}

func (l *badgerLogger) Debugf(msg string, args ...any) {
	l.log.Debug(context.Background(), fmt.Sprintf(msg, args...))
}

// OpenBadgerVectorStore opens the database at dir, creating it if needed.
// An empty dir or inMemory opens a throwaway in-memory database.
// WithTTL and WithLogger apply; the TTL defaults to DefaultVectorTTL.
func OpenBadgerVectorStore(dir string, inMemory bool, opts ...Option) (*BadgerVectorStore, error) {
	cfg := defaultConfig()
	cfg.ttl = DefaultVectorTTL
	for _, opt := range opts {
		opt(&cfg)
	}
	var bopts badger.Options
	if inMemory || dir == "" {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create badger dir %s: %w", dir, err)
		}
		bopts = badger.DefaultOptions(dir)
	}
	bopts.Logger = &badgerLogger{log: cfg.logger}
	bopts.Compression = options.None

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerVectorStore{db: db, ttl: cfg.ttl}, nil
}

// Close closes the database.
func (s *BadgerVectorStore) Close() error {
	return s.db.Close()
}

func (s *BadgerVectorStore) GetVector(_ context.Context, userID string) (model.SkillVector, error) {
	var v model.SkillVector
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(vectorKeyPrefix + userID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &v)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return model.SkillVector{}, skills.ErrVectorNotFound
	}
	if err != nil {
		return model.SkillVector{}, fmt.Errorf("read skill vector %s: %w", userID, err)
	}
	return v, nil
}

func (s *BadgerVectorStore) PutVector(_ context.Context, v model.SkillVector) error {
	if v.UserID == "" {
		return skills.ErrEmptyUserID
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode skill vector %s: %w", v.UserID, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(vectorKeyPrefix+v.UserID), payload).WithTTL(s.ttl))
	})
	if err != nil {
		return fmt.Errorf("write skill vector %s: %w", v.UserID, err)
	}
	return nil
}
