package repository

import (
	"time"

	"github.com/okian/tripbuddy/pkg/logger"
)

type storeConfig struct {
	ttl             time.Duration
	keyPrefix       string
	janitorInterval time.Duration
	now             func() time.Time
	logger          logger.Logger
}

func defaultConfig() storeConfig {
	return storeConfig{
		ttl:             DefaultTTL,
		keyPrefix:       DefaultKeyPrefix,
		janitorInterval: defaultJanitorInterval,
		now:             time.Now,
		logger:          logger.Nop(),
	}
}

// Option applies a configuration option to a search store.
type Option func(*storeConfig)

// WithTTL sets how long a state lives after each write.
func WithTTL(ttl time.Duration) Option {
	return func(c *storeConfig) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithKeyPrefix sets the Redis key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(c *storeConfig) {
		if prefix != "" {
			c.keyPrefix = prefix
		}
	}
}

// WithJanitorInterval sets how often the memory store purges expired states.
func WithJanitorInterval(interval time.Duration) Option {
	return func(c *storeConfig) {
		if interval > 0 {
			c.janitorInterval = interval
		}
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(c *storeConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(c *storeConfig) {
		if l != nil {
			c.logger = l
		}
	}
}
