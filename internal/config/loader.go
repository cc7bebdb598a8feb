package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/tripbuddy/internal/adapters/workflow"
	"github.com/okian/tripbuddy/internal/domain/filter"
	"github.com/okian/tripbuddy/internal/domain/scoring"
)

// Environment settings.
const (
	EnvPrefix     = "TRIPBUDDY_"
	EnvConfigPath = "TRIPBUDDY_CONFIG"
)

// Load builds a Config by layering defaults, an optional YAML file and env
// vars, lowest precedence first. path wins over TRIPBUDDY_CONFIG. Nested
// keys use a double underscore in env names: TRIPBUDDY_STORE__REDIS__ADDR
// sets store.redis.addr.
func Load(_ context.Context, path string) (*Config, error) {
	cfg := New()
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		if s == "CONFIG" {
			return ""
		}
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values that would otherwise fail at startup.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return invalid("log_level %q", c.LogLevel)
	}
	if c.Addr == "" {
		return invalid("addr must not be empty")
	}
	if c.Queue.Size <= 0 {
		return invalid("queue.size must be positive")
	}
	if c.Queue.WorkerCount < 0 {
		return invalid("queue.worker_count must not be negative")
	}
	if c.Pipeline.Timeout < 0 {
		return invalid("pipeline.timeout must not be negative")
	}

	name, err := scoring.ParseModel(c.Scoring.Model)
	if err != nil {
		return invalid("scoring.model: %v", err)
	}
	c.Scoring.Model = name
	if name == scoring.ModelNormalized {
		m := scoring.NormalizedModel{Weights: c.Scoring.Weights, KnowledgeWeight: c.Scoring.KnowledgeWeight}
		if err := m.Validate(); err != nil {
			return invalid("scoring.weights: %v", err)
		}
	}
	if _, err := filter.ParseSkillStrategy(c.Filter.SkillStrategy); err != nil {
		return invalid("filter.skill_strategy: %v", err)
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Store.Redis.Addr == "" {
			return invalid("store.redis.addr is required for the redis backend")
		}
	default:
		return invalid("store.backend %q", c.Store.Backend)
	}
	if c.Store.TTL <= 0 {
		return invalid("store.ttl must be positive")
	}
	if c.Skills.VectorTTL <= 0 {
		return invalid("skills.vector_ttl must be positive")
	}

	if c.Workflow.Delegated() {
		mode, err := workflow.ParseAuthMode(c.Workflow.AuthMode)
		if err != nil {
			return invalid("workflow.auth_mode: %v", err)
		}
		switch mode {
		case workflow.AuthAPIKey:
			if c.Workflow.APIKey == "" {
				return invalid("workflow.api_key is required for api_key auth")
			}
		case workflow.AuthSigV4:
			if c.Workflow.Region == "" || c.Workflow.AccessKeyID == "" || c.Workflow.SecretAccessKey == "" {
				return invalid("workflow sigv4 auth needs region, access_key_id and secret_access_key")
			}
		}
	}
	if c.Webhook.MaxAttempts < 1 {
		return invalid("webhook.max_attempts must be at least 1")
	}
	return nil
}
