// Package config defines service configuration and its defaults.
package config

import (
	"time"

	"github.com/okian/tripbuddy/internal/domain/scoring"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is json or text.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	Queue    QueueConfig    `koanf:"queue"`
	Pipeline PipelineConfig `koanf:"pipeline"`
	Scoring  ScoringConfig  `koanf:"scoring"`
	Filter   FilterConfig   `koanf:"filter"`
	Store    StoreConfig    `koanf:"store"`
	Skills   SkillsConfig   `koanf:"skills"`
	Source   SourceConfig   `koanf:"source"`
	Workflow WorkflowConfig `koanf:"workflow"`
	Webhook  WebhookConfig  `koanf:"webhook"`
}

// QueueConfig sizes the local job queue and its workers.
type QueueConfig struct {
	Size int `koanf:"size"`
	// WorkerCount of zero picks a CPU based default.
	WorkerCount int `koanf:"worker_count"`
}

// PipelineConfig bounds local pipeline runs.
type PipelineConfig struct {
	Timeout          time.Duration `koanf:"timeout"`
	FetchConcurrency int           `koanf:"fetch_concurrency"`
}

// ScoringConfig selects and tunes the scoring model.
type ScoringConfig struct {
	Model string `koanf:"model"`
	Limit int    `koanf:"limit"`
	// Threshold of zero keeps the model's default.
	Threshold       float64         `koanf:"threshold"`
	KnowledgeWeight float64         `koanf:"knowledge_weight"`
	Weights         scoring.Weights `koanf:"weights"`
}

// FilterConfig tunes the candidate filter.
type FilterConfig struct {
	SkillStrategy string `koanf:"skill_strategy"`
}

// StoreConfig selects where search state lives.
type StoreConfig struct {
	Backend   string        `koanf:"backend"`
	TTL       time.Duration `koanf:"ttl"`
	KeyPrefix string        `koanf:"key_prefix"`
	Redis     RedisConfig   `koanf:"redis"`
}

// RedisConfig addresses the redis search store.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// SkillsConfig tunes skill analysis. An empty VectorDir keeps vectors in memory.
type SkillsConfig struct {
	VectorDir string        `koanf:"vector_dir"`
	VectorTTL time.Duration `koanf:"vector_ttl"`
	Lookback  time.Duration `koanf:"lookback"`
	MaxEvents int           `koanf:"max_events"`
}

// SourceConfig names where profiles, trips and the social graph come from.
// PostgresDSN wins over FixturePath.
type SourceConfig struct {
	PostgresDSN  string `koanf:"postgres_dsn"`
	FixturePath  string `koanf:"fixture_path"`
	CandidateCap int    `koanf:"candidate_cap"`
}

// WorkflowConfig enables remote delegation when BaseURL is set.
type WorkflowConfig struct {
	BaseURL         string        `koanf:"base_url"`
	AuthMode        string        `koanf:"auth_mode"`
	APIKey          string        `koanf:"api_key"`
	Region          string        `koanf:"region"`
	AccessKeyID     string        `koanf:"access_key_id"`
	SecretAccessKey string        `koanf:"secret_access_key"`
	SessionToken    string        `koanf:"session_token"`
	Service         string        `koanf:"service"`
	Timeout         time.Duration `koanf:"timeout"`
	CallbackWebhook string        `koanf:"callback_webhook"`
}

// Delegated reports whether searches go to the remote workflow.
func (w WorkflowConfig) Delegated() bool { return w.BaseURL != "" }

// WebhookConfig enables completion notifications when URL is set.
type WebhookConfig struct {
	URL         string `koanf:"url"`
	Secret      string `koanf:"secret"`
	MaxAttempts int    `koanf:"max_attempts"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "json",
		Addr:            ":9080",
		ShutdownTimeout: 10 * time.Second,
		Queue: QueueConfig{
			Size: 1000,
		},
		Pipeline: PipelineConfig{
			Timeout: 2 * time.Minute,
		},
		Scoring: ScoringConfig{
			Model:           scoring.ModelNormalized,
			Limit:           50,
			KnowledgeWeight: scoring.DefaultKnowledgeWeight,
			Weights:         scoring.DefaultWeights(),
		},
		Filter: FilterConfig{
			SkillStrategy: "range",
		},
		Store: StoreConfig{
			Backend:   BackendMemory,
			TTL:       time.Hour,
			KeyPrefix: "tripbuddy:search:",
			Redis:     RedisConfig{Addr: "localhost:6379"},
		},
		Skills: SkillsConfig{
			VectorTTL: 24 * time.Hour,
			Lookback:  90 * 24 * time.Hour,
			MaxEvents: 500,
		},
		Source: SourceConfig{
			CandidateCap: 1000,
		},
		Workflow: WorkflowConfig{
			AuthMode: "api_key",
			Timeout:  5 * time.Minute,
		},
		Webhook: WebhookConfig{
			MaxAttempts: 3,
		},
	}
}
