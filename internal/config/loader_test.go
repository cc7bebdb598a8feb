package config_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/tripbuddy/internal/config"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Pipeline.Timeout, convey.ShouldEqual, 2*time.Minute)
				convey.So(cfg.Workflow.Timeout, convey.ShouldEqual, 5*time.Minute)
				convey.So(cfg.Webhook.MaxAttempts, convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			setEnv("TRIPBUDDY_ADDR", ":8080")
			setEnv("TRIPBUDDY_LOG_LEVEL", "debug")
			setEnv("TRIPBUDDY_QUEUE__SIZE", "64")
			setEnv("TRIPBUDDY_QUEUE__WORKER_COUNT", "16")
			setEnv("TRIPBUDDY_STORE__BACKEND", "redis")
			setEnv("TRIPBUDDY_STORE__REDIS__ADDR", "redis:6379")
			setEnv("TRIPBUDDY_STORE__TTL", "30m")
			setEnv("TRIPBUDDY_SCORING__MODEL", "Percentage")

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then nested keys override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.Queue.Size, convey.ShouldEqual, 64)
				convey.So(cfg.Queue.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.Store.Backend, convey.ShouldEqual, config.BackendRedis)
				convey.So(cfg.Store.Redis.Addr, convey.ShouldEqual, "redis:6379")
				convey.So(cfg.Store.TTL, convey.ShouldEqual, 30*time.Minute)
				convey.So(cfg.Scoring.Model, convey.ShouldEqual, "percentage")
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := createTempConfigFile(t, `
addr: ":9090"
queue:
  size: 300
scoring:
  weights:
    time: 0.25
    location: 0.25
    availability: 0.25
    role: 0.25
workflow:
  base_url: https://workflows.example.com
  auth_mode: sigv4
  region: eu-west-1
  access_key_id: AKID
  secret_access_key: secret
webhook:
  url: https://hooks.example.com/done
  secret: s3cr3t
`)
			setEnv("TRIPBUDDY_CONFIG", path)
			setEnv("TRIPBUDDY_QUEUE__SIZE", "500")

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then the file is applied under env", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.Queue.Size, convey.ShouldEqual, 500)
				convey.So(cfg.Scoring.Weights.Role, convey.ShouldEqual, 0.25)
				convey.So(cfg.Workflow.Delegated(), convey.ShouldBeTrue)
				convey.So(cfg.Workflow.Region, convey.ShouldEqual, "eu-west-1")
				convey.So(cfg.Webhook.Secret, convey.ShouldEqual, "s3cr3t")
			})
		})

		convey.Convey("When an explicit path is given", func() {
			path := createTempConfigFile(t, "addr: \":7070\"\n")

			cfg, err := config.Load(ctx, path)

			convey.Convey("Then it is used", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
			})
		})

		convey.Convey("When the file does not exist", func() {
			_, err := config.Load(ctx, "/nonexistent/tripbuddy.yaml")

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When values are invalid", func() {
			cases := map[string]string{
				"addr must not be empty": `addr: ""`,
				"queue.size":             "queue:\n  size: 0",
				"scoring.model":          "scoring:\n  model: magic",
				"scoring.weights":        "scoring:\n  weights:\n    time: 0.9",
				"filter.skill_strategy":  "filter:\n  skill_strategy: vibes",
				"store.backend":          "store:\n  backend: etcd",
				"skills.vector_ttl":      "skills:\n  vector_ttl: 0s",
				"workflow.api_key":       "workflow:\n  base_url: http://wf",
				"workflow sigv4 auth":    "workflow:\n  base_url: http://wf\n  auth_mode: sigv4",
				"workflow.auth_mode":     "workflow:\n  base_url: http://wf\n  auth_mode: oauth",
				"webhook.max_attempts":   "webhook:\n  max_attempts: 0",
				"log_level":              "log_level: loud",
			}
			for want, body := range cases {
				_, err := config.Load(ctx, createTempConfigFile(t, body))
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(strings.Contains(err.Error(), want), convey.ShouldBeTrue)
			}
		})
	})
}

var setKeys []string

func setEnv(key, value string) {
	_ = os.Setenv(key, value)
	setKeys = append(setKeys, key)
}

func clearConfigEnvVars() {
	for _, key := range setKeys {
		_ = os.Unsetenv(key)
	}
	setKeys = nil
	_ = os.Unsetenv(config.EnvConfigPath)
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "tripbuddy-config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return f.Name()
}
