package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/terimu/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.MaxSessions, convey.ShouldEqual, 10_000)
				convey.So(cfg.ShuffleSeed, convey.ShouldEqual, uint64(0))
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("TERIMU_ADDR", ":8080")
			_ = os.Setenv("TERIMU_MAX_SESSIONS", "50")
			_ = os.Setenv("TERIMU_SESSION_TTL_SECONDS", "120")
			_ = os.Setenv("TERIMU_SHUFFLE_SEED", "42")
			_ = os.Setenv("TERIMU_NOTIFY_WEBHOOK_URL", "http://hooks.local/done")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.MaxSessions, convey.ShouldEqual, 50)
				convey.So(cfg.SessionTTLSeconds, convey.ShouldEqual, 120)
				convey.So(cfg.ShuffleSeed, convey.ShouldEqual, uint64(42))
				convey.So(cfg.NotifyWebhookURL, convey.ShouldEqual, "http://hooks.local/done")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
log_format: json
shard_count: 4
worker_count: 3
default_lang: en
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("TERIMU_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file and keep other defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.ShardCount, convey.ShouldEqual, 4)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.DefaultLang, convey.ShouldEqual, "en")
				convey.So(cfg.DefaultStory, convey.ShouldEqual, "te-rimu")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
shard_count: 4
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("TERIMU_CONFIG", tmpFile)
			_ = os.Setenv("TERIMU_ADDR", ":8081")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8081")
				convey.So(cfg.ShardCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("TERIMU_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("TERIMU_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("TERIMU_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("TERIMU_MAX_SESSIONS", "lots")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"TERIMU_CONFIG",
		"TERIMU_ADDR",
		"TERIMU_MAX_SESSIONS",
		"TERIMU_SESSION_TTL_SECONDS",
		"TERIMU_SHUFFLE_SEED",
		"TERIMU_NOTIFY_WEBHOOK_URL",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "terimu-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
