package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/overcall/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("OVERCALL_ADDR", ":8080")
			_ = os.Setenv("OVERCALL_ROUTER_TIMEOUT_MS", "1500")
			_ = os.Setenv("OVERCALL_RISK_AGENT_URL", "http://risk/evaluate")
			_ = os.Setenv("OVERCALL_AUDIT_WORKER_COUNT", "4")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.RouterTimeoutMS, convey.ShouldEqual, 1500)
				convey.So(cfg.RiskAgentURL, convey.ShouldEqual, "http://risk/evaluate")
				convey.So(cfg.AuditWorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(`
# comments are fine
addr: ":9090"
store_driver: sqlite
store_path: /tmp/overcall-test.db
candidate_limit: 5
log_format: json
`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("OVERCALL_CONFIG", tmpFile)
			_ = os.Setenv("OVERCALL_CANDIDATE_LIMIT", "2")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.StoreDriver, convey.ShouldEqual, config.StoreSQLite)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.CandidateLimit, convey.ShouldEqual, 2)
				convey.So(cfg.EvaluatorTimeoutMS, convey.ShouldEqual, 12_000)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("OVERCALL_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("OVERCALL_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("OVERCALL_ROUTER_TIMEOUT_MS", "soon")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("OVERCALL_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the store driver is unknown", func() {
			_ = os.Setenv("OVERCALL_STORE_DRIVER", "redis")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"OVERCALL_CONFIG",
		"OVERCALL_ADDR",
		"OVERCALL_ROUTER_TIMEOUT_MS",
		"OVERCALL_RISK_AGENT_URL",
		"OVERCALL_AUDIT_WORKER_COUNT",
		"OVERCALL_CANDIDATE_LIMIT",
		"OVERCALL_STORE_DRIVER",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "overcall-config-*.yaml")
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
