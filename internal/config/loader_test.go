package config_test

import (
	"context"
	"errors"
	"os"
	"runtime"
	"testing"
	"time"

	"github.com/okian/dyscreen/internal/config"
	"github.com/okian/dyscreen/internal/domain/scoring"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.Anomaly.Mode, convey.ShouldEqual, config.AnomalyNone)
			convey.So(cfg.Anomaly.Timeout(), convey.ShouldEqual, 2*time.Second)
			convey.So(cfg.Keystroke.RuleWeight, convey.ShouldEqual, 0.7)
			convey.So(cfg.Keystroke.Features, convey.ShouldHaveLength, 5)
			convey.So(cfg.Reading.Features, convey.ShouldHaveLength, 5)
		})

		convey.Convey("Then the default tables validate and build", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
			models, err := cfg.BuildModels()
			convey.So(err, convey.ShouldBeNil)
			convey.So(models.Keystroke.Blended(), convey.ShouldBeTrue)
			convey.So(models.Reading.Blended(), convey.ShouldBeFalse)

			spec, ok := models.Reading.Spec("comprehensionScore")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(spec.Range.Direction, convey.ShouldEqual, scoring.LowerIsWorse)
			convey.So(spec.Confidence, convey.ShouldEqual, scoring.ConfidenceHigh)
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
				convey.So(cfg.BatchLimit, convey.ShouldEqual, 100)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("DYSCREEN_ADDR", ":8080")
			_ = os.Setenv("DYSCREEN_QUEUE_SIZE", "500")
			_ = os.Setenv("DYSCREEN_WORKER_COUNT", "16")
			_ = os.Setenv("DYSCREEN_LOG_FORMAT", "json")
			_ = os.Setenv("DYSCREEN_ANOMALY_TIMEOUT_MS", "750")
			_ = os.Setenv("DYSCREEN_KEYSTROKE_RULE_WEIGHT", "0.8")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults, including nested tables", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 16)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.Anomaly.TimeoutMS, convey.ShouldEqual, 750)
				convey.So(cfg.Keystroke.RuleWeight, convey.ShouldEqual, 0.8)
				convey.So(cfg.Keystroke.Features, convey.ShouldHaveLength, 5)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			yamlContent := `
addr: ":9090"
worker_count: 4
anomaly:
  mode: subprocess
  command: python3
  args: ["predict.py"]
  timeout_ms: 1500
reading:
  features:
    - name: readingTime
      normal: 70.4
      atypical: 151.8
      direction: higher_is_worse
      weight: 0.6
      policy: required
      confidence: high
    - name: comprehensionScore
      normal: 100
      atypical: 0
      direction: lower_is_worse
      weight: 0.4
      policy: required
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("DYSCREEN_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values apply and the feature list replaces the default", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
				convey.So(cfg.Anomaly.Mode, convey.ShouldEqual, config.AnomalySubprocess)
				convey.So(cfg.Anomaly.Args, convey.ShouldResemble, []string{"predict.py"})
				convey.So(cfg.Reading.Features, convey.ShouldHaveLength, 2)
				convey.So(cfg.Reading.Features[1].Direction, convey.ShouldEqual, "lower_is_worse")
				convey.So(cfg.Keystroke.Features, convey.ShouldHaveLength, 5)
			})

			convey.Convey("Then the file's model builds", func() {
				models, err := cfg.BuildModels()
				convey.So(err, convey.ShouldBeNil)
				convey.So(models.Reading.Specs(), convey.ShouldHaveLength, 2)
			})
		})

		convey.Convey("When file and environment both set a value", func() {
			tmpFile := createTempConfigFile("addr: \":9090\"\nbatch_limit: 7\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("DYSCREEN_CONFIG", tmpFile)
			_ = os.Setenv("DYSCREEN_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables win", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.BatchLimit, convey.ShouldEqual, 7)
			})
		})

		convey.Convey("When weights do not sum to 1", func() {
			yamlContent := `
reading:
  features:
    - name: readingTime
      normal: 70.4
      atypical: 151.8
      weight: 0.5
    - name: comprehensionScore
      normal: 100
      atypical: 0
      direction: lower_is_worse
      weight: 0.3
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("DYSCREEN_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then loading fails fast", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "sum")
			})
		})

		convey.Convey("When a feature has an unknown direction", func() {
			tmpFile := createTempConfigFile("keystroke:\n  features:\n    - name: wpm\n      normal: 40\n      atypical: 30\n      direction: sideways\n      weight: 1\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("DYSCREEN_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the anomaly mode is missing its target", func() {
			_ = os.Setenv("DYSCREEN_ANOMALY_MODE", "http")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "anomaly.url")
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile("addr: [unclosed\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("DYSCREEN_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("DYSCREEN_CONFIG", "/nonexistent/config.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When loading config with empty addr", func() {
			tmpFile := createTempConfigFile("addr: \"\"\n")
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("DYSCREEN_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("DYSCREEN_QUEUE_SIZE", "invalid")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When loading config with zero sizes", func() {
			_ = os.Setenv("DYSCREEN_WORKER_COUNT", "0")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

func clearConfigEnvVars() {
	for _, name := range []string{
		"DYSCREEN_CONFIG",
		"DYSCREEN_ADDR",
		"DYSCREEN_QUEUE_SIZE",
		"DYSCREEN_WORKER_COUNT",
		"DYSCREEN_LOG_FORMAT",
		"DYSCREEN_ANOMALY_MODE",
		"DYSCREEN_ANOMALY_TIMEOUT_MS",
		"DYSCREEN_KEYSTROKE_RULE_WEIGHT",
	} {
		_ = os.Unsetenv(name)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "dyscreen-config-*.yaml")
	if err != nil {
		panic(err)
	}
	defer func() { _ = tmpFile.Close() }()

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
