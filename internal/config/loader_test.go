package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/recapdeck/internal/config"
	"github.com/okian/recapdeck/internal/domain/binding"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars(t)

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.TemplatePath, convey.ShouldEqual, "templates/recap_template.pptx")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			t.Setenv("RECAP_ADDR", ":8080")
			t.Setenv("RECAP_QUEUE_SIZE", "10")
			t.Setenv("RECAP_WORKER_COUNT", "3")
			t.Setenv("RECAP_GENERATION_TIMEOUT", "45s")
			t.Setenv("RECAP_SHEET", "Recap")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 10)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.GenerationTimeout, convey.ShouldEqual, 45*time.Second)
				convey.So(cfg.Sheet, convey.ShouldEqual, "Recap")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			path := writeFile(t, "config.yaml", `
addr: ":9090"
worker_count: 24
log_format: json
column_aliases:
  organic_value: "Unnamed: 12"
`)
			t.Setenv("RECAP_CONFIG", path)
			t.Setenv("RECAP_WORKER_COUNT", "32")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env overrides the file and the file overrides defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
			})

			convey.Convey("Then alias overrides merge with the default aliases", func() {
				convey.So(cfg.ColumnAliases["organic_value"], convey.ShouldEqual, "Unnamed: 12")
				convey.So(cfg.ColumnAliases["organic_label"], convey.ShouldEqual, "Organic & Total")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			t.Setenv("RECAP_CONFIG", writeFile(t, "bad.yaml", `invalid: yaml: content: [`))

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			t.Setenv("RECAP_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When loading config with empty addr", func() {
			t.Setenv("RECAP_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			t.Setenv("RECAP_WORKER_COUNT", "not_a_number")

			cfg, err := config.Load(ctx)

			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})

		convey.Convey("When loading config with a non-positive timeout", func() {
			t.Setenv("RECAP_GENERATION_TIMEOUT", "0s")

			_, err := config.Load(ctx)

			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

func TestLoadRules(t *testing.T) {
	convey.Convey("Given rule files", t, func() {
		ctx := context.Background()

		convey.Convey("When no path is configured", func() {
			rules, err := config.LoadRules(ctx, "")

			convey.Convey("Then the default table is returned", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(rules.Text, convey.ShouldResemble, binding.DefaultRules())
				convey.So(rules.Images, convey.ShouldResemble, binding.DefaultImageRules())
			})
		})

		convey.Convey("When the file replaces the text rules only", func() {
			path := writeFile(t, "rules.yaml", `
rules:
  - name: likes
    page: 3
    region: TextBox 20
    phrase: Total Likes
    metric: organic.total_likes
    format: compact
  - name: er
    page: 3
    region: TextBox 20
    phrase: Engagement Rate
    exclude: ["% increase"]
    metric: program.er
    format: rate_round
    token: hash
`)
			rules, err := config.LoadRules(ctx, path)

			convey.Convey("Then the rules are decoded and images keep their defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(rules.Text, convey.ShouldHaveLength, 2)
				convey.So(rules.Text[0].Region, convey.ShouldEqual, "TextBox 20")
				convey.So(rules.Text[0].Format, convey.ShouldEqual, "compact")
				convey.So(rules.Text[1].Exclude, convey.ShouldResemble, []string{"% increase"})
				convey.So(rules.Text[1].Token, convey.ShouldEqual, binding.TokenHash)
				convey.So(rules.Images, convey.ShouldResemble, binding.DefaultImageRules())
			})
		})

		convey.Convey("When a rule names an unknown formatter", func() {
			path := writeFile(t, "rules.yaml", `
rules:
  - name: broken
    region: TextBox 2
    metric: x
    format: sparkle
`)
			_, err := config.LoadRules(ctx, path)

			convey.Convey("Then loading fails", func() {
				convey.So(errors.Is(err, config.ErrLoadRules), convey.ShouldBeTrue)
				convey.So(errors.Is(err, binding.ErrInvalidRule), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the file is missing", func() {
			_, err := config.LoadRules(ctx, filepath.Join(t.TempDir(), "none.yaml"))
			convey.So(errors.Is(err, config.ErrLoadRules), convey.ShouldBeTrue)
		})
	})
}

// Helper functions.

func clearConfigEnvVars(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, config.EnvPrefix) {
			t.Setenv(name, "")
			_ = os.Unsetenv(name)
		}
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
