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

	"github.com/okian/recapdeck/internal/domain/binding"
)

// Environment variable names.
const (
	EnvPrefix = "RECAP_"
	EnvConfig = "RECAP_CONFIG"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if RECAP_CONFIG is set
//  3. env (prefix RECAP_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(EnvConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// RECAP_WORKER_COUNT -> worker_count. Underscores are kept to match the
	// flat koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}
	// The env layer would otherwise surface the config path as a key.
	k.Delete("config")

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.GenerationTimeout <= 0:
		return fmt.Errorf("%w: generation_timeout must be positive", ErrInvalidConfig)
	case strings.TrimSpace(c.BatchesPath) == "":
		return fmt.Errorf("%w: batches_path must not be empty", ErrInvalidConfig)
	}
	return nil
}

// Rules is the binding table of a deck template.
type Rules struct {
	Text   []binding.Rule      `koanf:"rules"`
	Images []binding.ImageRule `koanf:"images"`
}

// DefaultRules returns the table of the standard recap template.
func DefaultRules() Rules {
	return Rules{Text: binding.DefaultRules(), Images: binding.DefaultImageRules()}
}

// LoadRules reads a YAML rule table. A section missing from the file keeps
// the default table; an empty path returns the defaults.
func LoadRules(_ context.Context, path string) (Rules, error) {
	out := DefaultRules()
	if path == "" {
		return out, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return Rules{}, fmt.Errorf("%w: %s: %w", ErrLoadRules, path, err)
	}

	var loaded Rules
	if err := k.UnmarshalWithConf("", &loaded, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Rules{}, fmt.Errorf("%w: %s: %w", ErrLoadRules, path, err)
	}
	if k.Exists("rules") {
		out.Text = loaded.Text
	}
	if k.Exists("images") {
		out.Images = loaded.Images
	}

	for _, r := range out.Text {
		if err := r.Validate(); err != nil {
			return Rules{}, fmt.Errorf("%w: %s: %w", ErrLoadRules, path, err)
		}
	}
	for _, r := range out.Images {
		if err := r.Validate(); err != nil {
			return Rules{}, fmt.Errorf("%w: %s: %w", ErrLoadRules, path, err)
		}
	}
	return out, nil
}
