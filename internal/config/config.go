// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) to build a Config with defaults.
// - Loading functions accept context.Context as the first parameter.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"context"
	"runtime"
	"time"

	"github.com/okian/recapdeck/internal/domain/extract"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// TemplatePath is the deck template used by the HTTP service and as the
	// CLI default.
	TemplatePath string `koanf:"template_path"`

	// OutputDir receives decks generated by the HTTP service.
	OutputDir string `koanf:"output_dir"`

	// BatchesPath is the JSON file holding prior-run records.
	BatchesPath string `koanf:"batches_path"`

	// QueueSize bounds the number of waiting generation jobs.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of generation workers.
	WorkerCount int `koanf:"worker_count"`

	// GenerationTimeout is the per-job deadline.
	GenerationTimeout time.Duration `koanf:"generation_timeout"`

	// MaxUploadMB caps multipart request bodies.
	MaxUploadMB int `koanf:"max_upload_mb"`

	// Sheet selects a worksheet by name; empty means the first sheet.
	Sheet string `koanf:"sheet"`

	// ColumnAliases overrides the column ids the extractor resolves.
	ColumnAliases map[string]string `koanf:"column_aliases"`

	// RulesPath optionally points at a YAML binding rule table.
	RulesPath string `koanf:"rules_path"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		TemplatePath:      "templates/recap_template.pptx",
		OutputDir:         "output",
		BatchesPath:       "dashboards/batches.json",
		QueueSize:         64,
		WorkerCount:       runtime.NumCPU(),
		GenerationTimeout: 2 * time.Minute,
		MaxUploadMB:       32,
		ColumnAliases:     extract.DefaultAliases(),
	}
}
