// Package main provides the recapdeck CLI: one-shot deck generation and
// the HTTP job service.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/recapdeck/internal/config"
	"github.com/okian/recapdeck/pkg/logger"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "recapdeck",
		Short: "Fill a recap presentation from a campaign metrics export",
		Long: `recapdeck reads a CSV or Excel campaign export, locates the recap
metrics by their labels and writes them into a PowerPoint template.`,
		SilenceUsage: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.AddCommand(newGenerateCmd(), newServeCmd())
	return root
}

// setup loads configuration and initializes logging on w.
func setup(ctx context.Context, w io.Writer) (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.InitWithWriter(w, cfg.LogFormat); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, log, nil
}

// loadRules returns the configured rule table, or the built-in one.
func loadRules(ctx context.Context, path string) (config.Rules, error) {
	if path == "" {
		return config.DefaultRules(), nil
	}
	return config.LoadRules(ctx, path)
}
