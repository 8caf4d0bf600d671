package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/recapdeck/internal/adapters/repository"
	app "github.com/okian/recapdeck/internal/app"
	"github.com/okian/recapdeck/internal/domain/model"
	"github.com/okian/recapdeck/pkg/logger"
)

type generateFlags struct {
	output     string
	headline   string
	images     []string
	rules      string
	report     string
	noReport   bool
	batch      string
	client     string
	reportDate string
}

func newGenerateCmd() *cobra.Command {
	var f generateFlags
	cmd := &cobra.Command{
		Use:   "generate <input> <template>",
		Short: "Generate a recap deck from a dataset and a template",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args[0], args[1], f)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&f.output, "output", "o", "recap_deck.pptx", "Output deck path")
	flags.StringVar(&f.headline, "headline", "", "Cover headline")
	flags.StringArrayVar(&f.images, "image", nil, "Image upload as key=path (repeatable)")
	flags.StringVar(&f.rules, "rules", "", "YAML binding rule table (overrides rules_path)")
	flags.StringVar(&f.report, "report", "", "Report JSON path (default: next to the deck)")
	flags.BoolVar(&f.noReport, "no-report", false, "Skip writing the report JSON")
	flags.StringVar(&f.batch, "batch", "", "Record the run under this batch name")
	flags.StringVar(&f.client, "client", "", "Client name")
	flags.StringVar(&f.reportDate, "report-date", "", "Report date")
	return cmd
}

func runGenerate(cmd *cobra.Command, input, template string, f generateFlags) error {
	ctx := cmd.Context()
	cfg, log, err := setup(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	images, err := parseImages(f.images)
	if err != nil {
		return err
	}
	rulesPath := cfg.RulesPath
	if f.rules != "" {
		rulesPath = f.rules
	}
	rules, err := loadRules(ctx, rulesPath)
	if err != nil {
		return err
	}

	gen := app.NewGenerator(
		app.WithGeneratorLogger(log),
		app.WithSheet(cfg.Sheet),
		app.WithColumnAliases(cfg.ColumnAliases),
		app.WithRules(rules.Text, rules.Images),
		app.WithBatchStore(repository.NewFileStore(cfg.BatchesPath, repository.WithLogger(log.Named("batches")))),
	)
	report, err := gen.Generate(ctx, model.GenerationRequest{
		DatasetPath:  input,
		TemplatePath: template,
		OutputPath:   f.output,
		Headline:     f.headline,
		Images:       images,
		Batch:        f.batch,
		Client:       f.client,
		ReportDate:   f.reportDate,
	})
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	if !f.noReport {
		path := f.report
		if path == "" {
			path = reportPath(f.output)
		}
		if err := app.WriteReport(path, report); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		log.Debug(ctx, "report written", logger.String("path", path))
	}

	sum := report.Summary()
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d filled, %d blank, %d missed\n", f.output, sum.Filled, sum.Blank, sum.Missed)
	for _, n := range report.Notes {
		fmt.Fprintf(cmd.OutOrStdout(), "  note %s: %s\n", n.Kind, n.Detail)
	}
	return nil
}

// parseImages turns key=path pairs into a map.
func parseImages(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		key, path, ok := strings.Cut(p, "=")
		key, path = strings.TrimSpace(key), strings.TrimSpace(path)
		if !ok || key == "" || path == "" {
			return nil, fmt.Errorf("invalid --image %q: want key=path", p)
		}
		out[key] = path
	}
	return out, nil
}

// reportPath places the report beside the deck: deck.pptx -> deck.report.json.
func reportPath(deck string) string {
	return strings.TrimSuffix(deck, filepath.Ext(deck)) + ".report.json"
}
