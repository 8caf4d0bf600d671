package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/okian/recapdeck/internal/adapters/loader"
	"github.com/okian/recapdeck/internal/adapters/pptx"
	"github.com/okian/recapdeck/internal/adapters/repository"
	"github.com/okian/recapdeck/internal/domain/binding"
	"github.com/okian/recapdeck/internal/domain/dataset"
	"github.com/okian/recapdeck/internal/domain/extract"
	"github.com/okian/recapdeck/internal/domain/model"
	"github.com/okian/recapdeck/pkg/logger"
	"github.com/okian/recapdeck/pkg/metrics"
)

// Generator runs the single forward pass: load dataset, extract metrics,
// bind them into the template and save the deck. Every call owns its
// dataset and document, so one Generator may serve concurrent calls.
type Generator struct {
	loader    *loader.Loader
	extractor *extract.Extractor
	binder    *binding.Binder
	rules     []binding.Rule
	images    []binding.ImageRule
	batches   repository.Store
	logger    logger.Logger

	sheet   string
	aliases map[string]string
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithGeneratorLogger sets the logger shared by every stage.
func WithGeneratorLogger(l logger.Logger) GeneratorOption {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithSheet selects the worksheet read from workbooks.
func WithSheet(name string) GeneratorOption {
	return func(g *Generator) { g.sheet = name }
}

// WithColumnAliases overrides the extractor's column aliases.
func WithColumnAliases(aliases map[string]string) GeneratorOption {
	return func(g *Generator) { g.aliases = aliases }
}

// WithRules replaces the binding tables.
func WithRules(text []binding.Rule, images []binding.ImageRule) GeneratorOption {
	return func(g *Generator) {
		g.rules = append([]binding.Rule(nil), text...)
		g.images = append([]binding.ImageRule(nil), images...)
	}
}

// WithBatchStore records a batch entry for requests that name one.
func WithBatchStore(s repository.Store) GeneratorOption {
	return func(g *Generator) { g.batches = s }
}

// NewGenerator builds a Generator with the standard vocabulary and rules.
func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{
		rules:  binding.DefaultRules(),
		images: binding.DefaultImageRules(),
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.loader = loader.New(loader.WithSheet(g.sheet), loader.WithLogger(g.logger.Named("loader")))
	g.extractor = extract.New(extract.WithAliases(g.aliases), extract.WithLogger(g.logger.Named("extract")))
	g.binder = binding.New(binding.WithLogger(g.logger.Named("binding")))
	return g
}

// Generate produces one deck. Missing data and template mismatches are
// recovered and reported; only unreadable inputs, a cancelled context or
// an unwritable output fail the call.
func (g *Generator) Generate(ctx context.Context, req model.GenerationRequest) (*model.Report, error) {
	start := time.Now()
	report, err := g.generate(ctx, req)
	outcome := "ok"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		outcome = "timeout"
	case err != nil:
		outcome = "failed"
	}
	metrics.RecordGeneration(outcome, float64(time.Since(start).Milliseconds()))
	return report, err
}

func (g *Generator) generate(ctx context.Context, req model.GenerationRequest) (*model.Report, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	log := g.logger.With(logger.String("dataset", filepath.Base(req.DatasetPath)))

	ds, err := g.loader.Load(ctx, req.DatasetPath)
	if err != nil {
		return nil, err
	}
	res, err := g.extractor.Extract(ctx, ds)
	if err != nil {
		return nil, err
	}
	set := res.Metrics
	set.Add(binding.InputHeadline, dataset.TextCell(req.Headline))
	set.Add(binding.InputClient, dataset.TextCell(req.Client))
	set.Add(binding.InputReportDate, dataset.TextCell(req.ReportDate))

	doc, err := pptx.Open(ctx, req.TemplatePath, pptx.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("open template %s: %w", req.TemplatePath, err)
	}

	report := &model.Report{Notes: res.Notes, Metrics: set.Snapshot()}
	fields, err := g.binder.Bind(ctx, doc, g.rules, set)
	if err != nil {
		return nil, err
	}
	report.Fields = fields

	uploads := g.readImages(ctx, req.Images, report)
	imageFields, imageNotes := g.binder.BindImages(ctx, doc, g.images, uploads)
	report.Fields = append(report.Fields, imageFields...)
	report.Notes = append(report.Notes, imageNotes...)

	if dir := filepath.Dir(req.OutputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := doc.Save(ctx, req.OutputPath); err != nil {
		return nil, fmt.Errorf("save deck %s: %w", req.OutputPath, err)
	}

	sum := report.Summary()
	metrics.RecordFields(sum.Filled, sum.Blank, sum.Missed)
	log.Info(ctx, "deck generated",
		logger.String("output", req.OutputPath),
		logger.Int("filled", sum.Filled),
		logger.Int("blank", sum.Blank),
		logger.Int("missed", sum.Missed))

	if req.Batch != "" && g.batches != nil {
		rec := model.BatchRecord{
			Name:       req.Batch,
			Client:     req.Client,
			ReportDate: req.ReportDate,
			InputFile:  filepath.Base(req.DatasetPath),
			OutputPath: req.OutputPath,
			Summary:    sum,
		}
		if err := g.batches.Append(ctx, rec); err != nil {
			// The deck exists; a lost history entry does not fail the run.
			log.Warn(ctx, "batch not recorded", logger.String("batch", req.Batch), logger.Error(err))
		}
	}
	return report, nil
}

// readImages loads uploaded image files. An unreadable file is noted and
// leaves the placeholder in place.
func (g *Generator) readImages(ctx context.Context, paths map[string]string, report *model.Report) map[string][]byte {
	out := make(map[string][]byte, len(paths))
	keys := make([]string, 0, len(paths))
	for key := range paths {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		path := paths[key]
		data, err := os.ReadFile(path)
		if err != nil {
			g.logger.Warn(ctx, "image not readable", logger.String("key", key), logger.Error(err))
			report.AddNote(model.NoteImageMissing, fmt.Sprintf("%s: %v", key, err))
			continue
		}
		out[key] = data
	}
	return out
}

func validateRequest(req model.GenerationRequest) error {
	switch {
	case strings.TrimSpace(req.DatasetPath) == "":
		return fmt.Errorf("%w: dataset path is required", ErrInvalidInput)
	case strings.TrimSpace(req.TemplatePath) == "":
		return fmt.Errorf("%w: template path is required", ErrInvalidInput)
	case strings.TrimSpace(req.OutputPath) == "":
		return fmt.Errorf("%w: output path is required", ErrInvalidInput)
	}
	return nil
}

// WriteReport stores r as indented JSON at path.
func WriteReport(path string, r *model.Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
