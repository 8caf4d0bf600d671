// Package extract builds the MetricSet of one generation from a dataset
// using a declarative vocabulary of label lookups.
package extract

import (
	"context"
	"fmt"

	"github.com/okian/recapdeck/internal/domain/dataset"
	"github.com/okian/recapdeck/internal/domain/format"
	"github.com/okian/recapdeck/internal/domain/locator"
	"github.com/okian/recapdeck/internal/domain/model"
	"github.com/okian/recapdeck/pkg/logger"
	"github.com/okian/recapdeck/pkg/metrics"
)

// Extractor resolves the vocabulary against datasets. It holds no
// per-dataset state and is safe for concurrent use.
type Extractor struct {
	aliases    map[string]string
	vocabulary []Spec
	log        logger.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithAliases overrides column aliases. Keys absent from m keep their
// defaults.
func WithAliases(m map[string]string) Option {
	return func(e *Extractor) {
		for k, v := range m {
			e.aliases[k] = v
		}
	}
}

// WithVocabulary replaces the metric table.
func WithVocabulary(specs []Spec) Option {
	return func(e *Extractor) {
		e.vocabulary = append([]Spec(nil), specs...)
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.log = l
		}
	}
}

// New returns an Extractor with the default vocabulary and aliases.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		aliases:    DefaultAliases(),
		vocabulary: DefaultVocabulary(),
		log:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the outcome of one extraction.
type Result struct {
	Metrics *model.MetricSet
	Notes   []model.Note
}

// run carries the state of one extraction.
type run struct {
	ds        *dataset.Dataset
	set       *model.MetricSet
	notes     []model.Note
	warnedFor map[string]bool
}

// Extract resolves every metric of the vocabulary. Missing data never fails
// the extraction; the only error is a cancelled context.
func (e *Extractor) Extract(ctx context.Context, ds *dataset.Dataset) (*Result, error) {
	r := &run{ds: ds, set: model.NewMetricSet(), warnedFor: make(map[string]bool)}

	e.proposed(ctx, r)

	for _, spec := range e.vocabulary {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("extract %s: %w", spec.Key, err)
		}
		cell, ok := e.lookup(ctx, r, spec)
		if !ok {
			metrics.RecordLocatorMiss(spec.Key)
			e.log.Debug(ctx, "metric not found", logger.String("metric", spec.Key))
		}
		if ok && spec.Format != "" && !cell.IsEmpty() {
			cell = dataset.TextCell(format.Apply(spec.Format, cell))
		}
		r.set.Add(spec.Key, cell)
	}

	return &Result{Metrics: r.set, Notes: r.notes}, nil
}

// proposed reads the anchor block, substituting the empty triple when the
// anchor is absent.
func (e *Extractor) proposed(ctx context.Context, r *run) {
	block, err := locator.FindLabeledBlock(r.ds, ProposedAnchor, len(ProposedLabels))
	if err != nil {
		e.log.Warn(ctx, "could not extract proposed metrics", logger.Error(err), logger.String("dataset", r.ds.Name()))
		metrics.RecordAnchorMissing()
		r.notes = append(r.notes, model.Note{Kind: model.NoteAnchorMissing, Detail: err.Error()})
		for _, p := range ProposedLabels {
			r.set.Add(p.Key, dataset.Cell{})
		}
		return
	}
	for _, p := range ProposedLabels {
		v, _ := block.Get(p.Label)
		r.set.Add(p.Key, v)
	}
}

func (e *Extractor) lookup(ctx context.Context, r *run, spec Spec) (dataset.Cell, bool) {
	switch spec.Lookup {
	case ByRow:
		labelCol, ok := e.column(ctx, r, spec.LabelColumn)
		if !ok {
			return dataset.Cell{}, false
		}
		valueCol, ok := e.column(ctx, r, spec.ValueColumn)
		if !ok {
			return dataset.Cell{}, false
		}
		for _, label := range spec.Labels {
			if v, ok := locator.FindRowValue(r.ds, labelCol, label, valueCol); ok {
				return v, true
			}
		}
	case ByPosition:
		for _, label := range spec.Labels {
			if v, ok := locator.FindRowValueAt(r.ds, spec.LabelIndex, label, spec.ValueIndex); ok {
				return v, true
			}
		}
	case Adjacent:
		for _, label := range spec.Labels {
			if v, ok := locator.FindAdjacent(r.ds, label); ok {
				return v, true
			}
		}
	case AdjacentBelow:
		for _, anchor := range spec.Anchors {
			for _, label := range spec.Labels {
				if v, ok := locator.FindAdjacentBelow(r.ds, anchor, label); ok {
					return v, true
				}
			}
		}
	case Fixed:
		col, ok := e.column(ctx, r, spec.ValueColumn)
		if !ok {
			return dataset.Cell{}, false
		}
		return locator.FindFixedPosition(r.ds, spec.Row, col)
	}
	return dataset.Cell{}, false
}

// column resolves alias to a column id present in the dataset. An absent
// alias is logged and noted once per run.
func (e *Extractor) column(ctx context.Context, r *run, alias string) (string, bool) {
	id, ok := e.aliases[alias]
	if !ok {
		id = alias
	}
	if r.ds.HasColumn(id) {
		return id, true
	}
	if !r.warnedFor[alias] {
		r.warnedFor[alias] = true
		e.log.Warn(ctx, "column alias not present in dataset",
			logger.String("alias", alias),
			logger.String("column", id),
			logger.String("dataset", r.ds.Name()))
		metrics.RecordAliasMiss(alias)
		r.notes = append(r.notes, model.Note{
			Kind:   model.NoteAliasMissing,
			Detail: fmt.Sprintf("%s (%q)", alias, id),
		})
	}
	return "", false
}
