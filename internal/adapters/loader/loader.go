// Package loader reads CSV and Excel reports into datasets.
package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/okian/recapdeck/internal/domain/dataset"
	"github.com/okian/recapdeck/pkg/logger"
	"github.com/okian/recapdeck/pkg/metrics"
)

// Format is a supported input file type.
type Format string

const (
	CSV  Format = "csv"
	XLS  Format = "xls"
	XLSX Format = "xlsx"
)

// DetectFormat maps a file name to its format by extension, ignoring case.
func DetectFormat(name string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".csv":
		return CSV, nil
	case ".xls":
		return XLS, nil
	case ".xlsx":
		return XLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Loader reads input files. The zero sheet name selects the first sheet.
type Loader struct {
	sheet string
	log   logger.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithSheet selects a worksheet by name.
func WithSheet(name string) Option {
	return func(l *Loader) { l.sheet = name }
}

// WithLogger sets the logger.
func WithLogger(lg logger.Logger) Option {
	return func(l *Loader) {
		if lg != nil {
			l.log = lg
		}
	}
}

// New returns a Loader.
func New(opts ...Option) *Loader {
	l := &Loader{log: logger.Nop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads path into a dataset named after the file. The first record is
// the header row.
func (l *Loader) Load(ctx context.Context, path string) (*dataset.Dataset, error) {
	f, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	var records [][]string
	switch f {
	case CSV:
		records, err = l.readCSV(ctx, path)
	case XLSX:
		records, err = l.readXLSX(path)
	case XLS:
		records, err = l.readXLS(path)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}

	ds := dataset.FromRecords(filepath.Base(path), records)
	metrics.ObserveDatasetCells(ds.Cells())
	l.log.Info(ctx, "dataset loaded",
		logger.String("file", ds.Name()),
		logger.String("format", string(f)),
		logger.Int("rows", ds.NumRows()),
		logger.Int("columns", ds.NumColumns()),
		logger.Duration("duration_ms", time.Since(start)))
	l.log.Debug(ctx, "dataset columns", logger.Any("columns", ds.Columns()))
	return ds, nil
}
