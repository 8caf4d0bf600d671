package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/recapdeck/internal/domain/model"
	"github.com/okian/recapdeck/pkg/logger"
	"github.com/okian/recapdeck/pkg/metrics"
)

// FileStore keeps batch records as an indented JSON array in one file.
// Writes go through a temporary file so readers never see a partial list.
type FileStore struct {
	path string
	mu   sync.Mutex
	log  logger.Logger
	now  func() time.Time
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a store backed by path. The file is created on the
// first Append.
func NewFileStore(path string, opts ...Option) *FileStore {
	s := &FileStore{path: path, log: logger.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

// List implements Store.
func (s *FileStore) List(ctx context.Context) []model.BatchRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx)
}

// Get implements Store.
func (s *FileStore) Get(ctx context.Context, name string) (model.BatchRecord, error) {
	recs := s.List(ctx)
	for i := len(recs) - 1; i >= 0; i-- {
		if recs[i].Name == name {
			return recs[i], nil
		}
	}
	return model.BatchRecord{}, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Count implements Store.
func (s *FileStore) Count(ctx context.Context) int {
	return len(s.List(ctx))
}

// Append implements Store. Missing ids and timestamps are filled in.
func (s *FileStore) Append(ctx context.Context, rec model.BatchRecord) error {
	if strings.TrimSpace(rec.Name) == "" {
		return ErrInvalidName
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recs := append(s.read(ctx), rec)
	if err := s.write(recs); err != nil {
		metrics.RecordBatchStoreError()
		return fmt.Errorf("save batches %s: %w", s.path, err)
	}
	metrics.UpdateBatchCount(len(recs))
	s.log.Info(ctx, "batch saved", logger.String("name", rec.Name), logger.String("id", rec.ID), logger.Int("total", len(recs)))
	return nil
}

// read loads the list; any failure is logged and reads as empty.
func (s *FileStore) read(ctx context.Context) []model.BatchRecord {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return []model.BatchRecord{}
	}
	if err != nil {
		metrics.RecordBatchStoreError()
		s.log.Warn(ctx, "could not read batches", logger.String("path", s.path), logger.Error(err))
		return []model.BatchRecord{}
	}
	var recs []model.BatchRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		metrics.RecordBatchStoreError()
		s.log.Warn(ctx, "could not parse batches", logger.String("path", s.path), logger.Error(err))
		return []model.BatchRecord{}
	}
	if recs == nil {
		recs = []model.BatchRecord{}
	}
	return recs
}

func (s *FileStore) write(recs []model.BatchRecord) error {
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".batches-*.json")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
