// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/recapdeck/internal/adapters/mq/queue"
	"github.com/okian/recapdeck/internal/adapters/mq/worker"
	"github.com/okian/recapdeck/internal/adapters/repository"
	"github.com/okian/recapdeck/internal/domain/model"
	"github.com/okian/recapdeck/pkg/logger"
	"github.com/okian/recapdeck/pkg/metrics"
)

// DeckFileName is the file name of decks produced for jobs.
const DeckFileName = "recap_deck.pptx"

// Pipeline produces one deck for a request.
type Pipeline interface {
	Generate(ctx context.Context, req model.GenerationRequest) (*model.Report, error)
}

// Service queues generation jobs and runs them on a worker pool. Each job
// gets its own directory under the output root.
type Service struct {
	mu sync.RWMutex

	generator  Pipeline
	batches    repository.Store
	jobQueue   *queue.InMemoryQueue
	workerPool *worker.Pool
	jobs       map[string]*model.Job

	workerCount  int
	queueSize    int
	jobTimeout   time.Duration
	outputDir    string
	templatePath string
	now          func() time.Time

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of waiting jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithJobTimeout sets the per-job deadline.
func WithJobTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.jobTimeout = d
		}
	}
}

// WithOutputDir sets the root directory for job uploads and decks.
func WithOutputDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.outputDir = dir
		}
	}
}

// WithTemplatePath sets the template used when a request names none.
func WithTemplatePath(path string) Option {
	return func(s *Service) { s.templatePath = path }
}

// WithGenerator sets the pipeline jobs run through.
func WithGenerator(g Pipeline) Option {
	return func(s *Service) {
		if g != nil {
			s.generator = g
		}
	}
}

// WithBatches sets the store listed by Batches.
func WithBatches(store repository.Store) Option {
	return func(s *Service) { s.batches = store }
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		jobs:        make(map[string]*model.Job),
		workerCount: runtime.NumCPU(),
		queueSize:   64,
		jobTimeout:  2 * time.Minute,
		outputDir:   "output",
		now:         time.Now,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.generator == nil {
		s.generator = NewGenerator(WithGeneratorLogger(s.logger), WithBatchStore(s.batches))
	}
	return s
}

// Start initializes and starts the queue and worker pool. Cancelling ctx
// does not stop the workers; call Stop to drain them.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting recap service...")

	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	s.jobQueue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.workerPool = worker.NewPool(s.workerCount, s.jobQueue, s, s.logger, worker.WithJobTimeout(s.jobTimeout))
	// Workers outlive ctx so that Stop, not the caller's cancellation,
	// decides when queued jobs stop draining.
	s.workerPool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "recap service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Duration("jobTimeoutMs", s.jobTimeout),
	)
	return nil
}

// Stop drains queued jobs and stops the workers.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	// Workers update job state under mu while draining.
	pool := s.workerPool
	s.started = false
	s.mu.Unlock()

	s.logger.Info(ctx, "stopping recap service...")
	if err := pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
	}
	s.logger.Info(ctx, "recap service stopped")
}

// UploadDir creates a fresh directory for the files of one request.
func (s *Service) UploadDir(_ context.Context) (string, error) {
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return "", err
	}
	return os.MkdirTemp(s.outputDir, "upload-")
}

// Submit queues a generation. The output path and template default to the
// job directory and the configured template.
func (s *Service) Submit(ctx context.Context, req model.GenerationRequest) (model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return model.Job{}, ErrNotStarted
	}
	if req.TemplatePath == "" {
		req.TemplatePath = s.templatePath
	}
	id := uuid.NewString()
	if req.OutputPath == "" {
		req.OutputPath = filepath.Join(s.outputDir, id, DeckFileName)
	}
	if err := validateRequest(req); err != nil {
		return model.Job{}, err
	}

	job := &model.Job{ID: id, Status: model.JobQueued, OutputPath: req.OutputPath, CreatedAt: s.now().UTC()}
	if err := s.jobQueue.Enqueue(ctx, model.Task{JobID: id, Request: req}); err != nil {
		if errors.Is(err, queue.ErrFull) {
			return model.Job{}, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return model.Job{}, err
	}
	s.jobs[id] = job
	s.logger.Info(ctx, "job queued", logger.String("job_id", id), logger.String("dataset", filepath.Base(req.DatasetPath)))
	return *job, nil
}

// Process implements worker.Processor.
func (s *Service) Process(ctx context.Context, t worker.Task) error {
	s.setStatus(t.JobID, func(j *model.Job) { j.Status = model.JobRunning })

	report, err := s.generator.Generate(ctx, t.Request)

	s.setStatus(t.JobID, func(j *model.Job) {
		j.FinishedAt = s.now().UTC()
		if err != nil {
			j.Status = model.JobFailed
			j.Error = err.Error()
			return
		}
		j.Status = model.JobSucceeded
		j.Report = report
	})
	return err
}

func (s *Service) setStatus(id string, update func(*model.Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j, ok := s.jobs[id]; ok {
		update(j)
	}
}

// Job returns a snapshot of the job with id.
func (s *Service) Job(_ context.Context, id string) (model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return model.Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return *j, nil
}

// Deck returns the output path of a finished job.
func (s *Service) Deck(ctx context.Context, id string) (string, error) {
	j, err := s.Job(ctx, id)
	if err != nil {
		return "", err
	}
	if j.Status != model.JobSucceeded {
		return "", fmt.Errorf("%w: %s is %s", ErrJobNotDone, id, j.Status)
	}
	return j.OutputPath, nil
}

// Batches lists prior-run records.
func (s *Service) Batches(ctx context.Context) []model.BatchRecord {
	if s.batches == nil {
		return []model.BatchRecord{}
	}
	return s.batches.List(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byStatus := make(map[model.JobStatus]int)
	for _, j := range s.jobs {
		byStatus[j.Status]++
	}
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"jobs":        len(s.jobs),
		"queued":      byStatus[model.JobQueued],
		"running":     byStatus[model.JobRunning],
		"succeeded":   byStatus[model.JobSucceeded],
		"failed":      byStatus[model.JobFailed],
	}
	if s.started {
		queueLen := s.jobQueue.Len(context.Background())
		stats["queueLength"] = queueLen
		metrics.UpdateQueueSize(queueLen)
	}
	return stats
}
