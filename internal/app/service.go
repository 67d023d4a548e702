// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/hirepulse/internal/adapters/loader"
	jobqueue "github.com/okian/hirepulse/internal/adapters/mq/queue"
	workerpool "github.com/okian/hirepulse/internal/adapters/mq/worker"
	"github.com/okian/hirepulse/internal/adapters/repository"
	"github.com/okian/hirepulse/internal/config"
	"github.com/okian/hirepulse/internal/domain/model"
	"github.com/okian/hirepulse/internal/domain/velocity"
	"github.com/okian/hirepulse/pkg/logger"
	"github.com/okian/hirepulse/pkg/metrics"
)

// Import sources used as metric labels.
const (
	SourceAPI  = "api"
	SourceFile = "file"
)

// Service implements the API dependencies for the velocity service.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	engine   *velocity.Engine
	queue    *jobqueue.InMemoryQueue
	registry *workerpool.Registry
	pool     *workerpool.Pool

	// Configuration
	workerCount  int
	queueSize    int
	storeDriver  string
	sqlitePath   string
	datasetFile  string
	watchDataset bool
	jobRetention time.Duration
	now          func() time.Time

	// State
	started   bool
	ownsStore bool
	cancel    context.CancelFunc
	stopWatch context.CancelFunc
	watchers  sync.WaitGroup

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of analysis workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending analysis jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStore uses an already opened dataset store. It takes precedence over
// WithStoreDriver and is left open by Stop.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithStoreDriver selects the dataset store opened on Start. path is only
// used by the sqlite driver.
func WithStoreDriver(driver, path string) Option {
	return func(s *Service) {
		if driver != "" {
			s.storeDriver = driver
			s.sqlitePath = path
		}
	}
}

// WithDatasetFile imports the dataset at path on Start and, when watch is
// true, re-imports it whenever the file changes.
func WithDatasetFile(path string, watch bool) Option {
	return func(s *Service) {
		s.datasetFile = path
		s.watchDataset = watch
	}
}

// WithJobRetention sets how long finished jobs remain queryable.
func WithJobRetention(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.jobRetention = d
		}
	}
}

// WithClock sets the reference clock for analyses and job timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  runtime.NumCPU(),
		queueSize:    1_000,
		storeDriver:  config.DriverMemory,
		jobRetention: time.Hour,
		now:          func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start opens the store, starts the worker pool and imports the configured
// dataset file.
func (s *Service) Start(ctx context.Context) error {
	watchCtx, fresh, err := s.start(ctx)
	if err != nil || !fresh {
		return err
	}

	if s.datasetFile != "" {
		if err := s.loadDatasetFile(ctx); err != nil {
			s.logger.Error(ctx, "initial dataset import failed",
				logger.String("path", s.datasetFile), logger.Error(err))
		}
		if s.watchDataset {
			go func() {
				defer s.watchers.Done()
				s.watchDatasetFile(watchCtx)
			}()
		}
	}

	s.logger.Info(ctx, "velocity service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
	)
	return nil
}

// start builds the components under the lock. fresh is false when the
// service was already running. The returned context scopes the dataset
// watcher, which is registered with s.watchers before the lock is released.
func (s *Service) start(ctx context.Context) (watchCtx context.Context, fresh bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil, false, nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting velocity service...")

	if s.store == nil {
		store, err := openStore(ctx, s.storeDriver, s.sqlitePath)
		if err != nil {
			return nil, false, err
		}
		s.store = store
		s.ownsStore = true
	}
	s.logger.Info(ctx, "dataset store ready", logger.String("driver", s.storeDriver))

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	watchCtx, s.stopWatch = context.WithCancel(runCtx)

	s.engine = velocity.NewEngine(velocity.WithClock(s.now))
	s.queue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))
	s.registry = workerpool.NewRegistry()
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.store, s.engine, s.registry,
		workerpool.WithRetention(s.jobRetention),
		workerpool.WithPoolClock(s.now),
	)
	s.pool.Start(runCtx)
	s.started = true
	if s.datasetFile != "" && s.watchDataset {
		s.watchers.Add(1)
	}

	metrics.UpdateDatasetCount(s.store.Count(ctx))
	return watchCtx, true, nil
}

func (s *Service) watchDatasetFile(ctx context.Context) {
	err := loader.Watch(ctx, s.datasetFile, func(ds *model.Dataset) {
		if _, err := s.importFileDataset(ctx, ds); err != nil {
			s.logger.Error(ctx, "dataset re-import failed", logger.Error(err))
		}
	}, loader.WithLogger(s.logger.Named("loader")))
	if err != nil {
		s.logger.Error(ctx, "dataset watcher stopped", logger.Error(err))
	}
}

func openStore(ctx context.Context, driver, path string) (repository.Store, error) {
	switch driver {
	case config.DriverSQLite:
		store, err := repository.NewSQLiteStore(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil
	case config.DriverMemory, "":
		return repository.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

func (s *Service) loadDatasetFile(ctx context.Context) error {
	ds, err := loader.LoadFile(s.datasetFile)
	if err != nil {
		metrics.RecordDatasetImportError(SourceFile)
		return err
	}
	_, err = s.importFileDataset(ctx, ds)
	return err
}

// importFileDataset keys file datasets by name so reloads replace the
// previous import instead of adding a new one.
func (s *Service) importFileDataset(ctx context.Context, ds *model.Dataset) (model.DatasetSummary, error) {
	if ds.ID == "" {
		ds.ID = ds.Name
	}
	return s.ImportDataset(ctx, ds, SourceFile)
}

// Stop gracefully shuts down the service, letting queued jobs finish.
// Calls already in progress complete before the store is closed.
func (s *Service) Stop() {
	// The watcher imports under the read lock and must exit before the
	// write lock is taken.
	s.mu.RLock()
	stopWatch := s.stopWatch
	s.mu.RUnlock()
	if stopWatch != nil {
		stopWatch()
	}
	s.watchers.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping velocity service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
	}
	s.cancel()

	if s.ownsStore {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(ctx, "closing dataset store", logger.Error(err))
		}
		s.store = nil
		s.ownsStore = false
	}

	s.started = false
	s.logger.Info(ctx, "velocity service stopped")
}

// acquire takes the read lock for the duration of an operation. On success
// the caller must release it with s.mu.RUnlock.
func (s *Service) acquire() error {
	s.mu.RLock()
	if !s.started {
		s.mu.RUnlock()
		return ErrNotStarted
	}
	return nil
}

// ImportDataset validates and stores ds. source labels the import in metrics.
func (s *Service) ImportDataset(ctx context.Context, ds *model.Dataset, source string) (model.DatasetSummary, error) {
	if err := s.acquire(); err != nil {
		return model.DatasetSummary{}, err
	}
	defer s.mu.RUnlock()

	if ds == nil {
		metrics.RecordDatasetImportError(source)
		return model.DatasetSummary{}, fmt.Errorf("%w: empty body", ErrInvalidDataset)
	}
	if err := loader.Validate(ds); err != nil {
		metrics.RecordDatasetImportError(source)
		return model.DatasetSummary{}, fmt.Errorf("%w: %w", ErrInvalidDataset, err)
	}
	if err := s.store.Put(ctx, ds); err != nil {
		metrics.RecordDatasetImportError(source)
		return model.DatasetSummary{}, fmt.Errorf("store dataset: %w", err)
	}

	metrics.RecordDatasetImport(source)
	metrics.UpdateDatasetCount(s.store.Count(ctx))
	s.logger.Info(ctx, "dataset imported",
		logger.String("id", ds.ID),
		logger.String("source", source),
		logger.Int("requisitions", len(ds.Requisitions)),
		logger.Int("candidates", len(ds.Candidates)),
	)
	return ds.Summary(), nil
}

// ListDatasets returns summaries of every stored dataset, oldest first.
func (s *Service) ListDatasets(ctx context.Context) ([]model.DatasetSummary, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.mu.RUnlock()
	return s.store.List(ctx)
}

// GetDataset returns the summary of one dataset.
func (s *Service) GetDataset(ctx context.Context, id string) (model.DatasetSummary, error) {
	if err := s.acquire(); err != nil {
		return model.DatasetSummary{}, err
	}
	defer s.mu.RUnlock()

	ds, err := s.dataset(ctx, id)
	if err != nil {
		return model.DatasetSummary{}, err
	}
	return ds.Summary(), nil
}

// DeleteDataset removes a dataset. Jobs already queued for it will fail.
func (s *Service) DeleteDataset(ctx context.Context, id string) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.mu.RUnlock()

	if err := s.store.Delete(ctx, id); err != nil {
		return mapStoreErr(id, err)
	}
	metrics.UpdateDatasetCount(s.store.Count(ctx))
	return nil
}

// dataset expects the read lock to be held.
func (s *Service) dataset(ctx context.Context, id string) (*model.Dataset, error) {
	ds, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, mapStoreErr(id, err)
	}
	return ds, nil
}

func mapStoreErr(id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("dataset %s: %w", id, ErrNotFound)
	}
	return fmt.Errorf("dataset %s: %w", id, err)
}

// Analyze runs the engine synchronously over a stored dataset.
func (s *Service) Analyze(ctx context.Context, datasetID string, f model.Filter) (velocity.Result, error) {
	if err := s.acquire(); err != nil {
		return velocity.Result{}, err
	}
	defer s.mu.RUnlock()

	ds, err := s.dataset(ctx, datasetID)
	if err != nil {
		return velocity.Result{}, err
	}

	start := time.Now()
	res := s.engine.Run(velocity.Input{
		Candidates:   ds.Candidates,
		Requisitions: ds.Requisitions,
		Events:       ds.Events,
		Users:        ds.Users,
		Filter:       f,
	})
	workerpool.ObserveResult("sync", time.Since(start), res)

	return res, nil
}

// SubmitJob queues an asynchronous analysis and returns its job id.
func (s *Service) SubmitJob(ctx context.Context, datasetID string, f model.Filter) (string, error) {
	if err := s.acquire(); err != nil {
		return "", err
	}
	defer s.mu.RUnlock()

	if _, err := s.dataset(ctx, datasetID); err != nil {
		return "", err
	}

	job := model.AnalysisJob{
		ID:          uuid.NewString(),
		DatasetID:   datasetID,
		Filter:      f,
		SubmittedAt: s.now(),
	}
	s.registry.Submit(job)

	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.registry.Remove(job.ID)
		if errors.Is(err, jobqueue.ErrFull) || errors.Is(err, jobqueue.ErrClosed) {
			return "", fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return "", fmt.Errorf("enqueue job: %w", err)
	}

	s.logger.Debug(ctx, "analysis job queued",
		logger.String("job_id", job.ID),
		logger.String("dataset_id", datasetID),
	)
	return job.ID, nil
}

// Job returns the status and, once finished, the result of a job.
func (s *Service) Job(ctx context.Context, id string) (workerpool.JobRecord, error) {
	if err := s.acquire(); err != nil {
		return workerpool.JobRecord{}, err
	}
	defer s.mu.RUnlock()

	rec, err := s.registry.Get(id)
	if err != nil {
		return workerpool.JobRecord{}, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	return rec, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"storeDriver": s.storeDriver,
	}

	if s.started {
		queueLen := s.queue.Len(ctx)
		datasets := s.store.Count(ctx)
		counts := s.registry.Counts()

		stats["queueLength"] = queueLen
		stats["datasets"] = datasets
		stats["jobsQueued"] = counts[model.JobQueued]
		stats["jobsRunning"] = counts[model.JobRunning]
		stats["jobsSucceeded"] = counts[model.JobSucceeded]
		stats["jobsFailed"] = counts[model.JobFailed]

		metrics.UpdateQueueSize(queueLen, s.queue.Capacity())
		metrics.UpdateDatasetCount(datasets)
	}

	return stats
}
