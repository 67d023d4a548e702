// Package worker runs queued analysis jobs against stored datasets.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/hirepulse/internal/domain/model"
	"github.com/okian/hirepulse/internal/domain/velocity"
	"github.com/okian/hirepulse/pkg/logger"
	"github.com/okian/hirepulse/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultRetention    = time.Hour
	maintenanceInterval = time.Minute
	poolShutdownTimeout = 30 * time.Second
)

// ErrAnalysisPanicked is recorded when the analyzer panics on a job.
var ErrAnalysisPanicked = errors.New("analysis panicked")

// Job is the payload workers read off the queue.
type Job = model.AnalysisJob

// DatasetSource resolves the dataset a job refers to.
type DatasetSource interface {
	Get(ctx context.Context, id string) (*model.Dataset, error)
}

// Analyzer runs the velocity engine.
type Analyzer interface {
	Run(in velocity.Input) velocity.Result
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs and stores their outcome in a Registry.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker once the job in flight finishes.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	source   DatasetSource
	analyzer Analyzer
	registry *Registry
	name     string
	now      func() time.Time

	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, src DatasetSource, a Analyzer, reg *Registry, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		source:   src,
		analyzer: a,
		registry: reg,
		name:     "worker",
		now:      time.Now,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "analysis job failed",
					logger.String("job_id", job.ID),
					logger.String("dataset_id", job.DatasetID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.signal()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) signal() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

func (w *InMemoryWorker) process(ctx context.Context, job Job) (err error) { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	if err := w.registry.Start(job.ID, w.now()); err != nil {
		return fmt.Errorf("start job %s: %w", job.ID, err)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrAnalysisPanicked, r)
			w.fail(job, err)
		}
	}()

	ds, err := w.source.Get(ctx, job.DatasetID)
	if err != nil {
		err = fmt.Errorf("load dataset %s: %w", job.DatasetID, err)
		w.fail(job, err)
		return err
	}

	in := velocity.Input{
		Candidates:   ds.Candidates,
		Requisitions: ds.Requisitions,
		Events:       ds.Events,
		Users:        ds.Users,
		Filter:       job.Filter,
	}

	start := time.Now()
	res := w.analyzer.Run(in)
	ObserveResult("async", time.Since(start), res)

	finished := w.now()
	if err := w.registry.Complete(job.ID, &res, finished); err != nil {
		return fmt.Errorf("complete job %s: %w", job.ID, err)
	}
	metrics.RecordJob(string(model.JobSucceeded), finished.Sub(job.SubmittedAt))
	w.logger.Debug(ctx, "analysis job finished",
		logger.String("job_id", job.ID),
		logger.Int("insights", len(res.Insights)),
	)
	return nil
}

func (w *InMemoryWorker) fail(job Job, cause error) { //nolint:gocritic // hugeParam
	finished := w.now()
	_ = w.registry.Fail(job.ID, cause, finished)
	metrics.RecordJob(string(model.JobFailed), finished.Sub(job.SubmittedAt))
	metrics.RecordErrorByComponent("worker", "job_failed")
}

// ObserveResult records the metrics for one engine run in the given mode.
func ObserveResult(mode string, d time.Duration, res velocity.Result) { //nolint:gocritic // hugeParam
	metrics.RecordAnalysis(mode, d)
	metrics.UpdatePopulation(res.CandidateDecay.TotalOffers, res.RequisitionDecay.TotalReqs)
	for _, in := range res.Insights {
		metrics.RecordInsight(string(in.Type))
	}
	if !res.Cohorts.IsSet() {
		metrics.RecordCohortSkipped()
	}
}

// Pool manages multiple workers and the upkeep of their registry.
type Pool struct {
	workers   []*InMemoryWorker
	queue     Queue
	registry  *Registry
	retention time.Duration
	interval  time.Duration
	now       func() time.Time

	shutdown chan struct{}
	stopOnce sync.Once

	logger logger.Logger
}

// NewPool creates a new worker pool. A workerCount below one uses one
// worker per CPU.
func NewPool(workerCount int, q Queue, src DatasetSource, a Analyzer, reg *Registry, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers:   make([]*InMemoryWorker, workerCount),
		queue:     q,
		registry:  reg,
		retention: defaultRetention,
		interval:  maintenanceInterval,
		now:       time.Now,
		shutdown:  make(chan struct{}),
		logger:    logger.Get().Named("worker-pool"),
	}
	for _, opt := range opts {
		opt(pool)
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(q, src, a, reg,
			WithName("worker-"+strconv.Itoa(i)),
			WithClock(pool.now),
		)
	}

	metrics.UpdateWorkerActiveCount(workerCount)

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, worker := range p.workers {
		go worker.Run(ctx)
	}

	go p.maintain(ctx)
}

func (p *Pool) maintain(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			if n := p.registry.Prune(p.now(), p.retention); n > 0 {
				p.logger.Debug(ctx, "pruned finished jobs", logger.Int("count", n))
			}
		}
	}
}

func (p *Pool) signal() {
	p.stopOnce.Do(func() { close(p.shutdown) })
}

// Shutdown closes the queue and lets workers drain what is left in it. When
// ctx expires first, remaining workers are told to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.signal()

	closer, ok := p.queue.(interface{ Close() error })
	if ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	} else {
		for _, worker := range p.workers {
			worker.signal()
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut error
	for i, worker := range p.workers {
		select {
		case <-worker.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			timedOut = fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
		}
	}
	for _, worker := range p.workers {
		worker.signal()
	}
	metrics.UpdateWorkerActiveCount(0)

	return timedOut
}
