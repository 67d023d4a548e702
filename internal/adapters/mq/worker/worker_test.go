package worker_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/hirepulse/internal/adapters/mq/queue"
	worker "github.com/okian/hirepulse/internal/adapters/mq/worker"
	model "github.com/okian/hirepulse/internal/domain/model"
	"github.com/okian/hirepulse/internal/domain/velocity"
	logging "github.com/okian/hirepulse/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

var errMissing = errors.New("missing")

// Mock implementations for testing.
type mockQueue struct {
	jobs chan worker.Job
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan worker.Job, 10)}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan worker.Job {
	return mq.jobs
}

type mockSource struct {
	mu       sync.RWMutex
	datasets map[string]*model.Dataset
}

func newMockSource() *mockSource {
	return &mockSource{datasets: make(map[string]*model.Dataset)}
}

func (ms *mockSource) Get(ctx context.Context, id string) (*model.Dataset, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	ds, ok := ms.datasets[id]
	if !ok {
		return nil, errMissing
	}
	return ds, nil
}

func (ms *mockSource) put(ds *model.Dataset) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.datasets[ds.ID] = ds
}

type panickingAnalyzer struct{}

func (panickingAnalyzer) Run(velocity.Input) velocity.Result {
	panic("boom")
}

var (
	ref        = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	fixedClock = func() time.Time { return ref }
)

func sampleDataset(id string) *model.Dataset {
	return &model.Dataset{
		ID: id,
		Requisitions: []model.Requisition{
			{ID: "r1", RecruiterID: "alice", Status: model.StatusOpen, OpenedAt: ref.AddDate(0, 0, -40)},
			{ID: "r2", RecruiterID: "bob", Status: model.StatusOpen, OpenedAt: ref.AddDate(0, 0, -10)},
		},
	}
}

func waitForDone(reg *worker.Registry, id string) worker.JobRecord {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if rec, err := reg.Get(id); err == nil && rec.Status.Done() {
			return rec
		}
		time.Sleep(5 * time.Millisecond)
	}
	rec, _ := reg.Get(id)
	return rec
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a running InMemoryWorker", t, func() {
		_ = logging.Init(logging.WithOutput(io.Discard))

		q := newMockQueue()
		src := newMockSource()
		src.put(sampleDataset("ds1"))
		reg := worker.NewRegistry()
		engine := velocity.NewEngine(velocity.WithClock(fixedClock))

		w := worker.NewInMemoryWorker(q, src, engine, reg,
			worker.WithName("test-worker"),
			worker.WithClock(fixedClock),
		)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a job for a stored dataset arrives", func() {
			job := worker.Job{ID: "j1", DatasetID: "ds1", SubmittedAt: ref.Add(-time.Second)}
			reg.Submit(job)
			q.jobs <- job
			rec := waitForDone(reg, "j1")

			convey.Convey("Then the result is stored", func() {
				convey.So(rec.Status, convey.ShouldEqual, model.JobSucceeded)
				convey.So(rec.Result, convey.ShouldNotBeNil)
				convey.So(rec.Result.RequisitionDecay.TotalReqs, convey.ShouldEqual, 1)
				convey.So(rec.StartedAt, convey.ShouldEqual, ref)
				convey.So(rec.FinishedAt, convey.ShouldEqual, ref)
				convey.So(rec.Error, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When the job carries a filter", func() {
			job := worker.Job{
				ID:        "j2",
				DatasetID: "ds1",
				Filter:    model.Filter{RecruiterIDs: model.Restrict("bob")},
			}
			reg.Submit(job)
			q.jobs <- job
			rec := waitForDone(reg, "j2")

			convey.Convey("Then only matching records are analyzed", func() {
				convey.So(rec.Status, convey.ShouldEqual, model.JobSucceeded)
				convey.So(rec.Result.RequisitionDecay.TotalReqs, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When the dataset is missing", func() {
			job := worker.Job{ID: "j3", DatasetID: "nope"}
			reg.Submit(job)
			q.jobs <- job
			rec := waitForDone(reg, "j3")

			convey.Convey("Then the job fails with the lookup error", func() {
				convey.So(rec.Status, convey.ShouldEqual, model.JobFailed)
				convey.So(rec.Error, convey.ShouldContainSubstring, "missing")
				convey.So(rec.Result, convey.ShouldBeNil)
			})
		})

		convey.Convey("When shutting down", func() {
			err := w.Shutdown(context.Background())

			convey.Convey("Then the worker stops", func() {
				convey.So(err, convey.ShouldBeNil)
			})
		})
	})
}

func TestWorkerPanics(t *testing.T) {
	convey.Convey("Given a worker whose analyzer panics", t, func() {
		_ = logging.Init(logging.WithOutput(io.Discard))

		q := newMockQueue()
		src := newMockSource()
		src.put(sampleDataset("ds1"))
		reg := worker.NewRegistry()
		w := worker.NewInMemoryWorker(q, src, panickingAnalyzer{}, reg)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		job := worker.Job{ID: "j1", DatasetID: "ds1"}
		reg.Submit(job)
		q.jobs <- job
		rec := waitForDone(reg, "j1")

		convey.Convey("Then the job is failed and the worker keeps running", func() {
			convey.So(rec.Status, convey.ShouldEqual, model.JobFailed)
			convey.So(rec.Error, convey.ShouldContainSubstring, worker.ErrAnalysisPanicked.Error())

			next := worker.Job{ID: "j2", DatasetID: "ds1"}
			reg.Submit(next)
			q.jobs <- next
			convey.So(waitForDone(reg, "j2").Status, convey.ShouldEqual, model.JobFailed)
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a pool over a real queue", t, func() {
		_ = logging.Init(logging.WithOutput(io.Discard))

		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		src := newMockSource()
		src.put(sampleDataset("ds1"))
		reg := worker.NewRegistry()
		engine := velocity.NewEngine(velocity.WithClock(fixedClock))
		pool := worker.NewPool(3, q, src, engine, reg)

		convey.So(pool.Size(), convey.ShouldEqual, 3)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		convey.Convey("When many jobs are queued and the pool shuts down", func() {
			const n = 25
			for i := 0; i < n; i++ {
				job := worker.Job{ID: fmt.Sprintf("job-%02d", i), DatasetID: "ds1"}
				reg.Submit(job)
				convey.So(q.Enqueue(ctx, job), convey.ShouldBeNil)
			}
			err := pool.Shutdown(context.Background())

			convey.Convey("Then every queued job is drained", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(reg.Counts()[model.JobSucceeded], convey.ShouldEqual, n)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When shut down twice", func() {
			first := pool.Shutdown(context.Background())
			var second error
			convey.So(func() { second = pool.Shutdown(context.Background()) }, convey.ShouldNotPanic)

			convey.Convey("Then both calls succeed", func() {
				convey.So(first, convey.ShouldBeNil)
				convey.So(second, convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a pool with a short maintenance interval", t, func() {
		_ = logging.Init(logging.WithOutput(io.Discard))

		q := queue.NewInMemoryQueue()
		reg := worker.NewRegistry()
		reg.Submit(worker.Job{ID: "old"})
		_ = reg.Fail("old", errMissing, ref.Add(-2*time.Hour))
		reg.Submit(worker.Job{ID: "pending"})

		pool := worker.NewPool(1, q, newMockSource(), velocity.NewEngine(), reg,
			worker.WithRetention(time.Hour),
			worker.WithMaintenanceInterval(5*time.Millisecond),
			worker.WithPoolClock(fixedClock),
		)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)
		defer func() { _ = pool.Shutdown(context.Background()) }()

		deadline := time.Now().Add(2 * time.Second)
		for reg.Len() > 1 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}

		convey.Convey("Then expired jobs are pruned and pending ones kept", func() {
			convey.So(reg.Len(), convey.ShouldEqual, 1)
			_, err := reg.Get("pending")
			convey.So(err, convey.ShouldBeNil)
		})
	})
}
