package service_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/hirepulse/internal/adapters/repository"
	service "github.com/okian/hirepulse/internal/app"
	"github.com/okian/hirepulse/internal/config"
	"github.com/okian/hirepulse/internal/domain/model"
	"github.com/okian/hirepulse/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithOutput(io.Discard)); err != nil {
		panic(err)
	}
}

var ref = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return ref }

func sampleDataset() *model.Dataset {
	return &model.Dataset{
		Name: "q2",
		Requisitions: []model.Requisition{
			{ID: "r1", RecruiterID: "alice", Status: model.StatusOpen, OpenedAt: ref.AddDate(0, 0, -40)},
			{ID: "r2", RecruiterID: "bob", Status: model.StatusOpen, OpenedAt: ref.AddDate(0, 0, -10)},
			{ID: "r3", RecruiterID: "bob", Status: model.StatusClosed, OpenedAt: ref.AddDate(0, 0, -60), ClosedAt: ref.AddDate(0, 0, -30)},
		},
		Candidates: []model.Candidate{
			{ID: "c1", RequisitionID: "r3", Disposition: model.DispositionHired},
		},
	}
}

func startService(opts ...service.Option) *service.Service {
	svc := service.New(append([]service.Option{
		service.WithWorkerCount(2),
		service.WithClock(fixedClock),
	}, opts...)...)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service that has not started", t, func() {
		svc := service.New()
		ctx := context.Background()

		Convey("Then operations report ErrNotStarted", func() {
			_, err := svc.ListDatasets(ctx)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.ImportDataset(ctx, sampleDataset(), service.SourceAPI)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.SubmitJob(ctx, "x", model.Filter{})
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})

		Convey("Then Stop is a no-op", func() {
			So(svc.Stop, ShouldNotPanic)
		})
	})

	Convey("Given a started service", t, func() {
		svc := startService(service.WithQueueSize(10))
		defer svc.Stop()

		Convey("Then stats describe the running components", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, true)
			So(stats["workerCount"], ShouldEqual, 2)
			So(stats["queueSize"], ShouldEqual, 10)
			So(stats["datasets"], ShouldEqual, 0)
			So(stats["storeDriver"], ShouldEqual, config.DriverMemory)
		})

		Convey("Then starting again is a no-op", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
		})
	})

	Convey("Given an unknown store driver", t, func() {
		svc := service.New(service.WithStoreDriver("postgres", ""))

		Convey("Then Start fails", func() {
			So(svc.Start(context.Background()), ShouldNotBeNil)
		})
	})
}

func TestService_Datasets(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := startService()
		defer svc.Stop()
		ctx := context.Background()

		Convey("When importing a valid dataset", func() {
			sum, err := svc.ImportDataset(ctx, sampleDataset(), service.SourceAPI)
			So(err, ShouldBeNil)

			Convey("Then it is listed and retrievable", func() {
				So(sum.ID, ShouldNotBeEmpty)
				So(sum.Requisitions, ShouldEqual, 3)

				list, err := svc.ListDatasets(ctx)
				So(err, ShouldBeNil)
				So(list, ShouldHaveLength, 1)

				got, err := svc.GetDataset(ctx, sum.ID)
				So(err, ShouldBeNil)
				So(got.Name, ShouldEqual, "q2")
			})

			Convey("Then deleting it makes it unknown", func() {
				So(svc.DeleteDataset(ctx, sum.ID), ShouldBeNil)
				_, err := svc.GetDataset(ctx, sum.ID)
				So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
				So(errors.Is(svc.DeleteDataset(ctx, sum.ID), service.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When importing a dataset with duplicate requisitions", func() {
			ds := sampleDataset()
			ds.Requisitions[1].ID = "r1"
			_, err := svc.ImportDataset(ctx, ds, service.SourceAPI)

			Convey("Then ErrInvalidDataset is returned", func() {
				So(errors.Is(err, service.ErrInvalidDataset), ShouldBeTrue)
			})
		})

		Convey("When importing nothing", func() {
			_, err := svc.ImportDataset(ctx, nil, service.SourceAPI)

			Convey("Then ErrInvalidDataset is returned", func() {
				So(errors.Is(err, service.ErrInvalidDataset), ShouldBeTrue)
			})
		})
	})
}

func TestService_Analysis(t *testing.T) {
	Convey("Given a started service with one dataset", t, func() {
		svc := startService()
		defer svc.Stop()
		ctx := context.Background()
		sum, err := svc.ImportDataset(ctx, sampleDataset(), service.SourceAPI)
		So(err, ShouldBeNil)

		Convey("When analyzing synchronously", func() {
			res, err := svc.Analyze(ctx, sum.ID, model.Filter{})

			Convey("Then the engine runs at the service clock", func() {
				So(err, ShouldBeNil)
				So(res.RequisitionDecay.TotalReqs, ShouldEqual, 2)
				So(res.Insights, ShouldNotBeEmpty)
			})
		})

		Convey("When analyzing with a filter", func() {
			res, err := svc.Analyze(ctx, sum.ID, model.Filter{RecruiterIDs: model.Restrict("alice")})

			Convey("Then only matching requisitions count", func() {
				So(err, ShouldBeNil)
				So(res.RequisitionDecay.TotalReqs, ShouldEqual, 1)
			})
		})

		Convey("When analyzing an unknown dataset", func() {
			_, err := svc.Analyze(ctx, "missing", model.Filter{})

			Convey("Then ErrNotFound is returned", func() {
				So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When submitting a job", func() {
			id, err := svc.SubmitJob(ctx, sum.ID, model.Filter{})
			So(err, ShouldBeNil)

			deadline := time.Now().Add(2 * time.Second)
			rec, err := svc.Job(ctx, id)
			for err == nil && !rec.Status.Done() && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
				rec, err = svc.Job(ctx, id)
			}

			Convey("Then it finishes with the same result as a sync run", func() {
				So(err, ShouldBeNil)
				So(rec.Status, ShouldEqual, model.JobSucceeded)
				So(rec.SubmittedAt, ShouldEqual, ref)
				sync, _ := svc.Analyze(ctx, sum.ID, model.Filter{})
				So(*rec.Result, ShouldResemble, sync)
			})
		})

		Convey("When submitting for an unknown dataset", func() {
			_, err := svc.SubmitJob(ctx, "missing", model.Filter{})

			Convey("Then ErrNotFound is returned", func() {
				So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When asking for an unknown job", func() {
			_, err := svc.Job(ctx, "missing")

			Convey("Then ErrNotFound is returned", func() {
				So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_Stores(t *testing.T) {
	Convey("Given a service backed by sqlite", t, func() {
		path := filepath.Join(t.TempDir(), "hp.db")
		svc := startService(service.WithStoreDriver(config.DriverSQLite, path))
		ctx := context.Background()

		sum, err := svc.ImportDataset(ctx, sampleDataset(), service.SourceAPI)
		So(err, ShouldBeNil)
		svc.Stop()

		Convey("When restarted on the same file", func() {
			svc := startService(service.WithStoreDriver(config.DriverSQLite, path))
			defer svc.Stop()

			Convey("Then the dataset survives", func() {
				got, err := svc.GetDataset(ctx, sum.ID)
				So(err, ShouldBeNil)
				So(got.Requisitions, ShouldEqual, 3)
			})
		})
	})

	Convey("Given a caller-supplied store", t, func() {
		store := repository.NewMemoryStore()
		svc := startService(service.WithStore(store))
		_, err := svc.ImportDataset(context.Background(), sampleDataset(), service.SourceAPI)
		So(err, ShouldBeNil)
		svc.Stop()

		Convey("Then Stop leaves it open", func() {
			So(store.Count(context.Background()), ShouldEqual, 1)
		})
	})
}

func TestService_DatasetFile(t *testing.T) {
	Convey("Given a dataset file", t, func() {
		path := filepath.Join(t.TempDir(), "pipeline.json")
		body := `{"requisitions":[{"id":"r1","status":"open","opened_at":"2024-05-01T00:00:00Z"}]}`
		So(os.WriteFile(path, []byte(body), 0o600), ShouldBeNil)

		svc := startService(service.WithDatasetFile(path, false))
		defer svc.Stop()

		Convey("Then it is imported under its file name", func() {
			got, err := svc.GetDataset(context.Background(), "pipeline.json")
			So(err, ShouldBeNil)
			So(got.Requisitions, ShouldEqual, 1)
		})
	})
}

func TestService_StopWhileBusy(t *testing.T) {
	Convey("Given callers analyzing while the service stops", t, func() {
		var unexpected atomic.Int64
		for range 20 {
			svc := startService()
			ctx := context.Background()
			sum, err := svc.ImportDataset(ctx, sampleDataset(), service.SourceAPI)
			So(err, ShouldBeNil)

			var wg sync.WaitGroup
			for range 8 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer func() {
						if recover() != nil {
							unexpected.Add(1)
						}
					}()
					for range 200 {
						if _, err := svc.Analyze(ctx, sum.ID, model.Filter{}); err != nil && !errors.Is(err, service.ErrNotStarted) {
							unexpected.Add(1)
						}
						if _, err := svc.GetDataset(ctx, sum.ID); err != nil && !errors.Is(err, service.ErrNotStarted) {
							unexpected.Add(1)
						}
						if _, err := svc.SubmitJob(ctx, sum.ID, model.Filter{}); err != nil &&
							!errors.Is(err, service.ErrNotStarted) && !errors.Is(err, service.ErrBackpressure) {
							unexpected.Add(1)
						}
					}
				}()
			}
			svc.Stop()
			wg.Wait()
		}

		Convey("Then every call either succeeds or reports ErrNotStarted", func() {
			So(unexpected.Load(), ShouldEqual, 0)
		})
	})

	Convey("Given a watched dataset file", t, func() {
		path := filepath.Join(t.TempDir(), "pipeline.json")
		body := `{"requisitions":[{"id":"r1","status":"open","opened_at":"2024-05-01T00:00:00Z"}]}`
		So(os.WriteFile(path, []byte(body), 0o600), ShouldBeNil)

		svc := startService(service.WithDatasetFile(path, true))

		Convey("Then Stop waits for the watcher and can be repeated", func() {
			done := make(chan struct{})
			go func() {
				svc.Stop()
				svc.Stop()
				close(done)
			}()
			So(os.WriteFile(path, []byte(body), 0o600), ShouldBeNil)

			select {
			case <-done:
			case <-time.After(5 * time.Second):
				t.Fatal("stop did not return")
			}
			_, err := svc.ListDatasets(context.Background())
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})
}
