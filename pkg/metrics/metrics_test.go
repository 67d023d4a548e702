package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then collectors are registered under the default namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.cohortSkipped.Inc()
				n, err := testutil.GatherAndCount(registry, "hirepulse_velocity_cohort_skipped_total")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.datasets.Set(3)

			Convey("Then names and labels follow the options", func() {
				expected := `
# HELP test_unit_datasets Datasets currently stored
# TYPE test_unit_datasets gauge
test_unit_datasets{env="test"} 3
`
				err := testutil.GatherAndCompare(registry, strings.NewReader(expected), "test_unit_datasets")
				So(err, ShouldBeNil)
			})
		})

		Convey("When two managers share a registry", func() {
			registry := prometheus.NewRegistry()
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then registration panics on duplicates", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording analyses", func() {
			before := testutil.ToFloat64(globalManager.analyses.WithLabelValues("sync"))
			RecordAnalysis("sync", 12*time.Millisecond)
			RecordInsight("warning")
			UpdatePopulation(30, 9)
			RecordCohortSkipped()

			Convey("Then counters and gauges move", func() {
				So(testutil.ToFloat64(globalManager.analyses.WithLabelValues("sync")), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.offersAnalyzed), ShouldEqual, 30)
				So(testutil.ToFloat64(globalManager.reqsAnalyzed), ShouldEqual, 9)
				So(testutil.ToFloat64(globalManager.insights.WithLabelValues("warning")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When recording queue state", func() {
			UpdateQueueCapacity(10)
			UpdateQueueSize(5, 10)

			Convey("Then utilization is size over capacity", func() {
				So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 10)
				So(testutil.ToFloat64(globalManager.queueUtilization), ShouldEqual, 0.5)
			})
		})

		Convey("When recording datasets, jobs and HTTP traffic", func() {
			Convey("Then nothing panics", func() {
				So(func() {
					UpdateDatasetCount(2)
					RecordDatasetImport("api")
					RecordDatasetImportError("file")
					RecordRepositoryLatency("memory", "put", 0.2)
					RecordQueueEnqueue()
					RecordQueueDequeue()
					RecordQueueRejected("full")
					UpdateWorkerActiveCount(4)
					RecordJob("succeeded", 40*time.Millisecond)
					UpdateJobsRetained(1)
					RecordHTTPRequest("/datasets", "POST", "201")
					RecordHTTPRequestDuration("/datasets", "POST", "201", 3.5)
					RecordErrorByComponent("api", "bad_request")
					UpdateSystemMemoryUsage(1 << 20)
					UpdateSystemGoroutineCount(12)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording is disabled", func() {
			SetEnabled(false)
			defer SetEnabled(true)
			before := testutil.ToFloat64(globalManager.cohortSkipped)
			RecordCohortSkipped()

			Convey("Then values do not change", func() {
				So(testutil.ToFloat64(globalManager.cohortSkipped), ShouldEqual, before)
			})
		})

		Convey("Then the exported registry serves the collectors", func() {
			So(GetRegistry(), ShouldEqual, customRegistry)
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			So(len(families), ShouldBeGreaterThan, 0)
		})
	})
}
