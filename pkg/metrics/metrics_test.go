package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then the pipeline collectors are registered", func() {
				So(manager, ShouldNotBeNil)
				manager.recordsLoaded.Set(3)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["prenoms_pipeline_records_loaded"], ShouldBeTrue)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then names and labels follow the options", func() {
				manager.queries.WithLabelValues("trend").Inc()
				So(testutil.ToFloat64(manager.queries.WithLabelValues("trend")), ShouldEqual, 1)
				n, err := testutil.GatherAndCount(registry, "test_unit_queries_total")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording pipeline events", func() {
			before := testutil.ToFloat64(globalManager.rowsDropped.WithLabelValues("rare_name"))
			RecordRowsDropped("rare_name", 4)
			RecordQuery("geo", 1.5)
			RecordQueryEmpty("geo")
			RecordQueryError("gender_spectrum")
			RecordRegionUnresolved(2)
			RecordStoreLoad("registry", 12)
			UpdateRecordsLoaded(10)
			UpdateBoundariesLoaded("department", 96)
			UpdateMappingEntries(96)

			Convey("Then the counters and gauges move", func() {
				So(testutil.ToFloat64(globalManager.rowsDropped.WithLabelValues("rare_name")), ShouldEqual, before+4)
				So(testutil.ToFloat64(globalManager.recordsLoaded), ShouldEqual, 10)
				So(testutil.ToFloat64(globalManager.boundariesLoaded.WithLabelValues("department")), ShouldEqual, 96)
				So(testutil.ToFloat64(globalManager.mappingEntries), ShouldEqual, 96)
				So(testutil.ToFloat64(globalManager.queryEmpty.WithLabelValues("geo")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When recording HTTP and system metrics", func() {
			So(func() {
				RecordHTTPRequest("trend", "GET", "200")
				RecordHTTPRequestDuration("trend", "GET", "200", 3)
				RecordErrorByType("bad_request", "low")
				RecordErrorByEndpoint("geo", "GET", "bad_request")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(8)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)

			Convey("Then the custom registry exposes them", func() {
				So(GetRegistry(), ShouldNotBeNil)
				So(testutil.ToFloat64(globalManager.systemGoroutineCount), ShouldEqual, 8)
			})
		})
	})
}
