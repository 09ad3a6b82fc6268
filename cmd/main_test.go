package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/prenoms/internal/config"
	"github.com/okian/prenoms/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

const polygon = `{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,1],[0,0]]]}`

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func fixtureConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	cfg := config.New()
	cfg.Parallelism = 2
	cfg.RegistryDelimiter = "|"
	cfg.RareNameSentinel = "RARE"
	cfg.RegistryPath = writeFixture(t, dir, "registry.txt",
		"sexe|preusuel|annais|dpt|nombre\n2|LÉA|2000|75|100\n1|LÉA|2000|75|5\n1|RARE|2000|75|3\n")
	cfg.DepartmentBoundariesPath = writeFixture(t, dir, "dep.geojson",
		`{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"code":"75","nom":"Paris"},"geometry":`+polygon+`}]}`)
	cfg.RegionBoundariesPath = writeFixture(t, dir, "reg.geojson",
		`{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"nom":"Île-de-France"},"geometry":`+polygon+`}]}`)
	cfg.MappingDelimiter = ";"
	cfg.DepartmentRegionPath = writeFixture(t, dir, "map.csv", "num_dep;region_name\n75;Île-de-France\n")
	return cfg
}

func TestMainWiring(t *testing.T) {
	convey.Convey("Given a configuration pointing at fixture sources", t, func() {
		ctx := context.Background()
		cfg := fixtureConfig(t)

		convey.Convey("When the service is built and started from it", func() {
			svc := newService(cfg, logger.Get())
			err := svc.Start(ctx)
			defer svc.Stop()

			convey.Convey("Then the configured delimiter and sentinel are applied", func() {
				convey.So(err, convey.ShouldBeNil)
				stats := svc.GetStats()
				convey.So(stats["records"], convey.ShouldEqual, 2)
				convey.So(stats["droppedRareName"], convey.ShouldEqual, 1)
				convey.So(stats["parallelism"], convey.ShouldEqual, 2)
			})

			convey.Convey("And the router serves API, docs and site", func() {
				h := newRouter(ctx, cfg, svc, logger.Get())
				for _, path := range []string{
					"/", "/api-docs", "/openapi.yaml", "/healthz", "/stats",
					"/api/v1/names", "/api/v1/geo?name=L%C3%89A&year=2000&level=region&format=geojson",
				} {
					req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
					w := httptest.NewRecorder()
					h.ServeHTTP(w, req)
					convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				}
			})
		})
	})
}

func TestFirstRune(t *testing.T) {
	convey.Convey("Given delimiter strings", t, func() {
		convey.So(firstRune(";"), convey.ShouldEqual, ';')
		convey.So(firstRune("\t"), convey.ShouldEqual, '\t')
		convey.So(firstRune(""), convey.ShouldEqual, rune(0))
	})
}

func TestSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.Convey("Then an update does not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("Then the loop returns when the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
		})
	})
}
