package api_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"github.com/okian/prenoms/internal/adapters/http/api"
	"github.com/okian/prenoms/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// mockPipeline records the last arguments and returns canned results.
type mockPipeline struct {
	points    []model.TrendPoint
	stats     []model.YearStat
	view      model.GeoView
	summaries []model.CategoryYearSummary
	names     []string
	years     []int
	err       error

	gotNames []string
	gotName  string
	gotYear  int
	gotLevel model.GeoLevel
	gotTable string
}

func (m *mockPipeline) Trend(_ context.Context, names []string) ([]model.TrendPoint, error) {
	m.gotNames = names
	return m.points, m.err
}

func (m *mockPipeline) YearStats(_ context.Context) ([]model.YearStat, error) {
	return m.stats, m.err
}

func (m *mockPipeline) Geo(_ context.Context, name string, year int, level model.GeoLevel) (model.GeoView, error) {
	m.gotName, m.gotYear, m.gotLevel = name, year, level
	return m.view, m.err
}

func (m *mockPipeline) GenderSpectrum(_ context.Context, table string) ([]model.CategoryYearSummary, error) {
	m.gotTable = table
	return m.summaries, m.err
}

func (m *mockPipeline) Names(_ context.Context) ([]string, error) {
	return m.names, m.err
}

func (m *mockPipeline) Years(_ context.Context, name string) ([]int, error) {
	m.gotName = name
	return m.years, m.err
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

var square = model.Geometry{
	Type:        "Polygon",
	Coordinates: json.RawMessage(`[[[0,0],[1,0],[1,1],[0,1],[0,0]]]`),
}

func newRouter(deps *mockPipeline, opts ...api.Option) http.Handler {
	stats := &mockStatsProvider{stats: map[string]interface{}{"started": true, "records": 4}}
	return api.NewServer(deps, stats, opts...).Router(context.Background())
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
	return body
}

func TestServer_Router(t *testing.T) {
	Convey("Given a router over a mock pipeline", t, func() {
		deps := &mockPipeline{names: []string{"Léa", "Paul"}}
		h := newRouter(deps)

		Convey("Then health exposes prometheus metrics", func() {
			w := get(h, "/healthz")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "prenoms_pipeline")
		})

		Convey("Then stats are served as JSON", func() {
			w := get(h, "/stats")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["records"], ShouldEqual, float64(4))
		})

		Convey("Then unknown routes are not found", func() {
			So(get(h, "/leaderboard").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("Then only GET is routed", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/names", http.NoBody)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("Then CORS headers are set for allowed origins", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/names", http.NoBody)
			req.Header.Set("Origin", "https://example.org")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
		})
	})
}

func TestServer_RateLimit(t *testing.T) {
	Convey("Given a router limited to two requests per minute", t, func() {
		h := newRouter(&mockPipeline{names: []string{}}, api.WithRateLimit(2))

		Convey("When a client sends three requests", func() {
			first := get(h, "/api/v1/names")
			second := get(h, "/api/v1/names")
			third := get(h, "/api/v1/names")

			Convey("Then the third is refused", func() {
				So(first.Code, ShouldEqual, http.StatusOK)
				So(second.Code, ShouldEqual, http.StatusOK)
				So(third.Code, ShouldEqual, http.StatusTooManyRequests)
			})
		})
	})
}

func TestHandleNames(t *testing.T) {
	Convey("Given a pipeline with names", t, func() {
		deps := &mockPipeline{names: []string{"Léa", "Paul"}, years: []int{2000, 2001}}
		h := newRouter(deps)

		Convey("When listing names", func() {
			body := decode(get(h, "/api/v1/names"))

			Convey("Then names and count are returned", func() {
				So(body["count"], ShouldEqual, float64(2))
				So(body["names"], ShouldResemble, []any{"Léa", "Paul"})
			})
		})

		Convey("When listing years of a name", func() {
			w := get(h, "/api/v1/names/L%C3%A9a/years")

			Convey("Then the name is taken from the path", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotName, ShouldEqual, "Léa")
				So(decode(w)["years"], ShouldResemble, []any{float64(2000), float64(2001)})
			})
		})

		Convey("When the name has no years", func() {
			deps.years = nil
			deps.err = &model.QueryError{View: "years", Name: "Zoé"}
			w := get(h, "/api/v1/names/Zo%C3%A9/years")

			Convey("Then an empty list is returned with empty=true", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["empty"], ShouldEqual, true)
				So(body["years"], ShouldResemble, []any{})
			})
		})
	})
}

func TestHandleTrend(t *testing.T) {
	Convey("Given a pipeline with trend points", t, func() {
		deps := &mockPipeline{points: []model.TrendPoint{{Name: "Léa", Year: 2000, Total: 105}}}
		h := newRouter(deps)

		Convey("When no name is given", func() {
			w := get(h, "/api/v1/trend")

			Convey("Then every name is requested", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotNames, ShouldBeNil)
			})
		})

		Convey("When names are repeated parameters", func() {
			w := get(h, "/api/v1/trend?name=L%C3%A9a&name=Paul")

			Convey("Then they are passed through in order", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotNames, ShouldResemble, []string{"Léa", "Paul"})
				points := decode(w)["points"].([]any)
				So(points, ShouldHaveLength, 1)
				So(points[0].(map[string]any)["total"], ShouldEqual, float64(105))
			})
		})

		Convey("When a name parameter is blank", func() {
			w := get(h, "/api/v1/trend?name=")

			Convey("Then the request is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w)["code"], ShouldEqual, "bad_request")
			})
		})

		Convey("When the pipeline is not ready", func() {
			deps.err = fmt.Errorf("trend: %w", model.ErrNotReady)
			w := get(h, "/api/v1/trend")

			Convey("Then 503 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(decode(w)["code"], ShouldEqual, "not_ready")
			})
		})
	})
}

func TestHandleYearStats(t *testing.T) {
	Convey("Given a pipeline with year statistics", t, func() {
		deps := &mockPipeline{stats: []model.YearStat{{Year: 2000, Mean: 72.5, StdDev: 32.5}}}
		h := newRouter(deps)

		Convey("When requesting them", func() {
			w := get(h, "/api/v1/year-stats")

			Convey("Then mean and stddev are serialised", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				stat := decode(w)["stats"].([]any)[0].(map[string]any)
				So(stat["mean"], ShouldEqual, 72.5)
				So(stat["stddev"], ShouldEqual, 32.5)
			})
		})

		Convey("When the computation fails", func() {
			deps.err = errors.New("boom")
			w := get(h, "/api/v1/year-stats")

			Convey("Then 500 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})
	})
}

func TestHandleGeo(t *testing.T) {
	Convey("Given a pipeline with a department view", t, func() {
		deps := &mockPipeline{view: model.GeoView{
			Level: model.LevelDepartment, Name: "Léa", Year: 2000, Total: 105, Matched: 2,
			Cells:  []model.GeoCell{{ID: "75", Name: "Paris", Count: 105}, {ID: "13", Name: "Bouches-du-Rhône"}},
			Shapes: []model.Geometry{square, square},
		}}
		h := newRouter(deps)

		Convey("When requesting JSON", func() {
			w := get(h, "/api/v1/geo?name=L%C3%A9a&year=2000")

			Convey("Then the level defaults to department", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotLevel, ShouldEqual, model.LevelDepartment)
				So(deps.gotYear, ShouldEqual, 2000)
				body := decode(w)
				So(body["total"], ShouldEqual, float64(105))
				So(body["empty"], ShouldEqual, false)
				So(body["cells"], ShouldHaveLength, 2)
				So(body, ShouldNotContainKey, "Shapes")
			})
		})

		Convey("When requesting GeoJSON", func() {
			w := get(h, "/api/v1/geo?name=L%C3%A9a&year=2000&format=geojson")

			Convey("Then a feature collection with counts is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "application/geo+json")
				body := decode(w)
				So(body["type"], ShouldEqual, "FeatureCollection")
				features := body["features"].([]any)
				So(features, ShouldHaveLength, 2)
				first := features[0].(map[string]any)
				So(first["id"], ShouldEqual, "75")
				props := first["properties"].(map[string]any)
				So(props["count"], ShouldEqual, float64(105))
				So(props["name"], ShouldEqual, "Paris")
				So(first["geometry"].(map[string]any)["type"], ShouldEqual, "Polygon")
				second := features[1].(map[string]any)["properties"].(map[string]any)
				So(second["count"], ShouldEqual, float64(0))
			})
		})

		Convey("When the selection matches nothing", func() {
			deps.err = &model.QueryError{View: "geo", Name: "Léa", Year: 1900}
			w := get(h, "/api/v1/geo?name=L%C3%A9a&year=1900&level=region")

			Convey("Then the zero-filled view is returned with empty=true", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotLevel, ShouldEqual, model.LevelRegion)
				So(decode(w)["empty"], ShouldEqual, true)
			})
		})

		Convey("When parameters are invalid", func() {
			Convey("Then a missing name is rejected", func() {
				So(get(h, "/api/v1/geo?year=2000").Code, ShouldEqual, http.StatusBadRequest)
			})
			Convey("Then a non numeric year is rejected", func() {
				So(get(h, "/api/v1/geo?name=Paul&year=abc").Code, ShouldEqual, http.StatusBadRequest)
			})
			Convey("Then an unknown level is rejected", func() {
				w := get(h, "/api/v1/geo?name=Paul&year=2000&level=commune")
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w)["message"], ShouldContainSubstring, "level")
			})
			Convey("Then an unknown format is rejected", func() {
				So(get(h, "/api/v1/geo?name=Paul&year=2000&format=kml").Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the facade rejects the argument", func() {
			deps.err = fmt.Errorf("%w: level", model.ErrInvalidArgument)
			w := get(h, "/api/v1/geo?name=Paul&year=2000")

			Convey("Then 400 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestHandleGenderSpectrum(t *testing.T) {
	Convey("Given a pipeline with spectrum summaries", t, func() {
		deps := &mockPipeline{summaries: []model.CategoryYearSummary{{
			Year: 2000, Category: "strongly-female", Rank: 5, Value: 1, Proportion: 1,
			Examples: []string{"Andréa", "Léa"}, Truncated: true,
		}}}
		h := newRouter(deps)

		Convey("When no table is given", func() {
			w := get(h, "/api/v1/gender-spectrum")

			Convey("Then table A is used and labels are rendered", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotTable, ShouldEqual, "A")
				body := decode(w)
				So(body["table"], ShouldEqual, "A")
				row := body["summaries"].([]any)[0].(map[string]any)
				So(row["category"], ShouldEqual, "strongly-female")
				So(row["label"], ShouldEqual, "Andréa, Léa...")
			})
		})

		Convey("When table b is given in lower case", func() {
			w := get(h, "/api/v1/gender-spectrum?table=b")

			Convey("Then it is normalised", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotTable, ShouldEqual, "B")
			})
		})

		Convey("When the table is unknown", func() {
			w := get(h, "/api/v1/gender-spectrum?table=C")

			Convey("Then the request is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestErrorHelpers(t *testing.T) {
	Convey("Given the API error helpers", t, func() {
		Convey("Then NewKind scopes a kind to an operation", func() {
			err := api.NewKind("api.geo", api.ErrBadRequest)
			So(err.Error(), ShouldEqual, "api.geo: bad request")
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
		})

		Convey("Then Wrap keeps nil as nil", func() {
			So(api.Wrap("api.geo", nil), ShouldBeNil)
			So(api.Wrap("api.geo", model.ErrNoMatch).Error(), ShouldEqual, "api.geo: no matching rows")
		})
	})
}
