package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/prenoms/internal/domain/model"
	"github.com/okian/prenoms/pkg/metrics"
)

// errorCount reads errors_by_endpoint_total for one endpoint and error type.
func errorCount(endpoint, errorType string) float64 {
	families, err := metrics.GetRegistry().Gather()
	if err != nil {
		return -1
	}
	for _, mf := range families {
		if mf.GetName() != "prenoms_pipeline_errors_by_endpoint_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := make(map[string]string)
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["endpoint"] == endpoint && labels["error_type"] == errorType {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestMetricsMiddleware_ErrorTypes(t *testing.T) {
	Convey("Given handlers failing with each facade error", t, func() {
		cases := []struct {
			endpoint string
			err      error
			status   int
			code     string
		}{
			{"mw_bad_request", model.ErrInvalidArgument, http.StatusBadRequest, codeBadRequest},
			{"mw_not_ready", model.ErrNotReady, http.StatusServiceUnavailable, codeNotReady},
			{"mw_canceled", context.Canceled, http.StatusServiceUnavailable, codeCanceled},
			{"mw_internal", errors.New("boom"), http.StatusInternalServerError, codeInternal},
		}

		for _, tc := range cases {
			handler := MetricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
				writeFailure(w, "api.test", tc.err)
			}, tc.endpoint)

			Convey("When "+tc.endpoint+" is served", func() {
				rec := httptest.NewRecorder()
				handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))

				Convey("Then the error is labelled with the code in the body", func() {
					So(rec.Code, ShouldEqual, tc.status)
					So(rec.Body.String(), ShouldContainSubstring, `"code":"`+tc.code+`"`)
					So(errorCount(tc.endpoint, tc.code), ShouldEqual, 1)
				})
			})
		}
	})

	Convey("Given a failure written without an error code", t, func() {
		Convey("When the type is derived from the status alone", func() {
			Convey("Then the status class decides", func() {
				So(errorType(http.StatusServiceUnavailable, ""), ShouldEqual, codeNotReady)
				So(errorType(http.StatusBadGateway, ""), ShouldEqual, codeInternal)
				So(errorType(http.StatusNotFound, ""), ShouldEqual, codeBadRequest)
				So(errorType(http.StatusServiceUnavailable, codeCanceled), ShouldEqual, codeCanceled)
			})

			Convey("And server faults rank highest", func() {
				So(errorSeverity(codeInternal), ShouldEqual, "high")
				So(errorSeverity(codeNotReady), ShouldEqual, "medium")
				So(errorSeverity(codeCanceled), ShouldEqual, "medium")
				So(errorSeverity(codeBadRequest), ShouldEqual, "low")
			})
		})
	})
}
