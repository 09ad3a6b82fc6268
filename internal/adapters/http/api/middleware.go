package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/prenoms/pkg/metrics"
)

// Error codes written in errorResponse.Code and used as the error_type label.
const (
	codeBadRequest = "bad_request"
	codeNotReady   = "not_ready"
	codeCanceled   = "canceled"
	codeInternal   = "internal_error"
)

// MetricsMiddleware wraps HTTP handlers to record Prometheus metrics. Failed
// responses are labelled with the error code the handler wrote.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		durationMs := float64(time.Since(start).Milliseconds())
		status := strconv.Itoa(wrapped.statusCode)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, durationMs)

		if wrapped.statusCode >= http.StatusBadRequest {
			errorType := errorType(wrapped.statusCode, wrapped.errorCode)
			metrics.RecordErrorByEndpoint(endpoint, r.Method, errorType)
			metrics.RecordErrorByType(errorType, errorSeverity(errorType))
		}
	}
}

// errorType prefers the code set by writeError and falls back to the status class.
func errorType(statusCode int, code string) string {
	if code != "" {
		return code
	}
	switch {
	case statusCode == http.StatusServiceUnavailable:
		return codeNotReady
	case statusCode >= http.StatusInternalServerError:
		return codeInternal
	default:
		return codeBadRequest
	}
}

// errorSeverity ranks server faults above readiness and client errors.
func errorSeverity(errorType string) string {
	switch errorType {
	case codeInternal:
		return "high"
	case codeNotReady, codeCanceled:
		return "medium"
	default:
		return "low"
	}
}

// responseWriter captures the status and error code of a response.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	errorCode  string
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}

// tagError records code on w when w is wrapped by MetricsMiddleware.
func tagError(w http.ResponseWriter, code string) {
	if rw, ok := w.(*responseWriter); ok {
		rw.errorCode = code
	}
}
