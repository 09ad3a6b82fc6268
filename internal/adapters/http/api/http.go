// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"

	"github.com/okian/prenoms/internal/domain/model"
	"github.com/okian/prenoms/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the pipeline facade.
type Dependencies interface {
	Trend(ctx context.Context, names []string) ([]model.TrendPoint, error)
	YearStats(ctx context.Context) ([]model.YearStat, error)
	Geo(ctx context.Context, name string, year int, level model.GeoLevel) (model.GeoView, error)
	GenderSpectrum(ctx context.Context, table string) ([]model.CategoryYearSummary, error)
	Names(ctx context.Context) ([]string, error)
	Years(ctx context.Context, name string) ([]int, error)
}

// Server wires HTTP routes for the pipeline API.
type Server struct {
	deps          Dependencies
	healthHandler *HealthHandler
	statsHandler  *StatsHandler

	corsOrigins []string
	rateLimit   int
	logger      logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		deps:          deps,
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		corsOrigins:   []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router returns a chi router with the middleware stack and every API route.
// Callers may attach further routes to it.
func (s *Server) Router(ctx context.Context) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	s.Register(ctx, r)
	return r
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Route("/api/v1", func(r chi.Router) {
		if s.rateLimit > 0 {
			r.Use(httprate.LimitByIP(s.rateLimit, time.Minute))
		}
		r.Get("/names", MetricsMiddleware(s.handleNames, "names"))
		r.Get("/names/{name}/years", MetricsMiddleware(s.handleYears, "years"))
		r.Get("/trend", MetricsMiddleware(s.handleTrend, "trend"))
		r.Get("/year-stats", MetricsMiddleware(s.handleYearStats, "year_stats"))
		r.Get("/geo", MetricsMiddleware(s.handleGeo, "geo"))
		r.Get("/gender-spectrum", MetricsMiddleware(s.handleGenderSpectrum, "gender_spectrum"))
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if s.logger == nil {
			return
		}
		s.logger.Debug(r.Context(), "request served",
			logger.String("requestID", chimiddleware.GetReqID(r.Context())),
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Duration("took", time.Since(start)),
		)
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	writeBody(w, status, "application/json; charset=utf-8", v)
}

func writeBody(w http.ResponseWriter, status int, contentType string, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		body, _ = json.Marshal(errorResponse{Code: codeInternal, Message: Wrap("api.encode", ErrEncode).Error()})
		status = http.StatusInternalServerError
		contentType = "application/json; charset=utf-8"
		tagError(w, codeInternal)
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	tagError(w, code)
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps a facade error to a status code.
func writeFailure(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, codeBadRequest, Wrap(op, err))
	case errors.Is(err, model.ErrNotReady):
		writeError(w, http.StatusServiceUnavailable, codeNotReady, Wrap(op, err))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, codeCanceled, Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, codeInternal, Wrap(op, err))
	}
}

// emptyOrFailure reports whether err is only an empty selection. Any other
// error has already been written.
func emptyOrFailure(w http.ResponseWriter, op string, err error) (empty, ok bool) {
	if err == nil {
		return false, true
	}
	if errors.Is(err, model.ErrNoMatch) {
		return true, true
	}
	writeFailure(w, op, err)
	return false, false
}
