// Package service is the pipeline facade: it builds the record and boundary
// stores once and dispatches each requested view to its aggregator.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/prenoms/internal/adapters/boundary"
	"github.com/okian/prenoms/internal/adapters/registry"
	"github.com/okian/prenoms/internal/domain/gender"
	"github.com/okian/prenoms/internal/domain/geo"
	"github.com/okian/prenoms/internal/domain/model"
	"github.com/okian/prenoms/internal/domain/trend"
	"github.com/okian/prenoms/pkg/logger"
	"github.com/okian/prenoms/pkg/metrics"
)

// View names used in logs and metrics.
const (
	ViewTrend          = "trend"
	ViewYearStats      = "year_stats"
	ViewGeo            = "geo"
	ViewGenderSpectrum = "gender_spectrum"
	ViewNames          = "names"
	ViewYears          = "years"
)

// Service serves derived views over read-only stores.
type Service struct {
	mu sync.RWMutex

	registryLoader *registry.Loader
	boundaryLoader *boundary.Loader

	registryPath    string
	departmentsPath string
	regionsPath     string
	mappingPath     string
	parallelism     int

	store     *registry.Store
	bounds    *boundary.Boundaries
	datasetID string
	loadedAt  time.Time
	started   bool

	logger logger.Logger
}

// New constructs a Service with default loaders.
func New(opts ...Option) *Service {
	s := &Service{
		registryLoader: registry.NewLoader(),
		boundaryLoader: boundary.NewLoader(),
		parallelism:    runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads both stores concurrently. A load failure is returned as a
// *model.DataLoadError and leaves the service unstarted.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	if s.store == nil || s.bounds == nil {
		s.logger.Info(ctx, "loading stores",
			logger.String("registry", s.registryPath),
			logger.String("departments", s.departmentsPath),
			logger.String("regions", s.regionsPath),
			logger.String("mapping", s.mappingPath),
		)
		var (
			store  *registry.Store
			bounds *boundary.Boundaries
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			store, err = s.registryLoader.Load(gctx, s.registryPath)
			return err
		})
		g.Go(func() error {
			var err error
			bounds, err = s.boundaryLoader.Load(gctx, s.departmentsPath, s.regionsPath, s.mappingPath)
			return err
		})
		if err := g.Wait(); err != nil {
			s.logger.Error(ctx, "store load failed", logger.Error(err))
			return err
		}
		s.store, s.bounds = store, bounds
	}

	s.datasetID = uuid.NewString()
	s.loadedAt = time.Now()
	s.started = true
	s.recordLoad(ctx)
	return nil
}

func (s *Service) recordLoad(ctx context.Context) {
	stats := s.store.Stats()
	metrics.RecordStoreLoad("registry", float64(stats.Duration.Milliseconds()))
	metrics.RecordStoreLoad("boundary", float64(s.bounds.Duration.Milliseconds()))
	metrics.UpdateRecordsLoaded(stats.Kept)
	metrics.RecordRowsDropped("rare_name", stats.DroppedRareName)
	metrics.RecordRowsDropped("unknown_department", stats.DroppedUnknownDepartment)
	metrics.UpdateBoundariesLoaded(string(model.LevelDepartment), len(s.bounds.Departments))
	metrics.UpdateBoundariesLoaded(string(model.LevelRegion), len(s.bounds.Regions))
	metrics.UpdateMappingEntries(len(s.bounds.Mapping))

	s.logger.Info(ctx, "pipeline ready",
		logger.String("dataset", s.datasetID),
		logger.Int("rows", stats.Rows),
		logger.Int("kept", stats.Kept),
		logger.Int("droppedRareName", stats.DroppedRareName),
		logger.Int("droppedUnknownDepartment", stats.DroppedUnknownDepartment),
		logger.Int("departments", len(s.bounds.Departments)),
		logger.Int("regions", len(s.bounds.Regions)),
		logger.Int("mappingEntries", len(s.bounds.Mapping)),
		logger.Duration("registryLoad", stats.Duration),
		logger.Duration("boundaryLoad", s.bounds.Duration),
	)
}

// Stop marks the service as stopped. Stores are kept so a restart does not reload.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "pipeline stopped", logger.String("dataset", s.datasetID))
}

// snapshot returns the stores, or model.ErrNotReady before Start.
func (s *Service) snapshot() (*registry.Store, *boundary.Boundaries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, model.ErrNotReady
	}
	return s.store, s.bounds, nil
}

// observe records latency and outcome of a view computation.
func (s *Service) observe(view string, start time.Time, err error) {
	metrics.RecordQuery(view, float64(time.Since(start).Microseconds())/1000)
	if err != nil {
		metrics.RecordQueryError(view)
	}
}

// Trend returns per name and year totals. A nil selection returns every name.
// When a non-empty selection matches nothing the empty result comes with a
// *model.QueryError.
func (s *Service) Trend(ctx context.Context, names []string) ([]model.TrendPoint, error) {
	start := time.Now()
	store, _, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	points := trend.Trend(store.Records(), names)
	s.observe(ViewTrend, start, nil)
	if len(points) == 0 && len(names) > 0 {
		return points, s.empty(ctx, &model.QueryError{View: ViewTrend, Name: names[0]})
	}
	return points, nil
}

// YearStats returns the per-year mean and population standard deviation of
// name totals over the whole registry.
func (s *Service) YearStats(ctx context.Context) ([]model.YearStat, error) {
	start := time.Now()
	store, _, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	stats, err := trend.YearStats(ctx, store.Records(), trend.WithParallelism(s.parallelism))
	s.observe(ViewYearStats, start, err)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Geo returns one cell per boundary of level. A selection with no rows still
// returns the zero-filled view, together with a *model.QueryError.
func (s *Service) Geo(ctx context.Context, name string, year int, level model.GeoLevel) (model.GeoView, error) {
	start := time.Now()
	store, bounds, err := s.snapshot()
	if err != nil {
		return model.GeoView{}, err
	}
	if err := ctx.Err(); err != nil {
		return model.GeoView{}, err
	}

	view := model.GeoView{Level: level, Name: name, Year: year}
	var res geo.Result
	switch level {
	case model.LevelDepartment:
		res = geo.ByDepartment(store.Records(), bounds.Departments, name, year)
		view.Shapes = make([]model.Geometry, len(bounds.Departments))
		for i, d := range bounds.Departments {
			view.Shapes[i] = d.Geometry
		}
	case model.LevelRegion:
		res = geo.ByRegion(store.Records(), bounds.Regions, bounds.Mapping, name, year)
		view.Shapes = make([]model.Geometry, len(bounds.Regions))
		for i, r := range bounds.Regions {
			view.Shapes[i] = r.Geometry
		}
	default:
		err := fmt.Errorf("%w: level %q", model.ErrInvalidArgument, level)
		s.observe(ViewGeo, start, err)
		return model.GeoView{}, err
	}
	s.observe(ViewGeo, start, nil)

	view.Cells = res.Cells
	view.Total = geo.Total(res.Cells)
	view.Matched = res.Matched
	view.Unresolved = res.Unresolved
	if res.Unresolved > 0 {
		metrics.RecordRegionUnresolved(res.Unresolved)
		s.logger.Debug(ctx, "rows without region dropped",
			logger.String("name", name),
			logger.Int("year", year),
			logger.Int("rows", res.Unresolved),
		)
	}
	if res.Matched == 0 {
		return view, s.empty(ctx, &model.QueryError{View: ViewGeo, Name: name, Year: year})
	}
	return view, nil
}

// GenderSpectrum returns per-year category summaries for table "A" or "B".
func (s *Service) GenderSpectrum(ctx context.Context, tableID string) ([]model.CategoryYearSummary, error) {
	start := time.Now()
	store, _, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	table, err := gender.TableByID(tableID)
	if err != nil {
		s.observe(ViewGenderSpectrum, start, err)
		return nil, err
	}

	out, err := gender.Spectrum(ctx, store.Records(), table, gender.WithParallelism(s.parallelism))
	s.observe(ViewGenderSpectrum, start, err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Names returns the sorted distinct names of the registry.
func (s *Service) Names(ctx context.Context) ([]string, error) {
	start := time.Now()
	store, _, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	s.observe(ViewNames, start, nil)
	return store.Names(), nil
}

// Years returns the sorted years in which name was given.
func (s *Service) Years(ctx context.Context, name string) ([]int, error) {
	start := time.Now()
	store, _, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	s.observe(ViewYears, start, nil)
	years := store.Years(name)
	if len(years) == 0 {
		return []int{}, s.empty(ctx, &model.QueryError{View: ViewYears, Name: name})
	}
	return years, nil
}

func (s *Service) empty(ctx context.Context, qe *model.QueryError) error {
	metrics.RecordQueryEmpty(qe.View)
	s.logger.Debug(ctx, "query matched no rows",
		logger.String("view", qe.View),
		logger.String("name", qe.Name),
		logger.Int("year", qe.Year),
	)
	return qe
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"parallelism": s.parallelism,
	}
	if !s.started {
		return stats
	}

	load := s.store.Stats()
	stats["dataset"] = s.datasetID
	stats["loadedAt"] = s.loadedAt.UTC().Format(time.RFC3339)
	stats["source"] = load.Source
	stats["rows"] = load.Rows
	stats["records"] = load.Kept
	stats["droppedRareName"] = load.DroppedRareName
	stats["droppedUnknownDepartment"] = load.DroppedUnknownDepartment
	stats["names"] = len(s.store.Names())
	stats["departments"] = len(s.bounds.Departments)
	stats["regions"] = len(s.bounds.Regions)
	stats["mappingEntries"] = len(s.bounds.Mapping)
	return stats
}
