// Package pipelinecheck queries a running service and verifies the properties
// of its derived views: proportion normalisation, zero-fill completeness,
// region totals bounded by department totals and idempotence.
package pipelinecheck

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/prenoms/internal/domain/model"
	"github.com/okian/prenoms/pkg/logger"
)

type runner struct {
	config *Config
	client *httpClient
	log    logger.Logger

	checks   atomic.Int64
	mu       sync.Mutex
	failures []Failure

	departments int
	regions     int
}

// Run executes every check against config.BaseURL. Failed checks are listed in
// the report; the error is reserved for runs that could not complete.
func Run(ctx context.Context, config *Config) (*Report, error) {
	r := &runner{
		config: config,
		client: newHTTPClient(config.BaseURL, config.Timeout),
		log:    logger.Get().Named("check"),
	}
	report := &Report{RunID: uuid.NewString(), BaseURL: config.BaseURL, StartTime: time.Now()}

	r.log.Info(ctx, "starting pipeline check",
		logger.String("run", report.RunID),
		logger.String("baseURL", config.BaseURL),
		logger.Int("names", config.Names),
		logger.Int("years", config.Years),
		logger.Int("workers", config.Workers),
	)

	// Step 1: service is up
	if _, err := r.client.get(ctx, "/healthz", nil); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: gender spectrum normalisation and idempotence
	for _, table := range spectrumTables {
		if err := r.checkSpectrum(ctx, table); err != nil {
			return nil, err
		}
	}

	// Step 3: sample names
	var names namesResponse
	if _, err := r.client.getJSON(ctx, "/api/v1/names", nil, &names); err != nil {
		return nil, fmt.Errorf("name listing failed: %w", err)
	}
	report.Names = pickEvenly(names.Names, config.Names)
	if err := r.boundaryCounts(ctx, report.Names); err != nil {
		return nil, err
	}

	// Step 4: per-name geo and trend checks
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(config.Workers, 1))
	for _, name := range report.Names {
		g.Go(func() error { return r.checkName(gctx, name) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.Requests = r.client.requests.Load()
	report.Checks = r.checks.Load()
	report.Failures = r.failures
	report.Duration = time.Since(report.StartTime)

	if config.Report != "" {
		if err := saveReport(config.Report, report); err != nil {
			r.log.Warn(ctx, "failed to save report", logger.Error(err))
		}
	}

	r.log.Info(ctx, "pipeline check finished",
		logger.String("run", report.RunID),
		logger.Int("names", len(report.Names)),
		logger.Int("requests", int(report.Requests)),
		logger.Int("checks", int(report.Checks)),
		logger.Int("failures", len(report.Failures)),
		logger.Duration("duration", report.Duration),
	)
	return report, nil
}

// record counts a check and keeps its failure, if any.
func (r *runner) record(ctx context.Context, check, subject string, err error) {
	r.checks.Add(1)
	if err == nil {
		if r.config.Verbose {
			r.log.Info(ctx, "check passed", logger.String("check", check), logger.String("subject", subject))
		}
		return
	}
	r.log.Warn(ctx, "check failed",
		logger.String("check", check),
		logger.String("subject", subject),
		logger.Error(err),
	)
	r.mu.Lock()
	r.failures = append(r.failures, Failure{Check: check, Subject: subject, Detail: err.Error()})
	r.mu.Unlock()
}

func (r *runner) checkSpectrum(ctx context.Context, table string) error {
	q := url.Values{"table": {table}}
	var first spectrumResponse
	raw, err := r.client.getJSON(ctx, "/api/v1/gender-spectrum", q, &first)
	if err != nil {
		return fmt.Errorf("gender spectrum %s failed: %w", table, err)
	}
	again, err := r.client.get(ctx, "/api/v1/gender-spectrum", q)
	if err != nil {
		return fmt.Errorf("gender spectrum %s failed: %w", table, err)
	}
	subject := "table " + table
	r.record(ctx, "proportions", subject, checkProportions(first.Summaries))
	r.record(ctx, "idempotence", subject, checkIdentical(raw, again))
	return nil
}

// boundaryCounts learns the number of boundaries per level from the first
// sampled name; zero-fill makes the count independent of the selection.
func (r *runner) boundaryCounts(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	for _, level := range []model.GeoLevel{model.LevelDepartment, model.LevelRegion} {
		var view geoResponse
		if _, err := r.client.getJSON(ctx, "/api/v1/geo", geoQuery(names[0], probeYear, level), &view); err != nil {
			return fmt.Errorf("boundary count for %s failed: %w", level, err)
		}
		if level == model.LevelDepartment {
			r.departments = len(view.Cells)
		} else {
			r.regions = len(view.Cells)
		}
	}
	return nil
}

func (r *runner) checkName(ctx context.Context, name string) error {
	var years yearsResponse
	if _, err := r.client.getJSON(ctx, "/api/v1/names/"+url.PathEscape(name)+"/years", nil, &years); err != nil {
		return fmt.Errorf("years of %q failed: %w", name, err)
	}
	var trend trendResponse
	if _, err := r.client.getJSON(ctx, "/api/v1/trend", url.Values{"name": {name}}, &trend); err != nil {
		return fmt.Errorf("trend of %q failed: %w", name, err)
	}

	for _, year := range pickEvenly(years.Years, r.config.Years) {
		subject := name + " " + strconv.Itoa(year)

		var dept, region geoResponse
		rawDept, err := r.client.getJSON(ctx, "/api/v1/geo", geoQuery(name, year, model.LevelDepartment), &dept)
		if err != nil {
			return fmt.Errorf("geo %s failed: %w", subject, err)
		}
		if _, err := r.client.getJSON(ctx, "/api/v1/geo", geoQuery(name, year, model.LevelRegion), &region); err != nil {
			return fmt.Errorf("geo %s failed: %w", subject, err)
		}
		again, err := r.client.get(ctx, "/api/v1/geo", geoQuery(name, year, model.LevelDepartment))
		if err != nil {
			return fmt.Errorf("geo %s failed: %w", subject, err)
		}

		r.record(ctx, "zero_fill_department", subject, checkZeroFill(dept, r.departments))
		r.record(ctx, "zero_fill_region", subject, checkZeroFill(region, r.regions))
		r.record(ctx, "region_bound", subject, checkRegionBound(dept, region))
		r.record(ctx, "trend_bound", subject, checkTrendBound(trend.Points, dept))
		r.record(ctx, "idempotence", subject, checkIdentical(rawDept, again))
	}
	return nil
}

func geoQuery(name string, year int, level model.GeoLevel) url.Values {
	return url.Values{
		"name":  {name},
		"year":  {strconv.Itoa(year)},
		"level": {string(level)},
	}
}

func saveReport(path string, report *Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, filePermission); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
