// Package trend aggregates registry records over time: per-name totals and the
// per-year envelope (mean and population standard deviation) of those totals.
package trend

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/okian/prenoms/internal/domain/model"
)

// Option applies a configuration option to the aggregator.
type Option func(*settings)

type settings struct {
	parallelism int
}

// WithParallelism bounds the number of year partitions computed concurrently.
func WithParallelism(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{parallelism: runtime.NumCPU()}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

type nameYear struct {
	name string
	year int
}

// totals sums counts per (name, year) over every sex and department.
func totals(records []model.BirthRecord, keep func(string) bool) map[nameYear]int {
	out := make(map[nameYear]int)
	for _, r := range records {
		if keep != nil && !keep(r.Name) {
			continue
		}
		out[nameYear{name: r.Name, year: r.Year}] += r.Count
	}
	return out
}

// Trend returns one point per (name, year) ordered by name then year.
// A nil names slice selects every name; a non-nil slice restricts the output to its
// members, so an empty selection yields no points.
func Trend(records []model.BirthRecord, names []string) []model.TrendPoint {
	var keep func(string) bool
	if names != nil {
		selected := make(map[string]struct{}, len(names))
		for _, n := range names {
			selected[n] = struct{}{}
		}
		keep = func(name string) bool {
			_, ok := selected[name]
			return ok
		}
	}

	sums := totals(records, keep)
	points := make([]model.TrendPoint, 0, len(sums))
	for k, total := range sums {
		points = append(points, model.TrendPoint{Name: k.name, Year: k.year, Total: total})
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Name != points[j].Name {
			return points[i].Name < points[j].Name
		}
		return points[i].Year < points[j].Year
	})
	return points
}

// YearStats computes, for every year, the mean and population standard deviation of
// the per-name totals of that year. Years are independent partitions and are
// computed concurrently.
func YearStats(ctx context.Context, records []model.BirthRecord, opts ...Option) ([]model.YearStat, error) {
	cfg := newSettings(opts)

	byYear := make(map[int][]float64)
	for k, total := range totals(records, nil) {
		byYear[k.year] = append(byYear[k.year], float64(total))
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	out := make([]model.YearStat, len(years))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.parallelism)
	for i, year := range years {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			values := byYear[year]
			// fixed summation order keeps results bit-identical across calls
			sort.Float64s(values)
			out[i] = model.YearStat{Year: year, Mean: values[0]}
			if len(values) > 1 {
				out[i].Mean, out[i].StdDev = stat.PopMeanStdDev(values, nil)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
