package gender

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/okian/prenoms/internal/domain/model"
)

// Option applies a configuration option to the spectrum computation.
type Option func(*settings)

type settings struct {
	parallelism int
}

// WithParallelism bounds the number of years summarised concurrently.
func WithParallelism(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

type nameYear struct {
	name string
	year int
}

// Pivot sums male and female births per (name, year). Records of unknown sex are
// ignored, missing sexes count as zero and rows whose total is not positive are
// dropped before the ratio is taken. Output is ordered by year then name.
func Pivot(records []model.BirthRecord) []model.GenderPivot {
	acc := make(map[nameYear]*model.GenderPivot)
	for _, r := range records {
		if r.Sex != model.SexMale && r.Sex != model.SexFemale {
			continue
		}
		k := nameYear{name: r.Name, year: r.Year}
		p, ok := acc[k]
		if !ok {
			p = &model.GenderPivot{Name: r.Name, Year: r.Year}
			acc[k] = p
		}
		if r.Sex == model.SexMale {
			p.Male += r.Count
		} else {
			p.Female += r.Count
		}
	}

	out := make([]model.GenderPivot, 0, len(acc))
	for _, p := range acc {
		p.Total = p.Male + p.Female
		if p.Total <= 0 {
			continue
		}
		p.FemaleRatio = float64(p.Female) / float64(p.Total)
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// cell accumulates one (year, category) summary before normalisation.
type cell struct {
	rank  int
	value int
	names []string
}

// Spectrum classifies every pivot row with table and summarises each year: value per
// category (names or persons depending on the table), its share of the year, and a
// sorted sample of the names in it. Only categories that occur are emitted, ordered
// by year then rank.
func Spectrum(ctx context.Context, records []model.BirthRecord, table Table, opts ...Option) ([]model.CategoryYearSummary, error) {
	cfg := settings{parallelism: runtime.NumCPU()}
	for _, opt := range opts {
		opt(&cfg)
	}

	byYear := make(map[int][]model.GenderPivot)
	for _, p := range Pivot(records) {
		byYear[p.Year] = append(byYear[p.Year], p)
	}
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	parts := make([][]model.CategoryYearSummary, len(years))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.parallelism)
	for i, year := range years {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			parts[i] = summariseYear(year, byYear[year], table)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []model.CategoryYearSummary
	for _, p := range parts {
		out = append(out, p...)
	}
	return out, nil
}

func summariseYear(year int, rows []model.GenderPivot, table Table) []model.CategoryYearSummary {
	cells := make(map[string]*cell)
	yearTotal := 0
	for _, row := range rows {
		category, rank := table.Classify(row.FemaleRatio)
		c, ok := cells[category]
		if !ok {
			c = &cell{rank: rank}
			cells[category] = c
		}
		v := 1
		if table.Weighting == ByPersons {
			v = row.Total
		}
		c.value += v
		yearTotal += v
		c.names = append(c.names, row.Name)
	}

	out := make([]model.CategoryYearSummary, 0, len(cells))
	for category, c := range cells {
		examples, truncated := sample(c.names, table.SampleSize)
		out = append(out, model.CategoryYearSummary{
			Year:       year,
			Category:   category,
			Rank:       c.rank,
			Value:      c.value,
			Proportion: float64(c.value) / float64(yearTotal),
			Examples:   examples,
			Truncated:  truncated,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out
}

// sample returns the first n names of the sorted unique set and whether it was cut.
func sample(names []string, n int) ([]string, bool) {
	uniq := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		uniq = append(uniq, name)
	}
	sort.Strings(uniq)
	if len(uniq) > n {
		return uniq[:n], true
	}
	return uniq, false
}
