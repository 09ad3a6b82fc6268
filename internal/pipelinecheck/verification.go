package pipelinecheck

import (
	"bytes"
	"fmt"
	"math"
	"sort"

	"github.com/okian/prenoms/internal/domain/model"
)

// checkProportions verifies that category proportions sum to one per year and
// that categories are listed in rank order.
func checkProportions(summaries []model.CategoryYearSummary) error {
	sums := make(map[int]float64)
	lastRank := make(map[int]int)
	for _, s := range summaries {
		if prev, ok := lastRank[s.Year]; ok && s.Rank <= prev {
			return fmt.Errorf("year %d: rank %d after %d", s.Year, s.Rank, prev)
		}
		lastRank[s.Year] = s.Rank
		sums[s.Year] += s.Proportion
	}
	years := make([]int, 0, len(sums))
	for y := range sums {
		years = append(years, y)
	}
	sort.Ints(years)
	for _, y := range years {
		if math.Abs(sums[y]-1) > proportionTolerance {
			return fmt.Errorf("year %d: proportions sum to %.12f", y, sums[y])
		}
	}
	return nil
}

// checkZeroFill verifies that a view has one cell per boundary and no negative count.
func checkZeroFill(view geoResponse, boundaries int) error {
	if len(view.Cells) != boundaries {
		return fmt.Errorf("%s: %d cells for %d boundaries", view.Level, len(view.Cells), boundaries)
	}
	seen := make(map[string]struct{}, len(view.Cells))
	for _, c := range view.Cells {
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("%s: boundary %q appears twice", view.Level, c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	return nil
}

// checkRegionBound verifies that a region total never exceeds its department total.
func checkRegionBound(department, region geoResponse) error {
	if region.Total > department.Total {
		return fmt.Errorf("region total %d exceeds department total %d", region.Total, department.Total)
	}
	return nil
}

// checkTrendBound verifies that the mapped department total does not exceed
// the name's national total for the year.
func checkTrendBound(points []model.TrendPoint, department geoResponse) error {
	for _, p := range points {
		if p.Name == department.Name && p.Year == department.Year {
			if department.Total > p.Total {
				return fmt.Errorf("department total %d exceeds trend total %d", department.Total, p.Total)
			}
			return nil
		}
	}
	if department.Total > 0 {
		return fmt.Errorf("department total %d without a trend point", department.Total)
	}
	return nil
}

// checkIdentical verifies that two answers to the same request are byte-identical.
func checkIdentical(first, second []byte) error {
	if !bytes.Equal(first, second) {
		return fmt.Errorf("answers differ (%d and %d bytes)", len(first), len(second))
	}
	return nil
}

// pickEvenly returns up to n items spread over the sorted input.
func pickEvenly[T any](items []T, n int) []T {
	if n <= 0 || len(items) == 0 {
		return nil
	}
	if len(items) <= n {
		return items
	}
	out := make([]T, 0, n)
	step := float64(len(items)-1) / float64(max(n-1, 1))
	for i := 0; i < n; i++ {
		out = append(out, items[int(math.Round(float64(i)*step))])
	}
	return out
}
