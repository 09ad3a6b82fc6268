// Package gender classifies names on a perceived-gender spectrum from the share of
// female births, and summarises the spectrum year by year.
package gender

import (
	"fmt"
	"strings"

	"github.com/okian/prenoms/internal/domain/model"
)

// Weighting selects what a spectrum cell counts.
type Weighting int

const (
	// ByNames counts distinct names per cell.
	ByNames Weighting = iota
	// ByPersons sums births per cell.
	ByPersons
)

// band is one interval of a threshold table: ratio <= upper when inclusive,
// ratio < upper otherwise.
type band struct {
	category  string
	upper     float64
	inclusive bool
}

func (b band) contains(ratio float64) bool {
	if b.inclusive {
		return ratio <= b.upper
	}
	return ratio < b.upper
}

// Table is an ordered threshold table mapping a female ratio to a category.
// Band order is the category rank.
type Table struct {
	ID         string
	Weighting  Weighting
	SampleSize int
	bands      []band
}

// TableA is the 7-category name-diversity table. Neutral and slightly-female are
// closed on their upper edge.
var TableA = Table{
	ID:         "A",
	Weighting:  ByNames,
	SampleSize: 15,
	bands: []band{
		{category: "only-male", upper: 0, inclusive: true},
		{category: "strongly-male", upper: 0.05},
		{category: "slightly-male", upper: 0.30},
		{category: "neutral", upper: 0.70, inclusive: true},
		{category: "slightly-female", upper: 0.95, inclusive: true},
		{category: "strongly-female", upper: 1.0},
		{category: "only-female", upper: 1.0, inclusive: true},
	},
}

// TableB is the 5-category population-weighted table.
var TableB = Table{
	ID:         "B",
	Weighting:  ByPersons,
	SampleSize: 20,
	bands: []band{
		{category: "only-male", upper: 0, inclusive: true},
		{category: "mostly-male", upper: 0.05},
		{category: "neutral", upper: 0.95},
		{category: "mostly-female", upper: 1.0},
		{category: "only-female", upper: 1.0, inclusive: true},
	},
}

// TableByID resolves "A" or "B" (case-insensitive).
func TableByID(id string) (Table, error) {
	switch strings.ToUpper(strings.TrimSpace(id)) {
	case TableA.ID:
		return TableA, nil
	case TableB.ID:
		return TableB, nil
	default:
		return Table{}, fmt.Errorf("unknown classification table %q: %w", id, model.ErrInvalidArgument)
	}
}

// Categories lists the category names in rank order.
func (t Table) Categories() []string {
	out := make([]string, len(t.bands))
	for i, b := range t.bands {
		out[i] = b.category
	}
	return out
}

// Classify returns the category and rank for a female ratio. The last band catches
// everything the others reject, so the mapping is total.
func (t Table) Classify(ratio float64) (string, int) {
	last := len(t.bands) - 1
	for i, b := range t.bands[:last] {
		if b.contains(ratio) {
			return b.category, i
		}
	}
	return t.bands[last].category, last
}
