package model

import "strings"

// TrendPoint is the total births for a name in a year, all sexes and departments summed.
type TrendPoint struct {
	Name  string `json:"name"`
	Year  int    `json:"year"`
	Total int    `json:"total"`
}

// YearStat is the distribution of per-name totals within one year.
type YearStat struct {
	Year   int     `json:"year"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
}

// GeoLevel selects the boundary set used by the geospatial view.
type GeoLevel string

const (
	LevelDepartment GeoLevel = "department"
	LevelRegion     GeoLevel = "region"
)

// GeoCell is the count attached to one boundary polygon.
type GeoCell struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// GeoView is a zero-filled choropleth for one name, year and level.
type GeoView struct {
	Level      GeoLevel  `json:"level"`
	Name       string    `json:"name"`
	Year       int       `json:"year"`
	Total      int       `json:"total"`
	Matched    int       `json:"matched"`
	Unresolved int       `json:"unresolved"`
	Cells      []GeoCell `json:"cells"`
	// Shapes is aligned with Cells.
	Shapes []Geometry `json:"-"`
}

// GenderPivot is a name's male and female totals for one year. Total is always > 0.
type GenderPivot struct {
	Name        string
	Year        int
	Male        int
	Female      int
	Total       int
	FemaleRatio float64
}

// CategoryYearSummary is one (year, category) cell of the gender spectrum.
type CategoryYearSummary struct {
	Year       int      `json:"year"`
	Category   string   `json:"category"`
	Rank       int      `json:"rank"`
	Value      int      `json:"value"`
	Proportion float64  `json:"proportion"`
	Examples   []string `json:"examples"`
	Truncated  bool     `json:"truncated"`
}

// TruncationMarker is appended to the example label when the sample was cut.
const TruncationMarker = "..."

// Label renders the examples the way a tooltip shows them.
func (s CategoryYearSummary) Label() string {
	label := strings.Join(s.Examples, ", ")
	if s.Truncated {
		label += TruncationMarker
	}
	return label
}
