// Package geo joins registry counts for one name and year onto department or region
// boundaries. Every boundary gets exactly one cell; boundaries without data get zero.
package geo

import "github.com/okian/prenoms/internal/domain/model"

// Result is a zero-filled join plus bookkeeping about the rows that fed it.
type Result struct {
	Cells []model.GeoCell
	// Matched counts records for the requested name and year.
	Matched int
	// Unresolved counts matched records whose department has no region mapping,
	// or maps to a region with no boundary. Always zero at department level.
	Unresolved int
}

// sumByDepartment sums the counts of name/year records per department code.
func sumByDepartment(records []model.BirthRecord, name string, year int) (map[string]int, int) {
	sums := make(map[string]int)
	matched := 0
	for _, r := range records {
		if r.Name != name || r.Year != year {
			continue
		}
		sums[r.DepartmentCode] += r.Count
		matched++
	}
	return sums, matched
}

// ByDepartment returns one cell per department boundary, in boundary order.
func ByDepartment(records []model.BirthRecord, departments []model.DepartmentBoundary, name string, year int) Result {
	sums, matched := sumByDepartment(records, name, year)

	cells := make([]model.GeoCell, len(departments))
	for i, d := range departments {
		cells[i] = model.GeoCell{ID: d.Code, Name: d.Name, Count: sums[d.Code]}
	}
	return Result{Cells: cells, Matched: matched}
}

// ByRegion resolves each matching record's department to its region, drops the rows
// that do not resolve and returns one cell per region boundary, in boundary order.
func ByRegion(records []model.BirthRecord, regions []model.RegionBoundary, mapping model.DeptToRegion, name string, year int) Result {
	res := Result{}
	known := make(map[string]struct{}, len(regions))
	for _, reg := range regions {
		known[reg.Name] = struct{}{}
	}
	sums := make(map[string]int)
	for _, r := range records {
		if r.Name != name || r.Year != year {
			continue
		}
		res.Matched++
		region, ok := mapping[r.DepartmentCode]
		if _, bounded := known[region]; !ok || !bounded {
			res.Unresolved++
			continue
		}
		sums[region] += r.Count
	}

	res.Cells = make([]model.GeoCell, len(regions))
	for i, reg := range regions {
		res.Cells[i] = model.GeoCell{ID: reg.Name, Name: reg.Name, Count: sums[reg.Name]}
	}
	return res
}

// Total sums the counts of a set of cells.
func Total(cells []model.GeoCell) int {
	total := 0
	for _, c := range cells {
		total += c.Count
	}
	return total
}
