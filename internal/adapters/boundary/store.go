// Package boundary loads department and region polygons and the department to
// region mapping as immutable relations.
package boundary

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/prenoms/internal/domain/model"
)

const (
	opDepartments = "boundary.departments"
	opRegions     = "boundary.regions"
	opMapping     = "boundary.mapping"
)

// Boundaries holds the loaded relations. It is read-only after Load returns.
type Boundaries struct {
	Departments []model.DepartmentBoundary
	Regions     []model.RegionBoundary
	Mapping     model.DeptToRegion
	Duration    time.Duration
}

// Loader reads boundary sources.
type Loader struct {
	deptCodeProp   string
	deptNameProp   string
	regionNameProp string
	mapDeptCol     string
	mapRegionCol   string
	mapDelimiter   rune
}

// NewLoader creates a Loader for france-geojson property names and a
// comma-separated department/region table, adjusted by opts.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		deptCodeProp:   "code",
		deptNameProp:   "nom",
		regionNameProp: "nom",
		mapDeptCol:     "num_dep",
		mapRegionCol:   "region_name",
		mapDelimiter:   ',',
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the three sources concurrently. The first failure cancels the others
// and is returned as a *model.DataLoadError. Every region named by the mapping
// must have a boundary.
func (l *Loader) Load(ctx context.Context, deptPath, regionPath, mappingPath string) (*Boundaries, error) {
	start := time.Now()
	b := &Boundaries{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		depts, err := l.LoadDepartments(gctx, deptPath)
		b.Departments = depts
		return err
	})
	g.Go(func() error {
		regions, err := l.LoadRegions(gctx, regionPath)
		b.Regions = regions
		return err
	})
	g.Go(func() error {
		mapping, err := l.LoadMapping(gctx, mappingPath)
		b.Mapping = mapping
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := checkMappedRegions(b.Mapping, b.Regions); err != nil {
		return nil, model.NewDataLoadError(mappingPath, opMapping, err)
	}
	b.Duration = time.Since(start)
	return b, nil
}

// checkMappedRegions reports the first department whose region has no boundary.
func checkMappedRegions(mapping model.DeptToRegion, regions []model.RegionBoundary) error {
	known := make(map[string]struct{}, len(regions))
	for _, r := range regions {
		known[r.Name] = struct{}{}
	}
	codes := make([]string, 0, len(mapping))
	for code := range mapping {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		if _, ok := known[mapping[code]]; !ok {
			return fmt.Errorf("%w: department %s -> %q", ErrUnknownRegion, code, mapping[code])
		}
	}
	return nil
}

// LoadDepartments reads department polygons keyed by code.
func (l *Loader) LoadDepartments(ctx context.Context, path string) ([]model.DepartmentBoundary, error) {
	features, err := readFeatures(path)
	if err != nil {
		return nil, model.NewDataLoadError(path, opDepartments, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, model.NewDataLoadError(path, opDepartments, err)
	}

	out := make([]model.DepartmentBoundary, 0, len(features))
	seen := make(map[string]struct{}, len(features))
	for i, f := range features {
		code, err := f.property(l.deptCodeProp)
		if err != nil {
			return nil, model.NewDataLoadError(path, opDepartments, fmt.Errorf("feature %d: %w", i, err))
		}
		name, err := f.property(l.deptNameProp)
		if err != nil {
			return nil, model.NewDataLoadError(path, opDepartments, fmt.Errorf("feature %d: %w", i, err))
		}
		if err := validateGeometry(f.Geometry); err != nil {
			return nil, model.NewDataLoadError(path, opDepartments, fmt.Errorf("department %s: %w", code, err))
		}
		if _, dup := seen[code]; dup {
			return nil, model.NewDataLoadError(path, opDepartments, fmt.Errorf("%w: %s", ErrDuplicateIdentity, code))
		}
		seen[code] = struct{}{}
		out = append(out, model.DepartmentBoundary{Code: code, Name: name, Geometry: *f.Geometry})
	}
	return out, nil
}

// LoadRegions reads region polygons keyed by display name.
func (l *Loader) LoadRegions(ctx context.Context, path string) ([]model.RegionBoundary, error) {
	features, err := readFeatures(path)
	if err != nil {
		return nil, model.NewDataLoadError(path, opRegions, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, model.NewDataLoadError(path, opRegions, err)
	}

	out := make([]model.RegionBoundary, 0, len(features))
	seen := make(map[string]struct{}, len(features))
	for i, f := range features {
		name, err := f.property(l.regionNameProp)
		if err != nil {
			return nil, model.NewDataLoadError(path, opRegions, fmt.Errorf("feature %d: %w", i, err))
		}
		if err := validateGeometry(f.Geometry); err != nil {
			return nil, model.NewDataLoadError(path, opRegions, fmt.Errorf("region %s: %w", name, err))
		}
		if _, dup := seen[name]; dup {
			return nil, model.NewDataLoadError(path, opRegions, fmt.Errorf("%w: %s", ErrDuplicateIdentity, name))
		}
		seen[name] = struct{}{}
		out = append(out, model.RegionBoundary{Name: name, Geometry: *f.Geometry})
	}
	return out, nil
}

// LoadMapping reads the department code to region name table. Repeated identical
// rows are accepted; a code mapped to two regions is an error.
func (l *Loader) LoadMapping(ctx context.Context, path string) (model.DeptToRegion, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, model.NewDataLoadError(path, opMapping, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.Comma = l.mapDelimiter
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, model.NewDataLoadError(path, opMapping, err)
	}
	deptIdx, regionIdx := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		case l.mapDeptCol:
			deptIdx = i
		case l.mapRegionCol:
			regionIdx = i
		}
	}
	if deptIdx < 0 || regionIdx < 0 {
		return nil, model.NewDataLoadError(path, opMapping,
			fmt.Errorf("%w: need %q and %q", ErrMissingColumn, l.mapDeptCol, l.mapRegionCol))
	}

	mapping := make(model.DeptToRegion)
	for line := 2; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, model.NewDataLoadError(path, opMapping, err)
		}
		if err := ctx.Err(); err != nil {
			return nil, model.NewDataLoadError(path, opMapping, err)
		}
		if deptIdx >= len(row) || regionIdx >= len(row) {
			return nil, model.NewDataLoadError(path, opMapping, fmt.Errorf("line %d: %w", line, ErrMissingColumn))
		}
		dept := strings.TrimSpace(row[deptIdx])
		region := strings.TrimSpace(row[regionIdx])
		if dept == "" || region == "" {
			continue
		}
		if prev, ok := mapping[dept]; ok && prev != region {
			return nil, model.NewDataLoadError(path, opMapping,
				fmt.Errorf("line %d: %w: %s -> %s, %s", line, ErrConflictingRegion, dept, prev, region))
		}
		mapping[dept] = region
	}
	return mapping, nil
}
