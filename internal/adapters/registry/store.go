package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/okian/prenoms/internal/domain/model"
)

const (
	opLoad = "registry.load"
	// ctxCheckEvery is how many rows are read between cancellation checks.
	ctxCheckEvery = 50_000
)

// LoadStats describes what a load read, kept and dropped.
type LoadStats struct {
	Source                   string
	Rows                     int
	Kept                     int
	DroppedRareName          int
	DroppedUnknownDepartment int
	Duration                 time.Duration
}

// Store is the normalized registry. It is read-only after Load returns.
type Store struct {
	records []model.BirthRecord
	names   []string
	years   map[string][]int
	stats   LoadStats
}

// Records returns the normalized relation. Callers must not modify it.
func (s *Store) Records() []model.BirthRecord { return s.records }

// Names returns the sorted distinct names.
func (s *Store) Names() []string { return s.names }

// Years returns the sorted years in which name has at least one record.
func (s *Store) Years(name string) []int { return s.years[name] }

// Stats returns load statistics.
func (s *Store) Stats() LoadStats { return s.stats }

// NewStore builds a store from already normalized records.
func NewStore(records []model.BirthRecord) *Store {
	s := &Store{records: records}
	s.index()
	s.stats.Rows = len(records)
	s.stats.Kept = len(records)
	return s
}

func (s *Store) index() {
	seen := make(map[string]map[int]struct{})
	for _, r := range s.records {
		ys, ok := seen[r.Name]
		if !ok {
			ys = make(map[int]struct{})
			seen[r.Name] = ys
		}
		ys[r.Year] = struct{}{}
	}
	s.names = make([]string, 0, len(seen))
	s.years = make(map[string][]int, len(seen))
	for name, ys := range seen {
		s.names = append(s.names, name)
		years := make([]int, 0, len(ys))
		for y := range ys {
			years = append(years, y)
		}
		sort.Ints(years)
		s.years[name] = years
	}
	sort.Strings(s.names)
}

// Loader reads and normalizes registry sources.
type Loader struct {
	delimiter         rune
	sheet             string
	columns           Columns
	rareName          string
	unknownDepartment string
}

// NewLoader creates a Loader for the INSEE layout, adjusted by opts.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		delimiter:         DefaultDelimiter,
		columns:           DefaultColumns,
		rareName:          DefaultRareNameSentinel,
		unknownDepartment: DefaultUnknownDeptSentinel,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type columnIndex struct {
	name, year, sex, dept, count int
}

func (l *Loader) resolveHeader(header []string) (columnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		pos[h] = i
	}
	lookup := func(col string) (int, error) {
		i, ok := pos[col]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrMissingColumn, col)
		}
		return i, nil
	}

	var idx columnIndex
	var err error
	if idx.name, err = lookup(l.columns.Name); err != nil {
		return idx, err
	}
	if idx.year, err = lookup(l.columns.Year); err != nil {
		return idx, err
	}
	if idx.sex, err = lookup(l.columns.Sex); err != nil {
		return idx, err
	}
	if idx.dept, err = lookup(l.columns.Department); err != nil {
		return idx, err
	}
	if idx.count, err = lookup(l.columns.Count); err != nil {
		return idx, err
	}
	return idx, nil
}

// Load reads the whole source, drops sentinel rows and returns the store. Any
// failure is a *model.DataLoadError; no partial store is returned.
func (l *Loader) Load(ctx context.Context, path string) (*Store, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, model.NewDataLoadError(path, opLoad, err)
	}

	src, err := l.openSource(path)
	if err != nil {
		return nil, model.NewDataLoadError(path, opLoad, err)
	}
	defer func() { _ = src.Close() }()

	header, err := src.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = ErrEmptySource
		}
		return nil, model.NewDataLoadError(path, opLoad, err)
	}
	idx, err := l.resolveHeader(header)
	if err != nil {
		return nil, model.NewDataLoadError(path, opLoad, err)
	}

	stats := LoadStats{Source: path}
	var records []model.BirthRecord
	for line := 2; ; line++ {
		row, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, model.NewDataLoadError(path, opLoad, err)
		}
		if line%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, model.NewDataLoadError(path, opLoad, err)
			}
		}
		stats.Rows++

		rec, keep, err := l.normalize(row, idx, &stats)
		if err != nil {
			return nil, model.NewDataLoadError(path, opLoad, fmt.Errorf("line %d: %w", line, err))
		}
		if keep {
			records = append(records, rec)
		}
	}

	s := &Store{records: records}
	s.index()
	stats.Kept = len(records)
	stats.Duration = time.Since(start)
	s.stats = stats
	return s, nil
}

// normalize applies the sentinel filters, then converts the surviving row.
func (l *Loader) normalize(row []string, idx columnIndex, stats *LoadStats) (model.BirthRecord, bool, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	name := cell(idx.name)
	if name == l.rareName {
		stats.DroppedRareName++
		return model.BirthRecord{}, false, nil
	}
	dept := cell(idx.dept)
	if dept == l.unknownDepartment {
		stats.DroppedUnknownDepartment++
		return model.BirthRecord{}, false, nil
	}

	year, err := strconv.Atoi(cell(idx.year))
	if err != nil {
		return model.BirthRecord{}, false, fmt.Errorf("%w: year %q", ErrMalformedRow, cell(idx.year))
	}
	count, err := strconv.Atoi(cell(idx.count))
	if err != nil {
		return model.BirthRecord{}, false, fmt.Errorf("%w: count %q", ErrMalformedRow, cell(idx.count))
	}

	return model.BirthRecord{
		Name:           name,
		Year:           year,
		Sex:            model.ParseSex(cell(idx.sex)),
		DepartmentCode: dept,
		Count:          count,
	}, true, nil
}
