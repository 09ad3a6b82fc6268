// Package model contains domain models passed between layers.
package model

import (
	"strings"

	"github.com/goccy/go-json"
)

// Sex is the registry sex code decoded into a closed set.
type Sex int

const (
	SexUnknown Sex = iota
	SexMale
	SexFemale
)

// ParseSex maps registry codes "1"/"2" to male/female. Any other code is unknown.
func ParseSex(code string) Sex {
	switch strings.TrimSpace(code) {
	case "1":
		return SexMale
	case "2":
		return SexFemale
	default:
		return SexUnknown
	}
}

func (s Sex) String() string {
	switch s {
	case SexMale:
		return "male"
	case SexFemale:
		return "female"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the sex as its lowercase name.
func (s Sex) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// BirthRecord is one normalized registry row.
type BirthRecord struct {
	Name           string // given name, as spelled in the registry
	Year           int    // birth year
	Sex            Sex
	DepartmentCode string // e.g. "75", "2A", "971"
	Count          int    // births; negative values from upstream are kept as-is
}

// Geometry holds a validated GeoJSON Polygon or MultiPolygon.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// DepartmentBoundary is a department polygon keyed by its code.
type DepartmentBoundary struct {
	Code     string
	Name     string
	Geometry Geometry
}

// RegionBoundary is a region polygon keyed by its display name.
type RegionBoundary struct {
	Name     string
	Geometry Geometry
}

// DeptToRegion maps a department code to the display name of its region.
type DeptToRegion map[string]string
