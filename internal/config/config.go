// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers a YAML file and environment variables over those defaults.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required"`

	// RegistryPath points at the birth registry (delimited text or xlsx).
	RegistryPath string `koanf:"registry_path" validate:"required"`

	// RegistryDelimiter is the field separator of a delimited registry.
	RegistryDelimiter string `koanf:"registry_delimiter" validate:"len=1"`

	// RegistrySheet names the worksheet of an xlsx registry. Empty means the first sheet.
	RegistrySheet string `koanf:"registry_sheet"`

	DepartmentBoundariesPath string `koanf:"department_boundaries_path" validate:"required"`
	RegionBoundariesPath     string `koanf:"region_boundaries_path" validate:"required"`
	DepartmentRegionPath     string `koanf:"department_region_path" validate:"required"`

	// MappingDelimiter is the field separator of the department to region table.
	MappingDelimiter string `koanf:"mapping_delimiter" validate:"len=1"`

	RareNameSentinel          string `koanf:"rare_name_sentinel" validate:"required"`
	UnknownDepartmentSentinel string `koanf:"unknown_department_sentinel" validate:"required"`

	// Parallelism bounds the goroutines used by per-year computations.
	Parallelism int `koanf:"parallelism" validate:"min=1"`

	// CORSAllowedOrigins lists origins allowed to call the API.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// RateLimitPerMinute caps requests per client IP. Zero disables the limiter.
	RateLimitPerMinute int `koanf:"rate_limit_per_minute" validate:"min=0"`
}

// New creates a Config with defaults matching the public INSEE and
// IGN/Etalab datasets.
func New() *Config {
	return &Config{
		LogLevel:                  "info",
		LogFormat:                 "text",
		Addr:                      ":9080",
		RegistryPath:              "data/dpt2020.csv",
		RegistryDelimiter:         ";",
		DepartmentBoundariesPath:  "data/departements.geojson",
		RegionBoundariesPath:      "data/regions.geojson",
		DepartmentRegionPath:      "data/departements-region.csv",
		MappingDelimiter:          ",",
		RareNameSentinel:          "_PRENOMS_RARES",
		UnknownDepartmentSentinel: "XX",
		Parallelism:               runtime.NumCPU(),
		CORSAllowedOrigins:        []string{"*"},
		RateLimitPerMinute:        600,
	}
}
