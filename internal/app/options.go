package service

import (
	"github.com/okian/prenoms/internal/adapters/boundary"
	"github.com/okian/prenoms/internal/adapters/registry"
	"github.com/okian/prenoms/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithParallelism bounds the goroutines used by per-year computations.
func WithParallelism(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

// WithRegistryLoader replaces the default INSEE registry loader.
func WithRegistryLoader(l *registry.Loader) Option {
	return func(s *Service) {
		if l != nil {
			s.registryLoader = l
		}
	}
}

// WithBoundaryLoader replaces the default boundary loader.
func WithBoundaryLoader(l *boundary.Loader) Option {
	return func(s *Service) {
		if l != nil {
			s.boundaryLoader = l
		}
	}
}

// WithRegistryPath sets the registry source.
func WithRegistryPath(path string) Option {
	return func(s *Service) {
		s.registryPath = path
	}
}

// WithBoundaryPaths sets the department polygons, region polygons and
// department to region table.
func WithBoundaryPaths(departments, regions, mapping string) Option {
	return func(s *Service) {
		s.departmentsPath = departments
		s.regionsPath = regions
		s.mappingPath = mapping
	}
}

// WithStores serves already loaded relations; Start then skips loading.
func WithStores(store *registry.Store, bounds *boundary.Boundaries) Option {
	return func(s *Service) {
		s.store = store
		s.bounds = bounds
	}
}
