package boundary

// Option applies a configuration option to the Loader.
type Option func(*Loader)

// WithDepartmentProperties sets the GeoJSON properties holding a department's code and name.
func WithDepartmentProperties(code, name string) Option {
	return func(l *Loader) {
		if code != "" {
			l.deptCodeProp = code
		}
		if name != "" {
			l.deptNameProp = name
		}
	}
}

// WithRegionNameProperty sets the GeoJSON property holding a region's display name.
func WithRegionNameProperty(name string) Option {
	return func(l *Loader) {
		if name != "" {
			l.regionNameProp = name
		}
	}
}

// WithMappingColumns sets the mapping table header names.
func WithMappingColumns(department, region string) Option {
	return func(l *Loader) {
		if department != "" {
			l.mapDeptCol = department
		}
		if region != "" {
			l.mapRegionCol = region
		}
	}
}

// WithMappingDelimiter sets the mapping table field delimiter.
func WithMappingDelimiter(d rune) Option {
	return func(l *Loader) {
		if d != 0 {
			l.mapDelimiter = d
		}
	}
}
