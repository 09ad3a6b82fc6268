// Package registry loads the given-name birth registry into an immutable in-memory store.
package registry

// Default registry layout (INSEE departmental file).
const (
	DefaultDelimiter           = ';'
	DefaultRareNameSentinel    = "_PRENOMS_RARES"
	DefaultUnknownDeptSentinel = "XX"
)

// Columns names the header cells holding each field.
type Columns struct {
	Name       string
	Year       string
	Sex        string
	Department string
	Count      string
}

// DefaultColumns matches the INSEE "dpt" file header.
var DefaultColumns = Columns{
	Name:       "preusuel",
	Year:       "annais",
	Sex:        "sexe",
	Department: "dpt",
	Count:      "nombre",
}

// Option applies a configuration option to the Loader.
type Option func(*Loader)

// WithDelimiter sets the field delimiter of delimited sources.
func WithDelimiter(d rune) Option {
	return func(l *Loader) {
		if d != 0 {
			l.delimiter = d
		}
	}
}

// WithSheet selects the worksheet read from .xlsx sources. Defaults to the first sheet.
func WithSheet(name string) Option {
	return func(l *Loader) {
		l.sheet = name
	}
}

// WithColumns overrides the header names; empty fields keep their default.
func WithColumns(c Columns) Option {
	return func(l *Loader) {
		if c.Name != "" {
			l.columns.Name = c.Name
		}
		if c.Year != "" {
			l.columns.Year = c.Year
		}
		if c.Sex != "" {
			l.columns.Sex = c.Sex
		}
		if c.Department != "" {
			l.columns.Department = c.Department
		}
		if c.Count != "" {
			l.columns.Count = c.Count
		}
	}
}

// WithSentinels sets the rare-name and unknown-department placeholder values.
func WithSentinels(rareName, unknownDepartment string) Option {
	return func(l *Loader) {
		if rareName != "" {
			l.rareName = rareName
		}
		if unknownDepartment != "" {
			l.unknownDepartment = unknownDepartment
		}
	}
}
