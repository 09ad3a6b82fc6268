package registry

import "errors"

// Sentinel kinds for registry load failures. They are wrapped in model.DataLoadError.
var (
	ErrMissingColumn = errors.New("missing required column")
	ErrMalformedRow  = errors.New("malformed row")
	ErrEmptySource   = errors.New("source has no header row")
	ErrUnknownFormat = errors.New("unsupported source format")
)
