package boundary

import "errors"

// Sentinel kinds for boundary load failures. They are wrapped in model.DataLoadError.
var (
	ErrMalformedGeometry = errors.New("malformed geometry")
	ErrMissingProperty   = errors.New("missing feature property")
	ErrDuplicateIdentity = errors.New("duplicate boundary identity")
	ErrConflictingRegion = errors.New("department mapped to more than one region")
	ErrMissingColumn     = errors.New("missing required column")
	ErrUnknownRegion     = errors.New("mapping names a region with no boundary")
)
