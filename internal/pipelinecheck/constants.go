package pipelinecheck

// Tolerance for proportions summing to one.
const proportionTolerance = 1e-9

// Spectrum tables checked by every run.
var spectrumTables = []string{"A", "B"} //nolint:gochecknoglobals // fixed table ids

const filePermission = 0o600

// probeYear is any valid year; zero-fill makes the cell count independent of it.
const probeYear = 2000
