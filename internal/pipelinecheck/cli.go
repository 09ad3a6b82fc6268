package pipelinecheck

import (
	"fmt"
	"os"

	"github.com/okian/prenoms/pkg/logger"
)

// SetupLogging initialises the logger in text or json format.
func SetupLogging(format string) error {
	if err := logger.Init(logger.WithFormat(format)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// ShowHelp prints usage information for the pipeline check tool.
func ShowHelp() {
	os.Stdout.WriteString(`Prénoms Pipeline Check
======================

Queries a running service and verifies its derived views.

Usage:
  go run ./cmd/pipeline-check [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -names int
        Number of names sampled from the registry (default 20)
  -years int
        Number of years checked per sampled name (default 3)
  -workers int
        Number of concurrent workers (default CPU cores)
  -timeout duration
        HTTP request timeout (default 30s)
  -report string
        Write a JSON report to this file
  -log-format string
        text or json (default "text")
  -verbose
        Log every passed check
  -help
        Show this help message

Checks:
  proportions           gender category shares sum to 1 for every year
  zero_fill_*           one cell per boundary at department and region level
  region_bound          region total <= department total
  trend_bound           department total <= national trend total
  idempotence           identical requests get byte-identical answers
`)
}
