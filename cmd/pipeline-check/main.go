package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/prenoms/internal/pipelinecheck"
)

// Default configuration constants.
const (
	defaultNames        = 20
	defaultYears        = 3
	defaultTimeout      = 30 * time.Second
	defaultCheckTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:9080", "Base URL of the service")
		names     = flag.Int("names", defaultNames, "Number of names sampled from the registry")
		years     = flag.Int("years", defaultYears, "Number of years checked per sampled name")
		workers   = flag.Int("workers", runtime.NumCPU(), "Number of concurrent workers")
		timeout   = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		report    = flag.String("report", "", "Write a JSON report to this file")
		logFormat = flag.String("log-format", "text", "Log format: text or json")
		verbose   = flag.Bool("verbose", false, "Log every passed check")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		pipelinecheck.ShowHelp()
		return
	}

	if err := pipelinecheck.SetupLogging(*logFormat); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultCheckTimeout)
	defer cancel()

	result, err := pipelinecheck.Run(ctx, &pipelinecheck.Config{
		BaseURL: *baseURL,
		Names:   *names,
		Years:   *years,
		Workers: *workers,
		Timeout: *timeout,
		Report:  *report,
		Verbose: *verbose,
	})
	if err != nil {
		os.Stderr.WriteString("Check failed: " + err.Error() + "\n")
		os.Exit(2)
	}
	if !result.Passed() {
		os.Exit(1)
	}
}
