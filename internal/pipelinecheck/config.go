package pipelinecheck

import (
	"time"

	"github.com/okian/prenoms/internal/domain/model"
)

// Config holds configuration for a check run.
type Config struct {
	BaseURL string        // Base URL of the service
	Names   int           // Number of names sampled from the registry
	Years   int           // Number of years checked per sampled name
	Workers int           // Number of concurrent workers
	Timeout time.Duration // HTTP request timeout
	Report  string        // Output file for the JSON report, empty for none
	Verbose bool          // Log every check
}

type namesResponse struct {
	Count int      `json:"count"`
	Names []string `json:"names"`
}

type yearsResponse struct {
	Name  string `json:"name"`
	Years []int  `json:"years"`
	Empty bool   `json:"empty"`
}

type trendResponse struct {
	Points []model.TrendPoint `json:"points"`
	Empty  bool               `json:"empty"`
}

type geoResponse struct {
	Level      model.GeoLevel  `json:"level"`
	Name       string          `json:"name"`
	Year       int             `json:"year"`
	Total      int             `json:"total"`
	Matched    int             `json:"matched"`
	Unresolved int             `json:"unresolved"`
	Cells      []model.GeoCell `json:"cells"`
	Empty      bool            `json:"empty"`
}

type spectrumResponse struct {
	Table     string                      `json:"table"`
	Summaries []model.CategoryYearSummary `json:"summaries"`
}

// Failure is one failed check.
type Failure struct {
	Check   string `json:"check"`
	Subject string `json:"subject"`
	Detail  string `json:"detail"`
}

// Report summarises a run.
type Report struct {
	RunID     string        `json:"run_id"`
	BaseURL   string        `json:"base_url"`
	Names     []string      `json:"names"`
	Requests  int64         `json:"requests"`
	Checks    int64         `json:"checks"`
	Failures  []Failure     `json:"failures"`
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
}

// Passed reports whether every check passed.
func (r *Report) Passed() bool { return len(r.Failures) == 0 }
