package types

import (
	"time"

	"github.com/google/uuid"
)

// ScrapeRun status values
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// SkipStats counts listings an adapter dropped during one scrape, by reason.
type SkipStats struct {
	Title     int `json:"skipped_title"`
	Location  int `json:"skipped_location"`
	Seniority int `json:"skipped_seniority"`
}

// Total returns the number of skipped listings across all reasons.
func (s SkipStats) Total() int {
	return s.Title + s.Location + s.Seniority
}

// Add returns the element-wise sum of two SkipStats.
func (s SkipStats) Add(o SkipStats) SkipStats {
	return SkipStats{
		Title:     s.Title + o.Title,
		Location:  s.Location + o.Location,
		Seniority: s.Seniority + o.Seniority,
	}
}

// RunResult is the outcome of scraping one source.
type RunResult struct {
	JobsFound int       `json:"jobs_found"`
	JobsNew   int       `json:"jobs_new"`
	Skipped   SkipStats `json:"skipped"`
}

// ScrapeRun is the audit record of one orchestrator pass over one source.
type ScrapeRun struct {
	ID          uuid.UUID  `json:"id"`
	Source      string     `json:"source"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Status      string     `json:"status"`
	JobsFound   int        `json:"jobs_found"`
	JobsNew     int        `json:"jobs_new"`
	Skipped     SkipStats  `json:"skipped"`
	Error       *string    `json:"error,omitempty"`
}

// ScrapeRunCompletion carries the final state written when a run closes.
type ScrapeRunCompletion struct {
	Status    string
	JobsFound int
	JobsNew   int
	Skipped   SkipStats
	Error     string // empty when the run succeeded
}
