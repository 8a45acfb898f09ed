// Package types provides type definitions for structured data used throughout the job-radar system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"time"

	"github.com/google/uuid"
)

// RawJob is one listing as produced by a source adapter, before persistence.
// Adapters must not modify a RawJob after returning it.
type RawJob struct {
	SourceID     string         `json:"source_id"`
	URL          string         `json:"url"`
	Title        string         `json:"title"`
	Company      string         `json:"company"`
	Description  string         `json:"description,omitempty"`
	Location     string         `json:"location,omitempty"`
	LocationType string         `json:"location_type,omitempty"`
	Seniority    string         `json:"seniority,omitempty"`
	Category     string         `json:"category,omitempty"`
	SalaryMin    *int           `json:"salary_min,omitempty"`
	SalaryMax    *int           `json:"salary_max,omitempty"`
	Tags         []string       `json:"tags,omitempty"`
	Chains       []string       `json:"chains,omitempty"`
	PostedAt     *time.Time     `json:"posted_at,omitempty"`
	RawData      map[string]any `json:"raw_data,omitempty"` // verbatim source fields
}

// Job is the persisted canonical record, unique on (Source, SourceID).
type Job struct {
	ID     uuid.UUID `json:"id"`
	Source string    `json:"source"`
	RawJob
	ScrapedAt time.Time `json:"scraped_at"`
	CreatedAt time.Time `json:"created_at"`
}

// JobSummary is the subset of a Job the scoring pipeline needs.
type JobSummary struct {
	ID        uuid.UUID      `json:"id"`
	Source    string         `json:"source"`
	Title     string         `json:"title"`
	Company   string         `json:"company"`
	Seniority string         `json:"seniority,omitempty"`
	Category  string         `json:"category,omitempty"`
	Tags      []string       `json:"tags,omitempty"`
	Chains    []string       `json:"chains,omitempty"`
	RawData   map[string]any `json:"raw_data,omitempty"`
}

// JobWithScore is a Job joined with its optional Score and user action, as
// returned by the read-side listing.
type JobWithScore struct {
	Job
	Score  *Score  `json:"score,omitempty"`
	Action *string `json:"action,omitempty"`
}

// Score holds the judge's assessment of one job. OverallScore is stored as
// supplied by the judge and never recomputed.
type Score struct {
	JobID           uuid.UUID `json:"job_id"`
	OverallScore    int       `json:"overall_score"`
	RelevanceScore  int       `json:"relevance_score"`
	ExperienceMatch int       `json:"experience_match"`
	DomainMatch     int       `json:"domain_match"`
	SeniorityFit    int       `json:"seniority_fit"`
	Reasoning       string    `json:"reasoning"`
	ModelUsed       string    `json:"model_used"`
	ScoredAt        time.Time `json:"scored_at"`
}

// JobAction values a user can attach to a job.
const (
	ActionSaved   = "saved"
	ActionApplied = "applied"
	ActionHidden  = "hidden"
)

// IsValidAction reports whether action is one of the known job actions.
func IsValidAction(action string) bool {
	switch action {
	case ActionSaved, ActionApplied, ActionHidden:
		return true
	}
	return false
}
