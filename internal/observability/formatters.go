// Package observability provides structured logging setup and formatted
// summaries for CLI output.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/job-radar/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 20
)

// Printer handles formatted output for CLI summaries
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// PrintRunResults outputs per-source counts of a scrape pass, sorted by source.
func (p *Printer) PrintRunResults(results map[string]types.RunResult) {
	if len(results) == 0 {
		return
	}

	sources := make([]string, 0, len(results))
	for source := range results {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-20s %6s %6s %6s %6s %6s\n", "SOURCE", "FOUND", "NEW", "TITLE", "LOC", "SEN"))
	var total types.RunResult
	for _, source := range sources {
		r := results[source]
		sb.WriteString(fmt.Sprintf("%-20s %6d %6d %6d %6d %6d\n",
			source, r.JobsFound, r.JobsNew, r.Skipped.Title, r.Skipped.Location, r.Skipped.Seniority))
		total.JobsFound += r.JobsFound
		total.JobsNew += r.JobsNew
		total.Skipped = total.Skipped.Add(r.Skipped)
	}
	sb.WriteString(fmt.Sprintf("%-20s %6d %6d %6d %6d %6d",
		"total", total.JobsFound, total.JobsNew, total.Skipped.Title, total.Skipped.Location, total.Skipped.Seniority))

	p.printBox("SCRAPE RESULTS", sb.String())
}

// PrintScrapeRuns outputs the most recent scrape runs.
func (p *Printer) PrintScrapeRuns(runs []types.ScrapeRun) {
	if len(runs) == 0 {
		p.printBox("SCRAPE RUNS", "No runs recorded")
		return
	}

	var sb strings.Builder
	count := min(len(runs), maxItemsToShow)
	for i := 0; i < count; i++ {
		run := runs[i]
		sb.WriteString(fmt.Sprintf("%s  %-18s %-9s found=%d new=%d",
			run.StartedAt.Format("2006-01-02 15:04"), run.Source, run.Status, run.JobsFound, run.JobsNew))
		if run.Error != nil && *run.Error != "" {
			sb.WriteString(fmt.Sprintf("\n    error: %s", *run.Error))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}
	if len(runs) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more", len(runs)-maxItemsToShow))
	}

	p.printBox("SCRAPE RUNS", sb.String())
}

// PrintJobs outputs one page of jobs with their scores.
func (p *Printer) PrintJobs(jobs []types.JobWithScore, total int) {
	if len(jobs) == 0 {
		p.printBox("JOBS", "No matching jobs")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Showing %d of %d\n\n", len(jobs), total))
	for i, job := range jobs {
		score := "  -"
		if job.Score != nil {
			score = fmt.Sprintf("%3d", job.Score.OverallScore)
		}
		sb.WriteString(fmt.Sprintf("[%s] %s @ %s\n", score, job.Title, job.Company))
		meta := []string{job.Source}
		if job.Location != "" {
			meta = append(meta, job.Location)
		}
		if job.Action != nil {
			meta = append(meta, *job.Action)
		}
		sb.WriteString(fmt.Sprintf("      %s\n", strings.Join(meta, " | ")))
		sb.WriteString(fmt.Sprintf("      %s", job.URL))
		if i < len(jobs)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("JOBS", sb.String())
}

// PrintJob outputs one job in full, with its score breakdown.
func (p *Printer) PrintJob(job types.JobWithScore) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s @ %s\n", job.Title, job.Company))
	sb.WriteString(fmt.Sprintf("ID:        %s\n", job.ID))
	sb.WriteString(fmt.Sprintf("Source:    %s\n", job.Source))
	if job.Location != "" {
		sb.WriteString(fmt.Sprintf("Location:  %s\n", job.Location))
	}
	if job.Seniority != "" {
		sb.WriteString(fmt.Sprintf("Seniority: %s\n", job.Seniority))
	}
	if job.Action != nil {
		sb.WriteString(fmt.Sprintf("Action:    %s\n", *job.Action))
	}
	sb.WriteString(fmt.Sprintf("URL:       %s", job.URL))

	if s := job.Score; s != nil {
		sb.WriteString(fmt.Sprintf("\n\nOverall:    %d\n", s.OverallScore))
		sb.WriteString(fmt.Sprintf("Relevance:  %d\n", s.RelevanceScore))
		sb.WriteString(fmt.Sprintf("Experience: %d\n", s.ExperienceMatch))
		sb.WriteString(fmt.Sprintf("Domain:     %d\n", s.DomainMatch))
		sb.WriteString(fmt.Sprintf("Seniority:  %d\n", s.SeniorityFit))
		sb.WriteString(fmt.Sprintf("Model:      %s", s.ModelUsed))
		if s.Reasoning != "" {
			sb.WriteString("\n\n" + s.Reasoning)
		}
	} else {
		sb.WriteString("\n\nNot scored yet")
	}

	p.printBox("JOB", sb.String())
}

// PrintScoreSummary outputs the result of a scoring batch.
func (p *Printer) PrintScoreSummary(scored, attempted int, model string) {
	content := fmt.Sprintf("Scored:    %d\nAttempted: %d\nSkipped:   %d\nModel:     %s",
		scored, attempted, attempted-scored, model)
	p.printBox("SCORING", content)
}
