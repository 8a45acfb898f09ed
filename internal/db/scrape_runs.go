package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/job-radar/internal/types"
)

// -----------------------------------------------------------------------------
// Scrape Run Methods
// -----------------------------------------------------------------------------

// StartScrapeRun creates a running scrape_runs row and returns its ID
func (db *DB) StartScrapeRun(ctx context.Context, source string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO scrape_runs (source, status)
		 VALUES ($1, $2)
		 RETURNING id`,
		source, types.RunStatusRunning,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to start scrape run: %w", err)
	}
	return id, nil
}

// CompleteScrapeRun closes a scrape run with its final status and counters
func (db *DB) CompleteScrapeRun(ctx context.Context, id uuid.UUID, c types.ScrapeRunCompletion) error {
	var errMsg *string
	if c.Error != "" {
		errMsg = &c.Error
	}
	_, err := db.pool.Exec(ctx,
		`UPDATE scrape_runs
		 SET status = $2, jobs_found = $3, jobs_new = $4,
		     skipped_title = $5, skipped_location = $6, skipped_seniority = $7,
		     error = $8, completed_at = NOW()
		 WHERE id = $1`,
		id, c.Status, c.JobsFound, c.JobsNew,
		c.Skipped.Title, c.Skipped.Location, c.Skipped.Seniority, errMsg,
	)
	if err != nil {
		return fmt.Errorf("failed to complete scrape run: %w", err)
	}
	return nil
}

// ListScrapeRuns returns the most recent scrape runs, newest first
func (db *DB) ListScrapeRuns(ctx context.Context, limit int) ([]types.ScrapeRun, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, source, started_at, completed_at, status, jobs_found, jobs_new,
		        skipped_title, skipped_location, skipped_seniority, error
		 FROM scrape_runs
		 ORDER BY started_at DESC
		 LIMIT $1`,
		clampLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list scrape runs: %w", err)
	}
	defer rows.Close()

	var runs []types.ScrapeRun
	for rows.Next() {
		var r types.ScrapeRun
		if err := rows.Scan(&r.ID, &r.Source, &r.StartedAt, &r.CompletedAt, &r.Status,
			&r.JobsFound, &r.JobsNew, &r.Skipped.Title, &r.Skipped.Location,
			&r.Skipped.Seniority, &r.Error); err != nil {
			return nil, fmt.Errorf("failed to scan scrape run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read scrape runs: %w", err)
	}
	return runs, nil
}
