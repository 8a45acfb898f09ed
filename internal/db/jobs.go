package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/job-radar/internal/types"
)

// -----------------------------------------------------------------------------
// Job Methods
// -----------------------------------------------------------------------------

// UpsertJob inserts a job or refreshes the existing row with the same
// (source, source_id). It returns the row id and whether the row is new.
// A re-scrape overwrites every listing column except posted_at, which keeps
// the stored date when the new listing has none. Upserting the same job twice
// leaves the row unchanged apart from scraped_at.
func (db *DB) UpsertJob(ctx context.Context, source string, job types.RawJob) (uuid.UUID, bool, error) {
	var rawJSON []byte
	if job.RawData != nil {
		var err error
		rawJSON, err = json.Marshal(job.RawData)
		if err != nil {
			return uuid.Nil, false, fmt.Errorf("failed to marshal raw data: %w", err)
		}
	}

	var id uuid.UUID
	var inserted bool
	err := db.pool.QueryRow(ctx,
		`INSERT INTO jobs (source, source_id, url, title, company, description, location,
		                   location_type, seniority, category, salary_min, salary_max,
		                   tags, chains, posted_at, raw_data, scraped_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW())
		 ON CONFLICT (source, source_id) DO UPDATE SET
		     url = EXCLUDED.url,
		     title = EXCLUDED.title,
		     company = EXCLUDED.company,
		     description = EXCLUDED.description,
		     location = EXCLUDED.location,
		     location_type = EXCLUDED.location_type,
		     seniority = EXCLUDED.seniority,
		     category = EXCLUDED.category,
		     salary_min = EXCLUDED.salary_min,
		     salary_max = EXCLUDED.salary_max,
		     tags = EXCLUDED.tags,
		     chains = EXCLUDED.chains,
		     posted_at = COALESCE(EXCLUDED.posted_at, jobs.posted_at),
		     raw_data = EXCLUDED.raw_data,
		     scraped_at = NOW()
		 RETURNING id, (xmax = 0)`,
		source, job.SourceID, job.URL, job.Title, job.Company, job.Description, job.Location,
		job.LocationType, job.Seniority, job.Category, job.SalaryMin, job.SalaryMax,
		job.Tags, job.Chains, job.PostedAt, rawJSON,
	).Scan(&id, &inserted)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to upsert job %s/%s: %w", source, job.SourceID, err)
	}
	return id, inserted, nil
}

// GetUnscoredJobs returns up to limit jobs that have no score, newest first.
func (db *DB) GetUnscoredJobs(ctx context.Context, limit int) ([]types.JobSummary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := db.pool.Query(ctx,
		`SELECT j.id, j.source, j.title, j.company, j.seniority, j.category,
		        j.tags, j.chains, j.raw_data
		 FROM jobs j
		 LEFT JOIN scores s ON s.job_id = j.id
		 WHERE s.job_id IS NULL
		 ORDER BY j.created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query unscored jobs: %w", err)
	}
	defer rows.Close()

	var jobs []types.JobSummary
	for rows.Next() {
		var j types.JobSummary
		var rawJSON []byte
		if err := rows.Scan(&j.ID, &j.Source, &j.Title, &j.Company, &j.Seniority, &j.Category,
			&j.Tags, &j.Chains, &rawJSON); err != nil {
			return nil, fmt.Errorf("failed to scan unscored job: %w", err)
		}
		rawData, err := decodeRawData(rawJSON)
		if err != nil {
			return nil, fmt.Errorf("job %s: %w", j.ID, err)
		}
		j.RawData = rawData
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read unscored jobs: %w", err)
	}
	return jobs, nil
}

// decodeRawData decodes the raw_data column. NULL decodes to nil.
func decodeRawData(rawJSON []byte) (map[string]any, error) {
	if rawJSON == nil {
		return nil, nil
	}
	var data map[string]any
	if err := json.Unmarshal(rawJSON, &data); err != nil {
		return nil, fmt.Errorf("failed to decode raw data: %w", err)
	}
	return data, nil
}

// GetJob retrieves a job with its score and action by ID. A missing job
// returns nil without error.
func (db *DB) GetJob(ctx context.Context, id uuid.UUID) (*types.JobWithScore, error) {
	row := db.pool.QueryRow(ctx, selectJobWithScore+` WHERE j.id = $1`, id)
	job, err := scanJobWithScore(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

const selectJobWithScore = `SELECT j.id, j.source, j.source_id, j.url, j.title, j.company, j.description,
        j.location, j.location_type, j.seniority, j.category, j.salary_min, j.salary_max,
        j.tags, j.chains, j.posted_at, j.raw_data, j.scraped_at, j.created_at,
        s.overall_score, s.relevance_score, s.experience_match, s.domain_match,
        s.seniority_fit, s.reasoning, s.model_used, s.scored_at,
        a.action
 FROM jobs j
 LEFT JOIN scores s ON s.job_id = j.id
 LEFT JOIN job_actions a ON a.job_id = j.id`

// scanJobWithScore scans one row of selectJobWithScore.
func scanJobWithScore(row pgx.Row) (*types.JobWithScore, error) {
	var j types.JobWithScore
	var rawJSON []byte
	var (
		overall, relevance, experience, domain, seniority *int
		reasoning, model                                  *string
		scoredAt                                          *time.Time
	)

	err := row.Scan(
		&j.ID, &j.Source, &j.SourceID, &j.URL, &j.Title, &j.Company, &j.Description,
		&j.Location, &j.LocationType, &j.Seniority, &j.Category, &j.SalaryMin, &j.SalaryMax,
		&j.Tags, &j.Chains, &j.PostedAt, &rawJSON, &j.ScrapedAt, &j.CreatedAt,
		&overall, &relevance, &experience, &domain, &seniority, &reasoning, &model, &scoredAt,
		&j.Action,
	)
	if err != nil {
		return nil, err
	}

	if j.RawData, err = decodeRawData(rawJSON); err != nil {
		return nil, fmt.Errorf("job %s: %w", j.ID, err)
	}
	if overall != nil {
		j.Score = &types.Score{
			JobID:           j.ID,
			OverallScore:    *overall,
			RelevanceScore:  deref(relevance),
			ExperienceMatch: deref(experience),
			DomainMatch:     deref(domain),
			SeniorityFit:    deref(seniority),
			Reasoning:       deref(reasoning),
			ModelUsed:       deref(model),
		}
		if scoredAt != nil {
			j.Score.ScoredAt = *scoredAt
		}
	}
	return &j, nil
}

// ListJobs lists jobs joined with their score and action, filtered and
// paginated. It returns the page and the total number of matches.
func (db *DB) ListJobs(ctx context.Context, filter JobFilter) ([]types.JobWithScore, int, error) {
	f := filter.normalized()

	// Build WHERE clause dynamically
	var conditions []string
	var args []interface{}
	argIndex := 1

	if f.Source != "" {
		conditions = append(conditions, fmt.Sprintf("j.source = $%d", argIndex))
		args = append(args, f.Source)
		argIndex++
	}
	if f.MinScore != nil {
		conditions = append(conditions, fmt.Sprintf("s.overall_score >= $%d", argIndex))
		args = append(args, *f.MinScore)
		argIndex++
	}
	if f.Category != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(j.category) = LOWER($%d)", argIndex))
		args = append(args, f.Category)
		argIndex++
	}
	if f.Location != "" {
		conditions = append(conditions, fmt.Sprintf("j.location ILIKE $%d", argIndex))
		args = append(args, "%"+f.Location+"%")
		argIndex++
	}
	if f.Seniority != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(j.seniority) = LOWER($%d)", argIndex))
		args = append(args, f.Seniority)
		argIndex++
	}
	if f.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(j.title ILIKE $%d OR j.company ILIKE $%d OR j.description ILIKE $%d)",
			argIndex, argIndex, argIndex))
		args = append(args, "%"+f.Search+"%")
		argIndex++
	}
	switch f.Action {
	case "":
	case ActionNone:
		conditions = append(conditions, "a.action IS NULL")
	default:
		conditions = append(conditions, fmt.Sprintf("a.action = $%d", argIndex))
		args = append(args, f.Action)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	// Get total count
	countQuery := `SELECT COUNT(*) FROM jobs j
		LEFT JOIN scores s ON s.job_id = j.id
		LEFT JOIN job_actions a ON a.job_id = j.id` + whereClause
	var total int
	if err := db.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count jobs: %w", err)
	}

	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf("%s%s ORDER BY %s LIMIT $%d OFFSET $%d",
		selectJobWithScore, whereClause, orderClause(f.SortBy), argIndex, argIndex+1)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []types.JobWithScore
	for rows.Next() {
		job, err := scanJobWithScore(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read jobs: %w", err)
	}

	return jobs, total, nil
}

func orderClause(sortBy string) string {
	switch sortBy {
	case SortByDate:
		return "j.created_at DESC, j.id"
	case SortByCompany:
		return "LOWER(j.company) ASC, j.created_at DESC, j.id"
	default:
		return "s.overall_score DESC NULLS LAST, j.created_at DESC, j.id"
	}
}

// SetJobAction records a user action on a job, replacing any earlier one.
func (db *DB) SetJobAction(ctx context.Context, jobID uuid.UUID, action string) error {
	if !types.IsValidAction(action) {
		return fmt.Errorf("invalid job action %q", action)
	}
	tag, err := db.pool.Exec(ctx,
		`INSERT INTO job_actions (job_id, action)
		 SELECT id, $2 FROM jobs WHERE id = $1
		 ON CONFLICT (job_id) DO UPDATE SET action = $2, updated_at = NOW()`,
		jobID, action,
	)
	if err != nil {
		return fmt.Errorf("failed to set job action: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrJobNotFound
	}
	return nil
}

// ClearJobAction removes the user action on a job, if any.
func (db *DB) ClearJobAction(ctx context.Context, jobID uuid.UUID) error {
	_, err := db.pool.Exec(ctx, `DELETE FROM job_actions WHERE job_id = $1`, jobID)
	if err != nil {
		return fmt.Errorf("failed to clear job action: %w", err)
	}
	return nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
