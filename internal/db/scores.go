package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jonathan/job-radar/internal/types"
)

// ErrJobNotFound is returned when an operation references a job id that does
// not exist.
var ErrJobNotFound = errors.New("job not found")

const foreignKeyViolation = "23503"

// UpsertScore stores the score for a job, replacing any earlier score.
func (db *DB) UpsertScore(ctx context.Context, score types.Score) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO scores (job_id, overall_score, relevance_score, experience_match,
		                     domain_match, seniority_fit, reasoning, model_used, scored_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		 ON CONFLICT (job_id) DO UPDATE SET
		     overall_score = $2,
		     relevance_score = $3,
		     experience_match = $4,
		     domain_match = $5,
		     seniority_fit = $6,
		     reasoning = $7,
		     model_used = $8,
		     scored_at = NOW()`,
		score.JobID, score.OverallScore, score.RelevanceScore, score.ExperienceMatch,
		score.DomainMatch, score.SeniorityFit, score.Reasoning, score.ModelUsed,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return fmt.Errorf("failed to upsert score for job %s: %w", score.JobID, ErrJobNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to upsert score for job %s: %w", score.JobID, err)
	}
	return nil
}
