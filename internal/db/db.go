// Package db provides PostgreSQL storage for scraped jobs, scores, scrape
// runs and user actions.
package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonathan/job-radar/internal/types"
)

// Store is the persistence surface shared by the PostgreSQL DB and the
// in-process MemoryStore.
type Store interface {
	UpsertJob(ctx context.Context, source string, job types.RawJob) (uuid.UUID, bool, error)
	GetUnscoredJobs(ctx context.Context, limit int) ([]types.JobSummary, error)
	UpsertScore(ctx context.Context, score types.Score) error
	StartScrapeRun(ctx context.Context, source string) (uuid.UUID, error)
	CompleteScrapeRun(ctx context.Context, id uuid.UUID, completion types.ScrapeRunCompletion) error
	ListScrapeRuns(ctx context.Context, limit int) ([]types.ScrapeRun, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]types.JobWithScore, int, error)
	GetJob(ctx context.Context, id uuid.UUID) (*types.JobWithScore, error)
	SetJobAction(ctx context.Context, jobID uuid.UUID, action string) error
	ClearJobAction(ctx context.Context, jobID uuid.UUID) error
}

var (
	_ Store = (*DB)(nil)
	_ Store = (*MemoryStore)(nil)
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// clampLimit applies the default and maximum page size used by list queries.
func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// List page sizes
const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)
