//go:build integration

package db

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/job-radar/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSource = "integration-test"

func getTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	db, err := Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	// Clean up test data before each test
	_, _ = db.pool.Exec(ctx, "DELETE FROM jobs WHERE source = $1", testSource)
	_, _ = db.pool.Exec(ctx, "DELETE FROM scrape_runs WHERE source = $1", testSource)

	return db
}

func TestIntegration_UpsertJob(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	raw := types.RawJob{
		SourceID: uuid.New().String(),
		URL:      "https://jobs.test.example.com/1",
		Title:    "Backend Engineer",
		Company:  "Acme",
		Tags:     []string{"go", "postgres"},
		RawData:  map[string]any{"id": 1},
	}

	id, inserted, err := db.UpsertJob(ctx, testSource, raw)
	require.NoError(t, err)
	assert.True(t, inserted)

	raw.Title = "Senior Backend Engineer"
	again, inserted, err := db.UpsertJob(ctx, testSource, raw)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, id, again)

	job, err := db.GetJob(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "Senior Backend Engineer", job.Title)
	assert.Equal(t, []string{"go", "postgres"}, job.Tags)
	assert.Nil(t, job.Score)

	missing, err := db.GetJob(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestIntegration_ScoresAndListing(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	id, _, err := db.UpsertJob(ctx, testSource, types.RawJob{
		SourceID: uuid.New().String(), URL: "https://jobs.test.example.com/2", Title: "Protocol Engineer",
	})
	require.NoError(t, err)

	require.NoError(t, db.UpsertScore(ctx, types.Score{
		JobID: id, OverallScore: 77, RelevanceScore: 80, ExperienceMatch: 70,
		DomainMatch: 75, SeniorityFit: 90, Reasoning: "good fit", ModelUsed: "test-model",
	}))

	jobs, total, err := db.ListJobs(ctx, JobFilter{Source: testSource})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, jobs, 1)
	require.NotNil(t, jobs[0].Score)
	assert.Equal(t, 77, jobs[0].Score.OverallScore)

	unscored, err := db.GetUnscoredJobs(ctx, 100)
	require.NoError(t, err)
	for _, j := range unscored {
		assert.NotEqual(t, id, j.ID)
	}

	require.NoError(t, db.SetJobAction(ctx, id, types.ActionSaved))
	jobs, _, err = db.ListJobs(ctx, JobFilter{Source: testSource, Action: types.ActionSaved})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.NoError(t, db.ClearJobAction(ctx, id))

	assert.ErrorIs(t, db.UpsertScore(ctx, types.Score{JobID: uuid.New()}), ErrJobNotFound)
	assert.ErrorIs(t, db.SetJobAction(ctx, uuid.New(), types.ActionHidden), ErrJobNotFound)
}

func TestIntegration_ScrapeRuns(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	id, err := db.StartScrapeRun(ctx, testSource)
	require.NoError(t, err)

	require.NoError(t, db.CompleteScrapeRun(ctx, id, types.ScrapeRunCompletion{
		Status: types.RunStatusFailed, JobsFound: 3, Skipped: types.SkipStats{Seniority: 2}, Error: "boom",
	}))

	runs, err := db.ListScrapeRuns(ctx, 100)
	require.NoError(t, err)
	var found *types.ScrapeRun
	for i := range runs {
		if runs[i].ID == id {
			found = &runs[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, types.RunStatusFailed, found.Status)
	assert.Equal(t, 2, found.Skipped.Seniority)
	require.NotNil(t, found.Error)
	assert.Equal(t, "boom", *found.Error)

	version, err := db.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, version, int64(1))
}
