package scrape

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/job-radar/internal/db"
	"github.com/jonathan/job-radar/internal/sources"
	"github.com/jonathan/job-radar/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubAdapter struct {
	name  string
	jobs  []types.RawJob
	stats types.SkipStats
	err   error
	panic any
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Scrape(context.Context) ([]types.RawJob, types.SkipStats, error) {
	if s.panic != nil {
		panic(s.panic)
	}
	return s.jobs, s.stats, s.err
}

func registryOf(adapters ...*stubAdapter) sources.Registry {
	reg := sources.Registry{}
	for _, a := range adapters {
		a := a
		reg[a.name] = func(sources.Deps) sources.Adapter { return a }
	}
	return reg
}

func listing(id string) types.RawJob {
	return types.RawJob{SourceID: id, URL: "https://board.test/" + id, Title: "Engineer " + id}
}

func newOrchestrator(store Sink, reg sources.Registry, names ...string) *Orchestrator {
	return New(Options{
		Registry: reg,
		Sources:  names,
		Sink:     store,
		Logger:   zap.NewNop().Sugar(),
	})
}

func TestRunOne_CountsNewAndUpdated(t *testing.T) {
	store := db.NewMemoryStore()
	adapter := &stubAdapter{
		name:  "alpha",
		jobs:  []types.RawJob{listing("1"), listing("2")},
		stats: types.SkipStats{Title: 3, Seniority: 1},
	}
	o := newOrchestrator(store, registryOf(adapter), "alpha")
	ctx := context.Background()

	result, err := o.RunOne(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, types.RunResult{JobsFound: 2, JobsNew: 2, Skipped: types.SkipStats{Title: 3, Seniority: 1}}, result)

	adapter.jobs = []types.RawJob{listing("1"), listing("2"), listing("3")}
	result, err = o.RunOne(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, 3, result.JobsFound)
	assert.Equal(t, 1, result.JobsNew)

	_, total, err := store.ListJobs(ctx, db.JobFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	runs, err := store.ListScrapeRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, types.RunStatusCompleted, runs[0].Status)
	assert.Equal(t, 1, runs[0].JobsNew)
	assert.Equal(t, 3, runs[0].Skipped.Title)
	assert.NotNil(t, runs[0].CompletedAt)
}

func TestRunOne_UnknownSource(t *testing.T) {
	store := db.NewMemoryStore()
	o := newOrchestrator(store, registryOf(&stubAdapter{name: "alpha"}), "alpha")

	_, err := o.RunOne(context.Background(), "monster")
	var unknown *UnknownSourceError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "monster", unknown.Source)
	assert.Equal(t, []string{"alpha"}, unknown.Known)

	runs, err := store.ListScrapeRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs, "no run is opened for an unknown source")
}

func TestRunOne_AdapterErrorFailsRun(t *testing.T) {
	store := db.NewMemoryStore()
	adapterErr := errors.New("page 1: connection refused")
	o := newOrchestrator(store, registryOf(&stubAdapter{name: "alpha", err: adapterErr}), "alpha")

	result, err := o.RunOne(context.Background(), "alpha")
	assert.ErrorIs(t, err, adapterErr)
	assert.Equal(t, types.RunResult{}, result)

	runs, err := store.ListScrapeRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, types.RunStatusFailed, runs[0].Status)
	require.NotNil(t, runs[0].Error)
	assert.Equal(t, "page 1: connection refused", *runs[0].Error)
}

func TestRunOne_AdapterPanicFailsRun(t *testing.T) {
	store := db.NewMemoryStore()
	o := newOrchestrator(store, registryOf(&stubAdapter{name: "alpha", panic: "nil map"}), "alpha")

	_, err := o.RunOne(context.Background(), "alpha")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")

	runs, _ := store.ListScrapeRuns(context.Background(), 10)
	require.Len(t, runs, 1)
	assert.Equal(t, types.RunStatusFailed, runs[0].Status)
}

type flakySink struct {
	*db.MemoryStore
	failID string
}

func (f *flakySink) UpsertJob(ctx context.Context, source string, job types.RawJob) (uuid.UUID, bool, error) {
	if job.SourceID == f.failID {
		return uuid.Nil, false, errors.New("constraint violation")
	}
	return f.MemoryStore.UpsertJob(ctx, source, job)
}

func TestRunOne_UpsertFailureIsSkipped(t *testing.T) {
	sink := &flakySink{MemoryStore: db.NewMemoryStore(), failID: "2"}
	adapter := &stubAdapter{name: "alpha", jobs: []types.RawJob{listing("1"), listing("2"), listing("3")}}
	o := newOrchestrator(sink, registryOf(adapter), "alpha")

	result, err := o.RunOne(context.Background(), "alpha")
	require.NoError(t, err)
	assert.Equal(t, 3, result.JobsFound)
	assert.Equal(t, 2, result.JobsNew)
}

func TestRunAll_IsolatesFailures(t *testing.T) {
	store := db.NewMemoryStore()
	reg := registryOf(
		&stubAdapter{name: "alpha", jobs: []types.RawJob{listing("1")}},
		&stubAdapter{name: "broken", err: errors.New("boom")},
		&stubAdapter{name: "gamma", jobs: []types.RawJob{listing("7"), listing("8")}},
	)

	var events []ProgressEvent
	o := New(Options{
		Registry:   reg,
		Sources:    []string{"alpha", "broken", "gamma"},
		Sink:       store,
		Logger:     zap.NewNop().Sugar(),
		OnProgress: func(e ProgressEvent) { events = append(events, e) },
	})

	results, err := o.RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]types.RunResult{
		"alpha":  {JobsFound: 1, JobsNew: 1},
		"broken": {},
		"gamma":  {JobsFound: 2, JobsNew: 2},
	}, results)

	require.Len(t, events, 3)
	assert.Error(t, events[1].Err)
	assert.NoError(t, events[2].Err)
}

func TestRunAll_CanceledRecordsZeroResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := newOrchestrator(db.NewMemoryStore(), registryOf(&stubAdapter{name: "alpha"}, &stubAdapter{name: "beta"}), "alpha", "beta")
	results, err := o.RunAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]types.RunResult{"alpha": {}, "beta": {}}, results)
}

func TestRunAll_UnknownConfiguredSource(t *testing.T) {
	store := db.NewMemoryStore()
	alpha := &stubAdapter{name: "alpha", jobs: []types.RawJob{listing("1")}}
	o := newOrchestrator(store, registryOf(alpha), "alpha", "monster")

	results, err := o.RunAll(context.Background())
	var unknown *UnknownSourceError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "monster", unknown.Source)
	assert.Nil(t, results)

	runs, err := store.ListScrapeRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs, "no source runs when the configuration is invalid")
}

func TestValidate(t *testing.T) {
	reg := registryOf(&stubAdapter{name: "alpha"})

	assert.NoError(t, newOrchestrator(nil, reg, "alpha").Validate())

	err := newOrchestrator(nil, reg, "alpha", "nope").Validate()
	var unknown *UnknownSourceError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "nope", unknown.Source)
}
