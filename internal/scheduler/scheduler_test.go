package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonathan/job-radar/internal/scoring"
	"github.com/jonathan/job-radar/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeScraper struct {
	mu      sync.Mutex
	calls   int
	results map[string]types.RunResult
	err     error
	started chan struct{}
	block   chan struct{}
}

func (f *fakeScraper) RunAll(context.Context) (map[string]types.RunResult, error) {
	if f.block != nil {
		close(f.started)
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.results, f.err
}

func (f *fakeScraper) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeScorer struct {
	scored    int
	err       error
	gotLimits []int
	done      chan struct{}
}

func (f *fakeScorer) ScoreUnscored(_ context.Context, limit int) (int, error) {
	f.gotLimits = append(f.gotLimits, limit)
	if f.done != nil {
		close(f.done)
	}
	return f.scored, f.err
}

type fakeLocker struct {
	held     map[string]string
	acquired int
	released []string
	err      error
}

func (f *fakeLocker) Acquire(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	if f.held == nil {
		f.held = make(map[string]string)
	}
	if _, ok := f.held[key]; ok {
		return "", false, nil
	}
	f.acquired++
	token := "token-1"
	f.held[key] = token
	return token, true, nil
}

func (f *fakeLocker) Release(_ context.Context, key, token string) error {
	if f.held[key] == token {
		delete(f.held, key)
	}
	f.released = append(f.released, key)
	return nil
}

func newScheduler(opts Options) *Scheduler {
	opts.Logger = zap.NewNop().Sugar()
	if opts.Spec == "" {
		opts.Spec = "@every 1h"
	}
	if opts.LockKey == "" {
		opts.LockKey = "job-radar:cycle"
	}
	return New(opts)
}

func TestRunCycle_ScrapesThenScores(t *testing.T) {
	scraper := &fakeScraper{results: map[string]types.RunResult{"remote3": {JobsFound: 4, JobsNew: 2}}}
	scorer := &fakeScorer{scored: 2}
	locker := &fakeLocker{}
	s := newScheduler(Options{Scraper: scraper, Scorer: scorer, ScoreLimit: 25, Locker: locker, LockTTL: time.Hour})

	result, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Scored)
	assert.Equal(t, 2, result.Scrape["remote3"].JobsNew)
	assert.Equal(t, []int{25}, scorer.gotLimits)
	assert.Equal(t, 1, locker.acquired)
	assert.Equal(t, []string{"job-radar:cycle"}, locker.released)
	assert.Empty(t, locker.held)
}

func TestRunCycle_SkipsWhenLockHeld(t *testing.T) {
	scraper := &fakeScraper{}
	locker := &fakeLocker{held: map[string]string{"job-radar:cycle": "other"}}
	s := newScheduler(Options{Scraper: scraper, Locker: locker})

	_, err := s.RunCycle(context.Background())
	assert.ErrorIs(t, err, ErrCycleRunning)
	assert.Zero(t, scraper.Calls())
	assert.Equal(t, "other", locker.held["job-radar:cycle"])
}

func TestRunCycle_LockError(t *testing.T) {
	scraper := &fakeScraper{}
	s := newScheduler(Options{Scraper: scraper, Locker: &fakeLocker{err: errors.New("redis down")}})

	_, err := s.RunCycle(context.Background())
	assert.ErrorContains(t, err, "redis down")
	assert.Zero(t, scraper.Calls())
}

func TestRunCycle_MissingCredentialIsNotFatal(t *testing.T) {
	s := newScheduler(Options{
		Scraper:    &fakeScraper{},
		Scorer:     &fakeScorer{err: scoring.ErrMissingCredential},
		ScoreLimit: 10,
	})

	_, err := s.RunCycle(context.Background())
	assert.NoError(t, err)
}

func TestRunCycle_ScoringError(t *testing.T) {
	s := newScheduler(Options{
		Scraper:    &fakeScraper{},
		Scorer:     &fakeScorer{err: errors.New("store unavailable")},
		ScoreLimit: 10,
	})

	_, err := s.RunCycle(context.Background())
	assert.ErrorContains(t, err, "scoring failed")
}

func TestRunCycle_ScrapeErrorSkipsScoring(t *testing.T) {
	scorer := &fakeScorer{}
	s := newScheduler(Options{Scraper: &fakeScraper{err: errors.New("unknown source")}, Scorer: scorer, ScoreLimit: 10})

	_, err := s.RunCycle(context.Background())
	assert.ErrorContains(t, err, "scrape failed")
	assert.Empty(t, scorer.gotLimits)
}

func TestRunCycle_ZeroLimitSkipsScoring(t *testing.T) {
	scorer := &fakeScorer{}
	s := newScheduler(Options{Scraper: &fakeScraper{}, Scorer: scorer})

	_, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Empty(t, scorer.gotLimits)
}

func TestRunCycle_RejectsOverlap(t *testing.T) {
	scraper := &fakeScraper{started: make(chan struct{}), block: make(chan struct{})}
	s := newScheduler(Options{Scraper: scraper})

	done := make(chan error, 1)
	go func() {
		_, err := s.RunCycle(context.Background())
		done <- err
	}()
	<-scraper.started

	_, err := s.RunCycle(context.Background())
	assert.ErrorIs(t, err, ErrCycleRunning)

	close(scraper.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, scraper.Calls())
}

func TestRun_InvalidSpec(t *testing.T) {
	s := newScheduler(Options{Spec: "every tuesday", Scraper: &fakeScraper{}})
	err := s.Run(context.Background())
	assert.ErrorContains(t, err, "invalid cron spec")
}

func TestRun_RunOnStartThenStops(t *testing.T) {
	scorer := &fakeScorer{done: make(chan struct{})}
	scraper := &fakeScraper{}
	s := newScheduler(Options{Scraper: scraper, Scorer: scorer, ScoreLimit: 5, RunOnStart: true})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	select {
	case <-scorer.done:
	case <-time.After(2 * time.Second):
		t.Fatal("startup cycle did not run")
	}
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, 1, scraper.Calls())
}
