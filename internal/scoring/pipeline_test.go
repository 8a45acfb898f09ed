package scoring

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/job-radar/internal/db"
	"github.com/jonathan/job-radar/internal/llm"
	"github.com/jonathan/job-radar/internal/retry"
	"github.com/jonathan/job-radar/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubJudge returns canned verdicts keyed by job title.
type stubJudge struct {
	mu       sync.Mutex
	verdicts map[string]*Verdict
	failures map[string]int // title -> calls that fail before succeeding; -1 always fails
	calls    map[string]int
}

func (s *stubJudge) Judge(_ context.Context, description string) (*Verdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	for title, verdict := range s.verdicts {
		if description != "Title: "+title {
			continue
		}
		s.calls[title]++
		if n := s.failures[title]; n < 0 || s.calls[title] <= n {
			return nil, errors.New("provider unavailable")
		}
		return verdict, nil
	}
	return nil, errors.New("unexpected description: " + description)
}

func (s *stubJudge) Model() string { return "stub-model" }

func fastPolicy() retry.Policy {
	return retry.Policy{Attempts: 3, BaseDelay: time.Millisecond}
}

func seedUnscored(t *testing.T, store *db.MemoryStore, titles ...string) map[string]uuid.UUID {
	t.Helper()
	ids := make(map[string]uuid.UUID)
	for _, title := range titles {
		id, _, err := store.UpsertJob(context.Background(), "remote3", types.RawJob{SourceID: title, URL: "https://r/" + title, Title: title})
		require.NoError(t, err)
		ids[title] = id
	}
	return ids
}

func scoreOf(t *testing.T, store *db.MemoryStore, id uuid.UUID) *types.Score {
	t.Helper()
	jobs, _, err := store.ListJobs(context.Background(), db.JobFilter{Limit: db.MaxListLimit})
	require.NoError(t, err)
	for _, j := range jobs {
		if j.ID == id {
			return j.Score
		}
	}
	t.Fatalf("job %s not found", id)
	return nil
}

func TestScoreUnscored_MissingCredentialFailsFast(t *testing.T) {
	store := db.NewMemoryStore()
	seedUnscored(t, store, "alpha")

	p := NewPipeline(Options{Store: store, Logger: zap.NewNop().Sugar()})
	n, err := p.ScoreUnscored(context.Background(), 10)
	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Zero(t, n)

	unscored, err := store.GetUnscoredJobs(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, unscored, 1)
}

func TestScoreUnscored_RoundsAndPersists(t *testing.T) {
	store := db.NewMemoryStore()
	ids := seedUnscored(t, store, "alpha")
	judge := &stubJudge{verdicts: map[string]*Verdict{
		"alpha": {OverallScore: 80.5, RelevanceScore: 90.4, ExperienceMatch: 74.5, DomainMatch: 101, SeniorityFit: -3, Reasoning: "fit"},
	}}

	p := NewPipeline(Options{Store: store, Judge: judge, Policy: fastPolicy(), Logger: zap.NewNop().Sugar()})
	n, err := p.ScoreUnscored(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	score := scoreOf(t, store, ids["alpha"])
	require.NotNil(t, score)
	assert.Equal(t, 81, score.OverallScore)
	assert.Equal(t, 90, score.RelevanceScore)
	assert.Equal(t, 75, score.ExperienceMatch)
	assert.Equal(t, 100, score.DomainMatch)
	assert.Equal(t, 0, score.SeniorityFit)
	assert.Equal(t, "fit", score.Reasoning)
	assert.Equal(t, "stub-model", score.ModelUsed)
}

func TestScoreUnscored_SkipsExhaustedJobs(t *testing.T) {
	store := db.NewMemoryStore()
	ids := seedUnscored(t, store, "alpha", "broken", "flaky")
	judge := &stubJudge{
		verdicts: map[string]*Verdict{
			"alpha":  {OverallScore: 60},
			"broken": {OverallScore: 99},
			"flaky":  {OverallScore: 70},
		},
		failures: map[string]int{"broken": -1, "flaky": 2},
	}

	p := NewPipeline(Options{Store: store, Judge: judge, Policy: fastPolicy(), Logger: zap.NewNop().Sugar()})
	n, err := p.ScoreUnscored(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, 3, judge.calls["broken"], "retried up to the attempt ceiling")
	assert.Equal(t, 3, judge.calls["flaky"])
	assert.Nil(t, scoreOf(t, store, ids["broken"]))
	require.NotNil(t, scoreOf(t, store, ids["flaky"]))
	assert.Equal(t, 70, scoreOf(t, store, ids["flaky"]).OverallScore)

	unscored, err := store.GetUnscoredJobs(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, unscored, 1)
	assert.Equal(t, ids["broken"], unscored[0].ID)
}

func TestScoreUnscored_RespectsLimit(t *testing.T) {
	store := db.NewMemoryStore()
	seedUnscored(t, store, "a", "b", "c")
	judge := &stubJudge{verdicts: map[string]*Verdict{"a": {OverallScore: 1}, "b": {OverallScore: 2}, "c": {OverallScore: 3}}}

	p := NewPipeline(Options{Store: store, Judge: judge, Policy: fastPolicy(), Logger: zap.NewNop().Sugar()})
	n, err := p.ScoreUnscored(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	unscored, err := store.GetUnscoredJobs(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, unscored, 1)
}

func TestScoreUnscored_CanceledContext(t *testing.T) {
	store := db.NewMemoryStore()
	seedUnscored(t, store, "a")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPipeline(Options{Store: store, Judge: &stubJudge{}, Policy: fastPolicy(), Logger: zap.NewNop().Sugar()})
	n, err := p.ScoreUnscored(ctx, 10)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
}

func TestScoreUnscored_WithLLMJudge(t *testing.T) {
	store := db.NewMemoryStore()
	ids := seedUnscored(t, store, "alpha")
	client := &MockLLMClient{}
	judge, err := NewLLMJudge(client, llm.TierStandard, "")
	require.NoError(t, err)

	p := NewPipeline(Options{Store: store, Judge: judge, Policy: fastPolicy(), Logger: zap.NewNop().Sugar()})
	n, err := p.ScoreUnscored(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "mock-model", scoreOf(t, store, ids["alpha"]).ModelUsed)
}

func TestRoundScore(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{49.5, 50},
		{49.49, 49},
		{99.6, 100},
		{150, 100},
		{-0.4, 0},
		{-12, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, roundScore(tt.in), "roundScore(%v)", tt.in)
	}
}

func TestScoreBatch_Report(t *testing.T) {
	store := db.NewMemoryStore()
	seedUnscored(t, store, "alpha", "broken")
	judge := &stubJudge{
		verdicts: map[string]*Verdict{"alpha": {OverallScore: 60}, "broken": {OverallScore: 1}},
		failures: map[string]int{"broken": -1},
	}

	p := NewPipeline(Options{Store: store, Judge: judge, Policy: retry.Policy{Attempts: 1}, Logger: zap.NewNop().Sugar()})
	report, err := p.ScoreBatch(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, Report{Attempted: 2, Scored: 1, Model: "stub-model"}, report)
	assert.Equal(t, 1, judge.calls["broken"])
}
