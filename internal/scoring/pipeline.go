package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jonathan/job-radar/internal/llm"
	"github.com/jonathan/job-radar/internal/metrics"
	"github.com/jonathan/job-radar/internal/retry"
	"github.com/jonathan/job-radar/internal/types"
	"go.uber.org/zap"
)

// ErrMissingCredential is returned before any job is read when no judge
// credential is configured.
var ErrMissingCredential = errors.New("no judge API key configured")

// Store is the part of the job store the pipeline reads and writes.
type Store interface {
	GetUnscoredJobs(ctx context.Context, limit int) ([]types.JobSummary, error)
	UpsertScore(ctx context.Context, score types.Score) error
}

// DefaultLimit is used when ScoreUnscored is called with a non-positive limit.
const DefaultLimit = 50

// Options configures a Pipeline.
type Options struct {
	Store Store
	// Judge overrides the LLM judge built from APIKey and LLMConfig.
	Judge     Judge
	APIKey    string
	LLMConfig *llm.Config
	Tier      llm.ModelTier
	// Profile is the candidate profile text; empty uses the default.
	Profile string
	Policy  retry.Policy
	Logger  *zap.SugaredLogger
}

// Pipeline scores jobs that have no score yet.
type Pipeline struct {
	opts Options
	log  *zap.SugaredLogger
}

// NewPipeline creates a scoring pipeline.
func NewPipeline(opts Options) *Pipeline {
	if opts.Policy.Attempts == 0 {
		opts.Policy = retry.DefaultPolicy()
	}
	if opts.Tier == "" {
		opts.Tier = llm.TierStandard
	}
	log := opts.Logger
	if log == nil {
		log = zap.S().Named("scoring")
	}
	return &Pipeline{opts: opts, log: log}
}

// Report summarizes one scoring batch.
type Report struct {
	Attempted int
	Scored    int
	Model     string
}

// ScoreUnscored judges up to limit unscored jobs and returns how many were
// scored. A job whose judge call keeps failing after all retries is logged
// and skipped. Only a missing credential, a failed read of the unscored jobs
// or a canceled context end the call early.
func (p *Pipeline) ScoreUnscored(ctx context.Context, limit int) (int, error) {
	report, err := p.ScoreBatch(ctx, limit)
	return report.Scored, err
}

// ScoreBatch is ScoreUnscored with the full batch report.
func (p *Pipeline) ScoreBatch(ctx context.Context, limit int) (Report, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	judge, closeJudge, err := p.judge(ctx)
	if err != nil {
		return Report{}, err
	}
	defer closeJudge()

	jobs, err := p.opts.Store.GetUnscoredJobs(ctx, limit)
	if err != nil {
		return Report{}, fmt.Errorf("failed to load unscored jobs: %w", err)
	}
	if len(jobs) > limit {
		jobs = jobs[:limit]
	}
	report := Report{Model: judge.Model()}
	p.log.Infow("scoring started", "jobs", len(jobs), "model", report.Model)

	start := time.Now()
	for _, job := range jobs {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		report.Attempted++

		log := p.log.With("job_id", job.ID, "title", job.Title, "company", job.Company)
		description := BuildDescription(job)

		verdict, err := retry.Do(ctx, p.opts.Policy, func(ctx context.Context, attempt int) (*Verdict, error) {
			v, err := judge.Judge(ctx, description)
			if err != nil {
				log.Debugw("judge attempt failed", "attempt", attempt, "error", err)
			}
			return v, err
		})
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			metrics.IncreaseScoreOutcome("failed")
			log.Warnw("skipping job, judge failed", "error", err)
			continue
		}

		score := verdict.toScore(job, report.Model)
		if err := p.opts.Store.UpsertScore(ctx, score); err != nil {
			metrics.IncreaseScoreOutcome("failed")
			log.Warnw("failed to store score", "error", err)
			continue
		}

		metrics.IncreaseScoreOutcome("scored")
		report.Scored++
		log.Debugw("job scored", "overall", score.OverallScore)
	}

	p.log.Infow("scoring completed",
		"scored", report.Scored,
		"skipped", report.Attempted-report.Scored,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return report, nil
}

// judge returns the configured judge, building an LLM-backed one when none
// was injected. The returned func releases the client.
func (p *Pipeline) judge(ctx context.Context) (Judge, func(), error) {
	if p.opts.Judge != nil {
		return p.opts.Judge, func() {}, nil
	}
	if p.opts.APIKey == "" {
		return nil, nil, ErrMissingCredential
	}

	client, err := llm.NewClient(ctx, p.opts.LLMConfig, p.opts.APIKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create judge client: %w", err)
	}
	judge, err := NewLLMJudge(client, p.opts.Tier, p.opts.Profile)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return judge, func() {
		if err := client.Close(); err != nil {
			p.log.Warnw("failed to close judge client", "error", err)
		}
	}, nil
}

func (v *Verdict) toScore(job types.JobSummary, model string) types.Score {
	return types.Score{
		JobID:           job.ID,
		OverallScore:    roundScore(v.OverallScore),
		RelevanceScore:  roundScore(v.RelevanceScore),
		ExperienceMatch: roundScore(v.ExperienceMatch),
		DomainMatch:     roundScore(v.DomainMatch),
		SeniorityFit:    roundScore(v.SeniorityFit),
		Reasoning:       v.Reasoning,
		ModelUsed:       model,
	}
}

// roundScore rounds to the nearest integer, halves away from zero, and
// clamps to 0-100.
func roundScore(value float64) int {
	if math.IsNaN(value) {
		return 0
	}
	rounded := math.Round(value)
	switch {
	case rounded < 0:
		return 0
	case rounded > 100:
		return 100
	}
	return int(rounded)
}
