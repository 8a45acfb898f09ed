// Package scheduler runs scrape-then-score cycles on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonathan/job-radar/internal/scoring"
	"github.com/jonathan/job-radar/internal/types"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ErrCycleRunning is returned by RunCycle when another cycle holds the lock.
var ErrCycleRunning = errors.New("another cycle is running")

// Scraper runs every configured source once.
type Scraper interface {
	RunAll(ctx context.Context) (map[string]types.RunResult, error)
}

// Scorer scores jobs that have no score yet.
type Scorer interface {
	ScoreUnscored(ctx context.Context, limit int) (int, error)
}

// CycleResult summarizes one cycle.
type CycleResult struct {
	Scrape map[string]types.RunResult
	Scored int
}

// Options configures a Scheduler.
type Options struct {
	// Spec is a standard five-field cron expression or a descriptor such as
	// "@every 6h".
	Spec    string
	Scraper Scraper
	Scorer  Scorer
	// ScoreLimit caps jobs scored per cycle; 0 disables scoring.
	ScoreLimit int
	// Locker is optional; without it only in-process overlap is prevented.
	Locker     Locker
	LockKey    string
	LockTTL    time.Duration
	RunOnStart bool
	Logger     *zap.SugaredLogger
}

// Scheduler wraps robfig/cron and manages the cycle loop.
type Scheduler struct {
	opts    Options
	cron    *cron.Cron
	running sync.Mutex
	log     *zap.SugaredLogger
}

// New creates a Scheduler. The cron spec is checked by Run.
func New(opts Options) *Scheduler {
	log := opts.Logger
	if log == nil {
		log = zap.S().Named("scheduler")
	}
	return &Scheduler{
		opts: opts,
		cron: cron.New(cron.WithLogger(cronLogger{log})),
		log:  log,
	}
}

// Run registers the cycle and blocks until ctx is done, then waits for a
// running cycle to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.opts.Spec, func() {
		s.runLogged(ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", s.opts.Spec, err)
	}

	s.cron.Start()
	s.log.Infow("scheduler started", "spec", s.opts.Spec)

	var startup sync.WaitGroup
	if s.opts.RunOnStart {
		startup.Add(1)
		go func() {
			defer startup.Done()
			s.runLogged(ctx)
		}()
	}

	<-ctx.Done()
	<-s.cron.Stop().Done()
	startup.Wait()
	s.log.Info("scheduler stopped")
	return nil
}

func (s *Scheduler) runLogged(ctx context.Context) {
	result, err := s.RunCycle(ctx)
	switch {
	case errors.Is(err, ErrCycleRunning):
		s.log.Infow("cycle skipped", "reason", err)
	case err != nil:
		s.log.Errorw("cycle failed", "error", err)
	default:
		s.log.Infow("cycle completed", "sources", len(result.Scrape), "scored", result.Scored)
	}
}

// RunCycle scrapes every source, then scores up to ScoreLimit jobs. Scoring
// without a judge credential is logged and skipped.
func (s *Scheduler) RunCycle(ctx context.Context) (CycleResult, error) {
	if !s.running.TryLock() {
		return CycleResult{}, ErrCycleRunning
	}
	defer s.running.Unlock()

	if s.opts.Locker != nil {
		token, ok, err := s.opts.Locker.Acquire(ctx, s.opts.LockKey, s.opts.LockTTL)
		if err != nil {
			return CycleResult{}, err
		}
		if !ok {
			return CycleResult{}, ErrCycleRunning
		}
		defer func() {
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := s.opts.Locker.Release(releaseCtx, s.opts.LockKey, token); err != nil {
				s.log.Warnw("failed to release cycle lock", "error", err)
			}
		}()
	}

	start := time.Now()
	s.log.Info("cycle started")

	scraped, err := s.opts.Scraper.RunAll(ctx)
	if err != nil {
		return CycleResult{}, fmt.Errorf("scrape failed: %w", err)
	}
	result := CycleResult{Scrape: scraped}
	if ctx.Err() != nil {
		return result, ctx.Err()
	}

	if s.opts.Scorer != nil && s.opts.ScoreLimit > 0 {
		scored, err := s.opts.Scorer.ScoreUnscored(ctx, s.opts.ScoreLimit)
		result.Scored = scored
		switch {
		case errors.Is(err, scoring.ErrMissingCredential):
			s.log.Warn("scoring skipped: no judge API key configured")
		case err != nil:
			return result, fmt.Errorf("scoring failed: %w", err)
		}
	}

	s.log.Infow("cycle finished", "elapsed", time.Since(start).Round(time.Second))
	return result, nil
}

// cronLogger routes cron's own logging to zap.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
