// Package scrape runs source adapters and persists what they return.
package scrape

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/job-radar/internal/metrics"
	"github.com/jonathan/job-radar/internal/sources"
	"github.com/jonathan/job-radar/internal/types"
	"go.uber.org/zap"
)

// Sink receives scraped jobs and the audit trail of each run.
type Sink interface {
	UpsertJob(ctx context.Context, source string, job types.RawJob) (uuid.UUID, bool, error)
	StartScrapeRun(ctx context.Context, source string) (uuid.UUID, error)
	CompleteScrapeRun(ctx context.Context, id uuid.UUID, completion types.ScrapeRunCompletion) error
}

// UnknownSourceError is returned when a source name is not registered.
type UnknownSourceError struct {
	Source string
	Known  []string
}

func (e *UnknownSourceError) Error() string {
	return fmt.Sprintf("unknown source %q (known: %v)", e.Source, e.Known)
}

// ProgressEvent reports the end of one source's run.
type ProgressEvent struct {
	Source string
	Result types.RunResult
	Err    error
}

// ProgressCallback is called after each source finishes.
type ProgressCallback func(event ProgressEvent)

// Orchestrator scrapes configured sources one at a time.
type Orchestrator struct {
	registry   sources.Registry
	sources    []string
	sink       Sink
	deps       sources.Deps
	log        *zap.SugaredLogger
	onProgress ProgressCallback
}

// Options configures an Orchestrator.
type Options struct {
	Registry sources.Registry
	// Sources lists the source names RunAll visits, in order.
	Sources    []string
	Sink       Sink
	Deps       sources.Deps
	Logger     *zap.SugaredLogger
	OnProgress ProgressCallback
}

// New builds an Orchestrator. A nil Registry means sources.DefaultRegistry.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		registry:   opts.Registry,
		sources:    opts.Sources,
		sink:       opts.Sink,
		deps:       opts.Deps,
		log:        opts.Logger,
		onProgress: opts.OnProgress,
	}
	if o.registry == nil {
		o.registry = sources.DefaultRegistry()
	}
	if o.log == nil {
		o.log = zap.S().Named("scrape")
	}
	if o.deps.Logger == nil {
		o.deps.Logger = o.log
	}
	return o
}

// RunOne scrapes a single source and persists the result under a scrape run
// record. An adapter error closes the run as failed and is returned; per-job
// upsert errors are logged and the job is not counted as new.
func (o *Orchestrator) RunOne(ctx context.Context, source string) (types.RunResult, error) {
	adapter, ok := o.registry.New(source, o.deps)
	if !ok {
		return types.RunResult{}, &UnknownSourceError{Source: source, Known: o.registry.Names()}
	}

	log := o.log.With("source", source)
	start := time.Now()

	runID, err := o.sink.StartScrapeRun(ctx, source)
	if err != nil {
		return types.RunResult{}, fmt.Errorf("failed to start scrape run for %s: %w", source, err)
	}
	log.Infow("scrape started", "run_id", runID)

	jobs, skipped, scrapeErr := safeScrape(ctx, adapter)
	if scrapeErr != nil {
		o.complete(ctx, log, runID, types.ScrapeRunCompletion{
			Status: types.RunStatusFailed,
			Error:  scrapeErr.Error(),
		})
		metrics.ObserveRun(source, types.RunStatusFailed, types.RunResult{}, time.Since(start))
		log.Errorw("scrape failed", "run_id", runID, "error", scrapeErr)
		return types.RunResult{}, fmt.Errorf("scrape %s: %w", source, scrapeErr)
	}

	result := types.RunResult{JobsFound: len(jobs), Skipped: skipped}
	storeFailures := 0
	for _, job := range jobs {
		_, inserted, err := o.sink.UpsertJob(ctx, source, job)
		if err != nil {
			storeFailures++
			log.Warnw("failed to store job", "source_id", job.SourceID, "url", job.URL, "error", err)
			continue
		}
		if inserted {
			result.JobsNew++
		}
	}

	o.complete(ctx, log, runID, types.ScrapeRunCompletion{
		Status:    types.RunStatusCompleted,
		JobsFound: result.JobsFound,
		JobsNew:   result.JobsNew,
		Skipped:   result.Skipped,
	})
	metrics.ObserveRun(source, types.RunStatusCompleted, result, time.Since(start))
	log.Infow("scrape completed",
		"run_id", runID,
		"found", result.JobsFound,
		"new", result.JobsNew,
		"skipped", result.Skipped.Total(),
		"store_failures", storeFailures,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return result, nil
}

// complete closes a run. The write uses a context detached from cancellation
// so a canceled scrape still leaves a closed audit record.
func (o *Orchestrator) complete(ctx context.Context, log *zap.SugaredLogger, runID uuid.UUID, c types.ScrapeRunCompletion) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := o.sink.CompleteScrapeRun(ctx, runID, c); err != nil {
		log.Errorw("failed to complete scrape run", "run_id", runID, "error", err)
	}
}

// Validate reports an UnknownSourceError for the first configured source
// that is not registered.
func (o *Orchestrator) Validate() error {
	for _, source := range o.sources {
		if _, ok := o.registry[source]; !ok {
			return &UnknownSourceError{Source: source, Known: o.registry.Names()}
		}
	}
	return nil
}

// RunAll scrapes every configured source in order and returns a result for
// each. A configured source that is not registered fails the whole call with
// an UnknownSourceError before any source runs. A failing source is logged
// and recorded as a zero result; it never stops the others. Once ctx is done
// the remaining sources are recorded as zero results without being run.
func (o *Orchestrator) RunAll(ctx context.Context) (map[string]types.RunResult, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	results := make(map[string]types.RunResult, len(o.sources))
	for _, source := range o.sources {
		if ctx.Err() != nil {
			o.log.Warnw("scrape cycle canceled, source not run", "source", source)
			results[source] = types.RunResult{}
			continue
		}
		result, err := o.RunOne(ctx, source)
		if err != nil {
			o.log.Errorw("source failed", "source", source, "error", err)
			result = types.RunResult{}
		}
		results[source] = result
		if o.onProgress != nil {
			o.onProgress(ProgressEvent{Source: source, Result: result, Err: err})
		}
	}
	return results, nil
}

// Sources returns the source names RunAll visits.
func (o *Orchestrator) Sources() []string {
	return append([]string(nil), o.sources...)
}

// safeScrape runs the adapter, converting a panic into an error.
func safeScrape(ctx context.Context, adapter sources.Adapter) (jobs []types.RawJob, skipped types.SkipStats, err error) {
	defer func() {
		if r := recover(); r != nil {
			zap.S().Named("scrape").Debugw("adapter panic", "stack", string(debug.Stack()))
			jobs, skipped = nil, types.SkipStats{}
			err = fmt.Errorf("adapter %s panicked: %v", adapter.Name(), r)
		}
	}()
	return adapter.Scrape(ctx)
}
