package sources

import (
	"github.com/jonathan/job-radar/internal/filter"
	"github.com/jonathan/job-radar/internal/types"
	"go.uber.org/zap"
)

// collector accumulates the listings of one scrape, deduplicating by key and
// counting filter rejections.
type collector struct {
	seen  map[string]struct{}
	jobs  []types.RawJob
	stats types.SkipStats
}

func newCollector() *collector {
	return &collector{seen: make(map[string]struct{})}
}

// add filters job and keeps it unless key was already seen in this run. An
// empty key falls back to the job URL. It reports whether the job was kept.
func (c *collector) add(key string, job types.RawJob) bool {
	if key == "" {
		key = job.URL
	}
	if _, dup := c.seen[key]; dup {
		return false
	}
	c.seen[key] = struct{}{}

	switch filter.Check(job.Title, job.Location, job.LocationType) {
	case filter.SkipTitle:
		c.stats.Title++
		return false
	case filter.SkipLocation:
		c.stats.Location++
		return false
	}

	c.jobs = append(c.jobs, job)
	return true
}

// skipSeniority records a listing dropped by a source-specific seniority rule.
func (c *collector) skipSeniority(key string) {
	if _, dup := c.seen[key]; dup {
		return
	}
	c.seen[key] = struct{}{}
	c.stats.Seniority++
}

// has reports whether key was already processed.
func (c *collector) has(key string) bool {
	_, ok := c.seen[key]
	return ok
}

func (c *collector) result() ([]types.RawJob, types.SkipStats) {
	return c.jobs, c.stats
}

// logSummary writes the end-of-scrape counters.
func logSummary(log *zap.SugaredLogger, jobs []types.RawJob, stats types.SkipStats) {
	log.Infow("scrape finished",
		"found", len(jobs),
		"skipped_title", stats.Title,
		"skipped_location", stats.Location,
		"skipped_seniority", stats.Seniority,
	)
}
