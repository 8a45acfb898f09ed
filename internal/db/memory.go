package db

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/job-radar/internal/types"
)

// MemoryStore is an in-process Store with the same upsert and listing
// semantics as DB. It backs dry runs and unit tests.
type MemoryStore struct {
	mu      sync.RWMutex
	seq     int
	jobs    map[uuid.UUID]*memoryJob
	keys    map[string]uuid.UUID
	scores  map[uuid.UUID]types.Score
	actions map[uuid.UUID]string
	runs    []*memoryRun
	now     func() time.Time
}

type memoryJob struct {
	job types.Job
	seq int
}

type memoryRun struct {
	run types.ScrapeRun
	seq int
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:    make(map[uuid.UUID]*memoryJob),
		keys:    make(map[string]uuid.UUID),
		scores:  make(map[uuid.UUID]types.Score),
		actions: make(map[uuid.UUID]string),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func jobKey(source, sourceID string) string {
	return source + "\x00" + sourceID
}

// UpsertJob inserts a job or refreshes the stored job with the same
// (source, source_id), keeping its id and creation time. Every listing field
// is overwritten except PostedAt, which keeps its stored value when the
// re-scraped job has none.
func (m *MemoryStore) UpsertJob(_ context.Context, source string, raw types.RawJob) (uuid.UUID, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	key := jobKey(source, raw.SourceID)
	if id, ok := m.keys[key]; ok {
		existing := m.jobs[id]
		postedAt := existing.job.PostedAt
		existing.job.RawJob = raw
		if raw.PostedAt == nil {
			existing.job.PostedAt = postedAt
		}
		existing.job.ScrapedAt = now
		return id, false, nil
	}

	m.seq++
	id := uuid.New()
	m.keys[key] = id
	m.jobs[id] = &memoryJob{
		seq: m.seq,
		job: types.Job{
			ID:        id,
			Source:    source,
			RawJob:    raw,
			ScrapedAt: now,
			CreatedAt: now,
		},
	}
	return id, true, nil
}

// newestJobs returns the stored jobs ordered newest first.
func (m *MemoryStore) newestJobs() []*memoryJob {
	out := make([]*memoryJob, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].seq > out[b].seq })
	return out
}

// GetUnscoredJobs returns up to limit jobs without a score, newest first.
func (m *MemoryStore) GetUnscoredJobs(_ context.Context, limit int) ([]types.JobSummary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []types.JobSummary
	for _, mj := range m.newestJobs() {
		if _, scored := m.scores[mj.job.ID]; scored {
			continue
		}
		j := mj.job
		out = append(out, types.JobSummary{
			ID:        j.ID,
			Source:    j.Source,
			Title:     j.Title,
			Company:   j.Company,
			Seniority: j.Seniority,
			Category:  j.Category,
			Tags:      j.Tags,
			Chains:    j.Chains,
			RawData:   j.RawData,
		})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// UpsertScore stores the score for a job, replacing any earlier score.
func (m *MemoryStore) UpsertScore(_ context.Context, score types.Score) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[score.JobID]; !ok {
		return fmt.Errorf("failed to upsert score for job %s: %w", score.JobID, ErrJobNotFound)
	}
	score.ScoredAt = m.now()
	m.scores[score.JobID] = score
	return nil
}

// StartScrapeRun records a running scrape run.
func (m *MemoryStore) StartScrapeRun(_ context.Context, source string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	run := &memoryRun{
		seq: m.seq,
		run: types.ScrapeRun{
			ID:        uuid.New(),
			Source:    source,
			StartedAt: m.now(),
			Status:    types.RunStatusRunning,
		},
	}
	m.runs = append(m.runs, run)
	return run.run.ID, nil
}

// CompleteScrapeRun closes a scrape run with its final status and counters.
func (m *MemoryStore) CompleteScrapeRun(_ context.Context, id uuid.UUID, c types.ScrapeRunCompletion) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.runs {
		if r.run.ID != id {
			continue
		}
		completed := m.now()
		r.run.Status = c.Status
		r.run.JobsFound = c.JobsFound
		r.run.JobsNew = c.JobsNew
		r.run.Skipped = c.Skipped
		r.run.CompletedAt = &completed
		r.run.Error = nil
		if c.Error != "" {
			msg := c.Error
			r.run.Error = &msg
		}
		return nil
	}
	return fmt.Errorf("failed to complete scrape run: run %s not found", id)
}

// ListScrapeRuns returns the most recent scrape runs, newest first.
func (m *MemoryStore) ListScrapeRuns(_ context.Context, limit int) ([]types.ScrapeRun, error) {
	limit = clampLimit(limit)

	m.mu.RLock()
	defer m.mu.RUnlock()

	runs := make([]types.ScrapeRun, 0, len(m.runs))
	for i := len(m.runs) - 1; i >= 0 && len(runs) < limit; i-- {
		runs = append(runs, m.runs[i].run)
	}
	return runs, nil
}

// ListJobs lists jobs joined with their score and action, filtered and
// paginated like DB.ListJobs.
func (m *MemoryStore) ListJobs(_ context.Context, filter JobFilter) ([]types.JobWithScore, int, error) {
	f := filter.normalized()

	m.mu.RLock()
	defer m.mu.RUnlock()

	type row struct {
		job types.JobWithScore
		seq int
	}
	var rows []row
	for _, mj := range m.jobs {
		j := m.withScore(mj.job)
		if matchesFilter(j, f) {
			rows = append(rows, row{job: j, seq: mj.seq})
		}
	}

	sort.Slice(rows, func(a, b int) bool {
		ja, jb := rows[a].job, rows[b].job
		switch f.SortBy {
		case SortByCompany:
			ca, cb := strings.ToLower(ja.Company), strings.ToLower(jb.Company)
			if ca != cb {
				return ca < cb
			}
		case SortByScore:
			if (ja.Score == nil) != (jb.Score == nil) {
				return ja.Score != nil
			}
			if ja.Score != nil && ja.Score.OverallScore != jb.Score.OverallScore {
				return ja.Score.OverallScore > jb.Score.OverallScore
			}
		}
		return rows[a].seq > rows[b].seq
	})

	total := len(rows)
	if f.Offset >= total {
		return nil, total, nil
	}
	end := min(f.Offset+f.Limit, total)

	out := make([]types.JobWithScore, 0, end-f.Offset)
	for _, r := range rows[f.Offset:end] {
		out = append(out, r.job)
	}
	return out, total, nil
}

// GetJob returns the job with its score and action, or nil if no job has
// that id.
func (m *MemoryStore) GetJob(_ context.Context, id uuid.UUID) (*types.JobWithScore, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	mj, ok := m.jobs[id]
	if !ok {
		return nil, nil
	}
	j := m.withScore(mj.job)
	return &j, nil
}

func (m *MemoryStore) withScore(job types.Job) types.JobWithScore {
	j := types.JobWithScore{Job: job}
	if s, ok := m.scores[job.ID]; ok {
		j.Score = &s
	}
	if a, ok := m.actions[job.ID]; ok {
		j.Action = &a
	}
	return j
}

func matchesFilter(j types.JobWithScore, f JobFilter) bool {
	if f.Source != "" && j.Source != f.Source {
		return false
	}
	if f.MinScore != nil && (j.Score == nil || j.Score.OverallScore < *f.MinScore) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(j.Category, f.Category) {
		return false
	}
	if f.Location != "" && !containsFold(j.Location, f.Location) {
		return false
	}
	if f.Seniority != "" && !strings.EqualFold(j.Seniority, f.Seniority) {
		return false
	}
	if f.Search != "" && !containsFold(j.Title, f.Search) &&
		!containsFold(j.Company, f.Search) && !containsFold(j.Description, f.Search) {
		return false
	}
	switch f.Action {
	case "":
	case ActionNone:
		if j.Action != nil {
			return false
		}
	default:
		if j.Action == nil || *j.Action != f.Action {
			return false
		}
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// SetJobAction records a user action on a job, replacing any earlier one.
func (m *MemoryStore) SetJobAction(_ context.Context, jobID uuid.UUID, action string) error {
	if !types.IsValidAction(action) {
		return fmt.Errorf("invalid job action %q", action)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[jobID]; !ok {
		return ErrJobNotFound
	}
	m.actions[jobID] = action
	return nil
}

// ClearJobAction removes the user action on a job, if any.
func (m *MemoryStore) ClearJobAction(_ context.Context, jobID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.actions, jobID)
	return nil
}
