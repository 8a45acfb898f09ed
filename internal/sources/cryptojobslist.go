package sources

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/job-radar/internal/config"
	"github.com/jonathan/job-radar/internal/fetch"
	"github.com/jonathan/job-radar/internal/types"
	"go.uber.org/zap"
)

const (
	cjlJobLinkSelector = `a[href*="/jobs/"]`
	// cjlRecheckWait bounds the second selector check after the challenge wait.
	cjlRecheckWait = 5 * time.Second
)

// cjlCardScript collects every job link with its visible text and badge labels.
const cjlCardScript = `(() => Array.from(document.querySelectorAll('a[href*="/jobs/"]')).map(a => ({
  href: a.href,
  text: a.innerText || '',
  tags: Array.from(a.querySelectorAll('span[class*="badge"], span[class*="tag"], small')).map(t => (t.innerText || '').trim()).filter(Boolean)
})))()`

// jobCard is one job link as evaluated in the browser.
type jobCard struct {
	Href string   `json:"href"`
	Text string   `json:"text"`
	Tags []string `json:"tags"`
}

var errNoListings = errors.New("no job listings rendered")

type cryptoJobsList struct {
	cfg      config.CryptoJobsListConfig
	browser  config.BrowserConfig
	launcher fetch.Launcher
	log      *zap.SugaredLogger
}

// NewCryptoJobsList builds the adapter for the category-based rendered board.
func NewCryptoJobsList(deps Deps) Adapter {
	a := &cryptoJobsList{launcher: deps.Launcher, log: deps.logger(CryptoJobsList)}
	if deps.Config != nil {
		a.cfg = deps.Config.CryptoJobsList
		a.browser = deps.Config.Browser
	}
	return a
}

func (a *cryptoJobsList) Name() string { return CryptoJobsList }

func (a *cryptoJobsList) Scrape(ctx context.Context) ([]types.RawJob, types.SkipStats, error) {
	col := newCollector()

	launch := fetch.LaunchOptions{UserAgent: a.browser.UserAgent, ActionTimeout: a.browser.ActionTimeout}
	err := fetch.WithBrowser(ctx, a.launcher, launch, func(b fetch.Browser) error {
		for i, category := range a.cfg.Categories {
			if i > 0 {
				if err := fetch.Sleep(ctx, a.cfg.CategoryDelay); err != nil {
					return err
				}
			}
			kept, err := a.scrapeCategory(ctx, b, category, col)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				a.log.Warnw("category failed", "category", category, "error", err)
				continue
			}
			a.log.Debugw("category scraped", "category", category, "kept", kept)
		}
		return nil
	})
	if errors.Is(err, fetch.ErrBrowserUnavailable) {
		a.log.Errorw("browser unavailable, skipping source", "error", err)
		return nil, types.SkipStats{}, nil
	}
	if err != nil {
		return nil, types.SkipStats{}, err
	}

	jobs, stats := col.result()
	logSummary(a.log, jobs, stats)
	return jobs, stats, nil
}

// scrapeCategory loads one category page and adds its cards to col.
func (a *cryptoJobsList) scrapeCategory(ctx context.Context, page fetch.Page, category string, col *collector) (int, error) {
	pageURL := strings.TrimRight(a.cfg.BaseURL, "/") + "/" + strings.Trim(category, "/")

	nav := fetch.NavigateOptions{WaitUntil: fetch.WaitBodyReady, Timeout: a.browser.NavigationTimeout}
	if err := page.Navigate(ctx, pageURL, nav); err != nil {
		return 0, err
	}

	if err := a.waitForListings(ctx, page, category); err != nil {
		return 0, err
	}

	if steps, err := fetch.ScrollToBottom(ctx, page, a.cfg.ScrollIterations, a.cfg.ScrollPause); err != nil {
		a.log.Debugw("scroll stopped early", "category", category, "steps", steps, "error", err)
	}

	var cards []jobCard
	if err := page.Evaluate(ctx, cjlCardScript, &cards); err != nil {
		return 0, fmt.Errorf("failed to extract job cards: %w", err)
	}

	kept := 0
	for _, card := range cards {
		job, ok := cryptoJobsListJob(card, category)
		if !ok {
			continue
		}
		if col.add(job.URL, job) {
			kept++
		}
	}
	return kept, nil
}

// waitForListings waits for job links, tolerating an anti-bot interstitial:
// after the first bound it waits a longer fixed time and checks once more.
func (a *cryptoJobsList) waitForListings(ctx context.Context, page fetch.Page, category string) error {
	if err := page.WaitForSelector(ctx, cjlJobLinkSelector, a.cfg.SelectorWait); err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	a.log.Infow("job links not rendered, waiting out possible challenge page",
		"category", category, "wait", a.cfg.ChallengeWait)
	if err := fetch.Sleep(ctx, a.cfg.ChallengeWait); err != nil {
		return err
	}
	if err := page.WaitForSelector(ctx, cjlJobLinkSelector, cjlRecheckWait); err != nil {
		return errNoListings
	}
	return nil
}

// cryptoJobsListJob maps a card to a RawJob. Cards without a link or title
// are rejected.
func cryptoJobsListJob(card jobCard, category string) (types.RawJob, bool) {
	fields := parseCardLines(card.Text)
	if card.Href == "" || fields.Title == "" {
		return types.RawJob{}, false
	}

	salaryMin, salaryMax := salaryPtrs(fields.Salary)
	tags := dedupeStrings(card.Tags)

	return types.RawJob{
		SourceID:     lastPathSegment(card.Href),
		URL:          card.Href,
		Title:        fields.Title,
		Company:      fields.Company,
		Location:     fields.Location,
		LocationType: locationTypeOf(fields.Location),
		Seniority:    fields.Seniority,
		Category:     category,
		SalaryMin:    salaryMin,
		SalaryMax:    salaryMax,
		Tags:         tags,
		RawData: map[string]any{
			"href":     card.Href,
			"text":     card.Text,
			"tags":     card.Tags,
			"category": category,
		},
	}, true
}
