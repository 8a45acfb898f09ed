package sources

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/job-radar/internal/config"
	"github.com/jonathan/job-radar/internal/fetch"
	"github.com/jonathan/job-radar/internal/types"
	"go.uber.org/zap"
)

// ccjListSelector is visible once the listing has rendered.
const ccjListSelector = `main a[href]`

// ccjCardScript collects same-site links two path segments deep, the shape of
// a job detail URL on this board, with their visible text.
const ccjCardScript = `(() => Array.from(document.querySelectorAll('a[href]'))
  .filter(a => a.host === location.host && /^\/[a-z0-9-]+\/[a-z0-9-]+\/?$/.test(a.pathname))
  .map(a => ({
    href: a.href,
    text: a.innerText || '',
    tags: Array.from(a.querySelectorAll('li, span[class*="tag"]')).map(t => (t.innerText || '').trim()).filter(Boolean)
  }))
  .filter(c => c.text.split('\n').filter(l => l.trim()).length >= 2))()`

type cryptocurrencyJobs struct {
	cfg      config.CryptocurrencyJobsConfig
	browser  config.BrowserConfig
	launcher fetch.Launcher
	log      *zap.SugaredLogger
}

// NewCryptocurrencyJobs builds the adapter for the single-page rendered board.
func NewCryptocurrencyJobs(deps Deps) Adapter {
	a := &cryptocurrencyJobs{launcher: deps.Launcher, log: deps.logger(CryptocurrencyJobs)}
	if deps.Config != nil {
		a.cfg = deps.Config.CryptocurrencyJobs
		a.browser = deps.Config.Browser
	}
	return a
}

func (a *cryptocurrencyJobs) Name() string { return CryptocurrencyJobs }

func (a *cryptocurrencyJobs) Scrape(ctx context.Context) ([]types.RawJob, types.SkipStats, error) {
	col := newCollector()

	launch := fetch.LaunchOptions{UserAgent: a.browser.UserAgent, ActionTimeout: a.browser.ActionTimeout}
	err := fetch.WithBrowser(ctx, a.launcher, launch, func(b fetch.Browser) error {
		if err := a.scrapePage(ctx, b, col); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			a.log.Warnw("listing page failed", "url", a.cfg.URL, "error", err)
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

func (a *cryptocurrencyJobs) scrapePage(ctx context.Context, page fetch.Page, col *collector) error {
	nav := fetch.NavigateOptions{WaitUntil: fetch.WaitBodyReady, Timeout: a.browser.NavigationTimeout}
	if err := page.Navigate(ctx, a.cfg.URL, nav); err != nil {
		return err
	}
	if err := page.WaitForSelector(ctx, ccjListSelector, a.cfg.SelectorWait); err != nil {
		a.log.Debugw("listing selector not visible, continuing", "error", err)
	}

	if steps, err := fetch.ScrollToBottom(ctx, page, a.cfg.ScrollIterations, a.cfg.ScrollPause); err != nil {
		a.log.Debugw("scroll stopped early", "steps", steps, "error", err)
	}

	var cards []jobCard
	if err := page.Evaluate(ctx, ccjCardScript, &cards); err != nil {
		a.log.Warnw("card extraction failed, trying row fallback", "error", err)
	}
	jobs := cryptocurrencyJobsFromCards(cards)

	if len(jobs) == 0 {
		html, err := page.HTML(ctx)
		if err != nil {
			return err
		}
		jobs, err = cryptocurrencyJobsFromRows(html, a.cfg.URL)
		if err != nil {
			return err
		}
		a.log.Infow("used row fallback", "rows", len(jobs))
	}

	for _, job := range jobs {
		col.add(job.URL, job)
	}
	return nil
}

// cryptocurrencyJobsFromCards maps job-link cards to RawJobs.
func cryptocurrencyJobsFromCards(cards []jobCard) []types.RawJob {
	var jobs []types.RawJob
	for _, card := range cards {
		fields := parseCardLines(card.Text)
		if card.Href == "" || fields.Title == "" {
			continue
		}
		salaryMin, salaryMax := salaryPtrs(fields.Salary)
		jobs = append(jobs, types.RawJob{
			SourceID:     lastPathSegment(card.Href),
			URL:          card.Href,
			Title:        fields.Title,
			Company:      fields.Company,
			Location:     fields.Location,
			LocationType: locationTypeOf(fields.Location),
			Seniority:    fields.Seniority,
			Category:     fields.Category,
			SalaryMin:    salaryMin,
			SalaryMax:    salaryMax,
			Tags:         dedupeStrings(card.Tags),
			RawData: map[string]any{
				"href":     card.Href,
				"text":     card.Text,
				"strategy": "cards",
			},
		})
	}
	return jobs
}

// cryptocurrencyJobsFromRows is the fallback extractor: any table or grid row
// with at least two cells is a listing whose first cell is the title and whose
// later cells hold company and location.
func cryptocurrencyJobsFromRows(html, pageURL string) ([]types.RawJob, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing HTML: %w", err)
	}

	var jobs []types.RawJob
	doc.Find(`tr, [role="row"]`).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find(`td, [role="cell"], [role="gridcell"]`)
		if cells.Length() < 2 {
			return
		}
		cellText := func(i int) string {
			if i >= cells.Length() {
				return ""
			}
			return strings.Join(strings.Fields(cells.Eq(i).Text()), " ")
		}

		title := cellText(0)
		if title == "" {
			return
		}
		company := cellText(1)
		location := cellText(2)

		href, _ := row.Find("a[href]").First().Attr("href")
		jobURL := resolveURL(pageURL, href)
		sourceID := lastPathSegment(jobURL)
		if href == "" {
			sourceID = slugify(title, company)
			jobURL = strings.TrimRight(pageURL, "/") + "#" + sourceID
		}

		jobs = append(jobs, types.RawJob{
			SourceID:     sourceID,
			URL:          jobURL,
			Title:        title,
			Company:      company,
			Location:     location,
			LocationType: locationTypeOf(location),
			RawData: map[string]any{
				"href":     href,
				"cells":    cells.Length(),
				"strategy": "rows",
			},
		})
	})
	return jobs, nil
}
