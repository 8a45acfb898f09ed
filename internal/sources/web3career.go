package sources

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/job-radar/internal/config"
	"github.com/jonathan/job-radar/internal/fetch"
	"github.com/jonathan/job-radar/internal/types"
	"go.uber.org/zap"
)

var numericIDPattern = regexp.MustCompile(`^\d+$`)

// web3CareerRowSelector matches listing rows; only rows with a numeric id are
// listings, the rest are ads and spacers.
const web3CareerRowSelector = `tr[id]`

// web3CareerLocationSelector matches the labeled location fragments of a row.
const web3CareerLocationSelector = `.job-location-mobile a, .job-location-mobile span, span.job-location, span[class*="location"]`

type web3Career struct {
	cfg  config.Web3CareerConfig
	http *fetch.Client
	log  *zap.SugaredLogger
}

// NewWeb3Career builds the adapter for the static paginated board.
func NewWeb3Career(deps Deps) Adapter {
	a := &web3Career{http: deps.HTTP, log: deps.logger(Web3Career)}
	if deps.Config != nil {
		a.cfg = deps.Config.Web3Career
	}
	if a.http == nil {
		a.http = fetch.NewClient(nil)
	}
	return a
}

func (a *web3Career) Name() string { return Web3Career }

// Scrape walks every category page by page. A failed page ends that
// category. If no page of any category could be fetched the board is
// considered down and the last error is returned.
func (a *web3Career) Scrape(ctx context.Context) ([]types.RawJob, types.SkipStats, error) {
	col := newCollector()
	var (
		fetched int
		lastErr error
	)

	for _, category := range a.cfg.Categories {
		pages, err := a.scrapeCategory(ctx, category, col)
		fetched += pages
		if err != nil {
			if ctx.Err() != nil {
				return nil, types.SkipStats{}, ctx.Err()
			}
			lastErr = err
			a.log.Warnw("category stopped", "category", category, "pages", pages, "error", err)
		}
	}

	if fetched == 0 && lastErr != nil {
		return nil, types.SkipStats{}, fmt.Errorf("no %s page could be fetched: %w", Web3Career, lastErr)
	}

	jobs, stats := col.result()
	logSummary(a.log, jobs, stats)
	return jobs, stats, nil
}

// scrapeCategory fetches pages of one category until a page is empty, the
// next-page link is missing or MaxPages is reached. It returns the number of
// pages fetched.
func (a *web3Career) scrapeCategory(ctx context.Context, category string, col *collector) (int, error) {
	categoryURL := strings.TrimRight(a.cfg.BaseURL, "/") + "/" + strings.Trim(category, "/")

	for page := 1; page <= a.cfg.MaxPages; page++ {
		if page > 1 {
			if err := fetch.Sleep(ctx, a.cfg.PageDelay); err != nil {
				return page - 1, err
			}
		}

		pageURL := fmt.Sprintf("%s?page=%d", categoryURL, page)
		result, err := a.http.Get(ctx, pageURL)
		if err != nil {
			return page - 1, err
		}

		rows, hasNext, err := parseWeb3CareerPage(result.Body, a.cfg.BaseURL, page)
		if err != nil {
			return page, err
		}
		if len(rows) == 0 {
			return page, nil
		}

		for _, job := range rows {
			job.Category = category
			job.RawData["category"] = category
			col.add(job.SourceID, job)
		}

		if !hasNext {
			return page, nil
		}
	}
	return a.cfg.MaxPages, nil
}

// parseWeb3CareerPage extracts the listing rows of one page and reports
// whether the page links to page+1. Rows without a numeric id or a title are
// skipped.
func parseWeb3CareerPage(html, baseURL string, page int) ([]types.RawJob, bool, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, false, fmt.Errorf("failed to parse page HTML: %w", err)
	}

	var jobs []types.RawJob
	doc.Find(web3CareerRowSelector).Each(func(_ int, row *goquery.Selection) {
		job, ok := parseWeb3CareerRow(row, baseURL)
		if ok {
			jobs = append(jobs, job)
		}
	})

	nextLink := fmt.Sprintf(`a[href*="page=%d"]`, page+1)
	hasNext := doc.Find(nextLink).Length() > 0
	return jobs, hasNext, nil
}

func parseWeb3CareerRow(row *goquery.Selection, baseURL string) (types.RawJob, bool) {
	id, _ := row.Attr("id")
	if !numericIDPattern.MatchString(id) {
		return types.RawJob{}, false
	}

	title := cleanText(row.Find("h2").First().Text())
	if title == "" {
		return types.RawJob{}, false
	}
	company := cleanText(row.Find("h3").First().Text())

	href, _ := row.Find("a[href]").First().Attr("href")
	jobURL := resolveURL(baseURL, href)
	if jobURL == "" {
		jobURL = strings.TrimRight(baseURL, "/") + "/" + id
	}

	var locations []string
	row.Find(web3CareerLocationSelector).Each(func(_ int, s *goquery.Selection) {
		locations = append(locations, cleanText(s.Text()))
	})
	location := strings.Join(dedupeStrings(locations), ", ")

	salaryText := cleanText(row.Find(`.text-salary, [class*="salary"]`).Text())
	if salaryText == "" {
		salaryText = strings.Join(salaryKPattern.FindAllString(row.Text(), 2), " - ")
	}
	salaryMin, salaryMax := salaryPtrs(salaryText)

	datetime, _ := row.Find("time[datetime]").First().Attr("datetime")

	var tags []string
	row.Find(`.my-badge, span[class*="badge"]`).Each(func(_ int, s *goquery.Selection) {
		tags = append(tags, cleanText(s.Text()))
	})
	tags = dedupeStrings(tags)

	return types.RawJob{
		SourceID:     id,
		URL:          jobURL,
		Title:        title,
		Company:      company,
		Location:     location,
		LocationType: locationTypeOf(location),
		SalaryMin:    salaryMin,
		SalaryMax:    salaryMax,
		Tags:         tags,
		PostedAt:     parseTimestamp(datetime),
		RawData: map[string]any{
			"id":       id,
			"href":     href,
			"location": locations,
			"salary":   salaryText,
			"datetime": datetime,
		},
	}, true
}

// cleanText collapses runs of whitespace.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
