package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/jonathan/job-radar/internal/config"
	"github.com/jonathan/job-radar/internal/fetch"
	"github.com/jonathan/job-radar/internal/types"
	"go.uber.org/zap"
)

// remote3SeniorityLabels names the API's numeric seniority codes.
var remote3SeniorityLabels = map[int]string{
	0: "intern",
	1: "junior",
	2: "mid",
	3: "senior",
	4: "lead",
	5: "principal",
}

// remote3Response mirrors one page of the jobs API.
type remote3Response struct {
	Data  []json.RawMessage `json:"data"`
	Total int               `json:"total"`
}

// remote3Job mirrors a single listing.
type remote3Job struct {
	ID           flexibleID          `json:"id"`
	Slug         string              `json:"slug"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	Location     string              `json:"location"`
	LocationType string              `json:"location_type"`
	Seniority    *int                `json:"seniority"`
	Role         string              `json:"role"`
	SalaryMin    *float64            `json:"salary_min"`
	SalaryMax    *float64            `json:"salary_max"`
	Organization remote3Organization `json:"organization"`
	Tags         []remote3Tag        `json:"tags"`
	Chains       []string            `json:"chains"`
	ApplyURL     string              `json:"apply_url"`
	CreatedAt    string              `json:"created_at"`
}

type remote3Organization struct {
	Name string `json:"name"`
}

type remote3Tag struct {
	Name string `json:"name"`
}

// flexibleID accepts an id encoded as either a JSON string or number.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexibleID(n.String())
	return nil
}

type remote3 struct {
	cfg  config.Remote3Config
	http *fetch.Client
	log  *zap.SugaredLogger
}

// NewRemote3 builds the adapter for the JSON API source.
func NewRemote3(deps Deps) Adapter {
	a := &remote3{http: deps.HTTP, log: deps.logger(Remote3)}
	if deps.Config != nil {
		a.cfg = deps.Config.Remote3
	}
	if a.http == nil {
		a.http = fetch.NewClient(nil)
	}
	return a
}

func (a *remote3) Name() string { return Remote3 }

// Scrape pages through the API until a short or empty page. A failure on the
// first page fails the scrape; a later failure keeps what was collected.
func (a *remote3) Scrape(ctx context.Context) ([]types.RawJob, types.SkipStats, error) {
	col := newCollector()

	for page := 1; page <= a.cfg.MaxPages; page++ {
		if page > 1 {
			if err := fetch.Sleep(ctx, a.cfg.PageDelay); err != nil {
				return nil, types.SkipStats{}, err
			}
		}

		listings, size, err := a.fetchPage(ctx, page)
		if err != nil {
			if page == 1 || ctx.Err() != nil {
				return nil, types.SkipStats{}, fmt.Errorf("page %d: %w", page, err)
			}
			a.log.Warnw("page failed, keeping earlier pages", "page", page, "error", err)
			break
		}

		for _, listing := range listings {
			a.add(col, listing)
		}

		if size < a.cfg.PageSize {
			break
		}
	}

	jobs, stats := col.result()
	logSummary(a.log, jobs, stats)
	return jobs, stats, nil
}

type remote3Listing struct {
	job remote3Job
	raw map[string]any
}

func (a *remote3) pageURL(page int) string {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(a.cfg.PageSize))
	params.Set("roles", strings.Join(a.cfg.Roles, ","))
	return a.cfg.APIURL + "?" + params.Encode()
}

// fetchPage returns the decodable listings of one page and the page's raw
// row count.
func (a *remote3) fetchPage(ctx context.Context, page int) ([]remote3Listing, int, error) {
	var resp remote3Response
	if err := a.http.GetJSON(ctx, a.pageURL(page), &resp); err != nil {
		return nil, 0, err
	}

	listings := make([]remote3Listing, 0, len(resp.Data))
	for i, item := range resp.Data {
		var listing remote3Listing
		if err := json.Unmarshal(item, &listing.job); err != nil {
			a.log.Debugw("skipping malformed listing", "page", page, "index", i, "error", err)
			continue
		}
		if err := json.Unmarshal(item, &listing.raw); err != nil {
			continue
		}
		listings = append(listings, listing)
	}
	return listings, len(resp.Data), nil
}

// add applies the seniority threshold, then the shared filter.
func (a *remote3) add(col *collector, listing remote3Listing) {
	j := listing.job
	id := string(j.ID)
	if id == "" || j.Title == "" || col.has(id) {
		return
	}

	if j.Seniority != nil && *j.Seniority < a.cfg.MinSeniority {
		col.skipSeniority(id)
		return
	}

	col.add(id, a.toRawJob(listing))
}

func (a *remote3) toRawJob(listing remote3Listing) types.RawJob {
	j := listing.job

	jobURL := j.ApplyURL
	if j.Slug != "" || jobURL == "" {
		jobURL = strings.TrimRight(a.cfg.SiteURL, "/") + "/" + firstNonEmpty(j.Slug, string(j.ID))
	}

	var seniority string
	if j.Seniority != nil {
		seniority = remote3SeniorityLabels[*j.Seniority]
	}

	tags := make([]string, 0, len(j.Tags))
	for _, tag := range j.Tags {
		tags = append(tags, tag.Name)
	}

	return types.RawJob{
		SourceID:     string(j.ID),
		URL:          jobURL,
		Title:        strings.TrimSpace(j.Title),
		Company:      strings.TrimSpace(j.Organization.Name),
		Description:  fetch.HTMLToText(j.Description),
		Location:     strings.TrimSpace(j.Location),
		LocationType: strings.ToUpper(j.LocationType),
		Seniority:    seniority,
		Category:     j.Role,
		SalaryMin:    roundedInt(j.SalaryMin),
		SalaryMax:    roundedInt(j.SalaryMax),
		Tags:         dedupeStrings(tags),
		Chains:       dedupeStrings(j.Chains),
		PostedAt:     parseTimestamp(j.CreatedAt),
		RawData:      listing.raw,
	}
}

func roundedInt(f *float64) *int {
	if f == nil {
		return nil
	}
	v := int(*f + 0.5)
	return &v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
