package sources

import (
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// salaryKPattern matches "$120k", "$ 95K" or "$120.5k".
	salaryKPattern = regexp.MustCompile(`\$\s?(\d{1,4}(?:\.\d+)?)\s?[kK]\b`)

	locationKeywordPattern = regexp.MustCompile(`(?i)(?:^|[^a-z])(?:remote|hybrid|on-?site|anywhere|worldwide|global|united states|usa|u\.s\.|europe|emea|apac|asia|latam|north america|canada|united kingdom|uk|germany|singapore|new york|san francisco|london|berlin|dubai|hong kong)(?:[^a-z]|$)`)
	cityRegionPattern      = regexp.MustCompile(`^[A-Z][A-Za-z .'-]+,\s*[A-Z][A-Za-z]+`)
	seniorityLinePattern   = regexp.MustCompile(`(?i)^(?:senior|sr\.?|mid[- ]?level|mid|lead|principal|staff|head of|director|junior|entry[- ]level|intern)(?:\s|$)`)
	salaryLinePattern      = regexp.MustCompile(`(?i)(?:\$|€|£)\s?\d|\d+\s?k\s?(?:-|–|to)\s?\d+\s?k`)
	categoryLinePattern    = regexp.MustCompile(`(?i)^(?:engineering|developer|development|design|marketing|sales|operations|product|finance|legal|support|research|community|data|security|devops|business development|other)$`)
	postedAgoPattern       = regexp.MustCompile(`(?i)^(?:\d+\s?(?:m|h|d|w|mo|y|mins?|hours?|days?|weeks?|months?|years?)(?:\s+ago)?|today|yesterday|new|featured)$`)
	nonSlugPattern         = regexp.MustCompile(`[^a-z0-9]+`)
)

// ParseSalaryK extracts a salary range from text containing "$NNNk" tokens.
// The first token is the minimum and the second the maximum; a single token
// is used for both. ok is false when no token is present.
func ParseSalaryK(text string) (minimum, maximum int, ok bool) {
	matches := salaryKPattern.FindAllStringSubmatch(text, 2)
	if len(matches) == 0 {
		return 0, 0, false
	}
	values := make([]int, 0, 2)
	for _, m := range matches {
		f, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		values = append(values, int(f*1000))
	}
	switch len(values) {
	case 0:
		return 0, 0, false
	case 1:
		return values[0], values[0], true
	}
	if values[1] < values[0] {
		values[0], values[1] = values[1], values[0]
	}
	return values[0], values[1], true
}

// salaryPtrs returns pointer copies of a parsed salary range, or nils.
func salaryPtrs(text string) (*int, *int) {
	lo, hi, ok := ParseSalaryK(text)
	if !ok {
		return nil, nil
	}
	return &lo, &hi
}

// cardFields is a listing card split into fields by line position and keywords.
type cardFields struct {
	Title     string
	Company   string
	Location  string
	Seniority string
	Category  string
	Salary    string
}

// splitLines returns the trimmed, non-empty lines of text.
func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// isLocationLine reports whether line reads like a location.
func isLocationLine(line string) bool {
	if postedAgoPattern.MatchString(line) || salaryLinePattern.MatchString(line) {
		return false
	}
	return locationKeywordPattern.MatchString(line) || cityRegionPattern.MatchString(line)
}

// parseCardLines maps the visible text of a listing card to fields: line 0 is
// the title, line 1 the company, and later lines are classified by keyword.
func parseCardLines(text string) cardFields {
	lines := splitLines(text)
	var f cardFields
	if len(lines) > 0 {
		f.Title = lines[0]
	}
	if len(lines) > 1 {
		f.Company = lines[1]
	}
	for _, line := range lines[min(len(lines), 2):] {
		switch {
		case f.Salary == "" && salaryLinePattern.MatchString(line):
			f.Salary = line
		case f.Location == "" && isLocationLine(line):
			f.Location = line
		case f.Seniority == "" && seniorityLinePattern.MatchString(line):
			f.Seniority = line
		case f.Category == "" && categoryLinePattern.MatchString(line):
			f.Category = line
		}
	}
	return f
}

// locationTypeOf derives a coarse location type from location text.
func locationTypeOf(location string) string {
	lower := strings.ToLower(location)
	switch {
	case strings.Contains(lower, "hybrid"):
		return "HYBRID"
	case strings.Contains(lower, "remote"), strings.Contains(lower, "anywhere"), strings.Contains(lower, "worldwide"):
		return "REMOTE"
	case location == "":
		return ""
	}
	return "ONSITE"
}

// resolveURL resolves href against base. Unparseable input is returned as is.
func resolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}

// lastPathSegment returns the final non-empty path segment of a URL.
func lastPathSegment(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	seg := path.Base(strings.TrimRight(u.Path, "/"))
	if seg == "." || seg == "/" {
		return ""
	}
	return seg
}

// slugify lowercases s and joins its alphanumeric runs with dashes.
func slugify(parts ...string) string {
	joined := strings.ToLower(strings.Join(parts, " "))
	return strings.Trim(nonSlugPattern.ReplaceAllString(joined, "-"), "-")
}

// parseTimestamp accepts the timestamp layouts seen across boards.
func parseTimestamp(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	layouts := []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05-07:00", "2006-01-02 15:04:05", "2006-01-02"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			utc := t.UTC()
			return &utc
		}
	}
	return nil
}

// dedupeStrings drops empty and repeated values, keeping first-seen order.
func dedupeStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}
