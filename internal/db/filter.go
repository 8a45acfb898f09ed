package db

// Job list sort orders
const (
	SortByScore   = "score"
	SortByDate    = "date"
	SortByCompany = "company"
)

// ActionNone filters for jobs without any user action.
const ActionNone = "none"

// JobFilter contains filters for listing jobs. Zero values mean no filter.
type JobFilter struct {
	Source    string
	MinScore  *int
	Category  string // case-insensitive exact match
	Location  string // case-insensitive substring
	Seniority string // case-insensitive exact match
	Search    string // substring of title, company or description
	Action    string // saved, applied, hidden or ActionNone
	SortBy    string // score (default), date or company
	Limit     int    // Pagination limit, default 50, max 100
	Offset    int    // Pagination offset
}

// normalized returns f with defaults and bounds applied.
func (f JobFilter) normalized() JobFilter {
	f.Limit = clampLimit(f.Limit)
	if f.Offset < 0 {
		f.Offset = 0
	}
	switch f.SortBy {
	case SortByScore, SortByDate, SortByCompany:
	default:
		f.SortBy = SortByScore
	}
	return f
}
