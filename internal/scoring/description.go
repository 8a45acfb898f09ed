package scoring

import (
	"fmt"
	"strings"

	"github.com/jonathan/job-radar/internal/types"
)

// rawTextSections lists, per description section, the raw-data keys that
// may hold it. Boards disagree on spelling, so the first non-empty key wins.
var rawTextSections = []struct {
	label string
	keys  []string
}{
	{"Requirements", []string{"requirements", "Requirements", "qualifications"}},
	{"Responsibilities", []string{"responsibilities", "Responsibilities"}},
	{"Description", []string{"full_description", "fullDescription", "description", "Description"}},
}

// maxSectionLength caps each free-text section sent to the judge.
const maxSectionLength = 4000

// BuildDescription renders a job as the plain-text posting the judge reads.
// Empty fields are left out.
func BuildDescription(job types.JobSummary) string {
	var sb strings.Builder

	writeLine := func(label, value string) {
		if value = strings.TrimSpace(value); value != "" {
			fmt.Fprintf(&sb, "%s: %s\n", label, value)
		}
	}

	writeLine("Title", job.Title)
	writeLine("Company", job.Company)
	writeLine("Seniority", job.Seniority)
	writeLine("Category", job.Category)

	for _, section := range rawTextSections {
		text := firstRawText(job.RawData, section.keys)
		if text == "" {
			continue
		}
		fmt.Fprintf(&sb, "\n%s:\n%s\n", section.label, truncate(text, maxSectionLength))
	}

	if len(job.Tags) > 0 || len(job.Chains) > 0 {
		sb.WriteString("\n")
	}
	writeLine("Tags", strings.Join(job.Tags, ", "))
	writeLine("Chains", strings.Join(job.Chains, ", "))

	return strings.TrimRight(sb.String(), "\n")
}

func firstRawText(raw map[string]any, keys []string) string {
	for _, key := range keys {
		if text := rawText(raw[key]); text != "" {
			return text
		}
	}
	return ""
}

// rawText flattens a string or a list of strings. Other shapes are ignored.
func rawText(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case []string:
		return bulletList(v)
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				items = append(items, s)
			}
		}
		return bulletList(items)
	}
	return ""
}

func bulletList(items []string) string {
	var lines []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			lines = append(lines, "- "+item)
		}
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
