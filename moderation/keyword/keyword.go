package keyword

import (
	"encoding/json"
	"strings"

	"github.com/devcabi-net/mirage-community-sub000/moderation"
)

// MatchSeverity is the fixed severity assigned to every keyword match. The
// filter has no way to grade how bad a match is, so all hits report the same
// value. Known weakness: this is a placeholder, not a calibrated score.
const MatchSeverity = 0.8

// Entry pairs an internal category with the substring keywords that trigger
// it. Entries and keywords are checked in declaration order; the first match
// wins.
type Entry struct {
	Category moderation.Category
	Keywords []string
}

// DefaultTable is the built-in keyword table. Intentionally crude: the filter
// is a last-resort safety net for when both network providers are down, not a
// quality classifier.
func DefaultTable() []Entry {
	return []Entry{
		{
			Category: moderation.CategoryHateSpeech,
			Keywords: []string{"racist", "racism", "nazi", "white power", "ethnic cleansing"},
		},
		{
			Category: moderation.CategoryHarassment,
			Keywords: []string{"kill yourself", "kys", "nobody likes you", "go die"},
		},
		{
			Category: moderation.CategorySpam,
			Keywords: []string{"discord.gg/", "free nitro", "click here to claim", "bit.ly/", "limited time offer"},
		},
	}
}

// Filter is the terminal fallback stage of the classification chain. It is a
// total function over strings: Check always returns a verdict and cannot
// fail, which is what guarantees the engine always terminates with an answer.
type Filter struct {
	table []Entry
}

func NewFilter() *Filter {
	return &Filter{table: DefaultTable()}
}

// NewFilterWithTable builds a filter over a custom table. Entry order is
// significant (first match wins).
func NewFilterWithTable(table []Entry) *Filter {
	return &Filter{table: table}
}

type matchInfo struct {
	Keyword  string              `json:"keyword"`
	Category moderation.Category `json:"category"`
	Folded   bool                `json:"folded,omitempty"`
}

// Check classifies content against the keyword table. The content is
// lower-cased and each keyword is tested as a substring, in table order. A
// second pass matches on slugified (unicode-folded, punctuation-stripped)
// text so trivial evasion with confusable characters still hits.
func (f *Filter) Check(content string) *moderation.Result {
	lowered := strings.ToLower(content)
	for _, entry := range f.table {
		for _, kw := range entry.Keywords {
			if strings.Contains(lowered, kw) {
				return matched(entry.Category, kw, false)
			}
		}
	}

	slug := Slugify(content)
	if slug != "" {
		for _, entry := range f.table {
			for _, kw := range entry.Keywords {
				kwSlug := Slugify(kw)
				if kwSlug != "" && strings.Contains(slug, kwSlug) {
					return matched(entry.Category, kw, true)
				}
			}
		}
	}

	return moderation.Unflagged()
}

func matched(cat moderation.Category, kw string, folded bool) *moderation.Result {
	raw, _ := json.Marshal(matchInfo{Keyword: kw, Category: cat, Folded: folded})
	return &moderation.Result{
		Flagged:  true,
		Category: cat,
		Severity: MatchSeverity,
		Raw:      raw,
	}
}
