// Package screen narrows a loaded candidate table with keyword and length
// filters and reports word-frequency statistics for the review UI.
package screen

import (
	"strings"

	"github.com/hero-lab/litscreen/internal/dataset"
)

// Criteria holds the filter inputs. Zero values mean "no filtering" for
// the keyword lists; MinWords/MaxWords always apply.
type Criteria struct {
	Include  []string `json:"include_keywords"`
	Exclude  []string `json:"exclude_keywords"`
	MatchAll bool     `json:"match_all"`
	MinWords int      `json:"min_words"`
	MaxWords int      `json:"max_words"`
}

// DefaultCriteria passes every row with a non-empty title of up to 100 words.
func DefaultCriteria() Criteria {
	return Criteria{MinWords: 0, MaxWords: 100}
}

// Apply filters the table on its title column. Filters compose as a
// conjunction in fixed order: inclusion, exclusion, length. The result is
// a new table; input rows and their order are never modified.
func Apply(t *dataset.Table, titleCol int, c Criteria) *dataset.Table {
	var indices []int
	for i := range t.Rows {
		if Matches(t.Cell(i, titleCol), c) {
			indices = append(indices, i)
		}
	}
	return t.Select(indices)
}

// Matches reports whether a single title passes the criteria. Apply and
// the review service share this predicate so the two filter paths can
// never disagree.
func Matches(title string, c Criteria) bool {
	return matchesInclude(title, c.Include, c.MatchAll) &&
		passesExclude(title, c.Exclude) &&
		withinLength(title, c.MinWords, c.MaxWords)
}

// matchesInclude reports whether the title contains any (or, with
// matchAll, every) inclusion term, case-insensitively. An empty term list
// includes everything. An empty title never matches a non-empty list.
func matchesInclude(title string, terms []string, matchAll bool) bool {
	if len(terms) == 0 {
		return true
	}
	if title == "" {
		return false
	}
	lower := strings.ToLower(title)
	for _, term := range terms {
		found := strings.Contains(lower, strings.ToLower(term))
		if matchAll && !found {
			return false
		}
		if !matchAll && found {
			return true
		}
	}
	return matchAll
}

// passesExclude reports whether the title avoids every exclusion term.
// An empty title passes vacuously; this asymmetry with matchesInclude is
// intentional and load-bearing for the filter contract.
func passesExclude(title string, terms []string) bool {
	if len(terms) == 0 || title == "" {
		return true
	}
	lower := strings.ToLower(title)
	for _, term := range terms {
		if strings.Contains(lower, strings.ToLower(term)) {
			return false
		}
	}
	return true
}

// withinLength checks minWords <= wordCount(title) <= maxWords. An empty
// title has no defined word count and fails.
func withinLength(title string, minWords, maxWords int) bool {
	if title == "" {
		return false
	}
	n := len(strings.Fields(title))
	return minWords <= n && n <= maxWords
}
