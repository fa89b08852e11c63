package dataset

import "strings"

// columnPreferences maps a field concept to header substrings tried in
// order. Matching is case-insensitive; the first header containing one of
// the substrings wins.
var columnPreferences = map[string][]string{
	"title":      {"title"},
	"authors":    {"author"},
	"year":       {"year", "date"},
	"abstract":   {"abstract"},
	"doi":        {"doi"},
	"source":     {"source", "journal"},
	"confidence": {"nlp_confidence", "confidence"},
}

// DetectColumn finds the header column for a field concept by
// case-insensitive substring match. Returns (index, true) on a match and
// (0, false) otherwise.
func DetectColumn(header []string, concept string) (int, bool) {
	prefs, ok := columnPreferences[concept]
	if !ok {
		prefs = []string{strings.ToLower(concept)}
	}
	for _, want := range prefs {
		for i, h := range header {
			if strings.Contains(strings.ToLower(h), want) {
				return i, true
			}
		}
	}
	return 0, false
}

// TitleColumn finds the title column, falling back to the first column
// when no header matches.
func TitleColumn(header []string) int {
	if idx, ok := DetectColumn(header, "title"); ok {
		return idx
	}
	return 0
}
