package screen

import (
	"regexp"
	"sort"
	"strings"

	"github.com/hero-lab/litscreen/internal/dataset"
)

// wordPattern matches runs of 3+ alphabetic characters.
var wordPattern = regexp.MustCompile(`[a-zA-Z]{3,}`)

// WordCount is one entry of a word-frequency report.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// WordFrequencies tokenizes the given column, lowercases, drops stop
// words, and returns the topN most frequent words ordered by descending
// count, ties broken by first occurrence.
func WordFrequencies(t *dataset.Table, col, topN int) []WordCount {
	texts := make([]string, 0, t.Len())
	for i := range t.Rows {
		texts = append(texts, t.Cell(i, col))
	}
	return TextFrequencies(texts, topN)
}

// TextFrequencies is WordFrequencies over a plain slice of texts.
func TextFrequencies(texts []string, topN int) []WordCount {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	order := 0

	for _, text := range texts {
		if text == "" {
			continue
		}
		for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
			if _, stop := stopWords[word]; stop {
				continue
			}
			if _, seen := firstSeen[word]; !seen {
				firstSeen[word] = order
				order++
			}
			counts[word]++
		}
	}

	out := make([]WordCount, 0, len(counts))
	for word, count := range counts {
		out = append(out, WordCount{Word: word, Count: count})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return firstSeen[out[i].Word] < firstSeen[out[j].Word]
	})

	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}
