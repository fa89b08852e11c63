package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectColumn(t *testing.T) {
	header := []string{"Authors", "Paper Title", "Publication Year", "Abstract", "DOI", "Source title"}

	tests := []struct {
		concept string
		want    int
		found   bool
	}{
		{"title", 1, true},
		{"authors", 0, true},
		{"year", 2, true},
		{"abstract", 3, true},
		{"doi", 4, true},
		{"source", 5, true},
		{"venue", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.concept, func(t *testing.T) {
			idx, ok := DetectColumn(header, tt.concept)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.want, idx)
			}
		})
	}
}

func TestDetectColumn_CaseInsensitive(t *testing.T) {
	idx, ok := DetectColumn([]string{"TITLE"}, "title")
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
}

func TestTitleColumn_Fallback(t *testing.T) {
	// No header matches: fall back to the first column.
	assert.Equal(t, 0, TitleColumn([]string{"Col A", "Col B"}))
}

func TestDetectColumn_SourceMatchesJournal(t *testing.T) {
	idx, ok := DetectColumn([]string{"Title", "Journal Name"}, "source")
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
}
