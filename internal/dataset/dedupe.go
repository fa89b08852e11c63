package dataset

import (
	"strings"

	"github.com/rotisserie/eris"
)

// KeepPolicy selects which occurrence of a duplicate group survives.
type KeepPolicy string

const (
	KeepFirst KeepPolicy = "first"
	KeepLast  KeepPolicy = "last"
)

// Deduplicate removes rows whose key-column tuple repeats. Survivors keep
// their original relative order. With KeepFirst the lowest-indexed row of
// each duplicate group survives; with KeepLast the highest-indexed one.
// Returns the deduplicated table and the number of rows removed.
func Deduplicate(t *Table, keyCols []int, keep KeepPolicy) (*Table, int, error) {
	if t == nil {
		return nil, 0, eris.New("dataset: no data loaded")
	}
	switch keep {
	case KeepFirst, KeepLast:
	default:
		return nil, 0, eris.Errorf("dataset: invalid keep policy: %s", keep)
	}
	if len(keyCols) == 0 {
		keyCols = []int{TitleColumn(t.Header)}
	}

	survivor := make(map[string]int, t.Len()) // key → surviving row index
	for i := range t.Rows {
		key := rowKey(t, i, keyCols)
		if _, seen := survivor[key]; seen && keep == KeepFirst {
			continue
		}
		survivor[key] = i
	}

	indices := make([]int, 0, len(survivor))
	for i := range t.Rows {
		if survivor[rowKey(t, i, keyCols)] == i {
			indices = append(indices, i)
		}
	}

	return t.Select(indices), t.Len() - len(indices), nil
}

func rowKey(t *Table, row int, keyCols []int) string {
	parts := make([]string, len(keyCols))
	for i, c := range keyCols {
		parts[i] = t.Cell(row, c)
	}
	return strings.Join(parts, "\x1f")
}

// Processor drives the load → deduplicate → save flow for a single export.
type Processor struct {
	path          string
	table         *Table
	originalCount int
	removed       int
}

// NewProcessor creates a processor for the export at path. Nothing is read
// until Load.
func NewProcessor(path string) *Processor {
	return &Processor{path: path}
}

// Load reads the export into memory.
func (p *Processor) Load() error {
	t, err := Load(p.path)
	if err != nil {
		return err
	}
	p.table = t
	p.originalCount = t.Len()
	return nil
}

// Table returns the current table, or nil before Load.
func (p *Processor) Table() *Table {
	return p.table
}

// TitleColumn reports the detected title column name.
func (p *Processor) TitleColumn() (string, error) {
	if p.table == nil {
		return "", eris.New("dataset: no data loaded, call Load first")
	}
	return p.table.Header[TitleColumn(p.table.Header)], nil
}

// Deduplicate removes duplicate rows. An empty keyColumns means the
// detected title column. Calling before Load is a precondition error.
func (p *Processor) Deduplicate(keyColumns []string, keep KeepPolicy) (int, error) {
	if p.table == nil {
		return 0, eris.New("dataset: no data loaded, call Load first")
	}

	var keyCols []int
	for _, name := range keyColumns {
		idx, err := p.table.ColumnIndex(name)
		if err != nil {
			return 0, err
		}
		keyCols = append(keyCols, idx)
	}

	deduped, removed, err := Deduplicate(p.table, keyCols, keep)
	if err != nil {
		return 0, err
	}
	p.table = deduped
	p.removed += removed
	return removed, nil
}

// Save writes the processed table. Calling before Load is a precondition
// error.
func (p *Processor) Save(path string) error {
	if p.table == nil {
		return eris.New("dataset: no data loaded, call Load first")
	}
	return p.table.Save(path)
}

// Stats summarizes the processing run.
type Stats struct {
	OriginalCount int
	CurrentCount  int
	Removed       int
}

// Stats reports before/after row counts.
func (p *Processor) Stats() Stats {
	current := 0
	if p.table != nil {
		current = p.table.Len()
	}
	return Stats{
		OriginalCount: p.originalCount,
		CurrentCount:  current,
		Removed:       p.removed,
	}
}
