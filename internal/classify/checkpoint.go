package classify

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/hero-lab/litscreen/internal/dataset"
)

// Column names appended to the working table for classifier output.
const (
	DecisionColumn   = "nlp_decision"
	ConfidenceColumn = "nlp_confidence"
)

// Checkpoint is the durable partial state of a batch run: the input table
// plus a decision and confidence column. A row with a non-empty decision
// is final and is never reprocessed.
type Checkpoint struct {
	Table         *dataset.Table
	decisionCol   int
	confidenceCol int
}

// NewCheckpoint prepares a fresh checkpoint over the input table, adding
// the decision and confidence columns when absent.
func NewCheckpoint(t *dataset.Table) *Checkpoint {
	decisionCol, err := t.ColumnIndex(DecisionColumn)
	if err != nil {
		t.AddColumn(DecisionColumn, nil)
		decisionCol = len(t.Header) - 1
	}
	confidenceCol, err := t.ColumnIndex(ConfidenceColumn)
	if err != nil {
		t.AddColumn(ConfidenceColumn, nil)
		confidenceCol = len(t.Header) - 1
	}
	return &Checkpoint{Table: t, decisionCol: decisionCol, confidenceCol: confidenceCol}
}

// LoadCheckpoint resumes from the checkpoint file at path if it exists and
// matches the input table's size; otherwise it starts fresh from the input
// table. The second return reports whether a previous run was resumed.
func LoadCheckpoint(path string, input *dataset.Table) (*Checkpoint, bool, error) {
	saved, err := dataset.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewCheckpoint(input), false, nil
		}
		return nil, false, err
	}

	if saved.Len() != input.Len() {
		return nil, false, eris.Errorf(
			"classify: checkpoint has %d rows but input has %d; delete %s to start over",
			saved.Len(), input.Len(), path,
		)
	}

	return NewCheckpoint(saved), true, nil
}

// Decision returns the checkpointed decision for a row, or "" when the row
// has not been classified yet.
func (c *Checkpoint) Decision(row int) Decision {
	return Decision(c.Table.Cell(row, c.decisionCol))
}

// SetVerdict records a verdict for a row in memory. Durability comes from
// the next Save.
func (c *Checkpoint) SetVerdict(row int, v Verdict) {
	c.Table.Rows[row][c.decisionCol] = string(v.Decision)
	c.Table.Rows[row][c.confidenceCol] = string(v.Confidence)
}

// DecidedCount returns how many rows already carry a decision.
func (c *Checkpoint) DecidedCount() int {
	n := 0
	for i := range c.Table.Rows {
		if c.Decision(i) != "" {
			n++
		}
	}
	return n
}

// Totals counts checkpointed keep and reject decisions.
func (c *Checkpoint) Totals() (kept, rejected int) {
	for i := range c.Table.Rows {
		switch c.Decision(i) {
		case DecisionKeep:
			kept++
		case DecisionReject:
			rejected++
		}
	}
	return kept, rejected
}

// Split partitions the table into kept and rejected subsets, preserving
// row order. Undecided rows appear in neither.
func (c *Checkpoint) Split() (keep, reject *dataset.Table) {
	var keepIdx, rejectIdx []int
	for i := range c.Table.Rows {
		switch c.Decision(i) {
		case DecisionKeep:
			keepIdx = append(keepIdx, i)
		case DecisionReject:
			rejectIdx = append(rejectIdx, i)
		}
	}
	return c.Table.Select(keepIdx), c.Table.Select(rejectIdx)
}

// Save writes the whole checkpoint table atomically: a temp file in the
// same directory is written first, then renamed over path, so a crash
// mid-write cannot leave a corrupt checkpoint.
func (c *Checkpoint) Save(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".checkpoint-*.csv")
	if err != nil {
		return eris.Wrap(err, "classify: create temp checkpoint")
	}
	tmpName := tmp.Name()

	if err := c.Table.WriteCSV(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return eris.Wrap(err, "classify: close temp checkpoint")
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return eris.Wrap(err, "classify: rename checkpoint")
	}
	return nil
}
