package classify

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_FullPass(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.csv")
	cp := NewCheckpoint(inputTable(5))

	fake := &fakeClassifier{verdicts: []Verdict{
		{Decision: DecisionKeep, Confidence: ConfidenceHigh},
		{Decision: DecisionReject, Confidence: ConfidenceLow},
	}}
	r := &Runner{Classifier: fake, BlockSize: 2}

	sum, err := r.Run(context.Background(), cp, path, 0, 1)
	require.NoError(t, err)

	assert.Equal(t, 5, sum.Total)
	assert.Equal(t, 5, sum.Processed)
	assert.Equal(t, 0, sum.Skipped)
	assert.Equal(t, 3, sum.Kept)
	assert.Equal(t, 2, sum.Rejected)
	assert.False(t, sum.Interrupted)
	assert.Equal(t, 5, fake.calls)

	// Final state is durable.
	reloaded, resumed, err := LoadCheckpoint(path, inputTable(5))
	require.NoError(t, err)
	assert.True(t, resumed)
	assert.Equal(t, 5, reloaded.DecidedCount())
}

func TestRunner_ResumeSkipsDecidedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.csv")

	// First run decides rows 0 and 1, then is checkpointed.
	cp := NewCheckpoint(inputTable(5))
	cp.SetVerdict(0, Verdict{Decision: DecisionKeep, Confidence: ConfidenceHigh})
	cp.SetVerdict(1, Verdict{Decision: DecisionReject, Confidence: ConfidenceLow})
	require.NoError(t, cp.Save(path))

	// Resume: only rows 2..4 are classified.
	resumedCp, resumed, err := LoadCheckpoint(path, inputTable(5))
	require.NoError(t, err)
	require.True(t, resumed)

	fake := &fakeClassifier{verdicts: []Verdict{{Decision: DecisionKeep, Confidence: ConfidenceHigh}}}
	r := &Runner{Classifier: fake, BlockSize: 50}

	sum, err := r.Run(context.Background(), resumedCp, path, 0, 1)
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Skipped)
	assert.Equal(t, 3, sum.Processed)
	assert.Equal(t, 3, fake.calls)

	// Previously decided rows keep their verdicts.
	assert.Equal(t, DecisionKeep, resumedCp.Decision(0))
	assert.Equal(t, DecisionReject, resumedCp.Decision(1))

	// Final totals equal an uninterrupted run over the same inputs:
	// 4 keeps (rows 0, 2, 3, 4) and 1 reject (row 1).
	assert.Equal(t, 4, sum.Kept)
	assert.Equal(t, 1, sum.Rejected)
}

func TestRunner_CancellationLeavesConsistentCheckpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.csv")
	cp := NewCheckpoint(inputTable(10))

	ctx, cancel := context.WithCancel(context.Background())

	cancelling := &cancellingClassifier{cancel: cancel, after: 3}
	r := &Runner{Classifier: cancelling, BlockSize: 2}

	sum, err := r.Run(ctx, cp, path, 0, 1)
	require.NoError(t, err)

	assert.True(t, sum.Interrupted)
	assert.Equal(t, 3, sum.Processed)

	// The checkpoint on disk reflects every completed row.
	reloaded, _, err := LoadCheckpoint(path, inputTable(10))
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.DecidedCount())
}

func TestRunner_AlreadyComplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.csv")
	cp := NewCheckpoint(inputTable(2))
	cp.SetVerdict(0, Verdict{Decision: DecisionKeep, Confidence: ConfidenceHigh})
	cp.SetVerdict(1, Verdict{Decision: DecisionKeep, Confidence: ConfidenceHigh})

	fake := &fakeClassifier{verdicts: []Verdict{{Decision: DecisionReject, Confidence: ConfidenceLow}}}
	r := &Runner{Classifier: fake}

	sum, err := r.Run(context.Background(), cp, path, 0, 1)
	require.NoError(t, err)

	assert.Equal(t, 0, sum.Processed)
	assert.Equal(t, 2, sum.Skipped)
	assert.Equal(t, 0, fake.calls)
}

// cancellingClassifier cancels the run's context after a fixed number of
// classifications.
type cancellingClassifier struct {
	cancel context.CancelFunc
	after  int
	calls  int
}

func (c *cancellingClassifier) Classify(ctx context.Context, title, abstract string) (Verdict, error) {
	c.calls++
	if c.calls >= c.after {
		c.cancel()
	}
	return Verdict{Decision: DecisionKeep, Confidence: ConfidenceHigh}, nil
}
