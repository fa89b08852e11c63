package classify

import (
	"context"

	"go.uber.org/zap"
)

// Runner drives a resumable classification pass over a candidate table.
type Runner struct {
	Classifier Classifier
	// BlockSize is how many newly classified rows accumulate between
	// checkpoint saves. Default 50.
	BlockSize int
}

// Summary reports the outcome of a batch run.
type Summary struct {
	Total       int
	Skipped     int // rows already decided by a previous run
	Processed   int // rows classified in this run
	Kept        int
	Rejected    int
	Interrupted bool
}

// Run classifies every undecided row of the checkpoint in stable input
// order, persisting the checkpoint after every block and once at the end.
// Cancellation stops between rows: the last completed block is durable and
// no partial block is half-written to disk.
func (r *Runner) Run(ctx context.Context, cp *Checkpoint, checkpointPath string, titleCol, abstractCol int) (Summary, error) {
	blockSize := r.BlockSize
	if blockSize <= 0 {
		blockSize = 50
	}

	sum := Summary{Total: cp.Table.Len(), Skipped: cp.DecidedCount()}
	if sum.Skipped > 0 {
		zap.L().Info("resuming classification",
			zap.Int("already_decided", sum.Skipped),
			zap.Int("remaining", sum.Total-sum.Skipped),
		)
	}

	sinceSave := 0
	for i := range cp.Table.Rows {
		if cp.Decision(i) != "" {
			continue
		}

		if ctx.Err() != nil {
			sum.Interrupted = true
			break
		}

		title := cp.Table.Cell(i, titleCol)
		abstract := ""
		if abstractCol >= 0 {
			abstract = cp.Table.Cell(i, abstractCol)
		}

		verdict, err := r.Classifier.Classify(ctx, title, abstract)
		if err != nil {
			// A failing classifier still yields a verdict per contract;
			// treat an explicit error the same way.
			verdict = DefaultVerdict()
		}
		cp.SetVerdict(i, verdict)
		sum.Processed++
		sinceSave++

		if sinceSave >= blockSize {
			if err := cp.Save(checkpointPath); err != nil {
				return sum, err
			}
			sinceSave = 0
			kept, rejected := cp.Totals()
			zap.L().Info("checkpoint saved",
				zap.Int("decided", kept+rejected),
				zap.Int("total", sum.Total),
				zap.Int("kept", kept),
				zap.Int("rejected", rejected),
			)
		}
	}

	if sinceSave > 0 || sum.Processed == 0 {
		if err := cp.Save(checkpointPath); err != nil {
			return sum, err
		}
	}

	sum.Kept, sum.Rejected = cp.Totals()
	return sum, nil
}
