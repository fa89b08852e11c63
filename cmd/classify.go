package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hero-lab/litscreen/internal/classify"
	"github.com/hero-lab/litscreen/internal/dataset"
	"github.com/hero-lab/litscreen/pkg/anthropic"
)

var classifyOutDir string

var classifyCmd = &cobra.Command{
	Use:   "classify <input>",
	Short: "Screen candidates with the Claude keep/reject classifier",
	Long: `Classifies every row of the input export, checkpointing progress to
progress.csv so an interrupted run resumes where it stopped. On completion
writes keep.csv and reject.csv next to the checkpoint.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cfg.Anthropic.Key == "" {
			return eris.New("anthropic.key is not configured")
		}

		input, err := dataset.Load(args[0])
		if err != nil {
			return err
		}

		titleCol := dataset.TitleColumn(input.Header)
		abstractCol := -1
		if idx, ok := dataset.DetectColumn(input.Header, "abstract"); ok {
			abstractCol = idx
		}
		zap.L().Info("input loaded",
			zap.String("path", args[0]),
			zap.Int("rows", input.Len()),
			zap.String("title_column", input.Header[titleCol]),
			zap.Bool("has_abstract", abstractCol >= 0),
		)

		outDir := classifyOutDir
		if outDir == "" {
			outDir = filepath.Dir(args[0])
		}
		checkpointPath := filepath.Join(outDir, "progress.csv")

		cp, resumed, err := classify.LoadCheckpoint(checkpointPath, input)
		if err != nil {
			return err
		}
		if resumed {
			zap.L().Info("resuming from checkpoint",
				zap.String("path", checkpointPath),
				zap.Int("decided", cp.DecidedCount()),
			)
		}

		client := anthropic.NewClient(cfg.Anthropic.Key)
		classifier := classify.NewAnthropicClassifier(client, cfg.Anthropic, cfg.Classify)
		runner := &classify.Runner{Classifier: classifier, BlockSize: cfg.Classify.BlockSize}

		sum, err := runner.Run(ctx, cp, checkpointPath, titleCol, abstractCol)
		if err != nil {
			return err
		}

		if sum.Interrupted {
			fmt.Printf("Interrupted: %d/%d decided, checkpoint saved to %s\n",
				sum.Skipped+sum.Processed, sum.Total, checkpointPath)
			fmt.Println("Run the same command again to resume.")
			return nil
		}

		keepTable, rejectTable := cp.Split()
		keepPath := filepath.Join(outDir, "keep.csv")
		rejectPath := filepath.Join(outDir, "reject.csv")
		if err := keepTable.Save(keepPath); err != nil {
			return err
		}
		if err := rejectTable.Save(rejectPath); err != nil {
			return err
		}

		fmt.Printf("Classified %d papers (%d resumed from checkpoint)\n", sum.Total, sum.Skipped)
		fmt.Printf("  kept:     %d -> %s\n", sum.Kept, keepPath)
		fmt.Printf("  rejected: %d -> %s\n", sum.Rejected, rejectPath)
		return nil
	},
}

func init() {
	classifyCmd.Flags().StringVarP(&classifyOutDir, "outdir", "o", "", "output directory (default: directory of input)")
	rootCmd.AddCommand(classifyCmd)
}
