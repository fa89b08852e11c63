package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hero-lab/litscreen/internal/dataset"
)

var (
	dedupeOutput string
	dedupeKeys   []string
	dedupeKeep   string
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe <input>",
	Short: "Remove duplicate rows from a bibliographic export",
	Long:  "Loads a CSV or XLSX export, deduplicates on the detected title column (or an explicit key column set), and writes the result as CSV.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := args[0]

		keep := dataset.KeepPolicy(dedupeKeep)
		switch keep {
		case dataset.KeepFirst, dataset.KeepLast:
		default:
			return eris.Errorf("invalid --keep %q, want first or last", dedupeKeep)
		}

		proc := dataset.NewProcessor(input)
		if err := proc.Load(); err != nil {
			return err
		}

		titleCol, err := proc.TitleColumn()
		if err != nil {
			return err
		}
		zap.L().Info("dataset loaded",
			zap.String("path", input),
			zap.Int("rows", proc.Stats().OriginalCount),
			zap.String("title_column", titleCol),
		)

		removed, err := proc.Deduplicate(dedupeKeys, keep)
		if err != nil {
			return err
		}

		output := dedupeOutput
		if output == "" {
			ext := filepath.Ext(input)
			output = strings.TrimSuffix(input, ext) + "_deduped.csv"
		}
		if err := proc.Save(output); err != nil {
			return err
		}

		stats := proc.Stats()
		fmt.Printf("Deduplicated %s: %d rows -> %d rows (%d removed)\n",
			input, stats.OriginalCount, stats.CurrentCount, removed)
		fmt.Printf("Wrote %s\n", output)
		return nil
	},
}

func init() {
	dedupeCmd.Flags().StringVarP(&dedupeOutput, "output", "o", "", "output CSV path (default <input>_deduped.csv)")
	dedupeCmd.Flags().StringSliceVar(&dedupeKeys, "key", nil, "key column names (default: detected title column)")
	dedupeCmd.Flags().StringVar(&dedupeKeep, "keep", "first", "which duplicate survives: first or last")
	rootCmd.AddCommand(dedupeCmd)
}
