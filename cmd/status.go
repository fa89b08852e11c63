package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show per-reviewer progress and decision counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		total, err := st.CountPapers(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Papers in catalog: %d\n\n", total)

		users, err := st.ListUsers(ctx)
		if err != nil {
			return err
		}
		if len(users) == 0 {
			fmt.Println("No reviewers registered.")
			return nil
		}

		fmt.Printf("%-20s %-14s %8s %8s %10s\n", "USERNAME", "ROLE", "KEPT", "REJECTED", "REMAINING")
		for _, u := range users {
			p, err := st.GetProgress(ctx, u.ID)
			if err != nil {
				return err
			}
			remaining := total - p.TotalKept - p.TotalRejected
			if remaining < 0 {
				remaining = 0
			}
			fmt.Printf("%-20s %-14s %8d %8d %10d\n", u.Username, u.Role, p.TotalKept, p.TotalRejected, remaining)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
