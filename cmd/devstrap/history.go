package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jaspreet-dot-casa/devstrap/pkg/report"
	"github.com/jaspreet-dot-casa/devstrap/pkg/ui"
)

// newHistoryCmd creates the history subcommand
func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs",
		Long:  `List the most recent provisioning runs recorded under the state directory.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			store := report.NewStore()

			reports, err := store.Recent(limit)
			if err != nil {
				return err
			}
			if len(reports) == 0 {
				fmt.Fprintln(out, "No runs recorded yet.")
				return nil
			}

			for _, r := range reports {
				status := r.Status
				switch status {
				case report.StatusOK:
					status = ui.SuccessStyle.Render(status)
				case report.StatusFailed:
					status = ui.ErrorStyle.Render(status)
				default:
					status = ui.WarningStyle.Render(status)
				}
				line := fmt.Sprintf("%-14s %-11s exit %-3d %8s  %s",
					ui.FormatTimeAgo(r.Started),
					status, r.ExitCode, r.Duration().Round(time.Second), ui.DimStyle.Render(r.RunID))
				if r.DryRun {
					line += " " + ui.DimStyle.Render("(dry-run)")
				}
				fmt.Fprintln(out, line)
				if r.Error != "" {
					fmt.Fprintf(out, "    %s\n", ui.ErrorStyle.Render(r.Error))
				}
			}
			fmt.Fprintln(out, ui.DimStyle.Render("\nReports: "+store.Dir()))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "number", "n", 10, "number of runs to show")
	return cmd
}
