package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/riskibarqy/guildsync/internal/app"
	"github.com/riskibarqy/guildsync/internal/domain/syncrun"
	"github.com/spf13/cobra"
)

func newRunsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent sync runs",
		PreRunE: func(_ *cobra.Command, _ []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be > 0")
			}
			return nil
		},
		RunE: withApp(func(cmd *cobra.Command, a *app.App) error {
			runs, err := a.Runs.ListRecent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return writeRuns(cmd, runs)
		}),
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	return cmd
}

func writeRuns(cmd *cobra.Command, runs []syncrun.Run) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tSTATUS\tSTARTED\tCOMPLETED\tMESSAGE")
	for _, run := range runs {
		completed := "-"
		if run.CompletedAt != nil {
			completed = run.CompletedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			run.ID, run.Kind, run.Status, run.StartedAt.Format(time.RFC3339), completed, run.Message)
	}
	return w.Flush()
}
