package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/guildsync/internal/app"
	"github.com/riskibarqy/guildsync/internal/domain/syncrun"
	"github.com/riskibarqy/guildsync/internal/scheduler"
	"github.com/riskibarqy/guildsync/internal/usecase"
	"github.com/spf13/cobra"
)

const kindAll = "all"

func newRunCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one sync pass and exit",
		PreRunE: func(_ *cobra.Command, _ []string) error {
			_, err := parseKinds(kind)
			return err
		},
		RunE: withApp(func(cmd *cobra.Command, a *app.App) error {
			kinds, _ := parseKinds(kind)
			ctx := cmd.Context()

			outcomes := make([]usecase.SyncOutcome, 0, len(kinds))
			for _, k := range kinds {
				outcomes = append(outcomes, a.Sync.Run(ctx, k))
			}
			scheduler.LogOutcomes(ctx, a.Logger, outcomes)

			failed := 0
			out := cmd.OutOrStdout()
			for _, outcome := range outcomes {
				if outcome.Failed() {
					failed++
				}
				fmt.Fprintf(out, "%-13s %-8s %8s  %s\n", outcome.Kind, outcome.Status, outcome.Duration.Round(time.Millisecond), outcome.Message)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d syncs failed", failed, len(outcomes))
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&kind, "kind", kindAll, "sync kind: all, "+joinKinds())
	return cmd
}

func parseKinds(raw string) ([]syncrun.Kind, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" || value == kindAll {
		return syncrun.Kinds, nil
	}
	kind, ok := syncrun.ParseKind(value)
	if !ok {
		return nil, fmt.Errorf("unknown sync kind %q (expected all, %s)", raw, joinKinds())
	}
	return []syncrun.Kind{kind}, nil
}

func joinKinds() string {
	names := make([]string, 0, len(syncrun.Kinds))
	for _, kind := range syncrun.Kinds {
		names = append(names, string(kind))
	}
	return strings.Join(names, ", ")
}
