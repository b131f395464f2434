package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "guildsync",
		Short:        "Mirror guild roster, loot and raid data into local storage",
		SilenceUsage: true,
	}
	root.AddCommand(
		newServeCmd(),
		newRunCmd(),
		newRunsCmd(),
	)
	return root
}
