package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:   "householdplanner",
		Short: "Household chore scheduler",
		Long: `Household planner materializes recurring chores, rotates weekly
assignments between household members and reminds them about due and
overdue tasks.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: planner.yaml in . or ./config)")

	root.AddCommand(
		newServeCmd(&configPath),
		newAssignWeekCmd(&configPath),
		newMaterializeCmd(&configPath),
		newSweepCmd(&configPath),
	)
	return root
}
