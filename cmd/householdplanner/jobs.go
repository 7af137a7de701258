package main

import (
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"household-planner/internal/service"
)

func newAssignWeekCmd(configPath *string) *cobra.Command {
	var household string
	cmd := &cobra.Command{
		Use:   "assign-week",
		Short: "Assign this week's chores of a household",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := a.rotation.AssignWeek(cmd.Context(), household, time.Now())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "WEEK\tTEMPLATE\tMEMBER")
			for _, as := range out {
				fmt.Fprintf(w, "%s\t%s\t%s\n", as.WeekStartDate.Format("2006-01-02"), as.TemplateID, as.AssignedMemberID)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&household, "household", "", "household id")
	_ = cmd.MarkFlagRequired("household")
	return cmd
}

func newMaterializeCmd(configPath *string) *cobra.Command {
	var (
		template string
		horizon  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "materialize",
		Short: "Create the missing occurrences of a template",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if horizon <= 0 {
				return fmt.Errorf("horizon must be positive")
			}
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			created, err := a.materializer.Materialize(cmd.Context(), template, time.Now().Add(horizon))
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSCHEDULED\tDUE")
			for _, o := range created {
				fmt.Fprintf(w, "%s\t%s\t%s\n", o.ID, o.ScheduledAt.Format(time.RFC3339), o.DueDate.Format(time.RFC3339))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d occurrence(s) created\n", len(created))
			return nil
		},
	}
	cmd.Flags().StringVar(&template, "template", "", "template id")
	cmd.Flags().DurationVar(&horizon, "horizon", service.DefaultGenerationHorizon, "how far ahead to materialize")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

func newSweepCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:       "sweep <overdue|due-soon|generate>",
		Short:     "Run one periodic job once",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"overdue", "due-soon", "generate"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			jobs := a.jobs()
			job, ok := jobs[args[0]]
			if !ok {
				names := make([]string, 0, len(jobs))
				for name := range jobs {
					names = append(names, name)
				}
				sort.Strings(names)
				return fmt.Errorf("unknown job %q, want one of %v", args[0], names)
			}
			runner := service.JobRunner{Timeout: a.cfg.Jobs.Timeout, Metrics: a.metrics, Log: a.log}
			return runner.Run(cmd.Context(), args[0], job)
		},
	}
}
