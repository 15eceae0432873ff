package main

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rezkam/tally/internal/analytics"
	"github.com/rezkam/tally/internal/domain"
)

type metricsOutput struct {
	Metrics analytics.Metrics `json:"metrics"`
	Summary analytics.Summary `json:"summary"`
}

func metricsCmd(opts *globalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show revenue, efficiency and performance grade",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), cmd, opts, slog.LevelWarn)
			if err != nil {
				return err
			}
			defer a.Close()

			tasks := a.session.Tasks()
			out := metricsOutput{
				Metrics: a.session.Metrics(),
				Summary: analytics.Summarize(tasks),
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), out)
			}

			m := out.Metrics
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Tasks:\t%d (%d done)\n", m.TaskCount, m.DoneCount)
			fmt.Fprintf(tw, "Total revenue:\t%s\n", formatFloat(m.TotalRevenue))
			fmt.Fprintf(tw, "Total hours:\t%s\n", formatFloat(m.TotalTimeTaken))
			fmt.Fprintf(tw, "Revenue per hour:\t%s\n", formatFloat(m.RevenuePerHour))
			fmt.Fprintf(tw, "Average ROI:\t%s\n", formatFloat(m.AverageROI))
			fmt.Fprintf(tw, "Time efficiency:\t%s%%\n", formatFloat(m.TimeEfficiencyPct))
			fmt.Fprintf(tw, "Grade:\t%s\n", m.PerformanceGrade)
			for _, s := range domain.TaskStatuses {
				fmt.Fprintf(tw, "  %s:\t%d\n", s, out.Summary.ByStatus[s])
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")

	return cmd
}
