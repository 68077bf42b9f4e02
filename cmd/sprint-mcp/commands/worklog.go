package commands

import (
	"sprint-mcp/internal/report"
	"sprint-mcp/internal/stats"
	"sprint-mcp/internal/visuals"

	"github.com/spf13/cobra"
)

var (
	worklogFrom         string
	worklogTo           string
	worklogProject      string
	worklogTeam         string
	worklogHideInactive bool
	worklogChart        bool
)

var worklogCmd = &cobra.Command{
	Use:   "worklog",
	Short: "Print the hours logged on a project between two dates",
	Example: `  sprint-mcp worklog --from 2024-05-01 --to 2024-05-10
  sprint-mcp worklog --team Backend --chart`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		a, closeStore, err := newAssembler(ctx, true)
		if err != nil {
			return err
		}
		defer closeStore()

		members, err := teamMembers(worklogTeam)
		if err != nil {
			return err
		}
		rep, err := a.WorklogReport(ctx, report.WorklogQuery{
			Project: worklogProject,
			From:    worklogFrom,
			To:      worklogTo,
			Filter: stats.ReportFilter{
				Members:      members,
				Hidden:       cfg.Team.Inactive,
				HideInactive: worklogHideInactive,
			},
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if err := printJSON(out, rep); err != nil {
			return err
		}
		if worklogChart || cfg.EnableMermaidCharts {
			printCharts(out, visuals.GenerateHoursByUserChart(rep.RankUsers()), visuals.GenerateDailyHoursChart(*rep))
		}
		return nil
	},
}

func init() {
	worklogCmd.Flags().StringVar(&worklogFrom, "from", "", "first day YYYY-MM-DD (default today)")
	worklogCmd.Flags().StringVar(&worklogTo, "to", "", "last day YYYY-MM-DD (default --from)")
	worklogCmd.Flags().StringVar(&worklogProject, "project", "", "project key (default DEFAULT_PROJECT)")
	worklogCmd.Flags().StringVar(&worklogTeam, "team", "", "only members of this roster team")
	worklogCmd.Flags().BoolVar(&worklogHideInactive, "hide-inactive", false, "drop people without logged hours")
	worklogCmd.Flags().BoolVar(&worklogChart, "chart", false, "append Mermaid charts")
	rootCmd.AddCommand(worklogCmd)
}
