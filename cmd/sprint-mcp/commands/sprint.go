package commands

import (
	"fmt"
	"strconv"

	"sprint-mcp/internal/report"
	"sprint-mcp/internal/stats"
	"sprint-mcp/internal/visuals"

	"github.com/spf13/cobra"
)

var (
	sprintRefresh          bool
	sprintBurndown         string
	sprintCompletion       string
	sprintDistribution     string
	sprintIncludeOtherDone bool
	sprintTarget           float64
	sprintDashboardOnly    bool
	sprintTeam             string
	sprintIssues           bool
	sprintChart            bool

	sprintsLive    bool
	sprintsProject string
)

var sprintCmd = &cobra.Command{
	Use:   "sprint <sprint-id>",
	Short: "Print the report of a sprint from its stored snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid sprint id %q", args[0])
		}
		metric, err := stats.ParseBurndownMetric(sprintBurndown)
		if err != nil {
			return err
		}
		field, err := stats.ParseCompletionField(sprintCompletion)
		if err != nil {
			return err
		}
		dist, err := stats.ParseDistributionMetric(sprintDistribution)
		if err != nil {
			return err
		}
		members, err := teamMembers(sprintTeam)
		if err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()

		a, closeStore, err := newAssembler(ctx, sprintRefresh)
		if err != nil {
			return err
		}
		defer closeStore()

		rep, err := a.SprintReport(ctx, report.SprintQuery{
			SprintID:         id,
			Refresh:          sprintRefresh,
			Burndown:         metric,
			Completion:       field,
			Distribution:     dist,
			IncludeOtherDone: sprintIncludeOtherDone,
			TargetPerUser:    sprintTarget,
			DashboardOnly:    sprintDashboardOnly,
			Members:          members,
			Inactive:         cfg.Team.Inactive,
			WithIssues:       sprintIssues,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if err := printJSON(out, rep); err != nil {
			return err
		}
		if sprintChart || cfg.EnableMermaidCharts {
			if rep.Burndown != nil {
				printCharts(out, visuals.GenerateBurndownChart(*rep.Burndown, rep.ElapsedDays))
			}
			printCharts(out,
				visuals.GenerateStatusPie(rep.Distribution),
				visuals.GenerateTimeByUserChart(rep.TimeByUser),
				visuals.GeneratePerformanceChart(rep.Performance),
			)
		}
		return nil
	},
}

var sprintsCmd = &cobra.Command{
	Use:   "sprints",
	Short: "List stored sprint snapshots, or the project's sprints in Jira with --live",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		a, closeStore, err := newAssembler(ctx, sprintsLive)
		if err != nil {
			return err
		}
		defer closeStore()

		if sprintsLive {
			sprints, err := a.ListSprints(ctx, sprintsProject)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sprints)
		}
		list, err := a.SprintSummaries(ctx)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), list)
	},
}

func init() {
	f := sprintCmd.Flags()
	f.BoolVar(&sprintRefresh, "refresh", false, "sync the sprint from Jira first")
	f.StringVar(&sprintBurndown, "burndown-metric", "issues", "burndown metric: issues or time")
	f.StringVar(&sprintCompletion, "completion-field", "dev_done_date", "completion date: dev_done_date, test_done_date or resolution_date")
	f.StringVar(&sprintDistribution, "distribution-metric", "issues", "status distribution: issues, time or sprint_time")
	f.BoolVar(&sprintIncludeOtherDone, "include-other-done", false, "count Dev Done, Test Done and Deployed as done")
	f.Float64Var(&sprintTarget, "target", 0, "planned hours per person (default from the sprint name)")
	f.BoolVar(&sprintDashboardOnly, "dashboard-only", false, "only issues shown in the dashboard")
	f.StringVar(&sprintTeam, "team", "", "only members of this roster team")
	f.BoolVar(&sprintIssues, "issues", false, "include the processed issues")
	f.BoolVar(&sprintChart, "chart", false, "append Mermaid charts")
	rootCmd.AddCommand(sprintCmd)

	sprintsCmd.Flags().BoolVar(&sprintsLive, "live", false, "list sprints from Jira instead of stored snapshots")
	sprintsCmd.Flags().StringVar(&sprintsProject, "project", "", "project key for --live (default DEFAULT_PROJECT)")
	rootCmd.AddCommand(sprintsCmd)
}
