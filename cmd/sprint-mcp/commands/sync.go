package commands

import (
	"fmt"

	"sprint-mcp/internal/jobs"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	syncSprintID      int
	syncProject       string
	syncIncludeClosed bool
	syncCron          bool
	syncSchedule      string
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch sprints from Jira and store their snapshots",
	Long: `Without flags, syncs every active sprint of the default project once.
--sprint syncs a single sprint; --cron keeps running and syncs on the
SYNC_CRON schedule (or --schedule) until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		a, closeStore, err := newAssembler(ctx, true)
		if err != nil {
			return err
		}
		defer closeStore()

		project := syncProject
		if project == "" {
			project = cfg.DefaultProject
		}

		if syncCron {
			spec := syncSchedule
			if spec == "" {
				spec = cfg.SyncCron
			}
			if spec == "" {
				return fmt.Errorf("no schedule: set SYNC_CRON or pass --schedule")
			}
			cr, err := jobs.NewCron(spec, cfg.Location, a, project)
			if err != nil {
				return err
			}
			cr.Start()
			<-ctx.Done()
			log.Info().Msg("Stopping sync schedule")
			cr.Stop()
			return nil
		}

		if syncSprintID > 0 {
			res, err := a.SyncSprint(ctx, syncSprintID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		}

		results, err := a.SyncProject(ctx, project, syncIncludeClosed)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), results)
	},
}

func init() {
	syncCmd.Flags().IntVar(&syncSprintID, "sprint", 0, "sync only this sprint ID")
	syncCmd.Flags().StringVar(&syncProject, "project", "", "project key (default DEFAULT_PROJECT)")
	syncCmd.Flags().BoolVar(&syncIncludeClosed, "closed", false, "also sync closed sprints")
	syncCmd.Flags().BoolVar(&syncCron, "cron", false, "run on a schedule until interrupted")
	syncCmd.Flags().StringVar(&syncSchedule, "schedule", "", "five-field cron expression (default SYNC_CRON)")
	syncCmd.MarkFlagsMutuallyExclusive("sprint", "cron")
	rootCmd.AddCommand(syncCmd)
}
