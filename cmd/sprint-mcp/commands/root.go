package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"sprint-mcp/internal/config"
	"sprint-mcp/internal/issue"
	"sprint-mcp/internal/jira"
	"sprint-mcp/internal/logging"
	"sprint-mcp/internal/mcp"
	"sprint-mcp/internal/report"
	"sprint-mcp/internal/snapshot"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "sprint-mcp",
	Short: "Sprint and worklog reports for Jira, as an MCP server, HTTP API and CLI",
	Long: `sprint-mcp reads sprints, issues and worklogs from Jira, stores processed sprint
snapshots and computes sprint dashboards (burndown, performance, status
distribution, capacity plan) and worklog reports.

Without a subcommand it serves the reports as MCP tools over stdio.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("command", cmd.Name()).
			Msg("sprint-mcp starting")
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		a, closeStore, err := newAssembler(ctx, false)
		if err != nil {
			return err
		}
		defer closeStore()

		return mcp.NewServer(cfg, a, Version).Start(ctx)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildDate)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// newAssembler opens the snapshot store and, when configured, the Jira
// client. With requireJira an incomplete Jira configuration is an error;
// otherwise the assembler only serves stored snapshots.
func newAssembler(ctx context.Context, requireJira bool) (*report.Assembler, func(), error) {
	var client jira.Client
	if err := cfg.ValidateJira(); err != nil {
		if requireJira {
			return nil, nil, err
		}
		log.Warn().Err(err).Msg("Jira is not configured, only stored snapshots are available")
	} else {
		client = jira.NewClient(cfg.Jira)
	}

	store, err := snapshot.Open(ctx, cfg.SnapshotDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open snapshot store: %w", err)
	}

	a := report.NewAssembler(client, store, issue.NewProcessor(cfg.IssueOptions()), report.Options{
		Project:            cfg.DefaultProject,
		Location:           cfg.Location,
		WorklogConcurrency: cfg.WorklogConcurrency,
	})
	closeStore := func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close snapshot store")
		}
	}
	return a, closeStore, nil
}

// teamMembers resolves a roster team name for the report filters.
func teamMembers(name string) ([]string, error) {
	members, ok := cfg.Team.Members(name)
	if !ok {
		return nil, fmt.Errorf("unknown team %q (known: %v)", name, cfg.Team.TeamNames())
	}
	return members, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printCharts(w io.Writer, charts ...string) {
	for _, c := range charts {
		if c != "" {
			fmt.Fprintf(w, "\n%s\n", c)
		}
	}
}
