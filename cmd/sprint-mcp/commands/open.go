package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"sprint-mcp/internal/jira"
	"sprint-mcp/internal/snapshot"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

var openPrint bool

var openCmd = &cobra.Command{
	Use:   "open <issue-key | sprint-id>",
	Short: "Open an issue, or the board of a synced sprint, in the browser",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Jira.BaseURL == "" {
			return fmt.Errorf("JIRA_URL is not set")
		}

		ctx, stop := signalContext()
		defer stop()

		target, err := resolveTarget(ctx, args[0])
		if err != nil {
			return err
		}
		if openPrint {
			fmt.Fprintln(cmd.OutOrStdout(), target)
			return nil
		}
		return browser.OpenURL(target)
	},
}

// resolveTarget maps an issue key to its browse URL and a sprint id to the
// board it belongs to, using the stored snapshot.
func resolveTarget(ctx context.Context, arg string) (string, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return jira.BrowseURL(cfg.Jira.BaseURL, strings.ToUpper(arg)), nil
	}

	store, err := snapshot.Open(ctx, cfg.SnapshotDSN)
	if err != nil {
		return "", fmt.Errorf("open snapshot store: %w", err)
	}
	defer store.Close()

	snap, err := store.GetSprintSnapshot(ctx, id)
	if err != nil {
		return "", err
	}
	if snap == nil || snap.Details == nil || snap.Details.OriginBoardID == 0 {
		return "", fmt.Errorf("sprint %d has no stored board, run sync --sprint %d first", id, id)
	}
	return fmt.Sprintf("%s/secure/RapidBoard.jspa?rapidView=%d&sprint=%d",
		strings.TrimRight(cfg.Jira.BaseURL, "/"), snap.Details.OriginBoardID, id), nil
}

func init() {
	openCmd.Flags().BoolVar(&openPrint, "print", false, "print the URL instead of opening it")
	rootCmd.AddCommand(openCmd)
}
