package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var setFieldCmd = &cobra.Command{
	Use:   "set-field <issue-key> <field> <value>",
	Short: "Write a single custom field of a Jira issue",
	Long: `field is a custom field id (customfield_NNNNN) or one of the aliases
show_in_dashboard, popup, steve_estimate, customer, feature, tester and
story_points.`,
	Example: `  sprint-mcp set-field CLD-123 show_in_dashboard Yes`,
	Args:    cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		a, closeStore, err := newAssembler(ctx, true)
		if err != nil {
			return err
		}
		defer closeStore()

		fieldID, shape, err := a.SetIssueField(ctx, args[0], args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s updated\n", args[0], fieldID)
		return printJSON(cmd.OutOrStdout(), shape)
	},
}

func init() {
	rootCmd.AddCommand(setFieldCmd)
}
