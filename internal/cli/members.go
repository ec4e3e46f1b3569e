package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "members",
		Short: "List members in display order",
		RunE:  runMembers,
	}
	RootCmd.AddCommand(cmd)

	summary := &cobra.Command{
		Use:   "summary <member-id>",
		Short: "Show a member's submission and media counts",
		Args:  cobra.ExactArgs(1),
		RunE:  runSummary,
	}
	RootCmd.AddCommand(summary)
}

func runMembers(cmd *cobra.Command, args []string) error {
	core, err := openCore(cmd)
	if err != nil {
		return err
	}

	members, err := core.CheckinService.ListMembers(cmd.Context())
	if err != nil {
		return fmt.Errorf("list members: %w", err)
	}

	if !textOutput() {
		return writeJSON(cmd.OutOrStdout(), members)
	}
	for _, m := range members {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", m.ID, m.DisplayName)
	}
	return nil
}

func runSummary(cmd *cobra.Command, args []string) error {
	core, err := openCore(cmd)
	if err != nil {
		return err
	}

	summary, err := core.CheckinService.SummarizeMember(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("summarize member: %w", err)
	}

	if !textOutput() {
		return writeJSON(cmd.OutOrStdout(), summary)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d submissions, %d practice, %d images, %d videos\n",
		summary.Member.DisplayName, len(summary.Submissions), summary.PracticeCheckins, summary.Images, summary.Videos)
	return nil
}
