package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/yigit/practicelog/internal/app/models"
	"github.com/yigit/practicelog/internal/app/services"
)

func init() {
	cmd := &cobra.Command{
		Use:   "submissions",
		Short: "List one member's submissions, newest first",
		RunE:  runSubmissions,
	}
	cmd.Flags().StringP("member", "m", "", "Member id (required)")
	RootCmd.AddCommand(cmd)

	recent := &cobra.Command{
		Use:   "recent",
		Short: "List the newest submissions of all members",
		RunE:  runRecent,
	}
	recent.Flags().IntP("limit", "l", 50, fmt.Sprintf("Max results (at most %d)", services.MaxRecentSubmissions))
	RootCmd.AddCommand(recent)
}

func runSubmissions(cmd *cobra.Command, args []string) error {
	memberID, _ := cmd.Flags().GetString("member")
	if memberID == "" {
		return errors.New("--member is required")
	}

	core, err := openCore(cmd)
	if err != nil {
		return err
	}

	subs, err := core.CheckinService.ListSubmissionsForMember(cmd.Context(), memberID)
	if err != nil {
		return fmt.Errorf("list submissions: %w", err)
	}
	return printSubmissions(cmd.OutOrStdout(), subs)
}

func runRecent(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	core, err := openCore(cmd)
	if err != nil {
		return err
	}

	subs, err := core.CheckinService.ListRecentSubmissions(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("list recent submissions: %w", err)
	}
	return printSubmissions(cmd.OutOrStdout(), subs)
}

func printSubmissions(w io.Writer, subs []models.Submission) error {
	if !textOutput() {
		return writeJSON(w, subs)
	}
	for _, s := range subs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d media\n", s.OccurredAt.Format("2006-01-02"), s.ID, s.MemberName, len(s.MediaURLs))
	}
	return nil
}
