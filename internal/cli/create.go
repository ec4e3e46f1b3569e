package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yigit/practicelog/internal/app/services"
	"github.com/yigit/practicelog/internal/pkg/helpers"
)

func init() {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Record a submission for a member",
		RunE:  runCreate,
	}
	cmd.Flags().StringP("name", "n", "", "Member name (required)")
	cmd.Flags().StringSlice("media", nil, "Media URLs (repeatable or comma-separated)")
	cmd.Flags().String("date", "", "Occurrence date, YYYY-MM-DD or RFC 3339")
	RootCmd.AddCommand(cmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	name, _ := cmd.Flags().GetString("name")
	media, _ := cmd.Flags().GetStringSlice("media")
	date, _ := cmd.Flags().GetString("date")

	if name == "" {
		return errors.New("--name is required")
	}

	input := services.CreateSubmissionInput{
		MemberName: name,
		MediaURLs:  helpers.ParseMediaList(strings.Join(media, "\n")),
	}
	if date != "" {
		occurred, ok := helpers.ParseDate(date)
		if !ok {
			return fmt.Errorf("invalid --date %q", date)
		}
		input.OccurredAt = &occurred
	}

	core, err := openCore(cmd)
	if err != nil {
		return err
	}

	created, err := core.CheckinService.CreateSubmission(cmd.Context(), input)
	if err != nil {
		return fmt.Errorf("create submission: %w", err)
	}

	if !textOutput() {
		return writeJSON(cmd.OutOrStdout(), created)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created %s for %s (linked=%t, %d media)\n",
		created.ID, created.MemberName, created.Linked, len(created.MediaURLs))
	return nil
}
