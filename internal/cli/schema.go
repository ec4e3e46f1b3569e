package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yigit/practicelog/internal/app/models"
)

func init() {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Show the declared properties of both collections",
		RunE:  runSchema,
	}
	RootCmd.AddCommand(cmd)
}

func runSchema(cmd *cobra.Command, args []string) error {
	core, err := openCore(cmd)
	if err != nil {
		return err
	}

	schemas, err := core.CheckinService.DescribeSchemas(cmd.Context())
	if err != nil {
		return fmt.Errorf("describe schemas: %w", err)
	}

	if !textOutput() {
		return writeJSON(cmd.OutOrStdout(), schemas)
	}
	out := cmd.OutOrStdout()
	for _, section := range []struct {
		name    string
		entries []models.SchemaEntry
	}{{"members", schemas.Members}, {"submissions", schemas.Submissions}} {
		fmt.Fprintf(out, "%s:\n", section.name)
		for _, e := range section.entries {
			if e.RelationTarget != "" {
				fmt.Fprintf(out, "  %s\t%s -> %s\n", e.Name, e.Type, e.RelationTarget)
				continue
			}
			fmt.Fprintf(out, "  %s\t%s\n", e.Name, e.Type)
		}
	}
	return nil
}
