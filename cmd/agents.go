package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newAgentsCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "agents",
		Short: "List the configured fallback chain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := app.entries(nil)
			if err != nil {
				return err
			}

			if !asJSON {
				return printAgents(cmd, app, entries)
			}

			statuses, err := app.roster.Statuses(cmd.Context(), entries)
			if err != nil {
				return err
			}
			payload, err := json.MarshalIndent(statuses, "", "  ")
			if err != nil {
				return fmt.Errorf("encode agents json: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(payload))
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output agent statuses as JSON")

	return cmd
}
