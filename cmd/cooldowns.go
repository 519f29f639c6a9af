package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	statusadapter "github.com/bnema/agent-fallback-cli/internal/adapters/render/status"
	"github.com/bnema/agent-fallback-cli/internal/domain"
)

func newCooldownsCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cooldowns",
		Short: "Show the cooldowns recorded by the last fallback run",
		Long:  "Reads the cooldown snapshot kept in log_dir. Without log_dir no snapshot is written.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snapshot, err := app.roster.Snapshot(cmd.Context())
			if err != nil && !errors.Is(err, domain.ErrSnapshotNotFound) {
				return err
			}

			output, err := app.cooldownRenderer(snapshot, statusadapter.RenderOptions{Now: app.now(), Retry: app.settings.Retry()})
			if err != nil {
				return fmt.Errorf("render cooldowns: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), output)
			return err
		},
	}
}
