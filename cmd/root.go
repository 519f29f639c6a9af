package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func Execute() error {
	root := newRootCmd()
	err := root.Execute()
	if err != nil {
		var exitErr *childExitError
		if !errors.As(err, &exitErr) {
			_, _ = fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		}
	}
	return err
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "afb",
		Short:         "Agent fallback supervisor (afb): keep coding agents running across rate limits",
		Long:          "afb runs a coding agent on a pseudo-terminal, notices when its backend throttles it, and hands the task to the next agent in a priority list. It switches back once the higher-priority agent recovers.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	app, err := wireApp()
	commands := []*cobra.Command{
		newAgentsCmd(app),
		newCooldownsCmd(app),
		newRunCmd(app),
	}
	if err != nil {
		// version needs no configuration; everything else reports why wiring failed.
		for _, command := range commands {
			command.PreRunE = func(_ *cobra.Command, _ []string) error {
				return err
			}
		}
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
	}

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(commands...)

	return rootCmd
}
