package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	statusadapter "github.com/bnema/agent-fallback-cli/internal/adapters/render/status"
	"github.com/bnema/agent-fallback-cli/internal/adapters/process"
	"github.com/bnema/agent-fallback-cli/internal/application"
	"github.com/bnema/agent-fallback-cli/internal/domain"
)

const interruptedExitCode = 130

// childExitError carries the exit status of an agent back to main.
type childExitError struct {
	code int
}

func (e *childExitError) Error() string {
	return fmt.Sprintf("agent exited with code %d", e.code)
}

func (e *childExitError) ExitCode() int {
	return e.code
}

func newRunCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run [--fallback [-l] [--to a,b] [--auto] [-N]] [agent args...]",
		Short: "Run the primary agent, optionally under the fallback supervisor",
		Long: "Without --fallback the primary agent runs directly with its exit code propagated. " +
			"With --fallback it runs on a pseudo-terminal and rate limits move the task to the next agent.",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || args[0] != fallbackFlag {
				return runPassthrough(cmd, app, args)
			}

			opts, err := parseFallbackOptions(args[1:])
			if err != nil {
				return err
			}
			return runFallback(cmd, app, opts)
		},
	}
}

func runPassthrough(cmd *cobra.Command, app *app, args []string) error {
	entries, err := app.entries(nil)
	if err != nil {
		return err
	}
	primary := entries[0]

	executable, err := app.resolver.Resolve(primary.Base)
	if err != nil {
		return err
	}

	childArgs := args
	if flag := application.ProfileFor(primary.Base).ModelFlag; flag != "" && primary.HasVariant() {
		childArgs = append([]string{flag, primary.Variant}, args...)
	}

	child := exec.CommandContext(cmd.Context(), executable, childArgs...)
	child.Stdin = cmd.InOrStdin()
	child.Stdout = cmd.OutOrStdout()
	child.Stderr = cmd.ErrOrStderr()

	if err := child.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &childExitError{code: exitErr.ExitCode()}
		}
		return fmt.Errorf("run %s: %w", primary.Base, err)
	}

	return nil
}

func runFallback(cmd *cobra.Command, app *app, opts fallbackOptions) error {
	entries, err := app.entries(opts.to)
	if err != nil {
		return err
	}

	if opts.list {
		return printAgents(cmd, app, entries)
	}

	start := 0
	if opts.start > 0 {
		start = opts.start - 1
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	guard := process.CaptureTerminal(app.stdin, cmd.ErrOrStderr())
	defer guard.Restore()

	supervisor := app.newSupervisor(entries[0].Base, cmd.OutOrStdout(), cmd.ErrOrStderr())
	report, err := supervisor.Run(ctx, application.RunOptions{
		Entries:              entries,
		StartIndex:           start,
		Args:                 opts.args,
		Auto:                 opts.auto || app.settings.Auto,
		RelaunchWhileCooling: app.settings.RelaunchWhileCooling,
	})
	app.logger.Info("supervisor finished",
		"state", report.State,
		"runs", report.Runs,
		"final", report.Final.Token(),
		"explicit_exit", report.ExplicitExit,
		"error", err,
	)

	if err != nil {
		if errors.Is(err, context.Canceled) && cmd.Context().Err() == nil {
			return &childExitError{code: interruptedExitCode}
		}
		return err
	}

	return nil
}

func printAgents(cmd *cobra.Command, app *app, entries []domain.AgentEntry) error {
	statuses, err := app.roster.Statuses(cmd.Context(), entries)
	if err != nil {
		return err
	}

	output, err := app.statusRenderer(statuses, statusadapter.RenderOptions{Now: app.now(), Retry: app.settings.Retry()})
	if err != nil {
		return fmt.Errorf("render agents: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), output)
	return err
}
