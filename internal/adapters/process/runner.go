//go:build unix

package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/muesli/cancelreader"
	"golang.org/x/sync/errgroup"

	"github.com/bnema/agent-fallback-cli/internal/ports"
)

const (
	killGrace    = 2 * time.Second
	drainTimeout = 2 * time.Second
)

var _ ports.ProcessRunner = (*Runner)(nil)

// Runner executes agents on a pseudo-terminal and tees their output into the
// run log while it is produced.
type Runner struct {
	stdin   *os.File
	stdout  io.Writer
	monitor *Monitor
	logger  *slog.Logger
}

type RunnerOption func(*Runner)

func WithStdio(stdin *os.File, stdout io.Writer) RunnerOption {
	return func(r *Runner) {
		r.stdin = stdin
		r.stdout = stdout
	}
}

func WithMonitor(monitor *Monitor) RunnerOption {
	return func(r *Runner) {
		r.monitor = monitor
	}
}

func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) Run(ctx context.Context, req ports.RunRequest) (ports.RunOutcome, error) {
	logFile, err := os.OpenFile(req.LogPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return ports.RunOutcome{}, fmt.Errorf("open session log: %w", err)
	}
	defer logFile.Close()

	guard := CaptureTerminal(r.stdin, r.stdout)
	defer guard.Restore()

	cmd := exec.Command(req.Executable, req.Args...)
	cmd.Env = os.Environ()

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return ports.RunOutcome{}, annotateStartError(req.Executable, err)
	}
	defer ptmx.Close()

	if guard.IsTerminal() {
		_ = pty.InheritSize(r.stdin, ptmx)
		if err := guard.MakeRaw(); err != nil {
			r.logger.Warn("set raw mode", "error", err)
		}
		stopResize := r.forwardResize(ptmx)
		defer stopResize()
	}

	if r.stdin != nil {
		input, err := cancelreader.NewReader(r.stdin)
		if err != nil {
			r.logger.Warn("attach stdin", "error", err)
		} else {
			defer input.Close()
			defer input.Cancel()
			go func() {
				_, _ = io.Copy(ptmx, input)
			}()
		}
	}

	outputDone := make(chan struct{})
	go func() {
		defer close(outputDone)
		_, _ = io.Copy(io.MultiWriter(r.stdout, logFile), ptmx)
	}()

	pid := cmd.Process.Pid
	monitorCtx, stopMonitor := context.WithCancel(ctx)
	defer stopMonitor()

	var (
		flagged atomic.Bool
		waitErr error
		group   errgroup.Group
	)
	group.Go(func() error {
		defer stopMonitor()
		waitErr = waitChild(ctx, cmd)
		return nil
	})
	if req.Monitor && r.monitor != nil {
		group.Go(func() error {
			flagged.Store(r.monitor.Watch(monitorCtx, pid, req.LogPath))
			return nil
		})
	}
	_ = group.Wait()

	select {
	case <-outputDone:
	case <-time.After(drainTimeout):
		_ = ptmx.Close()
		<-outputDone
	}

	outcome := ports.RunOutcome{ExitCode: exitCode(waitErr), MonitorFlagged: flagged.Load()}
	r.logger.Debug("child exited", "pid", pid, "exit_code", outcome.ExitCode, "monitor_flagged", outcome.MonitorFlagged)

	if err := ctx.Err(); err != nil {
		return outcome, err
	}
	return outcome, nil
}

// waitChild reaps the child. Cancellation tears the whole tree down.
func waitChild(ctx context.Context, cmd *exec.Cmd) error {
	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
	}

	pid := cmd.Process.Pid
	_ = KillTree(pid, syscall.SIGTERM)
	select {
	case err := <-done:
		return err
	case <-time.After(killGrace):
	}
	_ = KillTree(pid, syscall.SIGKILL)
	return <-done
}

func (r *Runner) forwardResize(ptmx *os.File) func() {
	resize := make(chan os.Signal, 1)
	signal.Notify(resize, syscall.SIGWINCH)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-done:
				return
			case <-resize:
				_ = pty.InheritSize(r.stdin, ptmx)
			}
		}
	}()

	return func() {
		signal.Stop(resize)
		close(done)
	}
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return -1
	}
	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return 128 + int(status.Signal())
	}
	return exitErr.ExitCode()
}

func annotateStartError(executable string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("start %s on pty: executable not found: %w", executable, err)
	}
	if errors.Is(err, os.ErrPermission) {
		return fmt.Errorf("start %s on pty: permission denied: %w", executable, err)
	}
	return fmt.Errorf("start %s on pty: %w", executable, err)
}
