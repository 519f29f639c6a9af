//go:build !unix

package process

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/bnema/agent-fallback-cli/internal/ports"
)

type Runner struct{}

type RunnerOption func(*Runner)

func WithStdio(*os.File, io.Writer) RunnerOption { return func(*Runner) {} }

func WithMonitor(*Monitor) RunnerOption { return func(*Runner) {} }

func WithLogger(*slog.Logger) RunnerOption { return func(*Runner) {} }

func NewRunner(...RunnerOption) *Runner {
	return &Runner{}
}

func (r *Runner) Run(context.Context, ports.RunRequest) (ports.RunOutcome, error) {
	return ports.RunOutcome{}, errors.New("pseudo-terminal sessions are not supported on this platform")
}
