package ports

import (
	"context"

	"github.com/bnema/agent-fallback-cli/internal/domain"
)

type RunRequest struct {
	Entry      domain.AgentEntry
	Executable string
	Args       []string
	LogPath    string
	// Monitor enables real-time limit detection on the live log.
	Monitor bool
}

type RunOutcome struct {
	ExitCode       int
	MonitorFlagged bool
}

type ProcessRunner interface {
	Run(ctx context.Context, req RunRequest) (RunOutcome, error)
}

type ExecutableResolver interface {
	Resolve(base string) (string, error)
}
