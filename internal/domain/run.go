package domain

import "time"

type RunOutcome string

const (
	OutcomeSuccess      RunOutcome = "success"
	OutcomeRateLimited  RunOutcome = "rate_limited"
	OutcomeFailed       RunOutcome = "failed"
	OutcomeExplicitExit RunOutcome = "explicit_exit"
)

type RunResult struct {
	Entry          AgentEntry
	ExitCode       int
	LogPath        string
	MonitorFlagged bool
	RateLimited    bool
	ExplicitExit   bool
	ResetAt        time.Time
	ResetParsed    bool
}

func (r RunResult) Outcome() RunOutcome {
	switch {
	case r.ExplicitExit:
		return OutcomeExplicitExit
	case r.RateLimited:
		return OutcomeRateLimited
	case r.ExitCode == 0:
		return OutcomeSuccess
	default:
		return OutcomeFailed
	}
}

type SupervisorState string

const (
	StateIdle      SupervisorState = "idle"
	StateRunning   SupervisorState = "running"
	StateCooling   SupervisorState = "cooling"
	StateExhausted SupervisorState = "exhausted"
	StateDone      SupervisorState = "done"
)
