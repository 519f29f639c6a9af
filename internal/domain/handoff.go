package domain

import "time"

type HandoffDirection string

const (
	HandoffForward HandoffDirection = "forward"
	HandoffReverse HandoffDirection = "reverse"
)

type HandoffDocument struct {
	Path      string
	From      AgentEntry
	To        string
	Direction HandoffDirection
	Durable   bool
	CreatedAt time.Time
}

// WorkTreeContext is what the version-control collaborator reports about the
// working directory when a handoff is written.
type WorkTreeContext struct {
	Inside       bool
	StagedStat   string
	UnstagedStat string
	Diff         string
}
