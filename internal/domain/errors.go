package domain

import "errors"

var (
	ErrAllExhausted       = errors.New("all agents exhausted")
	ErrExecutableNotFound = errors.New("agent executable not found")
	ErrNestedSession      = errors.New("agent is already running in this session")
	ErrNoEntries          = errors.New("no agent entries configured")
	ErrSnapshotNotFound   = errors.New("cooldown snapshot not found")
)
