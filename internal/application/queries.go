package application

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/bnema/agent-fallback-cli/internal/domain"
	"github.com/bnema/agent-fallback-cli/internal/ports"
)

type AgentStatus struct {
	Position      int
	Entry         domain.AgentEntry
	Executable    string
	Installed     bool
	Nested        bool
	CooldownUntil time.Time
}

func (s AgentStatus) Cooling(now time.Time) bool {
	return !s.CooldownUntil.IsZero() && now.Before(s.CooldownUntil)
}

// Roster answers read-only questions about the configured entries.
type Roster struct {
	resolver  ports.ExecutableResolver
	snapshots ports.CooldownRepository
	nestedEnv map[string]string
	getenv    func(string) string
}

func NewRoster(resolver ports.ExecutableResolver, snapshots ports.CooldownRepository, nestedEnv map[string]string) *Roster {
	return &Roster{resolver: resolver, snapshots: snapshots, nestedEnv: nestedEnv, getenv: os.Getenv}
}

// Statuses describes each entry in priority order. Cooldowns come from the
// last snapshot written by a supervisor run, when one exists.
func (r *Roster) Statuses(ctx context.Context, entries []domain.AgentEntry) ([]AgentStatus, error) {
	snapshot, err := r.Snapshot(ctx)
	if err != nil && !errors.Is(err, domain.ErrSnapshotNotFound) {
		return nil, err
	}

	statuses := make([]AgentStatus, 0, len(entries))
	for i, entry := range entries {
		status := AgentStatus{Position: i + 1, Entry: entry}
		if r.resolver != nil {
			if path, err := r.resolver.Resolve(entry.Base); err == nil {
				status.Executable = path
				status.Installed = true
			}
		}
		if name := r.nestedEnv[entry.Base]; name != "" && r.getenv(name) != "" {
			status.Nested = true
		}
		if until, ok := snapshot.Lookup(entry.Token()); ok {
			status.CooldownUntil = until
		}
		statuses = append(statuses, status)
	}

	return statuses, nil
}

func (r *Roster) Snapshot(ctx context.Context) (domain.CooldownSnapshot, error) {
	if r.snapshots == nil {
		return domain.CooldownSnapshot{}, domain.ErrSnapshotNotFound
	}
	snapshot, err := r.snapshots.Load(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrSnapshotNotFound) {
			return domain.CooldownSnapshot{}, err
		}
		return domain.CooldownSnapshot{}, fmt.Errorf("load cooldown snapshot: %w", err)
	}
	return snapshot, nil
}
