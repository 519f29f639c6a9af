package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCooldownTableAvailability(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.February, 20, 10, 0, 0, 0, time.UTC)
	table := CooldownTable{}

	assert.True(t, table.IsAvailable("claude", now))

	table.MarkUnavailable("claude", now.Add(10*time.Minute))
	assert.False(t, table.IsAvailable("claude", now))
	assert.Equal(t, 10*time.Minute, table.Remaining("claude", now))
	assert.True(t, table.IsAvailable("claude:sonnet", now))

	assert.True(t, table.IsAvailable("claude", now.Add(10*time.Minute)))
	assert.Zero(t, table.Remaining("claude", now.Add(11*time.Minute)))

	table.Clear("claude")
	_, ok := table.Expiry("claude")
	assert.False(t, ok)
}

func TestCooldownSnapshotIsSortedByToken(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.February, 20, 10, 0, 0, 0, time.UTC)
	table := CooldownTable{
		"codex":         now.Add(time.Minute),
		"claude:sonnet": now.Add(2 * time.Minute),
		"claude":        now.Add(3 * time.Minute),
	}

	snapshot := table.Snapshot(now)

	assert.Equal(t, now, snapshot.UpdatedAt)
	assert.Equal(t, []CooldownRecord{
		{Token: "claude", Until: now.Add(3 * time.Minute)},
		{Token: "claude:sonnet", Until: now.Add(2 * time.Minute)},
		{Token: "codex", Until: now.Add(time.Minute)},
	}, snapshot.Records)

	until, ok := snapshot.Lookup("codex")
	assert.True(t, ok)
	assert.Equal(t, now.Add(time.Minute), until)
}

func TestRunResultOutcome(t *testing.T) {
	t.Parallel()

	assert.Equal(t, OutcomeSuccess, RunResult{}.Outcome())
	assert.Equal(t, OutcomeFailed, RunResult{ExitCode: 2}.Outcome())
	assert.Equal(t, OutcomeRateLimited, RunResult{ExitCode: 1, RateLimited: true}.Outcome())
	assert.Equal(t, OutcomeExplicitExit, RunResult{ExitCode: 1, RateLimited: true, ExplicitExit: true}.Outcome())
}
