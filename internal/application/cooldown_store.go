package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/bnema/agent-fallback-cli/internal/domain"
	"github.com/bnema/agent-fallback-cli/internal/ports"
)

// CooldownStore owns the per-entry cooldown table for a single supervisor
// invocation. Every change is mirrored to the snapshot repository when one is
// configured; the snapshot is never read back by the store.
type CooldownStore struct {
	table  domain.CooldownTable
	repo   ports.CooldownRepository
	clock  ports.Clock
	logger *slog.Logger
}

func NewCooldownStore(repo ports.CooldownRepository, clock ports.Clock, logger *slog.Logger) *CooldownStore {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &CooldownStore{
		table:  domain.CooldownTable{},
		repo:   repo,
		clock:  clock,
		logger: logger,
	}
}

func (s *CooldownStore) MarkUnavailable(ctx context.Context, entry domain.AgentEntry, until time.Time) {
	s.table.MarkUnavailable(entry.Token(), until)
	s.mirror(ctx)
}

func (s *CooldownStore) Clear(ctx context.Context, entry domain.AgentEntry) {
	if _, ok := s.table.Expiry(entry.Token()); !ok {
		return
	}
	s.table.Clear(entry.Token())
	s.mirror(ctx)
}

func (s *CooldownStore) IsAvailable(entry domain.AgentEntry, now time.Time) bool {
	return s.table.IsAvailable(entry.Token(), now)
}

func (s *CooldownStore) Remaining(entry domain.AgentEntry, now time.Time) time.Duration {
	return s.table.Remaining(entry.Token(), now)
}

func (s *CooldownStore) Expiry(entry domain.AgentEntry) (time.Time, bool) {
	return s.table.Expiry(entry.Token())
}

// Expired reports whether the entry has a recorded cooldown that has run out.
func (s *CooldownStore) Expired(entry domain.AgentEntry, now time.Time) bool {
	until, ok := s.table.Expiry(entry.Token())
	return ok && !now.Before(until)
}

// Cooling reports whether the entry has a cooldown still in the future.
func (s *CooldownStore) Cooling(entry domain.AgentEntry, now time.Time) bool {
	until, ok := s.table.Expiry(entry.Token())
	return ok && now.Before(until)
}

// FirstExpired returns the index of the first entry, in priority order, whose
// recorded cooldown has already run out.
func (s *CooldownStore) FirstExpired(entries []domain.AgentEntry, now time.Time) (int, bool) {
	for i, entry := range entries {
		if s.Expired(entry, now) {
			return i, true
		}
	}
	return -1, false
}

// Soonest returns the entry whose pending cooldown ends first. Ties go to the
// higher-priority entry.
func (s *CooldownStore) Soonest(entries []domain.AgentEntry, now time.Time) (int, time.Time, bool) {
	index := -1
	var soonest time.Time
	for i, entry := range entries {
		until, ok := s.table.Expiry(entry.Token())
		if !ok || !now.Before(until) {
			continue
		}
		if index == -1 || until.Before(soonest) {
			index = i
			soonest = until
		}
	}
	if index == -1 {
		return -1, time.Time{}, false
	}
	return index, soonest, true
}

func (s *CooldownStore) AnyRecorded(entries []domain.AgentEntry) bool {
	for _, entry := range entries {
		if _, ok := s.table.Expiry(entry.Token()); ok {
			return true
		}
	}
	return false
}

// AnyCooling returns the first entry accepted by match that is still cooling.
func (s *CooldownStore) AnyCooling(entries []domain.AgentEntry, now time.Time, match func(domain.AgentEntry) bool) (domain.AgentEntry, time.Duration, bool) {
	for _, entry := range entries {
		if match != nil && !match(entry) {
			continue
		}
		if remaining := s.table.Remaining(entry.Token(), now); remaining > 0 {
			return entry, remaining, true
		}
	}
	return domain.AgentEntry{}, 0, false
}

func (s *CooldownStore) Snapshot() domain.CooldownSnapshot {
	return s.table.Snapshot(s.clock.Now())
}

func (s *CooldownStore) mirror(ctx context.Context) {
	if s.repo == nil {
		return
	}
	if err := s.repo.Save(ctx, s.Snapshot()); err != nil {
		s.logger.Warn("mirror cooldown snapshot", "error", err)
	}
}
