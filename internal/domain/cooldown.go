package domain

import (
	"sort"
	"time"
)

// CooldownTable maps an entry token to the instant the entry becomes usable
// again. An expiry at or before now means the entry is available.
type CooldownTable map[string]time.Time

func (t CooldownTable) MarkUnavailable(token string, until time.Time) {
	t[token] = until
}

func (t CooldownTable) Clear(token string) {
	delete(t, token)
}

func (t CooldownTable) Expiry(token string) (time.Time, bool) {
	until, ok := t[token]
	return until, ok
}

func (t CooldownTable) IsAvailable(token string, now time.Time) bool {
	until, ok := t[token]
	if !ok {
		return true
	}
	return !now.Before(until)
}

func (t CooldownTable) Remaining(token string, now time.Time) time.Duration {
	until, ok := t[token]
	if !ok || !now.Before(until) {
		return 0
	}
	return until.Sub(now)
}

type CooldownRecord struct {
	Token string
	Until time.Time
}

type CooldownSnapshot struct {
	Records   []CooldownRecord
	UpdatedAt time.Time
}

func (t CooldownTable) Snapshot(now time.Time) CooldownSnapshot {
	records := make([]CooldownRecord, 0, len(t))
	for token, until := range t {
		records = append(records, CooldownRecord{Token: token, Until: until})
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Token < records[j].Token
	})

	return CooldownSnapshot{Records: records, UpdatedAt: now}
}

func (s CooldownSnapshot) Lookup(token string) (time.Time, bool) {
	for _, record := range s.Records {
		if record.Token == token {
			return record.Until, true
		}
	}
	return time.Time{}, false
}
