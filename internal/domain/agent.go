package domain

import (
	"fmt"
	"strings"
)

type AgentEntry struct {
	Base    string
	Variant string
	token   string
}

// ParseEntry splits a "base[:variant]" token. Only the first colon separates
// the variant, so "claude:opus:1m" keeps "opus:1m" as the variant.
func ParseEntry(token string) (AgentEntry, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return AgentEntry{}, fmt.Errorf("agent entry is empty")
	}

	base, variant, _ := strings.Cut(trimmed, ":")
	base = strings.TrimSpace(base)
	if base == "" {
		return AgentEntry{}, fmt.Errorf("agent entry %q has no base name", token)
	}

	return AgentEntry{Base: base, Variant: strings.TrimSpace(variant), token: trimmed}, nil
}

func ParseEntries(tokens []string) ([]AgentEntry, error) {
	entries := make([]AgentEntry, 0, len(tokens))
	for _, token := range tokens {
		if strings.TrimSpace(token) == "" {
			continue
		}
		entry, err := ParseEntry(token)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return nil, ErrNoEntries
	}

	return entries, nil
}

// Token is the identity of the entry. Cooldowns and archive names key off it.
func (e AgentEntry) Token() string {
	if e.token != "" {
		return e.token
	}
	if e.Variant == "" {
		return e.Base
	}
	return e.Base + ":" + e.Variant
}

func (e AgentEntry) HasVariant() bool {
	return e.Variant != ""
}

func (e AgentEntry) Display() string {
	if !e.HasVariant() {
		return e.Base
	}
	return fmt.Sprintf("%s (%s)", e.Base, e.Variant)
}

func (e AgentEntry) FileSlug() string {
	return strings.ReplaceAll(e.Token(), ":", "-")
}

func (e AgentEntry) String() string {
	return e.Token()
}
