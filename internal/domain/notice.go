package domain

import "time"

type NoticeKind string

const (
	NoticeStarting     NoticeKind = "starting"
	NoticeSkipCooldown NoticeKind = "skip_cooldown"
	NoticeSkipNested   NoticeKind = "skip_nested"
	NoticeSkipMissing  NoticeKind = "skip_missing"
	NoticeRateLimited  NoticeKind = "rate_limited"
	NoticeFailed       NoticeKind = "failed"
	NoticeHandoff      NoticeKind = "handoff"
	NoticeArchived     NoticeKind = "archived"
	NoticeSwitchBack   NoticeKind = "switch_back"
	NoticeRelaunch     NoticeKind = "relaunch"
	NoticeWaiting      NoticeKind = "waiting"
	NoticeExhausted    NoticeKind = "exhausted"
	NoticeExplicitExit NoticeKind = "explicit_exit"
)

type Notice struct {
	Kind        NoticeKind
	Entry       AgentEntry
	Target      AgentEntry
	ExitCode    int
	Until       time.Time
	Remaining   time.Duration
	ResetParsed bool
	Path        string
}
