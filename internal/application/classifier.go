package application

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	realtimeTailLines = 300
	verdictTailLines  = 50
	exitTailLines     = 20
	modelHeadLines    = 30
)

// strongLimitPatterns only fire on phrasing an agent prints when it is
// actually blocked. They are safe to match against a live session.
var strongLimitPatterns = []string{
	`/rate-limit-option(s)?`,
	`/reset-rate-limit`,
	`what.?do.?you.?want.?to.?do`,
	`switch.?to.?extra.?usage`,
	`upgrade.?your.?plan`,
	`stop.?and.?wait.?for.?limit.?to.?reset`,
	`hit.?your.?limit`,
	`you.?ve.?hit.?your.?limit`,
	`you.?have.?hit.?your.?limit`,
	`you.?have.?exhausted`,
	`you.?have.?exceeded`,
}

var strictLimitPatterns = append(append([]string{}, strongLimitPatterns...),
	`too.?many.?requests`,
	`requests?.?per.?minute`,
	`rate.?limit`,
	`usage.?limit`,
	`usage.?quota`,
	`request.?limit`,
	`request.?quota`,
	`quota.{0,24}(exceeded|reached|exhausted|limit)`,
	`request.{0,24}(limit|quota|reached|exceeded)`,
	`usage.{0,24}(limit|quota|reached|exceeded)`,
	`(exhausted|exceeded|reached).{0,24}(your.{0,20})?(quota|limit|request)`,
	`limit.{0,24}(reached|exceeded|hit)`,
)

var broadLimitPatterns = append(append([]string{}, strictLimitPatterns...),
	`(reached|exceeded|hit|exhausted|over).{0,16}(hourly|daily|weekly|monthly).?limit`,
	`(hourly|daily|weekly|monthly).?limit.{0,16}(reached|exceeded|hit|exhausted)`,
	`quota.{0,24}(used|exceeded|reached|exhausted)`,
	`reached.{0,24}your.{0,24}(usage|quota|request|limit)`,
	`exceeded.{0,24}your.{0,24}(usage|quota|request|limit)`,
)

var (
	strongLimitRE = compileAlternation(strongLimitPatterns)
	strictLimitRE = compileAlternation(strictLimitPatterns)
	broadLimitRE  = compileAlternation(broadLimitPatterns)

	explicitExitRE = regexp.MustCompile(`(?i)/exit|/quit`)
	modelRE        = regexp.MustCompile(`(?i)\b(opus|sonnet|haiku)\s+[0-9]+`)

	dateResetRE = regexp.MustCompile(`(?i)resets?\s+(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+(\d{1,2}),?\s+at\s+(\d{1,2})(?::(\d{2}))?\s*([ap]m)(?:\s*\(([A-Za-z_]+(?:/[A-Za-z_+\-]+)+)\))?`)
	hourResetRE = regexp.MustCompile(`(?i)resets?\s+(?:at\s+)?(\d{1,2})(?::(\d{2}))?\s*([ap]m)(?:\s*\(([A-Za-z_]+(?:/[A-Za-z_+\-]+)+)\))?`)
)

var monthIndex = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

func compileAlternation(patterns []string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:` + strings.Join(patterns, `|`) + `)`)
}

type Classification struct {
	RateLimited  bool
	ExplicitExit bool
	// Until is the cooldown expiry when RateLimited is set.
	Until       time.Time
	ResetParsed bool
}

type Classifier struct {
	retry time.Duration
}

func NewClassifier(retry time.Duration) *Classifier {
	if retry <= 0 {
		retry = 15 * time.Minute
	}
	return &Classifier{retry: retry}
}

func (c *Classifier) Retry() time.Duration {
	return c.retry
}

// Classify decides how a finished run ended. sanitized is the full sanitized
// log of the run.
func (c *Classifier) Classify(sanitized string, exitCode int, monitorFlagged bool, now time.Time) Classification {
	if ExplicitExit(sanitized) {
		return Classification{ExplicitExit: true}
	}

	tail := Tail(sanitized, verdictTailLines)
	limited := monitorFlagged
	if !limited {
		if exitCode != 0 {
			limited = broadLimitRE.MatchString(tail)
		} else {
			limited = strictLimitRE.MatchString(tail)
		}
	}
	if !limited {
		return Classification{}
	}

	result := Classification{RateLimited: true, Until: now.Add(c.retry)}
	if resetAt, ok := ParseResetTime(tail, now); ok {
		result.Until = resetAt
		result.ResetParsed = true
	}

	return result
}

// MatchRealtime reports whether the tail of a live log shows a hard limit
// prompt. Only the high-confidence pattern set is consulted.
func MatchRealtime(sanitized string) bool {
	return strongLimitRE.MatchString(Tail(sanitized, realtimeTailLines))
}

// DetectRealtime sanitizes raw PTY output before matching it.
func DetectRealtime(raw string) bool {
	return MatchRealtime(Sanitize(raw))
}

func ExplicitExit(sanitized string) bool {
	return explicitExitRE.MatchString(Tail(sanitized, exitTailLines))
}

// ParseResetTime extracts the reset instant from messages such as
// "resets Feb 20 at 5pm" or "resets 3pm". Only instants after now count.
func ParseResetTime(text string, now time.Time) (time.Time, bool) {
	if match := dateResetRE.FindStringSubmatch(text); match != nil {
		if resetAt, ok := parseDateReset(match, now); ok && resetAt.After(now) {
			return resetAt, true
		}
	}

	if match := hourResetRE.FindStringSubmatch(text); match != nil {
		if resetAt, ok := parseHourReset(match, now); ok && resetAt.After(now) {
			return resetAt, true
		}
	}

	return time.Time{}, false
}

func parseDateReset(match []string, now time.Time) (time.Time, bool) {
	month, ok := monthIndex[strings.ToLower(match[1])]
	if !ok {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(match[2])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}
	hour, minute, ok := clockTime(match[3], match[4], match[5])
	if !ok {
		return time.Time{}, false
	}

	loc := resetLocation(match[6], now)
	resetAt := time.Date(now.In(loc).Year(), month, day, hour, minute, 0, 0, loc)
	if resetAt.Month() != month {
		return time.Time{}, false
	}
	if now.Sub(resetAt) > 24*time.Hour {
		resetAt = time.Date(resetAt.Year()+1, month, day, hour, minute, 0, 0, loc)
	}

	return resetAt, true
}

func parseHourReset(match []string, now time.Time) (time.Time, bool) {
	hour, minute, ok := clockTime(match[1], match[2], match[3])
	if !ok {
		return time.Time{}, false
	}

	loc := resetLocation(match[4], now)
	local := now.In(loc)
	resetAt := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !resetAt.After(now) {
		resetAt = resetAt.AddDate(0, 0, 1)
	}

	return resetAt, true
}

func clockTime(hourText, minuteText, meridiem string) (int, int, bool) {
	hour, err := strconv.Atoi(hourText)
	if err != nil || hour < 1 || hour > 12 {
		return 0, 0, false
	}
	minute := 0
	if minuteText != "" {
		minute, err = strconv.Atoi(minuteText)
		if err != nil || minute > 59 {
			return 0, 0, false
		}
	}

	hour %= 12
	if strings.EqualFold(meridiem, "pm") {
		hour += 12
	}

	return hour, minute, true
}

func resetLocation(name string, now time.Time) *time.Location {
	if name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return now.Location()
}

// InferModel returns the lower-cased model family the agent printed in its
// startup banner, e.g. "opus" for "Opus 4.6 · Claude Max".
func InferModel(sanitized string) string {
	match := modelRE.FindStringSubmatch(Head(sanitized, modelHeadLines))
	if match == nil {
		return ""
	}
	return strings.ToLower(match[1])
}

func (c *Classifier) MatchRealtime(sanitized string) bool {
	return MatchRealtime(sanitized)
}
