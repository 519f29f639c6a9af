package status

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/agent-fallback-cli/internal/application"
	"github.com/bnema/agent-fallback-cli/internal/domain"
)

type RenderOptions struct {
	Now time.Time
	// Retry is the cooldown length used to scale bars and colors.
	Retry time.Duration
}

func renderAgents(statuses []application.AgentStatus, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Fallback Agents"),
		s.header.Render(fmt.Sprintf("agents: %d", len(statuses))),
	}

	if len(statuses) == 0 {
		lines = append(lines, s.empty.Render("No agents configured."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, status := range statuses {
		lines = append(lines, agentLine(status, opts, s))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func agentLine(status application.AgentStatus, opts RenderOptions, s styles) string {
	parts := []string{
		s.position.Render(fmt.Sprintf("%d.", status.Position)),
		" ",
		s.agent.Render(status.Entry.Display()),
	}

	if status.Installed {
		parts = append(parts, "  ", s.detail.Render(status.Executable))
	} else {
		parts = append(parts, "  ", s.warning.Render("not installed"))
	}

	if status.Nested {
		parts = append(parts, " ", s.meta.Render("[nested]"))
	}

	if status.Cooling(opts.Now) {
		parts = append(parts, "  ", cooldownMeta(status.CooldownUntil, opts, s))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func renderCooldowns(snapshot domain.CooldownSnapshot, opts RenderOptions, s styles) string {
	lines := []string{s.title.Render("Agent Cooldowns")}
	if !snapshot.UpdatedAt.IsZero() {
		lines = append(lines, s.header.Render("updated: "+formatResetAt(snapshot.UpdatedAt, opts.Now)))
	}

	if len(snapshot.Records) == 0 {
		lines = append(lines, s.empty.Render("No agents cooling down."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, record := range snapshot.Records {
		label := s.agent.Render(record.Token)
		var state string
		if opts.Now.IsZero() || opts.Now.Before(record.Until) {
			state = cooldownMeta(record.Until, opts, s)
		} else {
			state = s.ready.Render("available")
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, label, "  ", state))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func cooldownMeta(until time.Time, opts RenderOptions, s styles) string {
	parts := []string{s.warning.Render("cooling")}

	if opts.Retry > 0 && !opts.Now.IsZero() {
		remaining := until.Sub(opts.Now)
		leftPercent := 100 * remaining.Seconds() / opts.Retry.Seconds()
		parts = append(parts, " ", renderProgressBar(100-leftPercent, 16, s))
	}

	resetStyle := lipgloss.NewStyle().Foreground(resetTimeColor(until, opts.Now, opts.Retry))
	parts = append(parts, " ", resetStyle.Render(fmt.Sprintf("(%s)", formatResetRelative(until, opts.Now))))

	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// renderProgressBar fills the bar with the share of the cooldown still left.
func renderProgressBar(elapsedPercent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	elapsed := clampPercent(elapsedPercent)
	leftFraction := (100.0 - elapsed) / 100.0
	filled := int(math.Round(float64(width) * leftFraction))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	empty := width - filled
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", empty)),
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func formatResetAt(resetsAt, now time.Time) string {
	if resetsAt.IsZero() {
		return "unknown"
	}
	if now.IsZero() {
		return resetsAt.Format(time.RFC3339)
	}

	yearA, monthA, dayA := now.Date()
	yearB, monthB, dayB := resetsAt.Date()
	if yearA == yearB && monthA == monthB && dayA == dayB {
		return resetsAt.Format("15:04")
	}

	return resetsAt.Format("15:04 on 02 Jan")
}

func formatResetRelative(resetsAt, now time.Time) string {
	if now.IsZero() {
		return "resets " + formatResetAt(resetsAt, now)
	}

	if resetsAt.Before(now) {
		return "reset now"
	}

	remaining := resetsAt.Sub(now)
	if remaining < time.Hour {
		minutes := int(math.Ceil(remaining.Minutes()))
		if minutes < 1 {
			minutes = 1
		}
		return fmt.Sprintf("resets in %d %s (%s)", minutes, plural(minutes, "minute"), resetsAt.Format("15:04"))
	}

	if remaining < 24*time.Hour {
		hours := int(math.Ceil(remaining.Hours()))
		return fmt.Sprintf("resets in %d %s (%s)", hours, plural(hours, "hour"), resetsAt.Format("15:04"))
	}

	days := int(math.Ceil(remaining.Hours() / 24))
	return fmt.Sprintf("resets in %d %s (%s)", days, plural(days, "day"), resetsAt.Format("15:04 on 02 Jan"))
}

func plural(n int, unit string) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}

func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	// ANSI 256 greyscale ramp: 240 (faded) to 255 (bright white).
	baseColor := 240.0
	targetColor := 255.0
	interpolated := baseColor + (targetColor-baseColor)*normalized

	return lipgloss.Color(fmt.Sprintf("%d", int(interpolated)))
}

// resetTimeColor brightens as the cooldown nears its end.
func resetTimeColor(until, now time.Time, window time.Duration) lipgloss.Color {
	if now.IsZero() || until.Before(now) {
		return lipgloss.Color("255")
	}
	if window <= 0 {
		window = time.Hour
	}

	inverted := window.Seconds() - until.Sub(now).Seconds()
	return interpolateColor(inverted, 0, window.Seconds())
}
