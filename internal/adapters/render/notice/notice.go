package notice

import (
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/agent-fallback-cli/internal/domain"
)

const prefix = "[afb]"

type styles struct {
	prefix  lipgloss.Style
	agent   lipgloss.Style
	info    lipgloss.Style
	warning lipgloss.Style
	path    lipgloss.Style
}

func newStyles() styles {
	return styles{
		prefix:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("241")),
		agent:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		info:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		warning: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		path:    lipgloss.NewStyle().Faint(true),
	}
}

// Writer prints supervisor notices as single lines. Each line starts with a
// carriage return so it lands at column zero after a raw-mode child.
type Writer struct {
	mu     sync.Mutex
	out    io.Writer
	styles styles
}

func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out, styles: newStyles()}
}

func (w *Writer) Notify(n domain.Notice) {
	msg := w.Format(n)
	if msg == "" {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	_, _ = fmt.Fprintf(w.out, "\r%s %s\r\n", w.styles.prefix.Render(prefix), msg)
}

func (w *Writer) Format(n domain.Notice) string {
	s := w.styles
	agent := s.agent.Render(n.Entry.Display())
	target := s.agent.Render(n.Target.Display())

	switch n.Kind {
	case domain.NoticeStarting:
		return s.info.Render("Starting ") + agent + s.info.Render("...")
	case domain.NoticeSkipCooldown:
		return agent + s.info.Render(fmt.Sprintf(" is cooling down (%s left), skipping", formatDuration(n.Remaining)))
	case domain.NoticeSkipNested:
		return agent + s.info.Render(" is the enclosing session, skipping")
	case domain.NoticeSkipMissing:
		return agent + s.warning.Render(" is not installed, skipping")
	case domain.NoticeRateLimited:
		msg := fmt.Sprintf(" hit a usage limit, cooling down for %s", formatDuration(n.Remaining))
		if n.ResetParsed {
			msg = fmt.Sprintf(" hit a usage limit, resets at %s", n.Until.Local().Format("15:04"))
		}
		return agent + s.warning.Render(msg) + s.info.Render(", switching to next agent")
	case domain.NoticeFailed:
		if n.ExitCode < 0 {
			return agent + s.warning.Render(" could not be started, trying next agent")
		}
		return agent + s.warning.Render(fmt.Sprintf(" exited with code %d, trying next agent", n.ExitCode))
	case domain.NoticeHandoff:
		return s.info.Render("Handoff written to ") + s.path.Render(n.Path)
	case domain.NoticeArchived:
		return s.info.Render("Session log archived to ") + s.path.Render(n.Path)
	case domain.NoticeSwitchBack:
		return target + s.info.Render(" is available again, switching back from ") + agent
	case domain.NoticeRelaunch:
		return target + s.info.Render(fmt.Sprintf(" still cooling down (%s left), relaunching ", formatDuration(n.Remaining))) + agent
	case domain.NoticeWaiting:
		return s.info.Render("All agents are cooling down, waiting for ") + agent +
			s.info.Render(fmt.Sprintf(" (%s)", formatDuration(n.Remaining)))
	case domain.NoticeExhausted:
		return s.warning.Render("All agents exhausted")
	case domain.NoticeExplicitExit:
		return agent + s.info.Render(" session ended")
	default:
		return ""
	}
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0m"
	}
	minutes := int(math.Ceil(d.Minutes()))
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	hours, rest := minutes/60, minutes%60
	if rest == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh%02dm", hours, rest)
}
