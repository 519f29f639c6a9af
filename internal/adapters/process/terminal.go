package process

import (
	"io"
	"os"

	"golang.org/x/term"
)

// TerminalGuard captures the line discipline of a terminal so it can be put
// back after a child ran on a pseudo-terminal, however that child ended.
type TerminalGuard struct {
	fd    int
	state *term.State
	out   io.Writer
}

// CaptureTerminal records the current state of in. A guard over a file that is
// not a terminal is inert.
func CaptureTerminal(in *os.File, out io.Writer) *TerminalGuard {
	guard := &TerminalGuard{fd: -1, out: out}
	if in == nil {
		return guard
	}

	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return guard
	}
	state, err := term.GetState(fd)
	if err != nil {
		return guard
	}

	guard.fd = fd
	guard.state = state
	return guard
}

func (g *TerminalGuard) IsTerminal() bool {
	return g != nil && g.state != nil
}

func (g *TerminalGuard) MakeRaw() error {
	if !g.IsTerminal() {
		return nil
	}
	_, err := term.MakeRaw(g.fd)
	return err
}

// Restore puts back the captured state, resets text attributes and shows the
// cursor. It is safe to call more than once.
func (g *TerminalGuard) Restore() {
	if !g.IsTerminal() {
		return
	}
	_ = term.Restore(g.fd, g.state)
	if g.out != nil {
		_, _ = io.WriteString(g.out, "\x1b[0m\x1b[?25h")
	}
}
