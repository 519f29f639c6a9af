package application

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Sanitize removes terminal escape sequences, carriage returns and the
// remaining C0 control characters from raw PTY output. Newlines and tabs
// survive.
func Sanitize(raw string) string {
	stripped := ansi.Strip(raw)

	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r == '\r':
			return -1
		case r < 0x20:
			return -1
		default:
			return r
		}
	}, stripped)
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// TailLines returns at most the last n lines of text.
func TailLines(text string, n int) []string {
	lines := splitLines(text)
	if n <= 0 || len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}

func HeadLines(text string, n int) []string {
	lines := splitLines(text)
	if n <= 0 || len(lines) <= n {
		return lines
	}
	return lines[:n]
}

func Tail(text string, n int) string {
	return strings.Join(TailLines(text, n), "\n")
}

func Head(text string, n int) string {
	return strings.Join(HeadLines(text, n), "\n")
}

// SanitizeLines sanitizes raw output and splits it into lines.
func SanitizeLines(raw string) []string {
	return splitLines(Sanitize(raw))
}
