package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain text", input: "hello world\n", want: "hello world\n"},
		{name: "sgr colors", input: "\x1b[31mred\x1b[0m text", want: "red text"},
		{name: "cursor movement", input: "\x1b[2K\x1b[1Gline", want: "line"},
		{name: "private mode toggles", input: "\x1b[?25lhidden\x1b[?25h", want: "hidden"},
		{name: "osc title with bell", input: "\x1b]0;title\x07body", want: "body"},
		{name: "osc hyperlink with st", input: "\x1b]8;;https://example.com\x1b\\link\x1b]8;;\x1b\\", want: "link"},
		{name: "charset designation", input: "\x1b(Bascii", want: "ascii"},
		{name: "carriage returns", input: "one\r\ntwo\r\n", want: "one\ntwo\n"},
		{name: "control characters", input: "a\x00b\x07c\x0bd\x0ce\x1ff\tg", want: "abcdef\tg"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, Sanitize(tc.input))
		})
	}
}

func TestSanitizeIsIdempotent(t *testing.T) {
	t.Parallel()

	raw := "\x1b[1;32m✓\x1b[0m done\r\n\x1b]0;x\x07\x1b(Bnext\x08\n"
	once := Sanitize(raw)

	assert.Equal(t, once, Sanitize(once))
}

func TestTailAndHead(t *testing.T) {
	t.Parallel()

	text := "1\n2\n3\n4\n5\n"

	assert.Equal(t, []string{"4", "5"}, TailLines(text, 2))
	assert.Equal(t, []string{"1", "2"}, HeadLines(text, 2))
	assert.Equal(t, "1\n2\n3\n4\n5", Tail(text, 10))
	assert.Empty(t, TailLines("", 3))
}
