package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const fallbackFlag = "--fallback"

var errMissingToValue = errors.New("--to requires a comma separated list of agents")

type fallbackOptions struct {
	list bool
	to   []string
	auto bool
	// start is 1-based; zero means the first entry.
	start int
	args  []string
}

// parseFallbackOptions consumes leading supervisor options. Everything from
// the first unknown token on belongs to the agent.
func parseFallbackOptions(args []string) (fallbackOptions, error) {
	var opts fallbackOptions

	i := 0
	for ; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-l" || arg == "--list":
			opts.list = true
		case arg == "--auto" || arg == "--dangerously-skip-permissions" || arg == "--allow-dangerously-skip-permissions":
			opts.auto = true
		case arg == "--to":
			if i+1 >= len(args) {
				return fallbackOptions{}, errMissingToValue
			}
			i++
			if opts.to = splitAgents(args[i]); len(opts.to) == 0 {
				return fallbackOptions{}, errMissingToValue
			}
		case strings.HasPrefix(arg, "--to="):
			if opts.to = splitAgents(strings.TrimPrefix(arg, "--to=")); len(opts.to) == 0 {
				return fallbackOptions{}, errMissingToValue
			}
		case arg == "--":
			i++
			opts.args = append([]string(nil), args[i:]...)
			return opts, nil
		case isStartIndex(arg):
			n, err := strconv.Atoi(arg[1:])
			if err != nil || n < 1 {
				return fallbackOptions{}, fmt.Errorf("invalid start entry %q", arg)
			}
			opts.start = n
		default:
			opts.args = append([]string(nil), args[i:]...)
			return opts, nil
		}
	}

	return opts, nil
}

func isStartIndex(arg string) bool {
	if len(arg) < 2 || arg[0] != '-' {
		return false
	}
	for _, r := range arg[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func splitAgents(value string) []string {
	var tokens []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			tokens = append(tokens, trimmed)
		}
	}
	return tokens
}
