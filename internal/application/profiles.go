package application

import (
	"strings"

	"github.com/bnema/agent-fallback-cli/internal/domain"
)

// AgentProfile describes how arguments are shaped for one base agent.
type AgentProfile struct {
	ModelFlag string
	AutoArgs  []string
	// Headless builds a non-interactive invocation when a prompt exists.
	Headless func(prompt string) []string
	// Interactive replaces empty arguments.
	Interactive []string
}

var defaultProfiles = map[string]AgentProfile{
	"claude": {
		ModelFlag: "--model",
		AutoArgs:  []string{"--dangerously-skip-permissions"},
	},
	"codex": {
		ModelFlag: "-m",
		Headless: func(prompt string) []string {
			return []string{"exec", "-c", "approval_policy='never'", "-s", "workspace-write", prompt}
		},
		Interactive: []string{"--yolo", "--no-alt-screen"},
	},
	"gemini": {
		ModelFlag: "-m",
		AutoArgs:  []string{"--yolo"},
	},
}

func ProfileFor(base string) AgentProfile {
	return defaultProfiles[base]
}

// BuildArgs shapes the final argument vector for entry. args is either the
// user's original arguments or a single injected handoff prompt.
func BuildArgs(entry domain.AgentEntry, args []string, auto bool) []string {
	profile := ProfileFor(entry.Base)

	run := append([]string{}, args...)
	switch {
	case len(run) > 0 && profile.Headless != nil:
		run = profile.Headless(strings.Join(run, " "))
	case len(run) == 0 && profile.Interactive != nil:
		run = append(run, profile.Interactive...)
	}

	if auto && len(profile.AutoArgs) > 0 {
		run = append(append([]string{}, profile.AutoArgs...), run...)
	}
	if entry.HasVariant() && profile.ModelFlag != "" {
		run = append([]string{profile.ModelFlag, entry.Variant}, run...)
	}

	return run
}

const interactiveTask = "interactive session"

func originalTask(args []string) string {
	task := strings.TrimSpace(strings.Join(args, " "))
	if task == "" {
		return interactiveTask
	}
	return task
}

// HandoffPrompt returns the prompt injected into the next run, or nil when the
// original arguments should be used unchanged. reverse reports whether a
// pending reverse handoff was consumed.
func HandoffPrompt(target domain.AgentEntry, primaryBase string, doc *domain.HandoffDocument, args []string, reversePending bool) (prompt []string, reverse bool) {
	if doc == nil || doc.Path == "" {
		return nil, false
	}

	switch {
	case target.Base != primaryBase:
		return []string{forwardPrompt(primaryBase, originalTask(args), doc.Path)}, false
	case reversePending:
		return []string{reversePrompt(originalTask(args), doc.Path)}, true
	case target.HasVariant() && len(args) == 0:
		return []string{forwardPrompt(primaryBase, interactiveTask, doc.Path)}, false
	default:
		return nil, false
	}
}

func forwardPrompt(primaryBase, task, path string) string {
	return "The previous " + primaryBase + " session was interrupted by a rate limit. " +
		"Original task: " + task + ". " +
		"Detailed context (session log, git diff) is saved in " + path + ". " +
		"Read that file first, then continue the work."
}

func reversePrompt(task, path string) string {
	return "Work was continued by a fallback agent. " +
		"Original task: " + task + ". " +
		"Detailed context (session log, git diff) is saved in " + path + ". " +
		"Read that file first, then continue the work."
}
