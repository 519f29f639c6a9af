package git

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/bnema/agent-fallback-cli/internal/domain"
	"github.com/bnema/agent-fallback-cli/internal/ports"
)

var _ ports.WorkTree = (*WorkTree)(nil)

// WorkTree reads git status and diff output for the directory an agent runs in.
type WorkTree struct {
	dir string
}

func NewWorkTree(dir string) *WorkTree {
	return &WorkTree{dir: dir}
}

// Context returns an empty, not-inside context when dir is not a git work
// tree or git is not installed.
func (w *WorkTree) Context(ctx context.Context) (domain.WorkTreeContext, error) {
	inside, err := w.output(ctx, "rev-parse", "--is-inside-work-tree")
	if err != nil || strings.TrimSpace(inside) != "true" {
		return domain.WorkTreeContext{}, nil
	}

	result := domain.WorkTreeContext{Inside: true}
	if result.StagedStat, err = w.output(ctx, "diff", "--cached", "--stat"); err != nil {
		return result, err
	}
	if result.UnstagedStat, err = w.output(ctx, "diff", "--stat"); err != nil {
		return result, err
	}
	// A repository without commits has no HEAD to diff against.
	if result.Diff, err = w.output(ctx, "diff", "HEAD"); err != nil {
		result.Diff = ""
	}

	return result, nil
}

func (w *WorkTree) output(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = w.dir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return strings.TrimRight(string(out), "\n"), nil
}
