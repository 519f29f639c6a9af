package process

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/bnema/agent-fallback-cli/internal/domain"
	"github.com/bnema/agent-fallback-cli/internal/ports"
)

var _ ports.ExecutableResolver = (*Resolver)(nil)

// Resolver finds agent executables, preferring configured paths over PATH.
type Resolver struct {
	overrides map[string]string
	lookPath  func(string) (string, error)
}

func NewResolver(overrides map[string]string) *Resolver {
	return &Resolver{overrides: overrides, lookPath: exec.LookPath}
}

func (r *Resolver) Resolve(base string) (string, error) {
	if path := strings.TrimSpace(r.overrides[base]); path != "" {
		path = expandHome(path)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || info.Mode().Perm()&0o111 == 0 {
			return "", fmt.Errorf("resolve %s at %s: %w", base, path, domain.ErrExecutableNotFound)
		}
		return path, nil
	}

	path, err := r.lookPath(base)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", base, domain.ErrExecutableNotFound)
	}
	return path, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
