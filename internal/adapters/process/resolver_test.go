package process

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/agent-fallback-cli/internal/domain"
)

func TestResolverPrefersOverride(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bin := filepath.Join(dir, "claude")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755))

	resolver := NewResolver(map[string]string{"claude": bin})
	resolver.lookPath = func(string) (string, error) { return "/usr/bin/claude", nil }

	path, err := resolver.Resolve("claude")
	require.NoError(t, err)
	assert.Equal(t, bin, path)

	path, err = resolver.Resolve("codex")
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/claude", path)
}

func TestResolverReportsMissingExecutable(t *testing.T) {
	t.Parallel()

	resolver := NewResolver(map[string]string{"codex": filepath.Join(t.TempDir(), "codex")})
	resolver.lookPath = func(string) (string, error) { return "", errors.New("not found") }

	_, err := resolver.Resolve("codex")
	assert.ErrorIs(t, err, domain.ErrExecutableNotFound)

	_, err = resolver.Resolve("gemini")
	assert.ErrorIs(t, err, domain.ErrExecutableNotFound)
}
