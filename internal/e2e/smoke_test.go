package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)
	writeConfig(t, home, `agents = ["primary", "backup"]`)

	stdout, stderr, err := runAFB(t, binaryPath, home, "version")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.NotEmpty(t, stdout)

	stdout, stderr, err = runAFB(t, binaryPath, home, "agents")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "1. primary")
	assert.Contains(t, stdout, "2. backup")
}

func TestSmokeFallbackHandsTaskToBackup(t *testing.T) {
	if _, err := os.Stat("/dev/ptmx"); err != nil {
		t.Skip("pseudo-terminals are not available")
	}

	home := t.TempDir()
	binaryPath := buildBinary(t)
	primary := writeScript(t, home, "primary", `echo "Error: too many requests"
exit 1`)
	backup := writeScript(t, home, "backup", `echo "backup got: $*"
exit 0`)
	writeConfig(t, home, `agents = ["primary", "backup"]
log_dir = "~/logs"
monitor_grace = "5s"

[executables]
primary = "`+primary+`"
backup = "`+backup+`"
`)

	stdout, stderr, err := runAFB(t, binaryPath, home, "run", "--fallback", "fix", "the", "build")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "too many requests")
	assert.Contains(t, stdout, "backup got: The previous primary session was interrupted by a rate limit")
	assert.Contains(t, stdout, "Original task: fix the build")
	assert.Contains(t, stderr, "primary hit a usage limit")

	handoffs, err := filepath.Glob(filepath.Join(home, "logs", "*_handoff.md"))
	require.NoError(t, err)
	assert.Len(t, handoffs, 1)

	stdout, stderr, err = runAFB(t, binaryPath, home, "cooldowns")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.Contains(t, stdout, "primary")
	assert.Contains(t, stdout, "cooling")
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "afb-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/afb")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build afb binary: %s", string(output))
	return binaryPath
}

func runAFB(t *testing.T, binaryPath, home string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = home
	cmd.Env = append(os.Environ(),
		"HOME="+home,
		"AFB_CONFIG=",
		"AFB_AGENTS=",
		"CLAUDE_FALLBACK_LOG_DIR=",
		"CLAUDE_FALLBACK_RETRY_MINUTES=",
	)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}

func writeConfig(t *testing.T, home, content string) {
	t.Helper()
	dir := filepath.Join(home, ".config", "agent-fallback")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644))
}

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}
