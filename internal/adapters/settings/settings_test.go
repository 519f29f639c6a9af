package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, home, content string) {
	t.Helper()
	dir := filepath.Join(home, ".config", "agent-fallback")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o600))
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"AFB_CONFIG", "AFB_AGENTS", "CLAUDE_FALLBACK_RETRY_MINUTES", "CLAUDE_FALLBACK_LOG_DIR", "CLAUDE_FALLBACK_AUTO"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	got, err := Load(viper.New(), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, []string{"claude", "codex"}, got.Agents)
	assert.Equal(t, 15, got.RetryMinutes)
	assert.Equal(t, 15*time.Minute, got.Retry())
	assert.Empty(t, got.LogDir)
	assert.False(t, got.Auto)
	assert.Equal(t, time.Second, got.MonitorInterval)
	assert.Equal(t, 2*time.Second, got.MonitorGrace)
	assert.Equal(t, map[string]string{"claude": "CLAUDECODE"}, got.NestedEnv)
	assert.False(t, got.RelaunchWhileCooling)
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)

	home := t.TempDir()
	writeConfig(t, home, `
agents = ["claude:opus", "claude:sonnet", "codex"]
retry_minutes = 30
log_dir = "~/logs/fallback"
monitor_interval = "500ms"
relaunch_while_cooling = true

[executables]
codex = "/opt/codex/bin/codex"
`)

	got, err := Load(viper.New(), home)
	require.NoError(t, err)

	assert.Equal(t, []string{"claude:opus", "claude:sonnet", "codex"}, got.Agents)
	assert.Equal(t, 30, got.RetryMinutes)
	assert.Equal(t, filepath.Join(home, "logs", "fallback"), got.LogDir)
	assert.Equal(t, 500*time.Millisecond, got.MonitorInterval)
	assert.True(t, got.RelaunchWhileCooling)
	assert.Equal(t, "/opt/codex/bin/codex", got.Executables["codex"])
	assert.NotEmpty(t, got.ConfigFile)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	clearEnv(t)

	home := t.TempDir()
	writeConfig(t, home, "retry_minutes = 30\n")
	t.Setenv("AFB_AGENTS", "codex, claude:haiku")
	t.Setenv("CLAUDE_FALLBACK_RETRY_MINUTES", "5")
	t.Setenv("CLAUDE_FALLBACK_LOG_DIR", "~/fb")
	t.Setenv("CLAUDE_FALLBACK_AUTO", "1")

	got, err := Load(viper.New(), home)
	require.NoError(t, err)

	assert.Equal(t, []string{"codex", "claude:haiku"}, got.Agents)
	assert.Equal(t, 5, got.RetryMinutes)
	assert.Equal(t, filepath.Join(home, "fb"), got.LogDir)
	assert.True(t, got.Auto)
}

func TestLoadExplicitConfigFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "afb.toml")
	require.NoError(t, os.WriteFile(path, []byte("agents = [\"gemini\"]\n"), 0o600))
	t.Setenv("AFB_CONFIG", path)

	got, err := Load(viper.New(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, []string{"gemini"}, got.Agents)
}

func TestLoadValidation(t *testing.T) {
	clearEnv(t)

	home := t.TempDir()
	writeConfig(t, home, "retry_minutes = 0\n")

	_, err := Load(viper.New(), home)
	assert.ErrorContains(t, err, "retry_minutes must be positive")
}

func TestLoadRejectsMalformedConfig(t *testing.T) {
	clearEnv(t)

	home := t.TempDir()
	writeConfig(t, home, "agents = [\n")

	_, err := Load(viper.New(), home)
	assert.ErrorContains(t, err, "read config file")
}
