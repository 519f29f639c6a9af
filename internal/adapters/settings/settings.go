package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "toml"
	configDir  = ".config/agent-fallback"

	configFileEnv = "AFB_CONFIG"

	keyAgents          = "agents"
	keyRetryMinutes    = "retry_minutes"
	keyLogDir          = "log_dir"
	keyAuto            = "auto"
	keyMonitorInterval = "monitor_interval"
	keyMonitorGrace    = "monitor_grace"
	keyExecutables     = "executables"
	keyNestedEnv       = "nested_env"
	keyRelaunch        = "relaunch_while_cooling"
)

type Settings struct {
	Agents               []string
	RetryMinutes         int
	LogDir               string
	Auto                 bool
	MonitorInterval      time.Duration
	MonitorGrace         time.Duration
	Executables          map[string]string
	NestedEnv            map[string]string
	RelaunchWhileCooling bool
	ConfigFile           string
}

func (s Settings) Retry() time.Duration {
	return time.Duration(s.RetryMinutes) * time.Minute
}

// Load reads the config file and the environment into cfg and returns the
// validated settings. A missing config file is not an error.
func Load(cfg *viper.Viper, homeDir string) (Settings, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	cfg.SetConfigType(configType)
	if path := os.Getenv(configFileEnv); path != "" {
		cfg.SetConfigFile(expandHome(path, homeDir))
	} else {
		cfg.SetConfigName(configName)
		if homeDir != "" {
			cfg.AddConfigPath(filepath.Join(homeDir, configDir))
		}
	}

	cfg.SetDefault(keyAgents, []string{"claude", "codex"})
	cfg.SetDefault(keyRetryMinutes, 15)
	cfg.SetDefault(keyLogDir, "")
	cfg.SetDefault(keyAuto, false)
	cfg.SetDefault(keyMonitorInterval, time.Second)
	cfg.SetDefault(keyMonitorGrace, 2*time.Second)
	cfg.SetDefault(keyExecutables, map[string]string{})
	cfg.SetDefault(keyNestedEnv, map[string]string{"claude": "CLAUDECODE"})
	cfg.SetDefault(keyRelaunch, false)

	_ = cfg.BindEnv(keyAgents, "AFB_AGENTS")
	_ = cfg.BindEnv(keyRetryMinutes, "CLAUDE_FALLBACK_RETRY_MINUTES")
	_ = cfg.BindEnv(keyLogDir, "CLAUDE_FALLBACK_LOG_DIR")
	_ = cfg.BindEnv(keyAuto, "CLAUDE_FALLBACK_AUTO")

	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) && !errors.Is(err, os.ErrNotExist) {
			return Settings{}, fmt.Errorf("read config file: %w", err)
		}
	}

	settings := Settings{
		Agents:               agentTokens(cfg.Get(keyAgents)),
		RetryMinutes:         cfg.GetInt(keyRetryMinutes),
		LogDir:               expandHome(strings.TrimSpace(cfg.GetString(keyLogDir)), homeDir),
		Auto:                 cfg.GetBool(keyAuto),
		MonitorInterval:      cfg.GetDuration(keyMonitorInterval),
		MonitorGrace:         cfg.GetDuration(keyMonitorGrace),
		Executables:          cfg.GetStringMapString(keyExecutables),
		NestedEnv:            cfg.GetStringMapString(keyNestedEnv),
		RelaunchWhileCooling: cfg.GetBool(keyRelaunch),
		ConfigFile:           cfg.ConfigFileUsed(),
	}

	if err := settings.validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

func (s Settings) validate() error {
	if len(s.Agents) == 0 {
		return fmt.Errorf("%s must list at least one agent", keyAgents)
	}
	if s.RetryMinutes <= 0 {
		return fmt.Errorf("%s must be positive, got %d", keyRetryMinutes, s.RetryMinutes)
	}
	if s.MonitorInterval <= 0 {
		return fmt.Errorf("%s must be positive", keyMonitorInterval)
	}
	if s.MonitorGrace < 0 {
		return fmt.Errorf("%s must not be negative", keyMonitorGrace)
	}
	return nil
}

// agentTokens accepts a TOML array or a comma separated string from the
// environment.
func agentTokens(raw any) []string {
	var parts []string
	switch value := raw.(type) {
	case string:
		parts = strings.Split(value, ",")
	case []string:
		parts = value
	case []any:
		for _, item := range value {
			parts = append(parts, fmt.Sprint(item))
		}
	}

	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			tokens = append(tokens, trimmed)
		}
	}
	return tokens
}

func expandHome(path, homeDir string) string {
	if homeDir == "" {
		return path
	}
	if path == "~" {
		return homeDir
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
