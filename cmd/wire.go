package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	noticeadapter "github.com/bnema/agent-fallback-cli/internal/adapters/render/notice"
	statusadapter "github.com/bnema/agent-fallback-cli/internal/adapters/render/status"
	tomlrepo "github.com/bnema/agent-fallback-cli/internal/adapters/repo/toml"
	"github.com/bnema/agent-fallback-cli/internal/adapters/process"
	"github.com/bnema/agent-fallback-cli/internal/adapters/session"
	"github.com/bnema/agent-fallback-cli/internal/adapters/settings"
	"github.com/bnema/agent-fallback-cli/internal/adapters/vcs/git"
	"github.com/bnema/agent-fallback-cli/internal/application"
	"github.com/bnema/agent-fallback-cli/internal/domain"
	"github.com/bnema/agent-fallback-cli/internal/ports"
)

const diagnosticsLogName = "afb.log"

type app struct {
	settings         settings.Settings
	workDir          string
	logger           *slog.Logger
	resolver         *process.Resolver
	snapshots        ports.CooldownRepository
	session          *session.ProjectSession
	roster           *application.Roster
	statusRenderer   func([]application.AgentStatus, statusadapter.RenderOptions) (string, error)
	cooldownRenderer func(domain.CooldownSnapshot, statusadapter.RenderOptions) (string, error)
	stdin            *os.File
	now              func() time.Time
}

func wireApp() (*app, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	workDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}

	cfg, err := settings.Load(viper.New(), homeDir)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	logger, err := newDiagnosticsLogger(cfg.LogDir)
	if err != nil {
		return nil, fmt.Errorf("open diagnostics log: %w", err)
	}

	var snapshots ports.CooldownRepository
	if cfg.LogDir != "" {
		repoCfg := viper.New()
		repoCfg.Set("log_dir", cfg.LogDir)
		repo, err := tomlrepo.NewRepository(repoCfg)
		if err != nil {
			return nil, fmt.Errorf("wire cooldown repository: %w", err)
		}
		snapshots = repo
	}

	resolver := process.NewResolver(cfg.Executables)

	return &app{
		settings:         cfg,
		workDir:          workDir,
		logger:           logger,
		resolver:         resolver,
		snapshots:        snapshots,
		session:          session.NewProjectSession(homeDir, workDir),
		roster:           application.NewRoster(resolver, snapshots, cfg.NestedEnv),
		statusRenderer:   statusadapter.Render,
		cooldownRenderer: statusadapter.RenderCooldowns,
		stdin:            os.Stdin,
		now:              time.Now,
	}, nil
}

// newDiagnosticsLogger keeps structured logs off the terminal the agents
// draw on.
func newDiagnosticsLogger(logDir string) (*slog.Logger, error) {
	if logDir == "" {
		return slog.New(slog.DiscardHandler), nil
	}
	if err := os.MkdirAll(logDir, 0o700); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(filepath.Join(logDir, diagnosticsLogName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, err
	}

	return slog.New(slog.NewTextHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})), nil
}

func (a *app) entries(extra []string) ([]domain.AgentEntry, error) {
	configured, err := domain.ParseEntries(a.settings.Agents)
	if err != nil {
		return nil, err
	}
	if len(extra) == 0 {
		return configured, nil
	}

	chosen, err := domain.ParseEntries(extra)
	if err != nil {
		return nil, fmt.Errorf("parse --to entries: %w", err)
	}
	return append([]domain.AgentEntry{configured[0]}, chosen...), nil
}

// newSupervisor assembles a supervisor whose children draw on stdout and
// whose notices go to stderr.
func (a *app) newSupervisor(primaryBase string, stdout, stderr io.Writer) *application.Supervisor {
	clock := ports.SystemClock{}
	classifier := application.NewClassifier(a.settings.Retry())

	monitor := process.NewMonitor(
		application.DetectRealtime,
		process.WithPollInterval(a.settings.MonitorInterval),
		process.WithGracePeriod(a.settings.MonitorGrace),
	)
	runner := process.NewRunner(
		process.WithStdio(a.stdin, stdout),
		process.WithMonitor(monitor),
		process.WithLogger(a.logger),
	)

	workDirName := filepath.Base(a.workDir)

	return application.NewSupervisor(application.SupervisorConfig{
		Runner:     runner,
		Resolver:   a.resolver,
		Classifier: classifier,
		Cooldowns:  application.NewCooldownStore(a.snapshots, clock, a.logger),
		Handoffs: application.NewHandoffBuilder(application.HandoffBuilderConfig{
			PrimaryBase: primaryBase,
			LogDir:      a.settings.LogDir,
			WorkDirName: workDirName,
			Session:     a.session,
			WorkTree:    git.NewWorkTree(a.workDir),
			Clock:       clock,
			Logger:      a.logger,
		}),
		Archiver:    application.NewArchiver(a.settings.LogDir, primaryBase),
		Notifier:    noticeadapter.NewWriter(stderr),
		Waiter:      newSpinnerWaiter(stderr),
		Session:     a.session,
		Clock:       clock,
		Logger:      a.logger,
		WorkDirName: workDirName,
		NestedEnv:   a.settings.NestedEnv,
		TempDir:     envOrDefault("AFB_TMPDIR", os.TempDir()),
	})
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
