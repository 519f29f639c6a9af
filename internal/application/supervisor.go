package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/bnema/agent-fallback-cli/internal/domain"
	"github.com/bnema/agent-fallback-cli/internal/ports"
)

type SupervisorConfig struct {
	Runner     ports.ProcessRunner
	Resolver   ports.ExecutableResolver
	Classifier *Classifier
	Cooldowns  *CooldownStore
	Handoffs   *HandoffBuilder
	Archiver   *Archiver
	Notifier   ports.Notifier
	Waiter     ports.Waiter
	Session    ports.SessionIDSource
	Clock      ports.Clock
	Logger     *slog.Logger
	// WorkDirName names archives and durable handoff documents.
	WorkDirName string
	// NestedEnv maps a base agent to the environment variable that is set
	// while running inside that agent.
	NestedEnv map[string]string
	Getenv    func(string) string
	TempDir   string
}

type Supervisor struct {
	runner      ports.ProcessRunner
	resolver    ports.ExecutableResolver
	classifier  *Classifier
	cooldowns   *CooldownStore
	handoffs    *HandoffBuilder
	archiver    *Archiver
	notifier    ports.Notifier
	waiter      ports.Waiter
	session     ports.SessionIDSource
	clock       ports.Clock
	logger      *slog.Logger
	workDirName string
	nestedEnv   map[string]string
	getenv      func(string) string
	tempDir     string
}

func NewSupervisor(cfg SupervisorConfig) *Supervisor {
	if cfg.Clock == nil {
		cfg.Clock = ports.SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Classifier == nil {
		cfg.Classifier = NewClassifier(0)
	}
	if cfg.Cooldowns == nil {
		cfg.Cooldowns = NewCooldownStore(nil, cfg.Clock, cfg.Logger)
	}
	if cfg.Getenv == nil {
		cfg.Getenv = os.Getenv
	}
	if cfg.Notifier == nil {
		cfg.Notifier = discardNotifier{}
	}

	return &Supervisor{
		runner:      cfg.Runner,
		resolver:    cfg.Resolver,
		classifier:  cfg.Classifier,
		cooldowns:   cfg.Cooldowns,
		handoffs:    cfg.Handoffs,
		archiver:    cfg.Archiver,
		notifier:    cfg.Notifier,
		waiter:      cfg.Waiter,
		session:     cfg.Session,
		clock:       cfg.Clock,
		logger:      cfg.Logger,
		workDirName: cfg.WorkDirName,
		nestedEnv:   cfg.NestedEnv,
		getenv:      cfg.Getenv,
		tempDir:     cfg.TempDir,
	}
}

type RunOptions struct {
	Entries    []domain.AgentEntry
	StartIndex int
	Args       []string
	Auto       bool
	// RelaunchWhileCooling restarts a fallback that exited cleanly while a
	// primary entry is still cooling down.
	RelaunchWhileCooling bool
}

type Report struct {
	State        domain.SupervisorState
	Runs         int
	Final        domain.AgentEntry
	ExplicitExit bool
	Handoffs     []string
	Archives     []string
}

// loopState is threaded through every pass of the supervisor loop.
type loopState struct {
	state          domain.SupervisorState
	start          int
	primaryBase    string
	handoff        *domain.HandoffDocument
	reversePending bool
}

type stepKind int

const (
	stepNext stepKind = iota
	stepRestart
	stepDone
)

type step struct {
	kind  stepKind
	index int
}

// Run drives the entries until one finishes cleanly, the user exits on
// purpose, or no entry can recover.
func (s *Supervisor) Run(ctx context.Context, opts RunOptions) (Report, error) {
	if len(opts.Entries) == 0 {
		return Report{}, domain.ErrNoEntries
	}
	if opts.StartIndex < 0 || opts.StartIndex >= len(opts.Entries) {
		return Report{}, fmt.Errorf("start entry %d out of range (1-%d)", opts.StartIndex+1, len(opts.Entries))
	}

	st := &loopState{
		state:       domain.StateIdle,
		start:       opts.StartIndex,
		primaryBase: opts.Entries[0].Base,
	}
	report := Report{State: domain.StateIdle}

	for {
		if err := ctx.Err(); err != nil {
			s.discardHandoff(st)
			report.State = st.state
			return report, err
		}

		next, err := s.pass(ctx, opts, st, &report)
		if err != nil {
			s.discardHandoff(st)
			report.State = st.state
			return report, err
		}
		switch next.kind {
		case stepDone:
			st.state = domain.StateDone
			report.State = st.state
			return report, nil
		case stepRestart:
			st.start = next.index
			continue
		}

		now := s.clock.Now()
		if index, ok := s.cooldowns.FirstExpired(opts.Entries, now); ok {
			s.logger.Info("cooldown already expired", "entry", opts.Entries[index].Token())
			st.start = index
			continue
		}

		index, until, ok := s.cooldowns.Soonest(opts.Entries, now)
		if !ok {
			st.state = domain.StateExhausted
			report.State = st.state
			s.notifier.Notify(domain.Notice{Kind: domain.NoticeExhausted})
			s.logger.Warn("all entries exhausted", "runs", report.Runs)
			s.discardHandoff(st)
			return report, domain.ErrAllExhausted
		}

		st.state = domain.StateCooling
		wait := until.Sub(now)
		s.notifier.Notify(domain.Notice{Kind: domain.NoticeWaiting, Entry: opts.Entries[index], Until: until, Remaining: wait})
		s.logger.Info("waiting for cooldown", "entry", opts.Entries[index].Token(), "wait", wait)
		if s.waiter != nil {
			if err := s.waiter.Wait(ctx, wait); err != nil {
				s.discardHandoff(st)
				report.State = st.state
				return report, err
			}
		}
		st.start = index
	}
}

func (s *Supervisor) pass(ctx context.Context, opts RunOptions, st *loopState, report *Report) (step, error) {
	for i := st.start; i < len(opts.Entries); i++ {
		entry := opts.Entries[i]
		now := s.clock.Now()

		if !s.cooldowns.IsAvailable(entry, now) {
			s.notifier.Notify(domain.Notice{Kind: domain.NoticeSkipCooldown, Entry: entry, Remaining: s.cooldowns.Remaining(entry, now)})
			continue
		}
		if s.nested(entry) {
			s.spendExpired(ctx, entry, now)
			s.logger.Info("skip entry", "entry", entry.Token(), "reason", domain.ErrNestedSession)
			s.notifier.Notify(domain.Notice{Kind: domain.NoticeSkipNested, Entry: entry})
			continue
		}
		executable, err := s.resolver.Resolve(entry.Base)
		if err != nil {
			s.spendExpired(ctx, entry, now)
			s.logger.Info("skip entry", "entry", entry.Token(), "reason", err)
			s.notifier.Notify(domain.Notice{Kind: domain.NoticeSkipMissing, Entry: entry})
			continue
		}

		next, err := s.attempt(ctx, i, entry, executable, opts, st, report)
		if err != nil {
			return step{}, err
		}
		if next.kind != stepNext {
			return next, nil
		}
	}

	return step{kind: stepNext}, nil
}

func (s *Supervisor) attempt(ctx context.Context, index int, entry domain.AgentEntry, executable string, opts RunOptions, st *loopState, report *Report) (step, error) {
	runArgs := opts.Args
	prompt, consumedReverse := HandoffPrompt(entry, st.primaryBase, st.handoff, opts.Args, st.reversePending)
	if prompt != nil {
		runArgs = prompt
	}
	if consumedReverse {
		st.reversePending = false
	}

	logPath, err := s.newLogPath(entry)
	if err != nil {
		return step{}, err
	}
	defer func() {
		_ = os.Remove(logPath)
	}()

	st.state = domain.StateRunning
	report.Runs++
	s.notifier.Notify(domain.Notice{Kind: domain.NoticeStarting, Entry: entry})
	s.logger.Info("start entry", "entry", entry.Token(), "executable", executable)

	outcome, err := s.runner.Run(ctx, ports.RunRequest{
		Entry:      entry,
		Executable: executable,
		Args:       BuildArgs(entry, runArgs, opts.Auto),
		LogPath:    logPath,
		Monitor:    entry.Base == st.primaryBase,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return step{}, ctxErr
		}
		s.spendExpired(ctx, entry, s.clock.Now())
		s.logger.Error("run entry", "entry", entry.Token(), "error", err)
		s.notifier.Notify(domain.Notice{Kind: domain.NoticeFailed, Entry: entry, ExitCode: -1})
		return step{kind: stepNext}, nil
	}

	sanitized, err := sanitizeLogFile(logPath)
	if err != nil {
		s.logger.Warn("sanitize session log", "entry", entry.Token(), "error", err)
	}

	now := s.clock.Now()
	verdict := s.classifier.Classify(sanitized, outcome.ExitCode, outcome.MonitorFlagged, now)
	result := domain.RunResult{
		Entry:          entry,
		ExitCode:       outcome.ExitCode,
		LogPath:        logPath,
		MonitorFlagged: outcome.MonitorFlagged,
		RateLimited:    verdict.RateLimited,
		ExplicitExit:   verdict.ExplicitExit,
		ResetAt:        verdict.Until,
		ResetParsed:    verdict.ResetParsed,
	}
	s.logger.Info("entry finished", "entry", entry.Token(), "exit_code", result.ExitCode, "outcome", result.Outcome(), "monitor_flagged", result.MonitorFlagged)

	s.archive(result, report)

	switch result.Outcome() {
	case domain.OutcomeExplicitExit:
		s.cooldowns.Clear(ctx, entry)
		s.discardHandoff(st)
		s.notifier.Notify(domain.Notice{Kind: domain.NoticeExplicitExit, Entry: entry})
		report.ExplicitExit = true
		report.Final = entry
		return step{kind: stepDone}, nil

	case domain.OutcomeRateLimited:
		s.cooldowns.MarkUnavailable(ctx, entry, result.ResetAt)
		s.notifier.Notify(domain.Notice{
			Kind:        domain.NoticeRateLimited,
			Entry:       entry,
			ExitCode:    result.ExitCode,
			Until:       result.ResetAt,
			Remaining:   result.ResetAt.Sub(now),
			ResetParsed: result.ResetParsed,
		})
		st.reversePending = false
		s.replaceHandoff(ctx, st, report, entry, domain.HandoffForward, logPath, opts.Args)
		return step{kind: stepNext}, nil

	case domain.OutcomeFailed:
		s.spendExpired(ctx, entry, now)
		s.notifier.Notify(domain.Notice{Kind: domain.NoticeFailed, Entry: entry, ExitCode: result.ExitCode})
		return step{kind: stepNext}, nil
	}

	s.cooldowns.Clear(ctx, entry)

	if target, ok := s.switchBackTarget(opts.Entries, index, now); ok {
		s.notifier.Notify(domain.Notice{Kind: domain.NoticeSwitchBack, Entry: entry, Target: opts.Entries[target]})
		s.replaceHandoff(ctx, st, report, entry, domain.HandoffReverse, logPath, opts.Args)
		st.reversePending = st.handoff != nil
		return step{kind: stepRestart, index: target}, nil
	}

	s.discardHandoff(st)

	if opts.RelaunchWhileCooling && entry.Base != st.primaryBase {
		isPrimary := func(candidate domain.AgentEntry) bool { return candidate.Base == st.primaryBase }
		if cooling, remaining, ok := s.cooldowns.AnyCooling(opts.Entries, now, isPrimary); ok {
			s.notifier.Notify(domain.Notice{Kind: domain.NoticeRelaunch, Entry: entry, Target: cooling, Remaining: remaining})
			return step{kind: stepRestart, index: index}, nil
		}
	}

	report.Final = entry
	return step{kind: stepDone}, nil
}

// spendExpired drops an expired cooldown once the entry has been tried or
// skipped without a new throttle, so FirstExpired cannot return it again.
func (s *Supervisor) spendExpired(ctx context.Context, entry domain.AgentEntry, now time.Time) {
	if s.cooldowns.Expired(entry, now) {
		s.cooldowns.Clear(ctx, entry)
	}
}

// switchBackTarget finds the first higher-priority entry whose recorded
// cooldown has already run out.
func (s *Supervisor) switchBackTarget(entries []domain.AgentEntry, index int, now time.Time) (int, bool) {
	for i := 0; i < index; i++ {
		if s.cooldowns.Expired(entries[i], now) {
			return i, true
		}
	}
	return -1, false
}

func (s *Supervisor) nested(entry domain.AgentEntry) bool {
	name, ok := s.nestedEnv[entry.Base]
	if !ok || name == "" {
		return false
	}
	return s.getenv(name) != ""
}

func (s *Supervisor) archive(result domain.RunResult, report *Report) {
	if !s.archiver.Enabled() {
		return
	}

	sessionID := ""
	if s.session != nil {
		sessionID = s.session.SessionID()
	}
	path, err := s.archiver.Archive(result.LogPath, result.Entry, s.workDirName, sessionID)
	if err != nil {
		s.logger.Warn("archive session log", "entry", result.Entry.Token(), "error", err)
		return
	}
	report.Archives = append(report.Archives, path)
	s.notifier.Notify(domain.Notice{Kind: domain.NoticeArchived, Entry: result.Entry, Path: path})
}

func (s *Supervisor) replaceHandoff(ctx context.Context, st *loopState, report *Report, from domain.AgentEntry, direction domain.HandoffDirection, logPath string, args []string) {
	s.discardHandoff(st)
	if s.handoffs == nil {
		return
	}

	doc, err := s.handoffs.Build(ctx, from, direction, logPath, args)
	if err != nil {
		s.logger.Warn("build handoff", "entry", from.Token(), "direction", direction, "error", err)
		return
	}
	st.handoff = &doc
	report.Handoffs = append(report.Handoffs, doc.Path)
	s.notifier.Notify(domain.Notice{Kind: domain.NoticeHandoff, Entry: from, Path: doc.Path})
}

func (s *Supervisor) discardHandoff(st *loopState) {
	if st.handoff == nil {
		return
	}
	if s.handoffs != nil {
		if err := s.handoffs.Release(st.handoff); err != nil {
			s.logger.Warn("release handoff", "path", st.handoff.Path, "error", err)
		}
	}
	st.handoff = nil
	st.reversePending = false
}

func (s *Supervisor) newLogPath(entry domain.AgentEntry) (string, error) {
	file, err := os.CreateTemp(s.tempDir, "afb-"+entry.Base+"-*.log")
	if err != nil {
		return "", fmt.Errorf("create session log: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close session log: %w", err)
	}
	return file.Name(), nil
}

// sanitizeLogFile rewrites the raw PTY capture in place with its sanitized
// form and returns the sanitized text.
func sanitizeLogFile(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read session log: %w", err)
	}

	sanitized := Sanitize(string(raw))
	if err := os.WriteFile(path, []byte(sanitized), artifactFileMode); err != nil {
		return sanitized, fmt.Errorf("write sanitized session log: %w", err)
	}
	return sanitized, nil
}

type discardNotifier struct{}

func (discardNotifier) Notify(domain.Notice) {}
