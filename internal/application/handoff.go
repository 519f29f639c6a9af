package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/bnema/agent-fallback-cli/internal/domain"
	"github.com/bnema/agent-fallback-cli/internal/ports"
)

const (
	handoffOutputLines = 30
	handoffDiffLines   = 300
	handoffMinLineLen  = 40
)

var handoffNoise = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Embellishing|Gesticulating|Meditating|Ruminating|Pondering|Deliberating`),
	regexp.MustCompile(`bypass permissions|shift\+tab|ctrl\+o to expand|esc to interrupt`),
	regexp.MustCompile(`[─━═]{20,}`),
	regexp.MustCompile(`(Read|Search|Rd|Glob|Grep|Write|Edit|Bash|Update)\(`),
	regexp.MustCompile(`Waiting…|tokens.*thought|thought for [0-9]|[↓↑].*tokens|Context left until`),
	regexp.MustCompile(`Pasting text|[▐▛█▜▌▘▝❯⏺⎿✻✶✽✳✢]|^warn: CPU lacks`),
}

type handoffFrontMatter struct {
	From      string    `yaml:"from"`
	To        string    `yaml:"to"`
	Direction string    `yaml:"direction"`
	Session   string    `yaml:"session,omitempty"`
	Workdir   string    `yaml:"workdir,omitempty"`
	CreatedAt time.Time `yaml:"created_at"`
}

type HandoffBuilder struct {
	primaryBase string
	logDir      string
	workDirName string
	session     ports.SessionIDSource
	tree        ports.WorkTree
	clock       ports.Clock
	logger      *slog.Logger
}

type HandoffBuilderConfig struct {
	PrimaryBase string
	// LogDir makes handoff documents durable when set.
	LogDir      string
	WorkDirName string
	Session     ports.SessionIDSource
	WorkTree    ports.WorkTree
	Clock       ports.Clock
	Logger      *slog.Logger
}

func NewHandoffBuilder(cfg HandoffBuilderConfig) *HandoffBuilder {
	if cfg.Clock == nil {
		cfg.Clock = ports.SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	return &HandoffBuilder{
		primaryBase: cfg.PrimaryBase,
		logDir:      cfg.LogDir,
		workDirName: cfg.WorkDirName,
		session:     cfg.Session,
		tree:        cfg.WorkTree,
		clock:       cfg.Clock,
		logger:      cfg.Logger,
	}
}

// Build writes a handoff document describing the run of from. The document is
// durable when a log directory is configured and a temp file otherwise.
func (b *HandoffBuilder) Build(ctx context.Context, from domain.AgentEntry, direction domain.HandoffDirection, sourceLog string, originalArgs []string) (domain.HandoffDocument, error) {
	doc := domain.HandoffDocument{
		From:      from,
		Direction: direction,
		Durable:   b.logDir != "",
		CreatedAt: b.clock.Now(),
	}
	if direction == domain.HandoffReverse {
		doc.To = b.primaryBase
	} else {
		doc.To = "fallback"
	}

	var treeCtx domain.WorkTreeContext
	if b.tree != nil {
		var err error
		treeCtx, err = b.tree.Context(ctx)
		if err != nil {
			b.logger.Warn("collect work tree context", "error", err)
			treeCtx = domain.WorkTreeContext{}
		}
	}

	var logText string
	if sourceLog != "" {
		raw, err := os.ReadFile(sourceLog)
		if err != nil && !os.IsNotExist(err) {
			return domain.HandoffDocument{}, fmt.Errorf("read source log: %w", err)
		}
		logText = string(raw)
	}

	content, err := b.render(doc, originalArgs, treeCtx, logText)
	if err != nil {
		return domain.HandoffDocument{}, err
	}

	path, err := b.write(content)
	if err != nil {
		return domain.HandoffDocument{}, err
	}
	doc.Path = path

	return doc, nil
}

// Release deletes an ephemeral handoff document. Durable documents are kept.
func (b *HandoffBuilder) Release(doc *domain.HandoffDocument) error {
	if doc == nil || doc.Path == "" || doc.Durable {
		return nil
	}
	if err := os.Remove(doc.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove handoff document: %w", err)
	}
	return nil
}

func (b *HandoffBuilder) sessionID() string {
	if b.session == nil {
		return ""
	}
	return b.session.SessionID()
}

func (b *HandoffBuilder) render(doc domain.HandoffDocument, originalArgs []string, treeCtx domain.WorkTreeContext, logText string) (string, error) {
	front, err := yaml.Marshal(handoffFrontMatter{
		From:      doc.From.Token(),
		To:        doc.To,
		Direction: string(doc.Direction),
		Session:   b.sessionID(),
		Workdir:   b.workDirName,
		CreatedAt: doc.CreatedAt.UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("encode handoff front matter: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	sb.Write(front)
	sb.WriteString("---\n\n")

	if doc.Direction == domain.HandoffReverse {
		fmt.Fprintf(&sb, "# Handoff: %s → %s\n\n", doc.From.Display(), b.primaryBase)
		fmt.Fprintf(&sb, "The %s session has ended and the %s limit has reset. Use the context below to continue the work.\n\n", doc.From.Display(), b.primaryBase)
	} else {
		fmt.Fprintf(&sb, "# Handoff: %s → Fallback Agent\n\n", doc.From.Display())
		fmt.Fprintf(&sb, "%s stopped because of a rate limit. Use the context below to continue the work.\n\n", doc.From.Display())
	}

	sb.WriteString("## Original Task\n")
	if task := strings.TrimSpace(strings.Join(originalArgs, " ")); task != "" {
		sb.WriteString(task)
		sb.WriteString("\n\n")
	} else {
		sb.WriteString("(interactive session, see the session output below)\n\n")
	}

	if treeCtx.Inside {
		if treeCtx.StagedStat != "" || treeCtx.UnstagedStat != "" {
			sb.WriteString("## Changes Made So Far\n```\n")
			if treeCtx.StagedStat != "" {
				sb.WriteString("Staged:\n")
				sb.WriteString(strings.TrimRight(treeCtx.StagedStat, "\n"))
				sb.WriteString("\n")
			}
			if treeCtx.UnstagedStat != "" {
				sb.WriteString("Unstaged:\n")
				sb.WriteString(strings.TrimRight(treeCtx.UnstagedStat, "\n"))
				sb.WriteString("\n")
			}
			sb.WriteString("```\n\n")
		}
		if diff := Head(treeCtx.Diff, handoffDiffLines); diff != "" {
			sb.WriteString("## Diff Detail\n```diff\n")
			sb.WriteString(diff)
			sb.WriteString("\n```\n\n")
		}
	}

	if cleaned := CleanSessionOutput(logText); len(cleaned) > 0 {
		sb.WriteString("## Last Session Output\n```\n")
		sb.WriteString(strings.Join(cleaned, "\n"))
		sb.WriteString("\n```\n\n")
	}

	sb.WriteString("## Instructions\n")
	sb.WriteString("1. Read the context above to understand the current state\n")
	sb.WriteString("2. Check the current state of the codebase\n")
	sb.WriteString("3. Continue the interrupted work\n")

	return sb.String(), nil
}

func (b *HandoffBuilder) write(content string) (string, error) {
	if b.logDir == "" {
		file, err := os.CreateTemp("", "afb-handoff-*.md")
		if err != nil {
			return "", fmt.Errorf("create handoff document: %w", err)
		}
		if _, err := file.WriteString(content); err != nil {
			_ = file.Close()
			_ = os.Remove(file.Name())
			return "", fmt.Errorf("write handoff document: %w", err)
		}
		if err := file.Close(); err != nil {
			_ = os.Remove(file.Name())
			return "", fmt.Errorf("close handoff document: %w", err)
		}
		return file.Name(), nil
	}

	path := filepath.Join(b.logDir, fmt.Sprintf("%s__%s_handoff.md", b.workDirName, b.sessionID()))
	if err := writeFileAtomic(path, []byte(content)); err != nil {
		return "", fmt.Errorf("write handoff document: %w", err)
	}
	return path, nil
}

// CleanSessionOutput reduces a sanitized session log to the last meaningful
// lines, dropping interactive redraw noise.
func CleanSessionOutput(sanitized string) []string {
	kept := make([]string, 0, handoffOutputLines)
	for _, line := range splitLines(sanitized) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if utf8.RuneCountInString(line) < handoffMinLineLen {
			continue
		}
		if isHandoffNoise(line) {
			continue
		}
		kept = append(kept, strings.TrimRight(line, " \t"))
	}

	if len(kept) > handoffOutputLines {
		kept = kept[len(kept)-handoffOutputLines:]
	}
	return kept
}

func isHandoffNoise(line string) bool {
	for _, pattern := range handoffNoise {
		if pattern.MatchString(line) {
			return true
		}
	}
	return false
}
