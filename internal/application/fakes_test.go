package application

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/bnema/agent-fallback-cli/internal/domain"
	"github.com/bnema/agent-fallback-cli/internal/ports"
)

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time {
	return f.now
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type scriptedRun struct {
	output  string
	exit    int
	flagged bool
	advance time.Duration
	err     error

	// during runs while the agent is live, before the clock advances.
	during func()
}

type scriptedRunner struct {
	clock   *manualClock
	scripts map[string][]scriptedRun
	calls   []ports.RunRequest
}

func (r *scriptedRunner) Run(_ context.Context, req ports.RunRequest) (ports.RunOutcome, error) {
	r.calls = append(r.calls, req)

	queue := r.scripts[req.Entry.Token()]
	if len(queue) == 0 {
		return ports.RunOutcome{}, fmt.Errorf("no script left for %s", req.Entry.Token())
	}
	run := queue[0]
	r.scripts[req.Entry.Token()] = queue[1:]

	if run.during != nil {
		run.during()
	}
	if run.err != nil {
		return ports.RunOutcome{}, run.err
	}
	if err := os.WriteFile(req.LogPath, []byte(run.output), 0o600); err != nil {
		return ports.RunOutcome{}, err
	}
	if r.clock != nil {
		r.clock.Advance(run.advance)
	}

	return ports.RunOutcome{ExitCode: run.exit, MonitorFlagged: run.flagged}, nil
}

func (r *scriptedRunner) tokens() []string {
	tokens := make([]string, 0, len(r.calls))
	for _, call := range r.calls {
		tokens = append(tokens, call.Entry.Token())
	}
	return tokens
}

type fakeResolver struct {
	missing map[string]bool
}

func (r fakeResolver) Resolve(base string) (string, error) {
	if r.missing[base] {
		return "", fmt.Errorf("resolve %s: %w", base, domain.ErrExecutableNotFound)
	}
	return "/usr/local/bin/" + base, nil
}

type recordingNotifier struct {
	notices []domain.Notice
}

func (n *recordingNotifier) Notify(notice domain.Notice) {
	n.notices = append(n.notices, notice)
}

func (n *recordingNotifier) kinds() []domain.NoticeKind {
	kinds := make([]domain.NoticeKind, 0, len(n.notices))
	for _, notice := range n.notices {
		kinds = append(kinds, notice.Kind)
	}
	return kinds
}

type clockWaiter struct {
	clock *manualClock
	waits []time.Duration
}

func (w *clockWaiter) Wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.waits = append(w.waits, d)
	w.clock.Advance(d)
	return nil
}

type staticSession string

func (s staticSession) SessionID() string {
	return string(s)
}

type staticWorkTree struct {
	tree domain.WorkTreeContext
	err  error
}

func (w staticWorkTree) Context(context.Context) (domain.WorkTreeContext, error) {
	return w.tree, w.err
}

type inMemoryCooldownRepo struct {
	mu    sync.Mutex
	saves []domain.CooldownSnapshot
}

func (r *inMemoryCooldownRepo) Save(_ context.Context, snapshot domain.CooldownSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves = append(r.saves, snapshot)
	return nil
}

func (r *inMemoryCooldownRepo) Load(context.Context) (domain.CooldownSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.saves) == 0 {
		return domain.CooldownSnapshot{}, domain.ErrSnapshotNotFound
	}
	return r.saves[len(r.saves)-1], nil
}
