package process

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signalRecorder struct {
	mu      sync.Mutex
	signals []os.Signal
}

func (r *signalRecorder) kill(_ int, sig os.Signal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, sig)
	return nil
}

func (r *signalRecorder) recorded() []os.Signal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]os.Signal(nil), r.signals...)
}

func newTestMonitor(detect func(string) bool, alive func(int) bool, recorder *signalRecorder) *Monitor {
	m := NewMonitor(detect, WithGracePeriod(0), WithPollInterval(5*time.Millisecond), WithSignalStep(0))
	m.alive = alive
	m.killTree = recorder.kill
	return m
}

func TestMonitorTerminatesTreeOnMatch(t *testing.T) {
	t.Parallel()

	logPath := filepath.Join(t.TempDir(), "run.log")
	require.NoError(t, os.WriteFile(logPath, []byte("working\n"), 0o600))

	recorder := &signalRecorder{}
	monitor := newTestMonitor(func(raw string) bool {
		return strings.Contains(raw, "hit your limit")
	}, func(int) bool { return true }, recorder)

	go func() {
		time.Sleep(20 * time.Millisecond)
		f, err := os.OpenFile(logPath, os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return
		}
		_, _ = f.WriteString("You've hit your limit\n")
		_ = f.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	assert.True(t, monitor.Watch(ctx, 4242, logPath))
	assert.Equal(t, []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGKILL}, recorder.recorded())
}

func TestMonitorStopsWhenProcessIsGone(t *testing.T) {
	t.Parallel()

	recorder := &signalRecorder{}
	monitor := newTestMonitor(func(string) bool { return true }, func(int) bool { return false }, recorder)

	assert.False(t, monitor.Watch(context.Background(), 4242, filepath.Join(t.TempDir(), "missing.log")))
	assert.Empty(t, recorder.recorded())
}

func TestMonitorStopsOnCancel(t *testing.T) {
	t.Parallel()

	recorder := &signalRecorder{}
	monitor := newTestMonitor(func(string) bool { return false }, func(int) bool { return true }, recorder)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan bool, 1)
	go func() {
		done <- monitor.Watch(ctx, 4242, filepath.Join(t.TempDir(), "run.log"))
	}()
	cancel()

	select {
	case flagged := <-done:
		assert.False(t, flagged)
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not stop after cancel")
	}
	assert.Empty(t, recorder.recorded())
}

func TestReadTailKeepsLastBytes(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "run.log")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o600))

	tail, err := readTail(path, 4)
	require.NoError(t, err)
	assert.Equal(t, "6789", tail)

	tail, err = readTail(path, 100)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", tail)
}
