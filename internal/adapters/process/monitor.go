package process

import (
	"context"
	"io"
	"os"
	"syscall"
	"time"
)

const (
	defaultMonitorInterval = time.Second
	defaultMonitorGrace    = 2 * time.Second
	defaultSignalStep      = time.Second
	monitorTailBytes       = 256 << 10
)

// Monitor polls the live log of a run and tears down the process tree when
// the detector reports a hard limit prompt. It never writes to the terminal.
type Monitor struct {
	interval time.Duration
	grace    time.Duration
	step     time.Duration
	detect   func(raw string) bool
	alive    func(pid int) bool
	killTree func(pid int, sig os.Signal) error
}

type MonitorOption func(*Monitor)

func WithPollInterval(d time.Duration) MonitorOption {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

func WithGracePeriod(d time.Duration) MonitorOption {
	return func(m *Monitor) {
		if d >= 0 {
			m.grace = d
		}
	}
}

func WithSignalStep(d time.Duration) MonitorOption {
	return func(m *Monitor) {
		if d >= 0 {
			m.step = d
		}
	}
}

func NewMonitor(detect func(raw string) bool, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		interval: defaultMonitorInterval,
		grace:    defaultMonitorGrace,
		step:     defaultSignalStep,
		detect:   detect,
		alive:    processAlive,
		killTree: KillTree,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Watch blocks until ctx is done, the process disappears, or a match is found.
// It reports whether it terminated the process tree.
func (m *Monitor) Watch(ctx context.Context, pid int, logPath string) bool {
	if m.detect == nil {
		return false
	}
	if !sleepContext(ctx, m.grace) {
		return false
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		if !m.alive(pid) {
			return false
		}
		if tail, err := readTail(logPath, monitorTailBytes); err == nil && m.detect(tail) {
			m.terminate(pid)
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

// terminate escalates interrupt, terminate and kill across the whole tree.
func (m *Monitor) terminate(pid int) {
	for i, sig := range []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGKILL} {
		if i > 0 {
			time.Sleep(m.step)
		}
		_ = m.killTree(pid, sig)
	}
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func readTail(path string, maxBytes int64) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", err
	}
	offset := info.Size() - maxBytes
	if offset < 0 {
		offset = 0
	}

	data, err := io.ReadAll(io.NewSectionReader(file, offset, info.Size()-offset))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
