package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/agent-fallback-cli/internal/ports"
)

type cooldownElapsedMsg struct{}

type cooldownSpinnerModel struct {
	spinner  spinner.Model
	deadline time.Time
	now      func() time.Time
	done     bool
}

func newCooldownSpinnerModel(deadline time.Time, now func() time.Time) cooldownSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return cooldownSpinnerModel{
		spinner:  s,
		deadline: deadline,
		now:      now,
	}
}

func (m cooldownSpinnerModel) Init() tea.Cmd {
	wait := m.deadline.Sub(m.now())
	return tea.Batch(m.spinner.Tick, tea.Tick(wait, func(time.Time) tea.Msg {
		return cooldownElapsedMsg{}
	}))
}

func (m cooldownSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case cooldownElapsedMsg:
		m.done = true
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m cooldownSpinnerModel) View() string {
	if m.done {
		return ""
	}

	left := m.deadline.Sub(m.now()).Round(time.Second)
	if left < 0 {
		left = 0
	}
	return fmt.Sprintf("%s Waiting for a cooldown to expire (%s left)...", m.spinner.View(), left)
}

// spinnerWaiter blocks until a cooldown runs out while showing a spinner.
type spinnerWaiter struct {
	output io.Writer
	now    func() time.Time
}

var _ ports.Waiter = spinnerWaiter{}

func newSpinnerWaiter(output io.Writer) spinnerWaiter {
	return spinnerWaiter{output: output, now: time.Now}
}

func (w spinnerWaiter) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	p := tea.NewProgram(
		newCooldownSpinnerModel(w.now().Add(d), w.now),
		tea.WithInput(nil),
		tea.WithOutput(w.output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}

	if _, ok := finalModel.(cooldownSpinnerModel); !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return nil
}
