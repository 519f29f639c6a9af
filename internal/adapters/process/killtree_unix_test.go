//go:build unix

package process

import (
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescendantsFromProcessTable(t *testing.T) {
	t.Parallel()

	table := `
    1     0
  100     1
  101   100
  102   100
  103   101
  200     1
  bad  line
`
	children := parseProcessTable(table)

	assert.Equal(t, []int{101, 102, 103}, descendantsFrom(children, 100))
	assert.Empty(t, descendantsFrom(children, 103))
}

func TestKillTreeStopsWrapperAndChild(t *testing.T) {
	t.Parallel()
	if _, err := exec.LookPath("ps"); err != nil {
		t.Skip("ps not available")
	}

	cmd := exec.Command("sh", "-c", "sleep 30 & wait")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	require.NoError(t, cmd.Start())

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	require.Eventually(t, func() bool {
		children, err := Descendants(cmd.Process.Pid)
		return err == nil && len(children) > 0
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, KillTree(cmd.Process.Pid, syscall.SIGKILL))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("process tree survived KillTree")
	}
	assert.False(t, processAlive(cmd.Process.Pid))
}
