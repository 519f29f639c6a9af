package application

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/bnema/agent-fallback-cli/internal/domain"
	"github.com/bnema/agent-fallback-cli/internal/ports/mocks"
)

var handoffTime = time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC)

func newTestHandoffBuilder(t *testing.T, logDir string, tree *mocks.MockWorkTree) *HandoffBuilder {
	t.Helper()
	clock := mocks.NewMockClock(t)
	clock.EXPECT().Now().Return(handoffTime)

	return NewHandoffBuilder(HandoffBuilderConfig{
		PrimaryBase: "claude",
		LogDir:      logDir,
		WorkDirName: "proj",
		Session:     staticSession("ab12cd34"),
		WorkTree:    tree,
		Clock:       clock,
	})
}

func readFrontMatter(t *testing.T, content string) handoffFrontMatter {
	t.Helper()
	parts := strings.SplitN(content, "---\n", 3)
	require.Len(t, parts, 3)

	var front handoffFrontMatter
	require.NoError(t, yaml.Unmarshal([]byte(parts[1]), &front))
	return front
}

func TestHandoffBuildForwardDocument(t *testing.T) {
	t.Parallel()

	logDir := t.TempDir()
	tree := mocks.NewMockWorkTree(t)
	tree.EXPECT().Context(mock.Anything).Return(domain.WorkTreeContext{
		Inside:       true,
		StagedStat:   " main.go | 2 +-\n",
		UnstagedStat: " README.md | 1 +\n",
		Diff:         "diff --git a/main.go b/main.go\n+fmt.Println(\"hi\")",
	}, nil)
	builder := newTestHandoffBuilder(t, logDir, tree)

	sourceLog := filepath.Join(t.TempDir(), "run.log")
	require.NoError(t, os.WriteFile(sourceLog, []byte(
		"short\n"+
			"Implemented the retry helper in pkg/retry and updated callers\n"+
			"You've hit your limit · resets 3pm (Europe/Paris) and then continue\n",
	), 0o600))

	doc, err := builder.Build(context.Background(), mustEntry(t, "claude:opus"), domain.HandoffForward, sourceLog, []string{"fix", "the", "build"})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(logDir, "proj__ab12cd34_handoff.md"), doc.Path)
	assert.True(t, doc.Durable)
	assert.Equal(t, "fallback", doc.To)
	assert.Equal(t, handoffTime, doc.CreatedAt)

	raw, err := os.ReadFile(doc.Path)
	require.NoError(t, err)
	content := string(raw)

	front := readFrontMatter(t, content)
	assert.Equal(t, "claude:opus", front.From)
	assert.Equal(t, "forward", front.Direction)
	assert.Equal(t, "ab12cd34", front.Session)
	assert.Equal(t, "proj", front.Workdir)

	assert.Contains(t, content, "# Handoff: claude (opus) → Fallback Agent")
	assert.Contains(t, content, "## Original Task\nfix the build")
	assert.Contains(t, content, "Staged:\n main.go | 2 +-")
	assert.Contains(t, content, "Unstaged:\n README.md | 1 +")
	assert.Contains(t, content, "## Diff Detail\n```diff\ndiff --git a/main.go b/main.go")
	assert.Contains(t, content, "Implemented the retry helper in pkg/retry")
	assert.NotContains(t, content, "short\n")
	assert.Contains(t, content, "3. Continue the interrupted work")

	require.NoError(t, builder.Release(&doc))
	assert.FileExists(t, doc.Path)
}

func TestHandoffBuildReverseEphemeralDocument(t *testing.T) {
	t.Parallel()

	tree := mocks.NewMockWorkTree(t)
	tree.EXPECT().Context(mock.Anything).Return(domain.WorkTreeContext{}, errors.New("git exploded"))
	builder := newTestHandoffBuilder(t, "", tree)

	doc, err := builder.Build(context.Background(), mustEntry(t, "codex"), domain.HandoffReverse, "", nil)
	require.NoError(t, err)
	assert.False(t, doc.Durable)
	assert.Equal(t, "claude", doc.To)

	raw, err := os.ReadFile(doc.Path)
	require.NoError(t, err)
	content := string(raw)
	assert.Contains(t, content, "# Handoff: codex → claude")
	assert.Contains(t, content, "(interactive session, see the session output below)")
	assert.NotContains(t, content, "## Changes Made So Far")
	assert.NotContains(t, content, "## Last Session Output")

	require.NoError(t, builder.Release(&doc))
	assert.NoFileExists(t, doc.Path)
	require.NoError(t, builder.Release(&doc))
}

func TestHandoffBuildMissingSourceLog(t *testing.T) {
	t.Parallel()

	tree := mocks.NewMockWorkTree(t)
	tree.EXPECT().Context(mock.Anything).Return(domain.WorkTreeContext{}, nil)
	builder := newTestHandoffBuilder(t, t.TempDir(), tree)

	doc, err := builder.Build(context.Background(), mustEntry(t, "claude"), domain.HandoffForward, filepath.Join(t.TempDir(), "gone.log"), []string{"task"})
	require.NoError(t, err)
	assert.FileExists(t, doc.Path)
}

func TestCleanSessionOutputKeepsLastMeaningfulLines(t *testing.T) {
	t.Parallel()

	var lines []string
	for i := 0; i < 40; i++ {
		lines = append(lines, fmt.Sprintf("line %02d with enough characters to be kept around", i))
	}
	lines = append(lines,
		"",
		"tiny",
		"⏺ Read(main.go) and a lot of other interactive chrome text",
		"Waiting… for the model to answer this particular question",
	)

	cleaned := CleanSessionOutput(strings.Join(lines, "\n"))

	require.Len(t, cleaned, handoffOutputLines)
	assert.Equal(t, "line 10 with enough characters to be kept around", cleaned[0])
	assert.Equal(t, "line 39 with enough characters to be kept around", cleaned[len(cleaned)-1])
}
