package application

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLog(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestArchiverOverwritesSameEntry(t *testing.T) {
	t.Parallel()

	logDir := t.TempDir()
	src := t.TempDir()
	archiver := NewArchiver(logDir, "claude")
	entry := mustEntry(t, "claude")

	first, err := archiver.Archive(writeLog(t, src, "a.log", "first run\n"), entry, "proj", "abcd1234")
	require.NoError(t, err)
	second, err := archiver.Archive(writeLog(t, src, "b.log", "second run\n"), entry, "proj", "abcd1234")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, filepath.Join(logDir, "proj__abcd1234_claude.log"), second)

	files, err := os.ReadDir(logDir)
	require.NoError(t, err)
	require.Len(t, files, 1)

	data, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, "second run\n", string(data))
}

func TestArchiverKeepsDifferentEntriesApart(t *testing.T) {
	t.Parallel()

	logDir := t.TempDir()
	src := writeLog(t, t.TempDir(), "run.log", "output\n")
	archiver := NewArchiver(logDir, "claude")

	a, err := archiver.Archive(src, mustEntry(t, "claude:sonnet"), "proj", "abcd1234")
	require.NoError(t, err)
	b, err := archiver.Archive(src, mustEntry(t, "codex"), "proj", "abcd1234")
	require.NoError(t, err)

	assert.Equal(t, "proj__abcd1234_claude-sonnet.log", filepath.Base(a))
	assert.Equal(t, "proj__abcd1234_codex.log", filepath.Base(b))
}

func TestArchiverInfersPrimaryModel(t *testing.T) {
	t.Parallel()

	logDir := t.TempDir()
	src := writeLog(t, t.TempDir(), "run.log", "Welcome\n Opus 4.6 · Claude Max\nworking\n")
	archiver := NewArchiver(logDir, "claude")

	path, err := archiver.Archive(src, mustEntry(t, "claude"), "proj", "abcd1234")
	require.NoError(t, err)
	assert.Equal(t, "proj__abcd1234_claude-opus.log", filepath.Base(path))

	path, err = archiver.Archive(src, mustEntry(t, "codex"), "proj", "abcd1234")
	require.NoError(t, err)
	assert.Equal(t, "proj__abcd1234_codex.log", filepath.Base(path))
}

func TestArchiverDisabledWithoutLogDir(t *testing.T) {
	t.Parallel()

	archiver := NewArchiver("", "claude")
	path, err := archiver.Archive("/does/not/exist", mustEntry(t, "claude"), "proj", "abcd1234")

	require.NoError(t, err)
	assert.Empty(t, path)
}
