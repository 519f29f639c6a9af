package application

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bnema/agent-fallback-cli/internal/domain"
)

type Archiver struct {
	logDir      string
	primaryBase string
}

func NewArchiver(logDir, primaryBase string) *Archiver {
	return &Archiver{logDir: logDir, primaryBase: primaryBase}
}

func (a *Archiver) Enabled() bool {
	return a != nil && a.logDir != ""
}

// Archive copies the sanitized log of a finished run into the durable log
// directory. The name is derived from workingDirName, sessionID and entry, so
// a later run of the same entry in the same session replaces the archive.
// It returns an empty path when no durable directory is configured.
func (a *Archiver) Archive(sourceLog string, entry domain.AgentEntry, workingDirName, sessionID string) (string, error) {
	if !a.Enabled() {
		return "", nil
	}

	data, err := os.ReadFile(sourceLog)
	if err != nil {
		return "", fmt.Errorf("read session log: %w", err)
	}

	path := a.ArchivePath(entry, workingDirName, sessionID, string(data))
	if err := writeFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("archive session log: %w", err)
	}

	return path, nil
}

// ArchivePath names the archive. A primary entry without an explicit variant
// takes the model family from the log banner when one is printed.
func (a *Archiver) ArchivePath(entry domain.AgentEntry, workingDirName, sessionID, sanitized string) string {
	slug := entry.FileSlug()
	if entry.Base == a.primaryBase && !entry.HasVariant() {
		if model := InferModel(sanitized); model != "" {
			slug = entry.Base + "-" + model
		}
	}

	return filepath.Join(a.logDir, fmt.Sprintf("%s__%s_%s.log", workingDirName, sessionID, slug))
}
