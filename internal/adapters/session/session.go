package session

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bnema/agent-fallback-cli/internal/ports"
)

const idLength = 8

var _ ports.SessionIDSource = (*ProjectSession)(nil)

var nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)

// ProjectSession derives the per-invocation session id from the newest Claude
// transcript recorded for the working directory, or a random id when there is
// none. The id is resolved on first use and then fixed for the invocation.
type ProjectSession struct {
	home   string
	cwd    string
	random func() string

	once sync.Once
	id   string
}

func NewProjectSession(home, cwd string) *ProjectSession {
	return &ProjectSession{
		home: home,
		cwd:  cwd,
		random: func() string {
			return uuid.NewString()
		},
	}
}

func (s *ProjectSession) SessionID() string {
	s.once.Do(func() {
		if id := s.latestTranscriptID(); id != "" {
			s.id = id
			return
		}
		s.id = shorten(strings.ReplaceAll(s.random(), "-", ""))
	})
	return s.id
}

func (s *ProjectSession) latestTranscriptID() string {
	if s.home == "" || s.cwd == "" {
		return ""
	}

	for _, dir := range s.projectDirs() {
		matches, err := filepath.Glob(filepath.Join(dir, "*.jsonl"))
		if err != nil || len(matches) == 0 {
			continue
		}

		var (
			latest   string
			latestAt time.Time
		)
		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil || info.IsDir() {
				continue
			}
			if latest == "" || info.ModTime().After(latestAt) {
				latest = match
				latestAt = info.ModTime()
			}
		}
		if latest != "" {
			return shorten(strings.TrimSuffix(filepath.Base(latest), ".jsonl"))
		}
	}
	return ""
}

func (s *ProjectSession) projectDirs() []string {
	root := filepath.Join(s.home, ".claude", "projects")
	slashed := strings.ReplaceAll(s.cwd, string(filepath.Separator), "-")
	normalized := nonAlphanumeric.ReplaceAllString(s.cwd, "-")

	dirs := []string{filepath.Join(root, slashed)}
	if normalized != slashed {
		dirs = append(dirs, filepath.Join(root, normalized))
	}
	return dirs
}

func shorten(id string) string {
	if len(id) > idLength {
		return id[:idLength]
	}
	return id
}
