package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/bnema/agent-fallback-cli/internal/domain"
	"github.com/bnema/agent-fallback-cli/internal/ports"
)

const (
	logDirKey        = "log_dir"
	snapshotPathKey  = "cooldowns.path"
	snapshotFileName = ".fallback_cooldown.toml"
	snapshotFileMode = 0o600
	snapshotDirMode  = 0o700
	tempFilePattern  = ".fallback_cooldown-*.toml.tmp"
)

// Repository keeps the cooldown snapshot next to the archived session logs.
type Repository struct {
	snapshotPath string
	mu           *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.CooldownRepository = (*Repository)(nil)

func NewRepository(cfg *viper.Viper) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	snapshotPath := cfg.GetString(snapshotPathKey)
	if snapshotPath == "" {
		logDir := cfg.GetString(logDirKey)
		if logDir == "" {
			return nil, errors.New("cooldown snapshot path is empty")
		}
		snapshotPath = filepath.Join(logDir, snapshotFileName)
	}

	snapshotPath, err := normalizeSnapshotPath(snapshotPath)
	if err != nil {
		return nil, err
	}

	return &Repository{snapshotPath: snapshotPath, mu: lockForPath(snapshotPath)}, nil
}

func (r *Repository) Path() string {
	return r.snapshotPath
}

func (r *Repository) Save(ctx context.Context, snapshot domain.CooldownSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.writeSchema(toSchema(snapshot))
}

func (r *Repository) Load(ctx context.Context) (domain.CooldownSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.CooldownSnapshot{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	data, err := os.ReadFile(r.snapshotPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.CooldownSnapshot{}, domain.ErrSnapshotNotFound
		}
		return domain.CooldownSnapshot{}, fmt.Errorf("read cooldown snapshot: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return domain.CooldownSnapshot{}, fmt.Errorf("decode cooldown snapshot: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return domain.CooldownSnapshot{}, err
	}
	file.applyDefaults()

	return fromSchema(file), nil
}

func normalizeSnapshotPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve cooldown snapshot path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.snapshotPath), snapshotDirMode); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode cooldown snapshot: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.snapshotPath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp snapshot file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp snapshot file: %w", err)
	}

	if err := tempFile.Chmod(snapshotFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp snapshot file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp snapshot file: %w", err)
	}

	if err := os.Rename(tempName, r.snapshotPath); err != nil {
		return fmt.Errorf("replace snapshot file: %w", err)
	}

	cleanup = false
	return nil
}

func toSchema(snapshot domain.CooldownSnapshot) fileSchema {
	file := fileSchema{
		UpdatedAt: formatTime(snapshot.UpdatedAt),
		Cooldowns: make([]cooldownSchema, 0, len(snapshot.Records)),
	}
	for _, record := range snapshot.Records {
		file.Cooldowns = append(file.Cooldowns, cooldownSchema{
			Entry: record.Token,
			Until: formatTime(record.Until),
		})
	}
	return file
}

func fromSchema(file fileSchema) domain.CooldownSnapshot {
	snapshot := domain.CooldownSnapshot{
		UpdatedAt: parseTime(file.UpdatedAt),
		Records:   make([]domain.CooldownRecord, 0, len(file.Cooldowns)),
	}
	for _, entry := range file.Cooldowns {
		if entry.Entry == "" {
			continue
		}
		snapshot.Records = append(snapshot.Records, domain.CooldownRecord{
			Token: entry.Entry,
			Until: parseTime(entry.Until),
		})
	}
	return snapshot
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.UTC().Format(time.RFC3339)
}
