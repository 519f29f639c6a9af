package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version   int              `toml:"version"`
	UpdatedAt string           `toml:"updated_at"`
	Cooldowns []cooldownSchema `toml:"cooldowns"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported cooldown snapshot version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type cooldownSchema struct {
	Entry string `toml:"entry"`
	Until string `toml:"until"`
}
