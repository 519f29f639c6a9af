package ports

import (
	"context"

	"github.com/bnema/agent-fallback-cli/internal/domain"
)

type CooldownRepository interface {
	Save(ctx context.Context, snapshot domain.CooldownSnapshot) error
	Load(ctx context.Context) (domain.CooldownSnapshot, error)
}
