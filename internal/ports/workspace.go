package ports

import (
	"context"

	"github.com/bnema/agent-fallback-cli/internal/domain"
)

type WorkTree interface {
	Context(ctx context.Context) (domain.WorkTreeContext, error)
}

type SessionIDSource interface {
	SessionID() string
}
