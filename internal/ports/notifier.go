package ports

import (
	"context"
	"time"

	"github.com/bnema/agent-fallback-cli/internal/domain"
)

type Notifier interface {
	Notify(notice domain.Notice)
}

type Waiter interface {
	Wait(ctx context.Context, d time.Duration) error
}
