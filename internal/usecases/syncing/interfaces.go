package syncing

import (
	"context"
	"database/sql"

	"github.com/vfg2006/ads-sync-api/infrastructure/ratelimit"
	"github.com/vfg2006/ads-sync-api/internal/domain"
)

// Syncer sincroniza a árvore de entidades de uma conexão
type Syncer interface {
	SyncConnection(ctx context.Context, connectionID string) (*domain.SyncRun, error)
}

// Transactor é satisfeito por *postgres.Connection
type Transactor interface {
	RunInTransaction(ctx context.Context, fn func(*sql.Tx) error) error
}

// JobLimiter é satisfeito por *ratelimit.Limiter
type JobLimiter interface {
	AcquireJob(ctx context.Context, provider domain.Provider) (*ratelimit.Permit, error)
}
