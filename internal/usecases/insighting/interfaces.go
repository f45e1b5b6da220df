package insighting

import (
	"context"

	"github.com/vfg2006/ads-sync-api/internal/domain"
)

// Request descreve uma sincronização de insights de uma conta
type Request struct {
	AccountID string
	Range     domain.DateRange
	Window    string
	// Levels vazio significa todos os níveis, na ordem de domain.SyncOrder
	Levels []domain.EntityType
}

type Result struct {
	Upserted int
	Skipped  int
	Ranges   int
}

// Aggregator busca, normaliza e grava os insights de uma conta
type Aggregator interface {
	SyncAccount(ctx context.Context, req Request) (*Result, error)
}
