package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vfg2006/ads-sync-api/infrastructure/database/postgres"
	"github.com/vfg2006/ads-sync-api/internal/domain"
	"github.com/vfg2006/ads-sync-api/pkg/utils"
)

const insightColumns = "i.id, i.account_id, i.provider, i.entity_type, i.entity_id, i.date, i.aggregation_window, " +
	"i.metrics, i.created_at, i.updated_at"

type InsightRepository interface {
	Upsert(ctx context.Context, insight *domain.Insight) error
	ListByAccount(ctx context.Context, accountID, window string, dr domain.DateRange) ([]*domain.Insight, error)
	ListByEntity(ctx context.Context, entityType domain.EntityType, entityID, window string, dr domain.DateRange) ([]*domain.Insight, error)
}

type insightRepository struct {
	conn postgres.Queryer
}

func NewInsightRepository(conn postgres.Queryer) InsightRepository {
	return &insightRepository{conn: conn}
}

// Upsert substitui as métricas da linha (conta, provedor, tipo, entidade, data, janela)
func (r *insightRepository) Upsert(ctx context.Context, insight *domain.Insight) error {
	id := insight.ID
	if id == "" {
		var err error
		if id, err = utils.GenerateID(); err != nil {
			return err
		}
	}

	metrics, err := json.Marshal(insight.Metrics)
	if err != nil {
		return fmt.Errorf("erro ao serializar métricas para JSON: %w", err)
	}

	query, args, err := psql.
		Insert("insights").
		Columns("id", "account_id", "provider", "entity_type", "entity_id", "date", "aggregation_window", "metrics").
		Values(
			id,
			insight.AccountID,
			insight.Provider,
			insight.EntityType,
			insight.EntityID,
			insight.Date.Format(time.DateOnly),
			insight.Window,
			metrics,
		).
		Suffix(`
			ON CONFLICT (account_id, provider, entity_type, entity_id, date, aggregation_window) DO UPDATE SET
				metrics = EXCLUDED.metrics,
				updated_at = NOW()
			RETURNING id, created_at, updated_at
		`).
		ToSql()
	if err != nil {
		return fmt.Errorf("erro ao construir a query: %w", err)
	}

	if err := r.conn.QueryRowContext(ctx, query, args...).Scan(&insight.ID, &insight.CreatedAt, &insight.UpdatedAt); err != nil {
		return wrapDBError(err)
	}

	return nil
}

func (r *insightRepository) ListByAccount(ctx context.Context, accountID, window string, dr domain.DateRange) ([]*domain.Insight, error) {
	return r.list(ctx, squirrel.Eq{"i.account_id": accountID, "i.aggregation_window": window}, dr)
}

func (r *insightRepository) ListByEntity(ctx context.Context, entityType domain.EntityType, entityID, window string, dr domain.DateRange) ([]*domain.Insight, error) {
	return r.list(ctx, squirrel.Eq{"i.entity_type": entityType, "i.entity_id": entityID, "i.aggregation_window": window}, dr)
}

func (r *insightRepository) list(ctx context.Context, where squirrel.Eq, dr domain.DateRange) ([]*domain.Insight, error) {
	query, args, err := psql.
		Select(insightColumns).
		From("insights i").
		Where(where).
		Where(squirrel.GtOrEq{"i.date": dr.Since.Format(time.DateOnly)}).
		Where(squirrel.LtOrEq{"i.date": dr.Until.Format(time.DateOnly)}).
		OrderBy("i.entity_type ASC", "i.entity_id ASC", "i.date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	insights := make([]*domain.Insight, 0)
	for rows.Next() {
		insight := &domain.Insight{}
		var metrics []byte
		if err := rows.Scan(
			&insight.ID,
			&insight.AccountID,
			&insight.Provider,
			&insight.EntityType,
			&insight.EntityID,
			&insight.Date,
			&insight.Window,
			&metrics,
			&insight.CreatedAt,
			&insight.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("erro ao escanear insights: %w", err)
		}
		if err := scanJSON(metrics, &insight.Metrics); err != nil {
			return nil, fmt.Errorf("erro ao deserializar JSON de métricas: %w", err)
		}
		insights = append(insights, insight)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("erro durante a iteração de linhas: %w", err)
	}

	return insights, nil
}
