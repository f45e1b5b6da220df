package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vfg2006/ads-sync-api/infrastructure/database/postgres"
	"github.com/vfg2006/ads-sync-api/internal/domain"
	"github.com/vfg2006/ads-sync-api/pkg/utils"
)

const recommendationColumns = "r.id, r.account_id, r.provider, r.entity_type, r.entity_id, r.playbook_id, r.type, " +
	"r.priority, r.title, r.description, r.impact, r.confidence, r.status, r.created_at, r.updated_at"

type RecommendationRepository interface {
	ExistsPending(ctx context.Context, accountID string, entityType domain.EntityType, entityID string, action domain.ActionType) (bool, error)
	Create(ctx context.Context, rec *domain.Recommendation) (bool, error)
	ListByAccount(ctx context.Context, accountID string, status *domain.RecommendationStatus, limit uint64) ([]*domain.Recommendation, error)
	UpdateStatus(ctx context.Context, id string, status domain.RecommendationStatus) error
	ExpirePendingBefore(ctx context.Context, accountID string, cutoff time.Time) (int64, error)
}

type recommendationRepository struct {
	conn postgres.Queryer
}

func NewRecommendationRepository(conn postgres.Queryer) RecommendationRepository {
	return &recommendationRepository{conn: conn}
}

func (r *recommendationRepository) ExistsPending(ctx context.Context, accountID string, entityType domain.EntityType, entityID string, action domain.ActionType) (bool, error) {
	query, args, err := psql.
		Select("1").
		From("recommendations r").
		Where(squirrel.Eq{
			"r.account_id":  accountID,
			"r.entity_type": entityType,
			"r.entity_id":   entityID,
			"r.type":        action,
			"r.status":      domain.RecommendationStatusPending,
		}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("erro ao construir a query: %w", err)
	}

	var one int
	if err := r.conn.QueryRowContext(ctx, query, args...).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, wrapDBError(err)
	}

	return true, nil
}

// Create devolve false quando já existe uma recomendação pendente equivalente;
// o índice parcial único garante isso mesmo com workers concorrentes
func (r *recommendationRepository) Create(ctx context.Context, rec *domain.Recommendation) (bool, error) {
	if rec.ID == "" {
		id, err := utils.GenerateID()
		if err != nil {
			return false, err
		}
		rec.ID = id
	}
	if rec.Status == "" {
		rec.Status = domain.RecommendationStatusPending
	}

	impact, err := jsonValue(rec.Impact)
	if err != nil {
		return false, err
	}

	query, args, err := psql.
		Insert("recommendations").
		Columns("id", "account_id", "provider", "entity_type", "entity_id", "playbook_id", "type",
			"priority", "title", "description", "impact", "confidence", "status").
		Values(rec.ID, rec.AccountID, rec.Provider, rec.EntityType, rec.EntityID, rec.PlaybookID, rec.Type,
			rec.Priority, rec.Title, rec.Description, impact, rec.Confidence, rec.Status).
		Suffix(`
			ON CONFLICT (account_id, entity_type, entity_id, type) WHERE status = 'pending' DO NOTHING
			RETURNING created_at, updated_at
		`).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build query: %w", err)
	}

	if err := r.conn.QueryRowContext(ctx, query, args...).Scan(&rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isUniqueViolation(err) {
			return false, nil
		}
		return false, wrapDBError(err)
	}

	return true, nil
}

func (r *recommendationRepository) ListByAccount(ctx context.Context, accountID string, status *domain.RecommendationStatus, limit uint64) ([]*domain.Recommendation, error) {
	builder := psql.
		Select(recommendationColumns).
		From("recommendations r").
		Where(squirrel.Eq{"r.account_id": accountID}).
		OrderBy("r.priority DESC", "r.created_at DESC")

	if status != nil {
		builder = builder.Where(squirrel.Eq{"r.status": *status})
	}
	if limit > 0 {
		builder = builder.Limit(limit)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	recs := make([]*domain.Recommendation, 0)
	for rows.Next() {
		rec := &domain.Recommendation{}
		var impact []byte
		if err := rows.Scan(
			&rec.ID,
			&rec.AccountID,
			&rec.Provider,
			&rec.EntityType,
			&rec.EntityID,
			&rec.PlaybookID,
			&rec.Type,
			&rec.Priority,
			&rec.Title,
			&rec.Description,
			&impact,
			&rec.Confidence,
			&rec.Status,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("erro ao deserializar recomendação: %w", err)
		}
		if len(impact) > 0 {
			rec.Impact = &domain.Impact{}
			if err := scanJSON(impact, rec.Impact); err != nil {
				return nil, err
			}
		}
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar sobre os resultados: %w", err)
	}

	return recs, nil
}

func (r *recommendationRepository) UpdateStatus(ctx context.Context, id string, status domain.RecommendationStatus) error {
	query, args, err := psql.
		Update("recommendations").
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	result, err := r.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return wrapDBError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// ExpirePendingBefore marca como expiradas as pendentes da conta criadas antes de cutoff
func (r *recommendationRepository) ExpirePendingBefore(ctx context.Context, accountID string, cutoff time.Time) (int64, error) {
	query, args, err := psql.
		Update("recommendations").
		Set("status", domain.RecommendationStatusExpired).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"account_id": accountID, "status": domain.RecommendationStatusPending}).
		Where(squirrel.Lt{"created_at": cutoff}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("erro ao construir a query: %w", err)
	}

	result, err := r.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, wrapDBError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("erro ao obter número de linhas afetadas: %w", err)
	}

	return rowsAffected, nil
}
