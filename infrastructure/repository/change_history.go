package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/vfg2006/ads-sync-api/infrastructure/database/postgres"
	"github.com/vfg2006/ads-sync-api/internal/domain"
	"github.com/vfg2006/ads-sync-api/pkg/utils"
)

const changeHistoryColumns = "h.id, h.account_id, h.provider, h.entity_type, h.entity_id, h.external_id, h.kind, " +
	"h.field, h.old_value, h.new_value, h.sync_run_id, h.detected_at"

const defaultChangeLimit = 100

// ChangeHistoryRepository é append-only: não existe update nem delete
type ChangeHistoryRepository interface {
	Insert(ctx context.Context, q postgres.Queryer, records []domain.ChangeRecord) error
	ListByEntity(ctx context.Context, entityType domain.EntityType, entityID string, limit uint64) ([]domain.ChangeRecord, error)
	ListByAccount(ctx context.Context, accountID string, limit uint64) ([]domain.ChangeRecord, error)
}

type changeHistoryRepository struct {
	conn postgres.Queryer
}

func NewChangeHistoryRepository(conn postgres.Queryer) ChangeHistoryRepository {
	return &changeHistoryRepository{conn: conn}
}

func (r *changeHistoryRepository) Insert(ctx context.Context, q postgres.Queryer, records []domain.ChangeRecord) error {
	if len(records) == 0 {
		return nil
	}

	builder := psql.
		Insert("change_history").
		Columns("id", "account_id", "provider", "entity_type", "entity_id", "external_id", "kind",
			"field", "old_value", "new_value", "sync_run_id", "detected_at")

	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			id, err := utils.GenerateID()
			if err != nil {
				return err
			}
			rec.ID = id
		}

		oldValue, err := jsonValue(rec.OldValue)
		if err != nil {
			return err
		}
		newValue, err := jsonValue(rec.NewValue)
		if err != nil {
			return err
		}

		var field any
		if rec.Field != "" {
			field = rec.Field
		}

		builder = builder.Values(
			rec.ID,
			rec.Entity.AccountID,
			rec.Entity.Provider,
			rec.Entity.Type,
			rec.Entity.ID,
			rec.Entity.ExternalID,
			rec.Kind,
			field,
			oldValue,
			newValue,
			nullString(rec.SyncRunID),
			rec.DetectedAt,
		)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return wrapDBError(err)
	}

	return nil
}

func (r *changeHistoryRepository) ListByEntity(ctx context.Context, entityType domain.EntityType, entityID string, limit uint64) ([]domain.ChangeRecord, error) {
	return r.list(ctx, squirrel.Eq{"h.entity_type": entityType, "h.entity_id": entityID}, limit)
}

func (r *changeHistoryRepository) ListByAccount(ctx context.Context, accountID string, limit uint64) ([]domain.ChangeRecord, error) {
	return r.list(ctx, squirrel.Eq{"h.account_id": accountID}, limit)
}

// list ordena do mais recente para o mais antigo
func (r *changeHistoryRepository) list(ctx context.Context, where squirrel.Eq, limit uint64) ([]domain.ChangeRecord, error) {
	if limit == 0 {
		limit = defaultChangeLimit
	}

	query, args, err := psql.
		Select(changeHistoryColumns).
		From("change_history h").
		Where(where).
		OrderBy("h.detected_at DESC", "h.id DESC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	records := make([]domain.ChangeRecord, 0)
	for rows.Next() {
		var (
			rec                domain.ChangeRecord
			field, syncRunID   sql.NullString
			oldValue, newValue []byte
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.Entity.AccountID,
			&rec.Entity.Provider,
			&rec.Entity.Type,
			&rec.Entity.ID,
			&rec.Entity.ExternalID,
			&rec.Kind,
			&field,
			&oldValue,
			&newValue,
			&syncRunID,
			&rec.DetectedAt,
		); err != nil {
			return nil, fmt.Errorf("erro ao deserializar alteração: %w", err)
		}

		rec.Field = field.String
		rec.SyncRunID = stringPtr(syncRunID)
		if err := scanJSON(oldValue, &rec.OldValue); err != nil {
			return nil, err
		}
		if err := scanJSON(newValue, &rec.NewValue); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar sobre os resultados: %w", err)
	}

	return records, nil
}
