package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/vfg2006/ads-sync-api/infrastructure/database/postgres"
	"github.com/vfg2006/ads-sync-api/internal/domain"
)

const syncRunColumns = "s.id, s.connection_id, s.family, s.status, s.counts, s.errors, s.error_category, s.started_at, s.finished_at"

type SyncRunRepository interface {
	Save(ctx context.Context, run *domain.SyncRun) error
	ListByConnection(ctx context.Context, connectionID string, limit uint64) ([]*domain.SyncRun, error)
}

type syncRunRepository struct {
	conn postgres.Queryer
}

func NewSyncRunRepository(conn postgres.Queryer) SyncRunRepository {
	return &syncRunRepository{conn: conn}
}

// Save grava a execução no início e novamente ao terminar
func (r *syncRunRepository) Save(ctx context.Context, run *domain.SyncRun) error {
	counts, err := json.Marshal(run.Counts)
	if err != nil {
		return fmt.Errorf("erro ao serializar contagens: %w", err)
	}
	errs, err := json.Marshal(run.Errors)
	if err != nil {
		return fmt.Errorf("erro ao serializar erros: %w", err)
	}

	var category any
	if run.ErrorCategory != nil {
		category = string(*run.ErrorCategory)
	}

	query, args, err := psql.
		Insert("sync_runs").
		Columns("id", "connection_id", "family", "status", "counts", "errors", "error_category", "started_at", "finished_at").
		Values(run.ID, run.ConnectionID, run.Family, run.Status, counts, errs, category, run.StartedAt, run.FinishedAt).
		Suffix(`
			ON CONFLICT (id) DO UPDATE SET
				status = EXCLUDED.status,
				counts = EXCLUDED.counts,
				errors = EXCLUDED.errors,
				error_category = EXCLUDED.error_category,
				finished_at = EXCLUDED.finished_at
		`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := r.conn.ExecContext(ctx, query, args...); err != nil {
		return wrapDBError(err)
	}

	return nil
}

func (r *syncRunRepository) ListByConnection(ctx context.Context, connectionID string, limit uint64) ([]*domain.SyncRun, error) {
	if limit == 0 {
		limit = 50
	}

	query, args, err := psql.
		Select(syncRunColumns).
		From("sync_runs s").
		Where(squirrel.Eq{"s.connection_id": connectionID}).
		OrderBy("s.started_at DESC").
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

	runs := make([]*domain.SyncRun, 0)
	for rows.Next() {
		var (
			run          domain.SyncRun
			counts, errs []byte
			category     sql.NullString
			finishedAt   sql.NullTime
		)
		if err := rows.Scan(
			&run.ID,
			&run.ConnectionID,
			&run.Family,
			&run.Status,
			&counts,
			&errs,
			&category,
			&run.StartedAt,
			&finishedAt,
		); err != nil {
			return nil, fmt.Errorf("erro ao deserializar execução: %w", err)
		}

		if err := scanJSON(counts, &run.Counts); err != nil {
			return nil, err
		}
		if err := scanJSON(errs, &run.Errors); err != nil {
			return nil, err
		}
		if category.Valid {
			kind := domain.ErrorKind(category.String)
			run.ErrorCategory = &kind
		}
		run.FinishedAt = timePtr(finishedAt)
		runs = append(runs, &run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar sobre os resultados: %w", err)
	}

	return runs, nil
}
