package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/vfg2006/ads-sync-api/infrastructure/database/postgres"
	"github.com/vfg2006/ads-sync-api/internal/domain"
)

type PlaybookRepository interface {
	Upsert(ctx context.Context, playbook *domain.Playbook) error
	ListEnabled(ctx context.Context) ([]*domain.Playbook, error)
}

type playbookRepository struct {
	conn postgres.Queryer
}

func NewPlaybookRepository(conn postgres.Queryer) PlaybookRepository {
	return &playbookRepository{conn: conn}
}

// Upsert guarda a definição completa em JSONB; priority e enabled ficam em
// colunas próprias para ordenação e filtro
func (r *playbookRepository) Upsert(ctx context.Context, playbook *domain.Playbook) error {
	definition, err := json.Marshal(playbook)
	if err != nil {
		return fmt.Errorf("erro ao serializar playbook: %w", err)
	}

	query, args, err := psql.
		Insert("playbooks").
		Columns("id", "name", "definition", "priority", "enabled").
		Values(playbook.ID, playbook.Name, definition, playbook.Priority, playbook.Enabled).
		Suffix(`
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				definition = EXCLUDED.definition,
				priority = EXCLUDED.priority,
				enabled = EXCLUDED.enabled,
				updated_at = NOW()
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

func (r *playbookRepository) ListEnabled(ctx context.Context) ([]*domain.Playbook, error) {
	query, args, err := psql.
		Select("p.definition").
		From("playbooks p").
		Where(squirrel.Eq{"p.enabled": true}).
		OrderBy("p.priority DESC", "p.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	playbooks := make([]*domain.Playbook, 0)
	for rows.Next() {
		var definition []byte
		if err := rows.Scan(&definition); err != nil {
			return nil, fmt.Errorf("erro ao deserializar playbook: %w", err)
		}
		p := &domain.Playbook{}
		if err := json.Unmarshal(definition, p); err != nil {
			return nil, fmt.Errorf("erro ao deserializar definição do playbook: %w", err)
		}
		playbooks = append(playbooks, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar sobre os resultados: %w", err)
	}

	return playbooks, nil
}
