package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/vfg2006/ads-sync-api/infrastructure/database/postgres"
	"github.com/vfg2006/ads-sync-api/internal/domain"
	"github.com/vfg2006/ads-sync-api/pkg/utils"
)

const adColumns = "ad.id, ad.ad_account_id, ad.ad_group_id, g.external_id, ad.provider, ad.external_id, ad.name, ad.status, " +
	"ad.channel, ad.creative, ad.metadata, ad.insight_snapshot, ad.created_at, ad.updated_at"

type AdRepository interface {
	ListByAccount(ctx context.Context, accountID string) ([]*domain.Ad, error)
	Upsert(ctx context.Context, q postgres.Queryer, ad *domain.Ad) error
	UpdateInsightSnapshot(ctx context.Context, adID string, metrics *domain.Metrics) error
}

type adRepository struct {
	conn postgres.Queryer
}

func NewAdRepository(conn postgres.Queryer) AdRepository {
	return &adRepository{conn: conn}
}

func (r *adRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.Ad, error) {
	query, args, err := psql.
		Select(adColumns).
		From("ads ad").
		Join("ad_groups g ON g.id = ad.ad_group_id").
		Where(squirrel.Eq{"ad.ad_account_id": accountID}).
		OrderBy("ad.external_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	ads := make([]*domain.Ad, 0)
	for rows.Next() {
		ad := &domain.Ad{}
		var creative, snapshot []byte
		if err := rows.Scan(
			&ad.ID,
			&ad.AdAccountID,
			&ad.AdGroupID,
			&ad.AdGroupExternalID,
			&ad.Provider,
			&ad.ExternalID,
			&ad.Name,
			&ad.Status,
			&ad.Channel,
			&creative,
			&ad.Metadata,
			&snapshot,
			&ad.CreatedAt,
			&ad.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("erro ao deserializar o anúncio: %w", err)
		}
		if len(creative) > 0 {
			ad.Creative = &domain.Creative{}
			if err := scanJSON(creative, ad.Creative); err != nil {
				return nil, fmt.Errorf("erro ao deserializar creative: %w", err)
			}
		}
		if len(snapshot) > 0 {
			ad.InsightSnapshot = &domain.Metrics{}
			if err := scanJSON(snapshot, ad.InsightSnapshot); err != nil {
				return nil, fmt.Errorf("erro ao deserializar snapshot: %w", err)
			}
		}
		ads = append(ads, ad)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar sobre os resultados: %w", err)
	}

	return ads, nil
}

// Upsert não toca em insight_snapshot, que é mantido pela sincronização de insights
func (r *adRepository) Upsert(ctx context.Context, q postgres.Queryer, ad *domain.Ad) error {
	id := ad.ID
	if id == "" {
		var err error
		if id, err = utils.GenerateID(); err != nil {
			return err
		}
	}

	metadata, err := ad.Metadata.Value()
	if err != nil {
		return err
	}
	var creative any
	if ad.Creative != nil {
		if creative, err = jsonValue(ad.Creative); err != nil {
			return err
		}
	}

	query, args, err := psql.
		Insert("ads").
		Columns("id", "ad_account_id", "ad_group_id", "provider", "external_id", "name", "status", "channel", "creative", "metadata").
		Values(id, ad.AdAccountID, ad.AdGroupID, ad.Provider, ad.ExternalID, ad.Name, ad.Status, ad.Channel, creative, metadata).
		Suffix(`
			ON CONFLICT (ad_account_id, provider, external_id) DO UPDATE SET
				ad_group_id = EXCLUDED.ad_group_id,
				name = EXCLUDED.name,
				status = EXCLUDED.status,
				channel = EXCLUDED.channel,
				creative = EXCLUDED.creative,
				metadata = EXCLUDED.metadata,
				updated_at = NOW()
			RETURNING id, created_at, updated_at
		`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if err := q.QueryRowContext(ctx, query, args...).Scan(&ad.ID, &ad.CreatedAt, &ad.UpdatedAt); err != nil {
		return wrapDBError(err)
	}

	return nil
}

func (r *adRepository) UpdateInsightSnapshot(ctx context.Context, adID string, metrics *domain.Metrics) error {
	snapshot, err := jsonValue(metrics)
	if err != nil {
		return err
	}

	query, args, err := psql.
		Update("ads").
		Set("insight_snapshot", snapshot).
		Where(squirrel.Eq{"id": adID}).
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
