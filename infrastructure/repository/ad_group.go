package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/vfg2006/ads-sync-api/infrastructure/database/postgres"
	"github.com/vfg2006/ads-sync-api/internal/domain"
	"github.com/vfg2006/ads-sync-api/pkg/utils"
)

const adGroupColumns = "g.id, g.ad_account_id, g.campaign_id, cp.external_id, g.provider, g.external_id, g.name, g.status, " +
	"g.channel, g.budget_amount, g.budget_currency, g.budget_period, g.targeting, g.metadata, g.created_at, g.updated_at"

type AdGroupRepository interface {
	ListByAccount(ctx context.Context, accountID string) ([]*domain.AdGroup, error)
	Upsert(ctx context.Context, q postgres.Queryer, group *domain.AdGroup) error
}

type adGroupRepository struct {
	conn postgres.Queryer
}

func NewAdGroupRepository(conn postgres.Queryer) AdGroupRepository {
	return &adGroupRepository{conn: conn}
}

func (r *adGroupRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.AdGroup, error) {
	query, args, err := psql.
		Select(adGroupColumns).
		From("ad_groups g").
		Join("campaigns cp ON cp.id = g.campaign_id").
		Where(squirrel.Eq{"g.ad_account_id": accountID}).
		OrderBy("g.external_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	groups := make([]*domain.AdGroup, 0)
	for rows.Next() {
		g := &domain.AdGroup{}
		var budget nullBudget
		var targeting []byte
		if err := rows.Scan(
			&g.ID,
			&g.AdAccountID,
			&g.CampaignID,
			&g.CampaignExternalID,
			&g.Provider,
			&g.ExternalID,
			&g.Name,
			&g.Status,
			&g.Channel,
			&budget.Amount,
			&budget.Currency,
			&budget.Period,
			&targeting,
			&g.Metadata,
			&g.CreatedAt,
			&g.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("erro ao deserializar o grupo de anúncios: %w", err)
		}
		g.Budget = budget.toDomain()
		if len(targeting) > 0 {
			g.Targeting = &domain.Targeting{}
			if err := scanJSON(targeting, g.Targeting); err != nil {
				return nil, fmt.Errorf("erro ao deserializar targeting: %w", err)
			}
		}
		groups = append(groups, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar sobre os resultados: %w", err)
	}

	return groups, nil
}

func (r *adGroupRepository) Upsert(ctx context.Context, q postgres.Queryer, g *domain.AdGroup) error {
	id := g.ID
	if id == "" {
		var err error
		if id, err = utils.GenerateID(); err != nil {
			return err
		}
	}

	metadata, err := g.Metadata.Value()
	if err != nil {
		return err
	}
	var targeting any
	if g.Targeting != nil {
		if targeting, err = jsonValue(g.Targeting); err != nil {
			return err
		}
	}
	amount, currency, period := budgetArgs(g.Budget)

	query, args, err := psql.
		Insert("ad_groups").
		Columns("id", "ad_account_id", "campaign_id", "provider", "external_id", "name", "status", "channel",
			"budget_amount", "budget_currency", "budget_period", "targeting", "metadata").
		Values(id, g.AdAccountID, g.CampaignID, g.Provider, g.ExternalID, g.Name, g.Status, g.Channel,
			amount, currency, period, targeting, metadata).
		Suffix(`
			ON CONFLICT (ad_account_id, provider, external_id) DO UPDATE SET
				campaign_id = EXCLUDED.campaign_id,
				name = EXCLUDED.name,
				status = EXCLUDED.status,
				channel = EXCLUDED.channel,
				budget_amount = EXCLUDED.budget_amount,
				budget_currency = EXCLUDED.budget_currency,
				budget_period = EXCLUDED.budget_period,
				targeting = EXCLUDED.targeting,
				metadata = EXCLUDED.metadata,
				updated_at = NOW()
			RETURNING id, created_at, updated_at
		`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if err := q.QueryRowContext(ctx, query, args...).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return wrapDBError(err)
	}

	return nil
}
