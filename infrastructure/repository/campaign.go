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

const campaignColumns = "c.id, c.ad_account_id, c.provider, c.external_id, c.name, c.status, c.objective, c.channel, " +
	"c.budget_amount, c.budget_currency, c.budget_period, c.metadata, c.created_at, c.updated_at"

type CampaignRepository interface {
	ListByAccount(ctx context.Context, accountID string) ([]*domain.Campaign, error)
	Upsert(ctx context.Context, q postgres.Queryer, campaign *domain.Campaign) error
}

type campaignRepository struct {
	conn postgres.Queryer
}

func NewCampaignRepository(conn postgres.Queryer) CampaignRepository {
	return &campaignRepository{conn: conn}
}

func (r *campaignRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.Campaign, error) {
	query, args, err := psql.
		Select(campaignColumns).
		From("campaigns c").
		Where(squirrel.Eq{"c.ad_account_id": accountID}).
		OrderBy("c.external_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	campaigns := make([]*domain.Campaign, 0)
	for rows.Next() {
		c := &domain.Campaign{}
		var budget nullBudget
		if err := rows.Scan(
			&c.ID,
			&c.AdAccountID,
			&c.Provider,
			&c.ExternalID,
			&c.Name,
			&c.Status,
			&c.Objective,
			&c.Channel,
			&budget.Amount,
			&budget.Currency,
			&budget.Period,
			&c.Metadata,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("erro ao deserializar a campanha: %w", err)
		}
		c.Budget = budget.toDomain()
		campaigns = append(campaigns, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar sobre os resultados: %w", err)
	}

	return campaigns, nil
}

func (r *campaignRepository) Upsert(ctx context.Context, q postgres.Queryer, c *domain.Campaign) error {
	id := c.ID
	if id == "" {
		var err error
		if id, err = utils.GenerateID(); err != nil {
			return err
		}
	}

	metadata, err := c.Metadata.Value()
	if err != nil {
		return err
	}
	amount, currency, period := budgetArgs(c.Budget)

	query, args, err := psql.
		Insert("campaigns").
		Columns("id", "ad_account_id", "provider", "external_id", "name", "status", "objective", "channel",
			"budget_amount", "budget_currency", "budget_period", "metadata").
		Values(id, c.AdAccountID, c.Provider, c.ExternalID, c.Name, c.Status, c.Objective, c.Channel,
			amount, currency, period, metadata).
		Suffix(`
			ON CONFLICT (ad_account_id, provider, external_id) DO UPDATE SET
				name = EXCLUDED.name,
				status = EXCLUDED.status,
				objective = EXCLUDED.objective,
				channel = EXCLUDED.channel,
				budget_amount = EXCLUDED.budget_amount,
				budget_currency = EXCLUDED.budget_currency,
				budget_period = EXCLUDED.budget_period,
				metadata = EXCLUDED.metadata,
				updated_at = NOW()
			RETURNING id, created_at, updated_at
		`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if err := q.QueryRowContext(ctx, query, args...).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return wrapDBError(err)
	}

	return nil
}

// nullBudget recebe as três colunas anuláveis de orçamento
type nullBudget struct {
	Amount   sql.NullFloat64
	Currency sql.NullString
	Period   sql.NullString
}

func (b nullBudget) toDomain() *domain.Budget {
	if !b.Amount.Valid {
		return nil
	}
	return &domain.Budget{
		Amount:   b.Amount.Float64,
		Currency: b.Currency.String,
		Period:   b.Period.String,
	}
}

func budgetArgs(b *domain.Budget) (any, any, any) {
	if b == nil {
		return nil, nil, nil
	}
	return b.Amount, b.Currency, b.Period
}
