package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/vfg2006/ads-sync-api/infrastructure/database/postgres"
	"github.com/vfg2006/ads-sync-api/internal/domain"
	"github.com/vfg2006/ads-sync-api/pkg/utils"
)

const accountsTable = "ad_accounts a"

const accountColumns = "a.id, a.connection_id, a.organization_id, a.provider, a.external_id, a.name, " +
	"a.currency, a.timezone, a.status, a.metadata, a.created_at, a.updated_at"

type AccountRepository interface {
	GetByID(ctx context.Context, id string) (*domain.AdAccount, error)
	ListByConnection(ctx context.Context, connectionID string) ([]*domain.AdAccount, error)
	ListSyncable(ctx context.Context) ([]*domain.AdAccount, error)
	Upsert(ctx context.Context, q postgres.Queryer, account *domain.AdAccount) error
}

type accountRepository struct {
	conn postgres.Queryer
}

func NewAccountRepository(conn postgres.Queryer) AccountRepository {
	return &accountRepository{
		conn: conn,
	}
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.AdAccount, error) {
	query, args, err := psql.
		Select(accountColumns).
		From(accountsTable).
		Where(squirrel.Eq{"a.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	acc, err := scanAccount(r.conn.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapDBError(err)
	}

	return acc, nil
}

func (r *accountRepository) ListByConnection(ctx context.Context, connectionID string) ([]*domain.AdAccount, error) {
	return r.list(ctx, psql.
		Select(accountColumns).
		From(accountsTable).
		Where(squirrel.Eq{"a.connection_id": connectionID}).
		OrderBy("a.external_id ASC"))
}

// ListSyncable devolve as contas não encerradas cujas conexões estão ativas
func (r *accountRepository) ListSyncable(ctx context.Context) ([]*domain.AdAccount, error) {
	return r.list(ctx, psql.
		Select(accountColumns).
		From(accountsTable).
		Join("connections c ON c.id = a.connection_id").
		Where(squirrel.NotEq{"a.status": domain.AdAccountStatusClosed}).
		Where(squirrel.Eq{"c.active": true, "c.status": domain.ConnectionStatusActive}).
		OrderBy("a.id ASC"))
}

func (r *accountRepository) list(ctx context.Context, builder squirrel.SelectBuilder) ([]*domain.AdAccount, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	accounts := make([]*domain.AdAccount, 0)
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("erro ao deserializar a conta: %w", err)
		}
		accounts = append(accounts, acc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar sobre os resultados: %w", err)
	}

	return accounts, nil
}

// Upsert grava a conta pela chave natural (organização, provedor, id externo)
// e preenche ID e timestamps com os valores persistidos
func (r *accountRepository) Upsert(ctx context.Context, q postgres.Queryer, account *domain.AdAccount) error {
	id := account.ID
	if id == "" {
		var err error
		if id, err = utils.GenerateID(); err != nil {
			return err
		}
	}

	metadata, err := account.Metadata.Value()
	if err != nil {
		return err
	}

	query, args, err := psql.
		Insert("ad_accounts").
		Columns("id", "connection_id", "organization_id", "provider", "external_id", "name", "currency", "timezone", "status", "metadata").
		Values(id, account.ConnectionID, account.OrganizationID, account.Provider, account.ExternalID,
			account.Name, account.Currency, account.Timezone, account.Status, metadata).
		Suffix(`
			ON CONFLICT (organization_id, provider, external_id) DO UPDATE SET
				connection_id = EXCLUDED.connection_id,
				name = EXCLUDED.name,
				currency = EXCLUDED.currency,
				timezone = EXCLUDED.timezone,
				status = EXCLUDED.status,
				metadata = EXCLUDED.metadata,
				updated_at = NOW()
			RETURNING id, created_at, updated_at
		`).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if err := q.QueryRowContext(ctx, query, args...).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt); err != nil {
		return wrapDBError(err)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*domain.AdAccount, error) {
	acc := &domain.AdAccount{}

	if err := row.Scan(
		&acc.ID,
		&acc.ConnectionID,
		&acc.OrganizationID,
		&acc.Provider,
		&acc.ExternalID,
		&acc.Name,
		&acc.Currency,
		&acc.Timezone,
		&acc.Status,
		&acc.Metadata,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return acc, nil
}
