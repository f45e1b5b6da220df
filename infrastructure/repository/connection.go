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

const connectionColumns = "c.id, c.organization_id, c.provider, c.access_token, c.refresh_token, c.token_expires_at, " +
	"c.active, c.status, c.settings, c.last_sync_at, c.last_error, c.created_at, c.updated_at"

// TokenCipher cifra os tokens antes de irem para o banco
type TokenCipher interface {
	Encrypt(plain string) ([]byte, error)
	Decrypt(sealed []byte) (string, error)
}

type ConnectionRepository interface {
	Create(ctx context.Context, c *domain.Connection) error
	GetByID(ctx context.Context, id string) (*domain.Connection, error)
	ListActive(ctx context.Context) ([]*domain.Connection, error)
	MarkExpired(ctx context.Context, id, reason string) error
	UpdateSyncStatus(ctx context.Context, id string, at time.Time, lastError *string) error
	UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, expiresAt *time.Time) error
}

type connectionRepository struct {
	conn   postgres.Queryer
	cipher TokenCipher
}

func NewConnectionRepository(conn postgres.Queryer, cipher TokenCipher) ConnectionRepository {
	return &connectionRepository{
		conn:   conn,
		cipher: cipher,
	}
}

// Create registra uma conexão já autorizada; os tokens são gravados cifrados
func (r *connectionRepository) Create(ctx context.Context, c *domain.Connection) error {
	if c.ID == "" {
		id, err := utils.GenerateID()
		if err != nil {
			return err
		}
		c.ID = id
	}
	if c.Status == "" {
		c.Status = domain.ConnectionStatusActive
	}

	access, err := r.cipher.Encrypt(c.AccessToken)
	if err != nil {
		return fmt.Errorf("erro ao cifrar access token: %w", err)
	}
	refresh, err := r.cipher.Encrypt(c.RefreshToken)
	if err != nil {
		return fmt.Errorf("erro ao cifrar refresh token: %w", err)
	}
	settings, err := jsonValue(c.Settings)
	if err != nil {
		return err
	}
	if settings == nil {
		settings = []byte("{}")
	}

	query, args, err := psql.
		Insert("connections").
		Columns("id", "organization_id", "provider", "access_token", "refresh_token", "token_expires_at", "active", "status", "settings").
		Values(c.ID, c.OrganizationID, c.Provider, access, refresh, c.TokenExpiresAt, c.Active, c.Status, settings).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if err := r.conn.QueryRowContext(ctx, query, args...).Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		return wrapDBError(err)
	}

	return nil
}

func (r *connectionRepository) GetByID(ctx context.Context, id string) (*domain.Connection, error) {
	query, args, err := psql.
		Select(connectionColumns).
		From("connections c").
		Where(squirrel.Eq{"c.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	c, err := r.scan(r.conn.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapDBError(err)
	}

	return c, nil
}

func (r *connectionRepository) ListActive(ctx context.Context) ([]*domain.Connection, error) {
	query, args, err := psql.
		Select(connectionColumns).
		From("connections c").
		Where(squirrel.Eq{"c.active": true, "c.status": domain.ConnectionStatusActive}).
		OrderBy("c.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("erro ao construir a query: %w", err)
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	connections := make([]*domain.Connection, 0)
	for rows.Next() {
		c, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("erro ao deserializar a conexão: %w", err)
		}
		connections = append(connections, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("erro ao iterar sobre os resultados: %w", err)
	}

	return connections, nil
}

// MarkExpired tira a conexão das próximas sincronizações até o usuário reautenticar
func (r *connectionRepository) MarkExpired(ctx context.Context, id, reason string) error {
	return r.update(ctx, id, map[string]any{
		"status":     domain.ConnectionStatusExpired,
		"last_error": reason,
	})
}

func (r *connectionRepository) UpdateSyncStatus(ctx context.Context, id string, at time.Time, lastError *string) error {
	return r.update(ctx, id, map[string]any{
		"last_sync_at": at,
		"last_error":   nullString(lastError),
	})
}

func (r *connectionRepository) UpdateTokens(ctx context.Context, id, accessToken, refreshToken string, expiresAt *time.Time) error {
	access, err := r.cipher.Encrypt(accessToken)
	if err != nil {
		return fmt.Errorf("erro ao cifrar access token: %w", err)
	}

	fields := map[string]any{
		"access_token":     access,
		"token_expires_at": expiresAt,
	}
	if refreshToken != "" {
		refresh, err := r.cipher.Encrypt(refreshToken)
		if err != nil {
			return fmt.Errorf("erro ao cifrar refresh token: %w", err)
		}
		fields["refresh_token"] = refresh
	}

	return r.update(ctx, id, fields)
}

func (r *connectionRepository) update(ctx context.Context, id string, fields map[string]any) error {
	query, args, err := psql.
		Update("connections").
		SetMap(fields).
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
		return domain.ErrConnectionNotFound
	}

	return nil
}

func (r *connectionRepository) scan(row scanner) (*domain.Connection, error) {
	var (
		c                   domain.Connection
		access, refresh     []byte
		settings            []byte
		expiresAt, lastSync sql.NullTime
		lastError           sql.NullString
	)

	if err := row.Scan(
		&c.ID,
		&c.OrganizationID,
		&c.Provider,
		&access,
		&refresh,
		&expiresAt,
		&c.Active,
		&c.Status,
		&settings,
		&lastSync,
		&lastError,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if c.AccessToken, err = r.cipher.Decrypt(access); err != nil {
		return nil, fmt.Errorf("conexão %s: %w", c.ID, err)
	}
	if c.RefreshToken, err = r.cipher.Decrypt(refresh); err != nil {
		return nil, fmt.Errorf("conexão %s: %w", c.ID, err)
	}
	if err := scanJSON(settings, &c.Settings); err != nil {
		return nil, fmt.Errorf("conexão %s: settings inválido: %w", c.ID, err)
	}

	c.TokenExpiresAt = timePtr(expiresAt)
	c.LastSyncAt = timePtr(lastSync)
	c.LastError = stringPtr(lastError)

	return &c, nil
}
