package migration

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/ads-sync-api/infrastructure/database/postgres"
)

// statements é aplicado em ordem; todos os comandos são idempotentes
var statements = []string{
	`CREATE TABLE IF NOT EXISTS connections (
		id               TEXT PRIMARY KEY,
		organization_id  TEXT NOT NULL,
		provider         TEXT NOT NULL,
		access_token     BYTEA,
		refresh_token    BYTEA,
		token_expires_at TIMESTAMPTZ,
		active           BOOLEAN NOT NULL DEFAULT TRUE,
		status           TEXT NOT NULL DEFAULT 'active',
		settings         JSONB NOT NULL DEFAULT '{}',
		last_sync_at     TIMESTAMPTZ,
		last_error       TEXT,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS ad_accounts (
		id              TEXT PRIMARY KEY,
		connection_id   TEXT NOT NULL REFERENCES connections(id),
		organization_id TEXT NOT NULL,
		provider        TEXT NOT NULL,
		external_id     TEXT NOT NULL,
		name            TEXT NOT NULL,
		currency        TEXT NOT NULL DEFAULT '',
		timezone        TEXT NOT NULL DEFAULT '',
		status          TEXT NOT NULL,
		metadata        JSONB NOT NULL DEFAULT '{}',
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (organization_id, provider, external_id)
	)`,
	`CREATE TABLE IF NOT EXISTS campaigns (
		id              TEXT PRIMARY KEY,
		ad_account_id   TEXT NOT NULL REFERENCES ad_accounts(id),
		provider        TEXT NOT NULL,
		external_id     TEXT NOT NULL,
		name            TEXT NOT NULL,
		status          TEXT NOT NULL,
		objective       TEXT NOT NULL DEFAULT '',
		channel         TEXT NOT NULL DEFAULT '',
		budget_amount   NUMERIC(18, 4),
		budget_currency TEXT,
		budget_period   TEXT,
		metadata        JSONB NOT NULL DEFAULT '{}',
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (ad_account_id, provider, external_id)
	)`,
	`CREATE TABLE IF NOT EXISTS ad_groups (
		id              TEXT PRIMARY KEY,
		ad_account_id   TEXT NOT NULL REFERENCES ad_accounts(id),
		campaign_id     TEXT NOT NULL REFERENCES campaigns(id),
		provider        TEXT NOT NULL,
		external_id     TEXT NOT NULL,
		name            TEXT NOT NULL,
		status          TEXT NOT NULL,
		channel         TEXT NOT NULL DEFAULT '',
		budget_amount   NUMERIC(18, 4),
		budget_currency TEXT,
		budget_period   TEXT,
		targeting       JSONB,
		metadata        JSONB NOT NULL DEFAULT '{}',
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (ad_account_id, provider, external_id)
	)`,
	`CREATE TABLE IF NOT EXISTS ads (
		id               TEXT PRIMARY KEY,
		ad_account_id    TEXT NOT NULL REFERENCES ad_accounts(id),
		ad_group_id      TEXT NOT NULL REFERENCES ad_groups(id),
		provider         TEXT NOT NULL,
		external_id      TEXT NOT NULL,
		name             TEXT NOT NULL,
		status           TEXT NOT NULL,
		channel          TEXT NOT NULL DEFAULT '',
		creative         JSONB,
		metadata         JSONB NOT NULL DEFAULT '{}',
		insight_snapshot JSONB,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (ad_account_id, provider, external_id)
	)`,
	`CREATE TABLE IF NOT EXISTS insights (
		id                 TEXT PRIMARY KEY,
		account_id         TEXT NOT NULL REFERENCES ad_accounts(id),
		provider           TEXT NOT NULL,
		entity_type        TEXT NOT NULL,
		entity_id          TEXT NOT NULL,
		date               DATE NOT NULL,
		aggregation_window TEXT NOT NULL,
		metrics            JSONB NOT NULL,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (account_id, provider, entity_type, entity_id, date, aggregation_window)
	)`,
	`CREATE INDEX IF NOT EXISTS insights_entity_date_idx ON insights (entity_type, entity_id, aggregation_window, date)`,
	`CREATE TABLE IF NOT EXISTS change_history (
		id          TEXT PRIMARY KEY,
		account_id  TEXT NOT NULL,
		provider    TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id   TEXT NOT NULL,
		external_id TEXT NOT NULL,
		kind        TEXT NOT NULL,
		field       TEXT,
		old_value   JSONB,
		new_value   JSONB,
		sync_run_id TEXT,
		detected_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS change_history_entity_idx ON change_history (entity_type, entity_id, detected_at DESC)`,
	`CREATE INDEX IF NOT EXISTS change_history_account_idx ON change_history (account_id, detected_at DESC)`,
	`CREATE TABLE IF NOT EXISTS playbooks (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		definition JSONB NOT NULL,
		priority   INTEGER NOT NULL DEFAULT 0,
		enabled    BOOLEAN NOT NULL DEFAULT TRUE,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS recommendations (
		id          TEXT PRIMARY KEY,
		account_id  TEXT NOT NULL REFERENCES ad_accounts(id),
		provider    TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id   TEXT NOT NULL,
		playbook_id TEXT NOT NULL,
		type        TEXT NOT NULL,
		priority    INTEGER NOT NULL DEFAULT 0,
		title       TEXT NOT NULL,
		description TEXT NOT NULL,
		impact      JSONB,
		confidence  NUMERIC(4, 2) NOT NULL DEFAULT 0,
		status      TEXT NOT NULL DEFAULT 'pending',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS recommendations_pending_uniq
		ON recommendations (account_id, entity_type, entity_id, type) WHERE status = 'pending'`,
	`CREATE TABLE IF NOT EXISTS sync_runs (
		id             TEXT PRIMARY KEY,
		connection_id  TEXT NOT NULL REFERENCES connections(id),
		family         TEXT NOT NULL,
		status         TEXT NOT NULL,
		counts         JSONB NOT NULL DEFAULT '{}',
		errors         JSONB NOT NULL DEFAULT '[]',
		error_category TEXT,
		started_at     TIMESTAMPTZ NOT NULL,
		finished_at    TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS sync_runs_connection_idx ON sync_runs (connection_id, started_at DESC)`,
}

// Apply cria as tabelas e índices que ainda não existem, em uma única transação
func Apply(ctx context.Context, conn postgres.Conn) error {
	logrus.WithField("statements", len(statements)).Info("Aplicando schema do banco de dados")

	return conn.RunInTransaction(ctx, func(tx *sql.Tx) error {
		for i, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migration: statement %d: %w", i, err)
			}
		}
		return nil
	})
}
