// Package schema создаёт таблицы локального хранилища.
// DDL общий для SQLite и PostgreSQL; все операции идемпотентны.
package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-WashSync/pkg/dbmetrics"
)

// ErrMigrate возвращается при ошибке создания схемы
var ErrMigrate = errors.New("schema: migration failed")

var statements = []string{
	`CREATE TABLE IF NOT EXISTS attendants (
		local_id     TEXT PRIMARY KEY,
		server_id    TEXT UNIQUE,
		name         TEXT NOT NULL,
		email        TEXT NOT NULL DEFAULT '',
		role         TEXT NOT NULL,
		photo        TEXT,
		is_available BOOLEAN NOT NULL DEFAULT TRUE,
		created_at   TIMESTAMP NOT NULL,
		updated_at   TIMESTAMP NOT NULL,
		is_synced    BOOLEAN NOT NULL DEFAULT FALSE,
		sync_status  TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		local_id            TEXT PRIMARY KEY,
		server_id           TEXT UNIQUE,
		category            TEXT NOT NULL,
		registration_number TEXT,
		phone               TEXT,
		color               TEXT,
		attendant_id        TEXT NOT NULL DEFAULT '',
		attendant_server_id TEXT,
		attendant_name      TEXT NOT NULL DEFAULT '',
		attendant_email     TEXT NOT NULL DEFAULT '',
		amount              TEXT NOT NULL,
		payment_type        TEXT NOT NULL,
		status              TEXT NOT NULL,
		attendant_paid      BOOLEAN NOT NULL DEFAULT FALSE,
		note                TEXT,
		created_at          TIMESTAMP NOT NULL,
		updated_at          TIMESTAMP NOT NULL,
		is_synced           BOOLEAN NOT NULL DEFAULT FALSE,
		sync_status         TEXT NOT NULL,
		deleted             BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_created_at ON bookings (created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_attendant_id ON bookings (attendant_id)`,
	`CREATE TABLE IF NOT EXISTS wallets (
		local_id            TEXT PRIMARY KEY,
		server_id           TEXT UNIQUE,
		attendant_id        TEXT NOT NULL DEFAULT '',
		attendant_server_id TEXT,
		attendant_name      TEXT NOT NULL DEFAULT '',
		attendant_email     TEXT NOT NULL DEFAULT '',
		balance             TEXT NOT NULL,
		total_earnings      TEXT NOT NULL,
		total_commission    TEXT NOT NULL,
		total_company_share TEXT NOT NULL,
		company_debt        TEXT NOT NULL,
		is_paid             BOOLEAN NOT NULL DEFAULT TRUE,
		last_payment_at     TIMESTAMP,
		adjustments         TEXT NOT NULL DEFAULT '[]',
		created_at          TIMESTAMP NOT NULL,
		updated_at          TIMESTAMP NOT NULL,
		is_synced           BOOLEAN NOT NULL DEFAULT FALSE,
		sync_status         TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_wallets_attendant_id ON wallets (attendant_id)`,
	`CREATE TABLE IF NOT EXISTS sync_queue (
		id          TEXT PRIMARY KEY,
		operation   TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		local_id    TEXT NOT NULL,
		kind        TEXT NOT NULL,
		payload     TEXT NOT NULL,
		retry_count INTEGER NOT NULL DEFAULT 0,
		last_error  TEXT,
		enqueued_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sync_queue_enqueued_at ON sync_queue (enqueued_at)`,
	`CREATE INDEX IF NOT EXISTS idx_sync_queue_entity ON sync_queue (entity_type, local_id)`,
}

// Migrate создаёт недостающие таблицы и индексы
func Migrate(ctx context.Context, db dbmetrics.DBExecutor) error {
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: statement %d: %v", ErrMigrate, i, err)
		}
	}
	return nil
}
