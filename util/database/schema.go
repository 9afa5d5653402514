package database

import (
	"context"
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS lockers (
	id                TEXT PRIMARY KEY,
	number            INTEGER NOT NULL UNIQUE,
	size              TEXT NOT NULL,
	status            TEXT NOT NULL DEFAULT 'available',
	current_rental_id TEXT,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS rentals (
	id                 TEXT PRIMARY KEY,
	locker_id          TEXT NOT NULL REFERENCES lockers(id),
	locker_number      INTEGER NOT NULL,
	locker_size        TEXT NOT NULL,
	access_pin         TEXT NOT NULL,
	payment_session_id TEXT,
	payment_status     TEXT NOT NULL DEFAULT 'pending',
	amount             DOUBLE PRECISION NOT NULL,
	currency           TEXT NOT NULL DEFAULT 'EUR',
	start_time         TIMESTAMPTZ NOT NULL,
	end_time           TIMESTAMPTZ NOT NULL,
	is_expired         BOOLEAN NOT NULL DEFAULT FALSE,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_rentals_session ON rentals (payment_session_id);
CREATE INDEX IF NOT EXISTS idx_rentals_unlock  ON rentals (locker_number, access_pin);
CREATE INDEX IF NOT EXISTS idx_rentals_expiry  ON rentals (end_time) WHERE NOT is_expired;

CREATE TABLE IF NOT EXISTS payment_transactions (
	id             TEXT PRIMARY KEY,
	session_id     TEXT NOT NULL,
	rental_id      TEXT NOT NULL REFERENCES rentals(id),
	amount         DOUBLE PRECISION NOT NULL,
	currency       TEXT NOT NULL,
	payment_status TEXT NOT NULL,
	metadata       JSONB NOT NULL DEFAULT '{}',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_transactions_session ON payment_transactions (session_id);
`

// Migrate applies the schema. Every statement is IF NOT EXISTS, so this is
// safe to run on every boot.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
