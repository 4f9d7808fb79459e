// Package sqlschema creates the relational schema for the SQLite and Postgres stores.
package sqlschema

import (
	"context"
	"fmt"
	"smartrentals/pkg/db/sqldb"
)

// Times are stored as unix milliseconds so both dialects compare them
// numerically, and so Postgres can index reservations as int8range.

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		sku         TEXT,
		image_url   TEXT NOT NULL DEFAULT '',
		category    TEXT NOT NULL DEFAULT '',
		rate_kind   TEXT NOT NULL CHECK (rate_kind IN ('hourly', 'daily')),
		rate        TEXT NOT NULL,
		min_hours   INTEGER CHECK (min_hours IS NULL OR min_hours >= 1),
		max_hours   INTEGER CHECK (max_hours IS NULL OR max_hours >= 1),
		published   BOOLEAN NOT NULL DEFAULT 0,
		created_at  INTEGER NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS products_sku_idx ON products (sku) WHERE sku IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS products_category_idx ON products (category)`,

	`CREATE TABLE IF NOT EXISTS inventory_units (
		id         TEXT PRIMARY KEY,
		product_id TEXT NOT NULL REFERENCES products (id),
		label      TEXT NOT NULL,
		location   TEXT NOT NULL DEFAULT '',
		active     BOOLEAN NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS inventory_units_product_idx ON inventory_units (product_id, active, id)`,

	`CREATE TABLE IF NOT EXISTS orders (
		id            TEXT PRIMARY KEY,
		customer_ref  TEXT NOT NULL,
		contact_phone TEXT NOT NULL DEFAULT '',
		status        TEXT NOT NULL CHECK (status IN ('pending', 'confirmed', 'cancelled', 'returned')),
		currency      TEXT NOT NULL,
		subtotal      TEXT NOT NULL,
		total         TEXT NOT NULL,
		created_at    INTEGER NOT NULL,
		updated_at    INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS orders_status_idx ON orders (status, created_at)`,
	`CREATE INDEX IF NOT EXISTS orders_customer_idx ON orders (customer_ref, created_at)`,

	`CREATE TABLE IF NOT EXISTS reservations (
		id                TEXT PRIMARY KEY,
		order_id          TEXT NOT NULL REFERENCES orders (id) DEFERRABLE INITIALLY DEFERRED,
		inventory_item_id TEXT NOT NULL REFERENCES inventory_units (id),
		product_id        TEXT NOT NULL,
		start_ms          INTEGER NOT NULL,
		end_ms            INTEGER NOT NULL,
		voided            BOOLEAN NOT NULL DEFAULT 0,
		created_at        INTEGER NOT NULL,
		CHECK (start_ms < end_ms)
	)`,
	`CREATE INDEX IF NOT EXISTS reservations_unit_window_idx ON reservations (inventory_item_id, start_ms, end_ms)`,
	`CREATE INDEX IF NOT EXISTS reservations_order_idx ON reservations (order_id)`,

	`CREATE TABLE IF NOT EXISTS order_lines (
		order_id          TEXT NOT NULL REFERENCES orders (id),
		position          INTEGER NOT NULL,
		reservation_id    TEXT NOT NULL,
		product_id        TEXT NOT NULL,
		inventory_item_id TEXT NOT NULL,
		start_ms          INTEGER NOT NULL,
		end_ms            INTEGER NOT NULL,
		duration_hours    INTEGER NOT NULL,
		duration_days     INTEGER NOT NULL DEFAULT 0,
		rate_basis        TEXT NOT NULL,
		rate              TEXT NOT NULL,
		total             TEXT NOT NULL,
		PRIMARY KEY (order_id, position)
	)`,

	`CREATE TABLE IF NOT EXISTS order_status_history (
		order_id    TEXT NOT NULL REFERENCES orders (id),
		seq         INTEGER NOT NULL,
		from_status TEXT NOT NULL DEFAULT '',
		to_status   TEXT NOT NULL,
		at          INTEGER NOT NULL,
		note        TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (order_id, seq)
	)`,

	`CREATE TABLE IF NOT EXISTS payments (
		id         TEXT PRIMARY KEY,
		order_id   TEXT NOT NULL UNIQUE REFERENCES orders (id),
		method     TEXT NOT NULL,
		amount     TEXT NOT NULL,
		reference  TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	)`,
}

var postgresSchema = []string{
	`CREATE EXTENSION IF NOT EXISTS btree_gist`,

	`CREATE TABLE IF NOT EXISTS products (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		sku         TEXT,
		image_url   TEXT NOT NULL DEFAULT '',
		category    TEXT NOT NULL DEFAULT '',
		rate_kind   TEXT NOT NULL CHECK (rate_kind IN ('hourly', 'daily')),
		rate        NUMERIC(12, 2) NOT NULL CHECK (rate > 0),
		min_hours   BIGINT CHECK (min_hours IS NULL OR min_hours >= 1),
		max_hours   BIGINT CHECK (max_hours IS NULL OR max_hours >= 1),
		published   BOOLEAN NOT NULL DEFAULT FALSE,
		created_at  BIGINT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS products_sku_idx ON products (sku) WHERE sku IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS products_category_idx ON products (category)`,

	`CREATE TABLE IF NOT EXISTS inventory_units (
		id         TEXT PRIMARY KEY,
		product_id TEXT NOT NULL REFERENCES products (id),
		label      TEXT NOT NULL,
		location   TEXT NOT NULL DEFAULT '',
		active     BOOLEAN NOT NULL DEFAULT TRUE,
		created_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS inventory_units_product_idx ON inventory_units (product_id, active, id)`,

	`CREATE TABLE IF NOT EXISTS orders (
		id            TEXT PRIMARY KEY,
		customer_ref  TEXT NOT NULL,
		contact_phone TEXT NOT NULL DEFAULT '',
		status        TEXT NOT NULL CHECK (status IN ('pending', 'confirmed', 'cancelled', 'returned')),
		currency      TEXT NOT NULL,
		subtotal      NUMERIC(14, 2) NOT NULL,
		total         NUMERIC(14, 2) NOT NULL,
		created_at    BIGINT NOT NULL,
		updated_at    BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS orders_status_idx ON orders (status, created_at)`,
	`CREATE INDEX IF NOT EXISTS orders_customer_idx ON orders (customer_ref, created_at)`,

	// The exclusion constraint backs up the locked overlap check: no two live
	// reservations of one unit may share an instant of [start_ms, end_ms).
	`CREATE TABLE IF NOT EXISTS reservations (
		id                TEXT PRIMARY KEY,
		order_id          TEXT NOT NULL REFERENCES orders (id) DEFERRABLE INITIALLY DEFERRED,
		inventory_item_id TEXT NOT NULL REFERENCES inventory_units (id),
		product_id        TEXT NOT NULL,
		start_ms          BIGINT NOT NULL,
		end_ms            BIGINT NOT NULL,
		voided            BOOLEAN NOT NULL DEFAULT FALSE,
		created_at        BIGINT NOT NULL,
		CHECK (start_ms < end_ms),
		CONSTRAINT reservations_no_overlap EXCLUDE USING gist (
			inventory_item_id WITH =,
			int8range(start_ms, end_ms) WITH &&
		) WHERE (NOT voided)
	)`,
	`CREATE INDEX IF NOT EXISTS reservations_unit_window_idx ON reservations (inventory_item_id, start_ms, end_ms)`,
	`CREATE INDEX IF NOT EXISTS reservations_order_idx ON reservations (order_id)`,

	`CREATE TABLE IF NOT EXISTS order_lines (
		order_id          TEXT NOT NULL REFERENCES orders (id),
		position          INTEGER NOT NULL,
		reservation_id    TEXT NOT NULL,
		product_id        TEXT NOT NULL,
		inventory_item_id TEXT NOT NULL,
		start_ms          BIGINT NOT NULL,
		end_ms            BIGINT NOT NULL,
		duration_hours    BIGINT NOT NULL,
		duration_days     BIGINT NOT NULL DEFAULT 0,
		rate_basis        TEXT NOT NULL,
		rate              NUMERIC(12, 2) NOT NULL,
		total             NUMERIC(14, 2) NOT NULL,
		PRIMARY KEY (order_id, position)
	)`,

	`CREATE TABLE IF NOT EXISTS order_status_history (
		order_id    TEXT NOT NULL REFERENCES orders (id),
		seq         INTEGER NOT NULL,
		from_status TEXT NOT NULL DEFAULT '',
		to_status   TEXT NOT NULL,
		at          BIGINT NOT NULL,
		note        TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (order_id, seq)
	)`,

	`CREATE TABLE IF NOT EXISTS payments (
		id         TEXT PRIMARY KEY,
		order_id   TEXT NOT NULL UNIQUE REFERENCES orders (id),
		method     TEXT NOT NULL,
		amount     NUMERIC(14, 2) NOT NULL,
		reference  TEXT NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL
	)`,
}

// Statements returns the DDL for the database's dialect.
func Statements(d sqldb.Dialect) []string {
	if d == sqldb.Postgres {
		return postgresSchema
	}
	return sqliteSchema
}

// RunMigration applies the schema in one transaction. Every statement is
// idempotent, so rerunning it against a migrated database is a no-op.
func RunMigration(ctx context.Context, db *sqldb.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning migration: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range Statements(db.Dialect) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("applying statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration: %w", err)
	}
	return nil
}
