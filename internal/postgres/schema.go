package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id            BIGSERIAL PRIMARY KEY,
		customer_name VARCHAR(100) NOT NULL DEFAULT 'Guest',
		subtotal      NUMERIC(12,2) NOT NULL DEFAULT 0,
		total         NUMERIC(12,2) NOT NULL DEFAULT 0,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS orders_created_at_idx ON orders (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id          BIGSERIAL PRIMARY KEY,
		order_id    BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id  BIGINT NOT NULL,
		variant_id  BIGINT,
		qty         INT NOT NULL CHECK (qty > 0),
		unit_price  DOUBLE PRECISION NOT NULL,
		total_price NUMERIC(12,2) NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS order_items_order_id_idx ON order_items (order_id)`,
	`CREATE TABLE IF NOT EXISTS settings (
		key   VARCHAR(50) PRIMARY KEY,
		value VARCHAR(255) NOT NULL
	)`,
	// columns added after the first release; older databases lack them
	`ALTER TABLE orders ADD COLUMN IF NOT EXISTS tax NUMERIC(12,2) NOT NULL DEFAULT 0`,
	`ALTER TABLE order_items ADD COLUMN IF NOT EXISTS product_name VARCHAR(255)`,
	// unit_price is the price as sent by the client and is never rounded
	`ALTER TABLE order_items ALTER COLUMN unit_price TYPE DOUBLE PRECISION`,
}

// Migrate creates the tables if they are missing and backfills columns that
// older deployments were created without. Safe to run on every start.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i, err)
		}
	}
	return nil
}
