package settings

import (
	"context"
	"errors"

	"github.com/ariefcatur/go-sales-orders/internal/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := r.DB.QueryRow(ctx, `SELECT value FROM settings WHERE key=$1`, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *Repo) Set(ctx context.Context, key, value string, drop ...string) error {
	return postgres.WithTx(ctx, r.DB, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO settings(key, value) VALUES ($1, $2)
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
		`, key, value); err != nil {
			return err
		}
		if len(drop) == 0 {
			return nil
		}
		_, err := tx.Exec(ctx, `DELETE FROM settings WHERE key = ANY($1)`, drop)
		return err
	})
}
