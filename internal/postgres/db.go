package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PoolOptions struct {
	MaxConns int32
	MinConns int32
	// Attempts is how many pings are tried before giving up; the database
	// container often comes up after the service does.
	Attempts int
	Backoff  time.Duration
}

var DefaultPoolOptions = PoolOptions{MaxConns: 8, MinConns: 1, Attempts: 5, Backoff: 2 * time.Second}

func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	return ConnectWith(ctx, dsn, DefaultPoolOptions)
}

func ConnectWith(ctx context.Context, dsn string, opt PoolOptions) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = opt.MaxConns
	cfg.MinConns = opt.MinConns
	cfg.HealthCheckPeriod = 30 * time.Second
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	attempts := max(opt.Attempts, 1)
	for i := 1; ; i++ {
		err = pool.Ping(ctx)
		if err == nil {
			return pool, nil
		}
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			pool.Close()
			return nil, ctx.Err()
		case <-time.After(opt.Backoff):
		}
	}
	pool.Close()
	return nil, fmt.Errorf("ping after %d attempts: %w", attempts, err)
}
