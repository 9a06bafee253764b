package postgres

import (
	"context"
	"fmt"

	"github.com/architeacher/logistics/pkg/logger"
	"github.com/architeacher/logistics/services/svc-matching/internal/config"
	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool connects and pings the database, retrying with exponential
// backoff while the server is not reachable yet.
func NewPool(ctx context.Context, cfg config.Database, retry config.Backoff, log logger.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConnections
	poolConfig.MinConns = cfg.MinConnections
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolConfig.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = retry.BaseDelay
	policy.Multiplier = retry.Multiplier
	policy.RandomizationFactor = retry.Jitter
	policy.MaxInterval = retry.MaxDelay

	attempt := 0

	pool, err := backoff.Retry(ctx, func() (*pgxpool.Pool, error) {
		attempt++

		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("creating connection pool: %w", err))
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()

			log.Warn().
				Err(err).
				Int("attempt", attempt).
				Str("host", cfg.Host).
				Msg("database not reachable, retrying")

			return nil, fmt.Errorf("pinging database: %w", err)
		}

		return pool, nil
	}, backoff.WithBackOff(policy), backoff.WithMaxTries(cfg.ConnectAttempts))
	if err != nil {
		return nil, err
	}

	log.Info().Int("attempt", attempt).Str("host", cfg.Host).Msg("connected to database")

	return pool, nil
}
