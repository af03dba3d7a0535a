package db

import (
	"context"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

var Pool *pgxpool.Pool

// InitPostgres leaves Pool nil when DATABASE_URL is unset; candles then come
// from the synthetic source and channel management is unavailable.
func InitPostgres(ctx context.Context, logger zerolog.Logger) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Info().Msg("DATABASE_URL not set, skipping Postgres connection")
		return
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to Postgres")
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to ping Postgres")
	}
	Pool = pool
	logger.Info().Msg("connected to Postgres")
}
