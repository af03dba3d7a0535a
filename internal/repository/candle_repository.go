package repository

import (
	"context"
	"fmt"

	"otc-signals/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type CandleRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewCandleRepository(pool PgxPool, tracer trace.Tracer) *CandleRepository {
	return &CandleRepository{pool: pool, tracer: tracer}
}

func (r *CandleRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "candle-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS otc_candles (
			pair       TEXT             NOT NULL,
			timeframe  TEXT             NOT NULL,
			ts         BIGINT           NOT NULL,
			open       DOUBLE PRECISION NOT NULL,
			high       DOUBLE PRECISION NOT NULL,
			low        DOUBLE PRECISION NOT NULL,
			close      DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (pair, timeframe, ts)
		)`)
	if err != nil {
		return fmt.Errorf("migrate otc_candles: %w", err)
	}
	return nil
}

func (r *CandleRepository) UpsertCandles(ctx context.Context, pair string, tf domain.Timeframe, candles []domain.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	_, span := r.tracer.Start(ctx, "candle-repo.upsert-candles")
	defer span.End()
	span.SetAttributes(attribute.String("pair", pair), attribute.Int("count", len(candles)))

	batch := &pgx.Batch{}
	for _, c := range candles {
		batch.Queue(
			`INSERT INTO otc_candles (pair, timeframe, ts, open, high, low, close)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (pair, timeframe, ts) DO UPDATE SET
			     open = EXCLUDED.open,
			     high = EXCLUDED.high,
			     low = EXCLUDED.low,
			     close = EXCLUDED.close`,
			pair, string(tf), c.Timestamp, c.Open, c.High, c.Low, c.Close,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range candles {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert candle %s: %w", pair, err)
		}
	}
	return nil
}

// GetCandles returns up to limit of the most recent bars, oldest first.
func (r *CandleRepository) GetCandles(ctx context.Context, pair string, tf domain.Timeframe, limit int) ([]domain.Candle, error) {
	_, span := r.tracer.Start(ctx, "candle-repo.get-candles")
	defer span.End()
	span.SetAttributes(attribute.String("pair", pair), attribute.String("timeframe", string(tf)))

	rows, err := r.pool.Query(ctx,
		`SELECT ts, open, high, low, close
		 FROM otc_candles
		 WHERE pair = $1 AND timeframe = $2
		 ORDER BY ts DESC
		 LIMIT $3`,
		pair, string(tf), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query candles %s: %w", pair, err)
	}
	defer rows.Close()

	var candles []domain.Candle
	for rows.Next() {
		var c domain.Candle
		if err := rows.Scan(&c.Timestamp, &c.Open, &c.High, &c.Low, &c.Close); err != nil {
			return nil, fmt.Errorf("scan candle %s: %w", pair, err)
		}
		candles = append(candles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}
	return candles, nil
}
