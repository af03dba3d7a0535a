package provider

import (
	"context"

	"otc-signals/internal/domain"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	minLookback = SyntheticBars
	maxLookback = 500
)

type CandleStore interface {
	GetCandles(ctx context.Context, pair string, tf domain.Timeframe, limit int) ([]domain.Candle, error)
}

// CandleSource prefers stored history and falls back to a synthetic series
// when the store is missing, failing or too short to warm the indicators.
type CandleSource struct {
	store     CandleStore
	synthetic *Synthetic
	tracer    trace.Tracer
	logger    zerolog.Logger
}

func NewCandleSource(tracer trace.Tracer, store CandleStore, synthetic *Synthetic, logger zerolog.Logger) *CandleSource {
	if synthetic == nil {
		synthetic = NewSynthetic(nil, nil)
	}
	return &CandleSource{
		store:     store,
		synthetic: synthetic,
		tracer:    tracer,
		logger:    logger.With().Str("component", "candle-source").Logger(),
	}
}

// Lookback is the number of bars covering historicalDays, clamped to [50, 500].
func Lookback(tf domain.Timeframe, historicalDays int) int {
	if historicalDays <= 0 {
		historicalDays = domain.DefaultHistoricalDays
	}
	n := historicalDays * (24 * 60 / tf.Minutes())
	if n < minLookback {
		return minLookback
	}
	if n > maxLookback {
		return maxLookback
	}
	return n
}

// Candles reports whether the series came from the store.
func (s *CandleSource) Candles(ctx context.Context, pair string, tf domain.Timeframe, historicalDays int, anchor float64) ([]domain.Candle, bool) {
	ctx, span := s.tracer.Start(ctx, "candle-source.candles")
	defer span.End()
	span.SetAttributes(attribute.String("pair", pair), attribute.String("timeframe", string(tf)))

	if s.store != nil {
		candles, err := s.store.GetCandles(ctx, pair, tf, Lookback(tf, historicalDays))
		switch {
		case err != nil:
			s.logger.Warn().Err(err).Str("pair", pair).Msg("candle store failed, using synthetic series")
		case len(candles) < minLookback:
			s.logger.Debug().Str("pair", pair).Int("rows", len(candles)).Msg("not enough stored candles, using synthetic series")
		default:
			span.SetAttributes(attribute.String("source", "store"))
			return candles, true
		}
	}
	span.SetAttributes(attribute.String("source", "synthetic"))
	return s.synthetic.Candles(anchor, tf, SyntheticBars), false
}
