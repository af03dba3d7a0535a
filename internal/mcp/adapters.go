package mcp

import (
	"context"

	"otc-signals/internal/domain"
	"otc-signals/internal/service"
)

// Analyzer exposes schedule generation and single pair evaluation.
type Analyzer interface {
	Analyze(ctx context.Context, settings domain.AnalysisSettings) ([]domain.Signal, error)
	Evaluate(ctx context.Context, pair string, tf domain.Timeframe, candles []domain.Candle, threshold int) (service.Evaluation, error)
}

// MarketReader exposes quote lookups and feed state.
type MarketReader interface {
	Prices(ctx context.Context, symbols []string) map[string]float64
	Status() service.MarketStatus
}
