package tui

import (
	"context"

	"otc-signals/internal/domain"
	"otc-signals/internal/service"
)

// Analyzer generates schedules and single pair evaluations for the TUI.
type Analyzer interface {
	Analyze(ctx context.Context, settings domain.AnalysisSettings) ([]domain.Signal, error)
	Evaluate(ctx context.Context, pair string, tf domain.Timeframe, candles []domain.Candle, threshold int) (service.Evaluation, error)
}

// MarketReader provides quotes and feed state to the TUI.
type MarketReader interface {
	Prices(ctx context.Context, symbols []string) map[string]float64
	Status() service.MarketStatus
}

// WatchListStore persists a user's watch list between sessions.
type WatchListStore interface {
	SavePairs(ctx context.Context, userID string, pairs []string) error
}

// Services bundles all service dependencies injected into the TUI.
type Services struct {
	Analyzer  Analyzer
	Market    MarketReader
	WatchList WatchListStore
	UserID    string
	Username  string
	// Pairs is the watch list the session opens with.
	Pairs []string
}

// watchPairs falls back to the default pairs for an empty list.
func (s Services) watchPairs() []string {
	if len(s.Pairs) == 0 {
		return append([]string(nil), domain.DefaultPairs...)
	}
	return append([]string(nil), s.Pairs...)
}
