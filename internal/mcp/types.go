package mcp

import (
	"fmt"
	"strings"

	"otc-signals/internal/domain"
	"otc-signals/internal/service"
)

const (
	maxAnalyzePairs = 20
	maxPriceSymbols = 50
	maxCandles      = 1000
)

type signalsAnalyzeInput struct {
	Pairs     []string `json:"pairs" jsonschema:"trading pairs, e.g. EUR/USD-OTC, GBP/USD-OTC"`
	Timeframe string   `json:"timeframe,omitempty" jsonschema:"trade duration: M1, M2, M3, M5, M15, M30"`
	StartTime string   `json:"start_time,omitempty" jsonschema:"window start HH:MM, default 07:00"`
	EndTime   string   `json:"end_time,omitempty" jsonschema:"window end HH:MM, default 23:59"`
	Threshold int      `json:"threshold,omitempty" jsonschema:"minimum confidence 1-95, default 78"`
}

type signalsAnalyzeOutput struct {
	Count   int             `json:"count"`
	Signals []domain.Signal `json:"signals"`
}

type pairEvaluateInput struct {
	Pair      string          `json:"pair" jsonschema:"trading pair, e.g. EUR/USD-OTC"`
	Timeframe string          `json:"timeframe,omitempty" jsonschema:"candle timeframe: M1, M2, M3, M5, M15, M30"`
	Candles   []domain.Candle `json:"candles,omitempty" jsonschema:"optional OHLC history, fetched when omitted"`
	Threshold int             `json:"threshold,omitempty" jsonschema:"minimum confidence, default 78"`
}

type pairEvaluateOutput struct {
	Evaluation service.Evaluation `json:"evaluation"`
}

type indicatorsComputeInput struct {
	Candles []domain.Candle `json:"candles" jsonschema:"OHLC history, oldest first"`
}

type indicatorsComputeOutput struct {
	Indicators domain.IndicatorSnapshot `json:"indicators"`
}

type signalScoreInput struct {
	Indicators domain.IndicatorSnapshot `json:"indicators" jsonschema:"indicator snapshot to score"`
	Threshold  int                      `json:"threshold,omitempty" jsonschema:"minimum confidence, default 78"`
}

type signalScoreOutput struct {
	Score domain.ScoreResult `json:"score"`
}

type marketPricesInput struct {
	Symbols []string `json:"symbols" jsonschema:"pairs to quote, e.g. EUR/USD-OTC"`
}

type marketPricesOutput struct {
	Prices map[string]float64 `json:"prices"`
}

func normalizePair(pair string) (string, error) {
	pair = strings.TrimSpace(pair)
	if pair == "" {
		return "", fmt.Errorf("pair is required")
	}
	found, ok := domain.FindPair(pair)
	if !ok {
		return "", fmt.Errorf("unsupported pair: %s", pair)
	}
	return found.Symbol, nil
}

func normalizePairs(pairs []string, limit int) ([]string, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("at least one pair is required")
	}
	seen := make(map[string]struct{}, len(pairs))
	out := make([]string, 0, len(pairs))
	for _, raw := range pairs {
		pair, err := normalizePair(raw)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[pair]; dup {
			continue
		}
		seen[pair] = struct{}{}
		out = append(out, pair)
	}
	if len(out) > limit {
		return nil, fmt.Errorf("too many pairs: %d, max %d", len(out), limit)
	}
	return out, nil
}

// normalizeTimeframe treats a blank value as M1.
func normalizeTimeframe(raw string) (domain.Timeframe, error) {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if raw == "" {
		return domain.TimeframeM1, nil
	}
	tf := domain.Timeframe(raw)
	if !tf.Valid() {
		return "", fmt.Errorf("unsupported timeframe: %s", raw)
	}
	return tf, nil
}

func normalizeThreshold(threshold int) (int, error) {
	if threshold == 0 {
		return domain.DefaultSuccessThreshold, nil
	}
	if threshold < 0 || threshold > 95 {
		return 0, fmt.Errorf("threshold must be between 1 and 95")
	}
	return threshold, nil
}

func normalizeCandles(candles []domain.Candle, required bool) ([]domain.Candle, error) {
	if len(candles) == 0 && required {
		return nil, fmt.Errorf("candles are required")
	}
	if len(candles) > maxCandles {
		return nil, fmt.Errorf("too many candles: %d, max %d", len(candles), maxCandles)
	}
	return candles, nil
}

func analyzeSettings(in signalsAnalyzeInput) (domain.AnalysisSettings, error) {
	pairs, err := normalizePairs(in.Pairs, maxAnalyzePairs)
	if err != nil {
		return domain.AnalysisSettings{}, err
	}
	tf, err := normalizeTimeframe(in.Timeframe)
	if err != nil {
		return domain.AnalysisSettings{}, err
	}
	threshold, err := normalizeThreshold(in.Threshold)
	if err != nil {
		return domain.AnalysisSettings{}, err
	}
	return domain.AnalysisSettings{
		SelectedPairs:    pairs,
		Timeframe:        tf,
		StartTime:        strings.TrimSpace(in.StartTime),
		EndTime:          strings.TrimSpace(in.EndTime),
		SuccessThreshold: threshold,
	}, nil
}
