package mcp

import (
	"context"
	"fmt"

	"otc-signals/internal/indicator"
	"otc-signals/internal/signal"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerTools(server *mcp.Server, analyzer Analyzer, market MarketReader) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "signals_analyze",
		Description: "Generate a deduplicated schedule of CALL/PUT signals for the given pairs inside a daily time window",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in signalsAnalyzeInput) (*mcp.CallToolResult, signalsAnalyzeOutput, error) {
		if analyzer == nil {
			return nil, signalsAnalyzeOutput{}, fmt.Errorf("analysis service unavailable")
		}
		settings, err := analyzeSettings(in)
		if err != nil {
			return nil, signalsAnalyzeOutput{}, err
		}
		result, err := analyzer.Analyze(ctx, settings)
		if err != nil {
			return nil, signalsAnalyzeOutput{}, err
		}
		return nil, signalsAnalyzeOutput{Count: len(result), Signals: result}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "pair_evaluate",
		Description: "Compute indicators, rule score and entry/exit levels for one pair",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in pairEvaluateInput) (*mcp.CallToolResult, pairEvaluateOutput, error) {
		if analyzer == nil {
			return nil, pairEvaluateOutput{}, fmt.Errorf("analysis service unavailable")
		}
		pair, err := normalizePair(in.Pair)
		if err != nil {
			return nil, pairEvaluateOutput{}, err
		}
		tf, err := normalizeTimeframe(in.Timeframe)
		if err != nil {
			return nil, pairEvaluateOutput{}, err
		}
		threshold, err := normalizeThreshold(in.Threshold)
		if err != nil {
			return nil, pairEvaluateOutput{}, err
		}
		candles, err := normalizeCandles(in.Candles, false)
		if err != nil {
			return nil, pairEvaluateOutput{}, err
		}
		eval, err := analyzer.Evaluate(ctx, pair, tf, candles, threshold)
		if err != nil {
			return nil, pairEvaluateOutput{}, err
		}
		// The output schema requires an object here.
		if eval.Readings == nil {
			eval.Readings = signal.Readings(eval.Snapshot)
		}
		return nil, pairEvaluateOutput{Evaluation: eval}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "indicators_compute",
		Description: "Compute RSI, MACD, moving averages, stochastic, ATR and ADX from OHLC candles",
	}, func(_ context.Context, _ *mcp.CallToolRequest, in indicatorsComputeInput) (*mcp.CallToolResult, indicatorsComputeOutput, error) {
		candles, err := normalizeCandles(in.Candles, true)
		if err != nil {
			return nil, indicatorsComputeOutput{}, err
		}
		return nil, indicatorsComputeOutput{Indicators: indicator.Compute(candles)}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "signal_score",
		Description: "Score an indicator snapshot into a direction, strength and confidence",
	}, func(_ context.Context, _ *mcp.CallToolRequest, in signalScoreInput) (*mcp.CallToolResult, signalScoreOutput, error) {
		threshold, err := normalizeThreshold(in.Threshold)
		if err != nil {
			return nil, signalScoreOutput{}, err
		}
		return nil, signalScoreOutput{Score: signal.Score(in.Indicators, threshold)}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "market_prices",
		Description: "Get current quotes for pairs; symbols without a live quote get a synthetic price",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in marketPricesInput) (*mcp.CallToolResult, marketPricesOutput, error) {
		if market == nil {
			return nil, marketPricesOutput{}, fmt.Errorf("market data service unavailable")
		}
		symbols, err := normalizePairs(in.Symbols, maxPriceSymbols)
		if err != nil {
			return nil, marketPricesOutput{}, err
		}
		return nil, marketPricesOutput{Prices: market.Prices(ctx, symbols)}, nil
	})
}
