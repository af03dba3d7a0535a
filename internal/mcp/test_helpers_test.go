package mcp

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"otc-signals/internal/domain"
	"otc-signals/internal/service"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type stubAnalyzer struct {
	mu sync.Mutex

	signals    []domain.Signal
	evaluation service.Evaluation
	err        error

	lastSettings  domain.AnalysisSettings
	lastPair      string
	lastTimeframe domain.Timeframe
	lastCandles   []domain.Candle
	lastThreshold int
}

func (s *stubAnalyzer) Analyze(ctx context.Context, settings domain.AnalysisSettings) ([]domain.Signal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSettings = settings
	if s.err != nil {
		return nil, s.err
	}
	return append([]domain.Signal(nil), s.signals...), nil
}

func (s *stubAnalyzer) Evaluate(ctx context.Context, pair string, tf domain.Timeframe, candles []domain.Candle, threshold int) (service.Evaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPair = pair
	s.lastTimeframe = tf
	s.lastCandles = append([]domain.Candle(nil), candles...)
	s.lastThreshold = threshold
	if s.err != nil {
		return service.Evaluation{}, s.err
	}
	eval := s.evaluation
	eval.Pair = pair
	eval.Timeframe = tf
	return eval, nil
}

type stubMarket struct {
	mu          sync.Mutex
	prices      map[string]float64
	connected   bool
	lastSymbols []string
}

func (m *stubMarket) Prices(ctx context.Context, symbols []string) map[string]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSymbols = append([]string(nil), symbols...)
	out := make(map[string]float64, len(symbols))
	for _, sym := range symbols {
		if p, ok := m.prices[sym]; ok {
			out[sym] = p
			continue
		}
		out[sym] = 1.05
	}
	return out
}

func (m *stubMarket) Status() service.MarketStatus {
	return service.MarketStatus{Connected: m.connected, Timestamp: 1715331600000}
}

func testServer() (*sdkmcp.Server, *stubAnalyzer, *stubMarket) {
	analyzer := &stubAnalyzer{
		signals: []domain.Signal{
			{ID: "EUR/USD-OTC-1", Pair: "EUR/USD-OTC", Direction: domain.DirectionCall, Duration: 1, Confidence: 86, EntryTime: "10:00", Price: 1.08, Timestamp: time.Unix(0, 0).UTC()},
			{ID: "GBP/USD-OTC-2", Pair: "GBP/USD-OTC", Direction: domain.DirectionPut, Duration: 1, Confidence: 80, EntryTime: "10:05", Price: 1.25, Timestamp: time.Unix(0, 0).UTC()},
		},
		evaluation: service.Evaluation{
			Snapshot: domain.IndicatorSnapshot{RSI: 61, Stochastic: 40, ADX: 28, EMA21: 1.1, Price: 1.1},
			Score:    domain.ScoreResult{Direction: domain.DirectionCall, Strength: domain.StrengthMedium, Confidence: 82},
		},
	}
	market := &stubMarket{prices: map[string]float64{"EUR/USD-OTC": 1.0871}, connected: true}

	srv := NewServer(nil, analyzer, market, ServerConfig{RequestTimeout: time.Second})
	return srv, analyzer, market
}

func connectInMemory(ctx context.Context, srv *sdkmcp.Server) (*sdkmcp.ClientSession, context.CancelFunc, error) {
	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	runCtx, cancel := context.WithCancel(ctx)
	go func() { _ = srv.Run(runCtx, serverTransport) }()

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "mcp-test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return session, cancel, nil
}

func decodeResourceJSON(result *sdkmcp.ReadResourceResult, out any) error {
	if len(result.Contents) == 0 {
		return nil
	}
	return json.Unmarshal([]byte(result.Contents[0].Text), out)
}

func decodeStructured(result *sdkmcp.CallToolResult, out any) error {
	body, err := json.Marshal(result.StructuredContent)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}
