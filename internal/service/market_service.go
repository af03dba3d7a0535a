package service

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"otc-signals/internal/metrics"
	"otc-signals/internal/signal"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const connectCooldown = 30 * time.Second

type LiveFeed interface {
	Connect(ctx context.Context) error
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
	IsConnected() bool
}

type PriceCache interface {
	Get(ctx context.Context, symbol string) (float64, bool, error)
	Set(ctx context.Context, symbol string, price float64) error
}

type MarketStatus struct {
	Connected bool  `json:"connected"`
	Timestamp int64 `json:"timestamp"`
}

// MarketService answers quote lookups from the cache, then the live feed.
// Either may be nil.
type MarketService struct {
	tracer  trace.Tracer
	feed    LiveFeed
	cache   PriceCache
	metrics *metrics.Metrics
	logger  zerolog.Logger
	now     func() time.Time

	mu          sync.Mutex
	rng         signal.Rand
	lastConnect time.Time
}

func NewMarketService(tracer trace.Tracer, feed LiveFeed, cache PriceCache, m *metrics.Metrics, logger zerolog.Logger) *MarketService {
	return &MarketService{
		tracer:  tracer,
		feed:    feed,
		cache:   cache,
		metrics: m,
		logger:  logger.With().Str("component", "market-service").Logger(),
		now:     time.Now,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Price reports false when neither the cache nor the feed produced a quote.
func (s *MarketService) Price(ctx context.Context, symbol string) (float64, bool) {
	ctx, span := s.tracer.Start(ctx, "market-service.price")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	if s.cache != nil {
		price, ok, err := s.cache.Get(ctx, symbol)
		if err != nil {
			s.logger.Warn().Err(err).Str("symbol", symbol).Msg("price cache read failed")
		}
		if ok {
			s.count("cache")
			return price, true
		}
	}

	if s.feed == nil || !s.feed.IsConnected() {
		return 0, false
	}
	price, err := s.feed.CurrentPrice(ctx, symbol)
	if err != nil {
		s.logger.Warn().Err(err).Str("symbol", symbol).Msg("live price unavailable")
		return 0, false
	}
	s.count("live")
	if s.cache != nil {
		if err := s.cache.Set(ctx, symbol, price); err != nil {
			s.logger.Warn().Err(err).Str("symbol", symbol).Msg("price cache write failed")
		}
	}
	return price, true
}

// Prices never fails: a symbol without a quote gets 1.0 plus up to 0.1.
func (s *MarketService) Prices(ctx context.Context, symbols []string) map[string]float64 {
	ctx, span := s.tracer.Start(ctx, "market-service.prices")
	defer span.End()

	s.ensureConnected(ctx)

	out := make(map[string]float64, len(symbols))
	for _, symbol := range symbols {
		if price, ok := s.Price(ctx, symbol); ok {
			out[symbol] = price
			continue
		}
		s.count("synthetic")
		out[symbol] = 1.0 + s.float64()*0.1
	}
	return out
}

func (s *MarketService) Status() MarketStatus {
	connected := s.feed != nil && s.feed.IsConnected()
	return MarketStatus{Connected: connected, Timestamp: s.now().UnixMilli()}
}

// ensureConnected dials a dropped feed, at most once per cooldown.
func (s *MarketService) ensureConnected(ctx context.Context) {
	if s.feed == nil || s.feed.IsConnected() {
		return
	}
	s.mu.Lock()
	if !s.lastConnect.IsZero() && s.now().Sub(s.lastConnect) < connectCooldown {
		s.mu.Unlock()
		return
	}
	s.lastConnect = s.now()
	s.mu.Unlock()

	if err := s.feed.Connect(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("market feed connect failed")
	}
}

func (s *MarketService) float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func (s *MarketService) count(source string) {
	if s.metrics != nil {
		s.metrics.PriceLookups.WithLabelValues(source).Inc()
	}
}
