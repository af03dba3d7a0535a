package service

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"otc-signals/internal/advisor"
	"otc-signals/internal/domain"
	"otc-signals/internal/indicator"
	"otc-signals/internal/metrics"
	"otc-signals/internal/signal"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultMinGap   = 3
	DefaultTimezone = "Asia/Riyadh"
)

type PriceSource interface {
	Price(ctx context.Context, symbol string) (float64, bool)
}

type CandleProvider interface {
	Candles(ctx context.Context, pair string, tf domain.Timeframe, historicalDays int, anchor float64) ([]domain.Candle, bool)
}

type Advisor interface {
	Advise(ctx context.Context, req advisor.Request) (signal.Advice, error)
}

type AnalysisConfig struct {
	Timezone string
	MinGap   int
}

// Evaluation is the algorithm panel view of one pair.
type Evaluation struct {
	Pair      string                    `json:"pair"`
	Timeframe domain.Timeframe          `json:"timeframe"`
	Snapshot  domain.IndicatorSnapshot  `json:"indicators"`
	Score     domain.ScoreResult        `json:"score"`
	Levels    signal.Levels             `json:"levels"`
	Readings  map[string]signal.Reading `json:"readings"`
	FromStore bool                      `json:"fromStore"`
}

type AnalysisService struct {
	tracer   trace.Tracer
	prices   PriceSource
	candles  CandleProvider
	advisor  Advisor
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	location *time.Location
	minGap   int

	now     func() time.Time
	newRand func() signal.Rand
}

// NewAnalysisService accepts nil for prices, candles and advisor. A nil
// advisor means every signal takes the randomized path.
func NewAnalysisService(tracer trace.Tracer, prices PriceSource, candles CandleProvider, adv Advisor, m *metrics.Metrics, logger zerolog.Logger, cfg AnalysisConfig) *AnalysisService {
	logger = logger.With().Str("component", "analysis-service").Logger()
	if cfg.MinGap <= 0 {
		cfg.MinGap = DefaultMinGap
	}
	return &AnalysisService{
		tracer:   tracer,
		prices:   prices,
		candles:  candles,
		advisor:  adv,
		metrics:  m,
		logger:   logger,
		location: loadLocation(cfg.Timezone, logger),
		minGap:   cfg.MinGap,
		now:      time.Now,
		newRand: func() signal.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

func loadLocation(name string, logger zerolog.Logger) *time.Location {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		logger.Warn().Err(err).Str("timezone", name).Msg("unknown timezone, using GMT+3")
		return time.FixedZone("GMT+3", 3*60*60)
	}
	return loc
}

func (s *AnalysisService) Location() *time.Location { return s.location }

// Analyze builds the deduplicated schedule for the selected pairs. The only
// error it returns is a *domain.ValidationError.
func (s *AnalysisService) Analyze(ctx context.Context, settings domain.AnalysisSettings) ([]domain.Signal, error) {
	return s.AnalyzeWithGap(ctx, settings, s.minGap)
}

func (s *AnalysisService) AnalyzeWithGap(ctx context.Context, settings domain.AnalysisSettings, minGap int) ([]domain.Signal, error) {
	ctx, span := s.tracer.Start(ctx, "analysis-service.analyze")
	defer span.End()

	if len(settings.SelectedPairs) == 0 {
		s.observe("rejected", 0)
		s.logger.Info().Msg("analysis rejected: no pairs selected")
		return nil, &domain.ValidationError{Err: domain.ErrNoPairs}
	}
	started := time.Now()
	settings = settings.WithDefaults()
	span.SetAttributes(
		attribute.Int("pairs", len(settings.SelectedPairs)),
		attribute.String("timeframe", string(settings.Timeframe)),
	)

	now := s.now().In(s.location)
	window := signal.NewWindow(now, settings.StartTime, settings.EndTime)
	gen := signal.NewGenerator(s.newRand(), s.now)
	base := signal.SignalsPerPair(len(settings.SelectedPairs))

	var all []domain.Signal
	for _, pair := range settings.SelectedPairs {
		all = append(all, s.analyzePair(ctx, gen, window, pair, base, settings)...)
	}

	window.Sort(all)
	kept := window.Dedupe(all, minGap)
	if s.metrics != nil {
		s.metrics.SignalsDropped.Add(float64(len(all) - len(kept)))
	}
	s.observe("ok", time.Since(started))
	span.SetAttributes(attribute.Int("signals", len(kept)))
	s.logger.Info().
		Int("pairs", len(settings.SelectedPairs)).
		Int("generated", len(all)).
		Int("kept", len(kept)).
		Msg("analysis complete")
	return kept, nil
}

func (s *AnalysisService) analyzePair(ctx context.Context, gen *signal.Generator, window signal.Window, pair string, base int, settings domain.AnalysisSettings) []domain.Signal {
	ctx, span := s.tracer.Start(ctx, "analysis-service.analyze-pair")
	defer span.End()
	span.SetAttributes(attribute.String("pair", pair))

	price, live := 0.0, false
	if s.prices != nil {
		price, live = s.prices.Price(ctx, pair)
	}
	if !live {
		price = gen.BasePrice(pair)
	}
	span.SetAttributes(attribute.Bool("live_price", live))

	entries := window.EntryTimes(base + gen.Bonus())

	useAdvisor := s.advisor != nil
	var snap domain.IndicatorSnapshot
	var score domain.ScoreResult
	if useAdvisor {
		snap, score = s.evaluate(ctx, pair, settings, price)
	}

	out := make([]domain.Signal, 0, len(entries))
	for _, entry := range entries {
		if useAdvisor {
			advice, err := s.advisor.Advise(ctx, advisor.Request{
				Pair:      pair,
				Timeframe: settings.Timeframe,
				EntryTime: entry,
				Price:     price,
				Snapshot:  snap,
				Score:     score,
			})
			if err == nil {
				out = append(out, gen.FromAdvice(pair, entry, price, advice, settings))
				s.countSignal("advisor")
				continue
			}
			if !errors.Is(err, domain.ErrUpstreamUnavailable) && !errors.Is(err, domain.ErrMalformedResponse) {
				span.RecordError(err)
			}
			if s.metrics != nil {
				s.metrics.AdvisorFailures.Inc()
			}
			s.logger.Warn().Err(err).Str("pair", pair).Msg("advisor failed, using fallback for this pair")
			useAdvisor = false
		}
		out = append(out, gen.Fallback(pair, entry, price, settings))
		s.countSignal("fallback")
	}
	return out
}

func (s *AnalysisService) evaluate(ctx context.Context, pair string, settings domain.AnalysisSettings, price float64) (domain.IndicatorSnapshot, domain.ScoreResult) {
	var candles []domain.Candle
	if s.candles != nil {
		candles, _ = s.candles.Candles(ctx, pair, settings.Timeframe, settings.HistoricalDays, price)
	}
	snap := indicator.Compute(candles)
	return snap, signal.Score(snap, settings.SuccessThreshold)
}

// Evaluate scores one pair. When candles is empty they are fetched from the
// candle source, anchored on the current quote.
func (s *AnalysisService) Evaluate(ctx context.Context, pair string, tf domain.Timeframe, candles []domain.Candle, threshold int) (Evaluation, error) {
	ctx, span := s.tracer.Start(ctx, "analysis-service.evaluate")
	defer span.End()
	span.SetAttributes(attribute.String("pair", pair))

	if pair == "" {
		return Evaluation{}, &domain.ValidationError{Err: domain.ErrNoPairs}
	}
	if !tf.Valid() {
		tf = domain.TimeframeM1
	}
	if threshold <= 0 {
		threshold = domain.DefaultSuccessThreshold
	}

	fromStore := false
	if len(candles) == 0 {
		anchor, ok := 0.0, false
		if s.prices != nil {
			anchor, ok = s.prices.Price(ctx, pair)
		}
		if !ok {
			anchor = signal.NewGenerator(s.newRand(), s.now).BasePrice(pair)
		}
		if s.candles != nil {
			candles, fromStore = s.candles.Candles(ctx, pair, tf, domain.DefaultHistoricalDays, anchor)
		}
	}

	snap := indicator.Compute(candles)
	score := signal.Score(snap, threshold)
	return Evaluation{
		Pair:      pair,
		Timeframe: tf,
		Snapshot:  snap,
		Score:     score,
		Levels:    signal.PlanLevels(score, snap.CurrentPrice(), snap.ATR, s.now().In(s.location)),
		Readings:  signal.Readings(snap),
		FromStore: fromStore,
	}, nil
}

func (s *AnalysisService) observe(outcome string, d time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.AnalysesTotal.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		s.metrics.AnalysisDuration.Observe(d.Seconds())
	}
}

func (s *AnalysisService) countSignal(source string) {
	if s.metrics != nil {
		s.metrics.SignalsGenerated.WithLabelValues(source).Inc()
	}
}
