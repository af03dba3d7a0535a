package job

import (
	"context"
	"errors"
	"time"

	"otc-signals/internal/domain"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultBroadcastGap = 5
	maxBroadcastSpan    = 23*time.Hour + 59*time.Minute
)

type Analyzer interface {
	AnalyzeWithGap(ctx context.Context, settings domain.AnalysisSettings, minGap int) ([]domain.Signal, error)
}

type AlertNotifier interface {
	NotifySignals(ctx context.Context, signals []domain.Signal, tf domain.Timeframe) (int, error)
}

type SignalSender interface {
	SendSignals(ctx context.Context, chatID string, signals []domain.Signal, tf domain.Timeframe) error
}

type ChannelLister interface {
	ListEnabled(ctx context.Context) ([]domain.TelegramChannel, error)
}

type BroadcastConfig struct {
	Interval  time.Duration
	Pairs     []string
	Timeframe domain.Timeframe
	Gap       int
	Location  *time.Location
}

// SignalBroadcaster schedules the next interval's signals and pushes them to
// alert subscribers and every enabled channel.
type SignalBroadcaster struct {
	tracer   trace.Tracer
	analyzer Analyzer
	alerts   AlertNotifier
	sender   SignalSender
	channels ChannelLister
	cfg      BroadcastConfig
	logger   zerolog.Logger
	now      func() time.Time
}

// NewSignalBroadcaster takes nil for any delivery target that is not configured.
func NewSignalBroadcaster(tracer trace.Tracer, analyzer Analyzer, alerts AlertNotifier, sender SignalSender, channels ChannelLister, cfg BroadcastConfig, logger zerolog.Logger) *SignalBroadcaster {
	if cfg.Gap <= 0 {
		cfg.Gap = DefaultBroadcastGap
	}
	if !cfg.Timeframe.Valid() {
		cfg.Timeframe = domain.TimeframeM1
	}
	if len(cfg.Pairs) == 0 {
		cfg.Pairs = append([]string(nil), domain.DefaultPairs...)
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &SignalBroadcaster{
		tracer:   tracer,
		analyzer: analyzer,
		alerts:   alerts,
		sender:   sender,
		channels: channels,
		cfg:      cfg,
		logger:   logger.With().Str("component", "signal-broadcaster").Logger(),
		now:      time.Now,
	}
}

// Start blocks until ctx is cancelled.
func (b *SignalBroadcaster) Start(ctx context.Context) {
	if b == nil || b.analyzer == nil || b.cfg.Interval <= 0 {
		<-ctx.Done()
		return
	}

	b.logger.Info().Dur("interval", b.cfg.Interval).Strs("pairs", b.cfg.Pairs).Msg("signal broadcaster starting")
	ticker := time.NewTicker(b.cfg.Interval)
	defer ticker.Stop()

	b.run(ctx)
	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("signal broadcaster stopped")
			return
		case <-ticker.C:
			b.run(ctx)
		}
	}
}

func (b *SignalBroadcaster) run(ctx context.Context) {
	if _, err := b.RunOnce(ctx); err != nil {
		b.logger.Warn().Err(err).Msg("broadcast round incomplete")
	}
}

// RunOnce reports how many chats received the batch, alert subscribers and
// channels together.
func (b *SignalBroadcaster) RunOnce(ctx context.Context) (int, error) {
	ctx, span := b.tracer.Start(ctx, "signal-broadcaster.run")
	defer span.End()

	signals, err := b.analyzer.AnalyzeWithGap(ctx, b.settings(), b.cfg.Gap)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	span.SetAttributes(attribute.Int("signals", len(signals)))
	if len(signals) == 0 {
		return 0, nil
	}

	var errs []error
	subscribers := 0
	if b.alerts != nil {
		n, err := b.alerts.NotifySignals(ctx, signals, b.cfg.Timeframe)
		if err != nil {
			errs = append(errs, err)
		}
		subscribers = n
	}
	delivered := 0
	if b.channels != nil && b.sender != nil {
		channels, err := b.channels.ListEnabled(ctx)
		if err != nil {
			errs = append(errs, err)
		}
		for _, ch := range channels {
			if err := b.sender.SendSignals(ctx, ch.ChatID, signals, b.cfg.Timeframe); err != nil {
				errs = append(errs, err)
				continue
			}
			delivered++
		}
	}

	span.SetAttributes(attribute.Int("subscribers", subscribers), attribute.Int("channels", delivered))
	b.logger.Info().Int("signals", len(signals)).Int("subscribers", subscribers).Int("channels", delivered).Msg("broadcast round complete")
	return subscribers + delivered, errors.Join(errs...)
}

// settings covers the minutes between now and the next round.
func (b *SignalBroadcaster) settings() domain.AnalysisSettings {
	span := b.cfg.Interval
	if span > maxBroadcastSpan {
		span = maxBroadcastSpan
	}
	now := b.now().In(b.cfg.Location)
	return domain.AnalysisSettings{
		SelectedPairs: append([]string(nil), b.cfg.Pairs...),
		Timeframe:     b.cfg.Timeframe,
		StartTime:     now.Add(time.Minute).Format("15:04"),
		EndTime:       now.Add(span).Format("15:04"),
	}
}
