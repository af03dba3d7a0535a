package job

import (
	"context"
	"sort"
	"sync"
	"time"

	"otc-signals/internal/domain"
	"otc-signals/internal/marketdata"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const recorderFlushTick = time.Minute

type QuoteFeed interface {
	Subscribe(symbol string, cb marketdata.PriceFunc) error
	Unsubscribe(symbol string)
}

type CandleWriter interface {
	UpsertCandles(ctx context.Context, pair string, tf domain.Timeframe, candles []domain.Candle) error
}

type barKey struct {
	pair string
	tf   domain.Timeframe
}

// CandleRecorder folds live quotes into bars for every supported timeframe
// and persists each bar once it has closed.
type CandleRecorder struct {
	tracer trace.Tracer
	feed   QuoteFeed
	store  CandleWriter
	pairs  []string
	logger zerolog.Logger
	now    func() time.Time

	mu   sync.Mutex
	open map[barKey]domain.Candle
	done map[barKey][]domain.Candle
}

func NewCandleRecorder(tracer trace.Tracer, feed QuoteFeed, store CandleWriter, pairs []string, logger zerolog.Logger) *CandleRecorder {
	return &CandleRecorder{
		tracer: tracer,
		feed:   feed,
		store:  store,
		pairs:  append([]string(nil), pairs...),
		logger: logger.With().Str("component", "candle-recorder").Logger(),
		now:    time.Now,
		open:   make(map[barKey]domain.Candle),
		done:   make(map[barKey][]domain.Candle),
	}
}

// Start blocks until ctx is cancelled, then flushes what has closed.
func (r *CandleRecorder) Start(ctx context.Context) {
	if r == nil || r.feed == nil || r.store == nil || len(r.pairs) == 0 {
		<-ctx.Done()
		return
	}

	for _, pair := range r.pairs {
		if err := r.feed.Subscribe(pair, r.Record); err != nil {
			r.logger.Warn().Err(err).Str("pair", pair).Msg("subscribe failed")
		}
	}
	r.logger.Info().Strs("pairs", r.pairs).Msg("candle recorder starting")

	ticker := time.NewTicker(recorderFlushTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			for _, pair := range r.pairs {
				r.feed.Unsubscribe(pair)
			}
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			r.Flush(flushCtx)
			cancel()
			r.logger.Info().Msg("candle recorder stopped")
			return
		case <-ticker.C:
			r.Flush(ctx)
		}
	}
}

// Record folds one quote into the open bar of each timeframe.
func (r *CandleRecorder) Record(p marketdata.Price) {
	if p.Price <= 0 || p.Symbol == "" {
		return
	}
	ts := p.Timestamp
	if ts <= 0 {
		ts = r.now().UnixMilli()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tf := range domain.SupportedTimeframes {
		step := int64(tf.Minutes()) * int64(time.Minute/time.Millisecond)
		start := ts - ts%step
		key := barKey{pair: p.Symbol, tf: tf}

		bar, ok := r.open[key]
		switch {
		case !ok:
			r.open[key] = domain.Candle{Open: p.Price, High: p.Price, Low: p.Price, Close: p.Price, Timestamp: start}
			continue
		case start < bar.Timestamp:
			// late quote for a bar already handed off
			continue
		case start > bar.Timestamp:
			r.done[key] = append(r.done[key], bar)
			r.open[key] = domain.Candle{Open: p.Price, High: p.Price, Low: p.Price, Close: p.Price, Timestamp: start}
			continue
		}
		if p.Price > bar.High {
			bar.High = p.Price
		}
		if p.Price < bar.Low {
			bar.Low = p.Price
		}
		bar.Close = p.Price
		r.open[key] = bar
	}
}

// Flush writes closed bars. Bars whose write fails are kept for the next round.
func (r *CandleRecorder) Flush(ctx context.Context) int {
	ctx, span := r.tracer.Start(ctx, "candle-recorder.flush")
	defer span.End()

	r.mu.Lock()
	pending := r.done
	r.done = make(map[barKey][]domain.Candle)
	r.mu.Unlock()

	keys := make([]barKey, 0, len(pending))
	for k := range pending {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].pair != keys[j].pair {
			return keys[i].pair < keys[j].pair
		}
		return keys[i].tf.Minutes() < keys[j].tf.Minutes()
	})

	written := 0
	for _, k := range keys {
		bars := pending[k]
		if err := r.store.UpsertCandles(ctx, k.pair, k.tf, bars); err != nil {
			r.logger.Warn().Err(err).Str("pair", k.pair).Str("timeframe", string(k.tf)).Msg("candle write failed")
			r.mu.Lock()
			r.done[k] = append(bars, r.done[k]...)
			r.mu.Unlock()
			continue
		}
		written += len(bars)
	}
	span.SetAttributes(attribute.Int("written", written))
	if written > 0 {
		r.logger.Debug().Int("bars", written).Msg("candles flushed")
	}
	return written
}
