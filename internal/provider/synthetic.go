package provider

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"otc-signals/internal/domain"
)

// SyntheticBars is the length of a generated series.
const SyntheticBars = 50

type Rand interface {
	Float64() float64
}

// Synthetic produces a plausible candle series around an anchor price: a slow
// sine trend, uniform noise and random wicks, all scaled to the anchor.
type Synthetic struct {
	mu  sync.Mutex
	rng Rand
	now func() time.Time
}

func NewSynthetic(rng Rand, now func() time.Time) *Synthetic {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if now == nil {
		now = time.Now
	}
	return &Synthetic{rng: rng, now: now}
}

// Candles returns n bars, oldest first, with the last bar closing at the
// current timeframe boundary.
func (s *Synthetic) Candles(anchor float64, tf domain.Timeframe, n int) []domain.Candle {
	if n <= 0 {
		return nil
	}
	if anchor <= 0 {
		anchor = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	step := time.Duration(tf.Minutes()) * time.Minute
	end := s.now().Truncate(step)

	out := make([]domain.Candle, n)
	price := anchor * (1 + (s.rng.Float64()-0.5)*0.005)
	for i := 0; i < n; i++ {
		open := price
		trend := math.Sin(float64(i)/10) * 0.0005 * anchor
		noise := (s.rng.Float64() - 0.5) * 0.0008 * anchor
		closePrice := open + trend + noise
		wick := (0.0003 + s.rng.Float64()*0.0005) * anchor

		out[i] = domain.Candle{
			Open:      open,
			High:      math.Max(open, closePrice) + wick,
			Low:       math.Min(open, closePrice) - wick,
			Close:     closePrice,
			Timestamp: end.Add(-time.Duration(n-1-i) * step).UnixMilli(),
		}
		price = closePrice
	}
	return out
}
