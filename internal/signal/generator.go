package signal

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"otc-signals/internal/domain"

	"github.com/google/uuid"
)

const (
	bullishVoteThreshold = 0.45
	maxIndicatorNames    = 3
)

// Rand is the randomness a Generator draws from. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// Advice is a parsed text-generation recommendation for one entry.
type Advice struct {
	Direction  domain.Direction `json:"direction"`
	Confidence int              `json:"confidence"`
	Reason     string           `json:"reason"`
}

// Generator builds individual signals. It is not safe for concurrent use;
// construct one per analysis request.
type Generator struct {
	rng Rand
	now func() time.Time
	ids func() string
}

func NewGenerator(rng Rand, now func() time.Time) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if now == nil {
		now = time.Now
	}
	return &Generator{rng: rng, now: now, ids: func() string { return uuid.New().String() }}
}

// Bonus returns the 0 or 1 extra signal added to each pair's count.
func (g *Generator) Bonus() int {
	return int(math.Floor(g.rng.Float64() * 2))
}

// BasePrice is the synthetic quote used when no live price is available.
func (g *Generator) BasePrice(pair string) float64 {
	if domain.IsJPY(pair) {
		return Round(100+g.rng.Float64()*50, 5)
	}
	return Round(1.1+g.rng.Float64()*0.3, 5)
}

// Fallback is the randomized path: each enabled indicator casts a bullish
// vote with probability 0.55 and the majority decides.
func (g *Generator) Fallback(pair, entryTime string, price float64, settings domain.AnalysisSettings) domain.Signal {
	enabled := domain.EnabledIndicators(settings.Indicators)

	votes := 0
	for range enabled {
		if g.rng.Float64() > bullishVoteThreshold {
			votes++
		}
	}
	direction := domain.DirectionPut
	if float64(votes) > float64(len(enabled))/2 {
		direction = domain.DirectionCall
	}

	threshold := settings.SuccessThreshold
	confidence := threshold
	if span := 95 - threshold; span > 0 {
		confidence = int(math.Floor(g.rng.Float64()*float64(span))) + threshold
	}

	expected := Round(price+(g.rng.Float64()-0.5)*0.01*price, 5)
	names := indicatorNames(enabled)
	reason := fmt.Sprintf("تحليل فني قوي: تطابق %d مؤشرات تشير إلى %s", len(names), direction.Arabic())

	return g.build(pair, entryTime, direction, confidence, expected, names, reason, settings.Timeframe)
}

// FromAdvice keeps the model's direction and clamps its confidence into
// [threshold, 95].
func (g *Generator) FromAdvice(pair, entryTime string, price float64, advice Advice, settings domain.AnalysisSettings) domain.Signal {
	confidence := advice.Confidence
	if confidence < settings.SuccessThreshold {
		confidence = settings.SuccessThreshold
	}
	if confidence > 95 {
		confidence = 95
	}
	names := indicatorNames(domain.EnabledIndicators(settings.Indicators))
	return g.build(pair, entryTime, advice.Direction, confidence, Round(price, 5), names, advice.Reason, settings.Timeframe)
}

func (g *Generator) build(pair, entryTime string, dir domain.Direction, confidence int, price float64, names []string, reason string, tf domain.Timeframe) domain.Signal {
	return domain.Signal{
		ID:         pair + "-" + g.ids(),
		Pair:       pair,
		Direction:  dir,
		Duration:   tf.Minutes(),
		Confidence: confidence,
		Timestamp:  g.now(),
		EntryTime:  entryTime,
		Indicators: names,
		Price:      price,
		Reason:     reason,
	}
}

func indicatorNames(enabled []domain.IndicatorConfig) []string {
	n := len(enabled)
	if n > maxIndicatorNames {
		n = maxIndicatorNames
	}
	names := make([]string, n)
	for i := 0; i < n; i++ {
		names[i] = enabled[i].Name
	}
	return names
}
