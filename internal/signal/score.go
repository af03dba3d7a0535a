package signal

import (
	"math"
	"time"

	"otc-signals/internal/domain"
)

const (
	weightEMA        = 2.0
	weightStochastic = 2.5
	weightRSI        = 2.0
	weightMACD       = 3.0
	weightADX        = 1.5

	// emaBandPct is expressed in percent of EMA21.
	emaBandPct    = 0.02
	macdThreshold = 0.001

	maxConfidence = 95.0
	minGapFloor   = 65.0
)

// Score turns a snapshot into a directional call. The bands overlap on purpose
// around the EMA: a distance inside +/-0.02% feeds both sides.
func Score(s domain.IndicatorSnapshot, threshold int) domain.ScoreResult {
	var buy, sell float64

	dist := emaDistancePct(s)
	if dist > emaBandPct {
		buy += weightEMA * 2
	} else if dist > -emaBandPct {
		buy += weightEMA
	}
	if dist < -emaBandPct {
		sell += weightEMA * 2
	} else if dist < emaBandPct {
		sell += weightEMA
	}

	switch {
	case s.Stochastic < 20:
		buy += weightStochastic * 2
	case s.Stochastic < 40:
		buy += weightStochastic * 1.2
	case s.Stochastic < 50:
		buy += weightStochastic * 0.5
	}
	switch {
	case s.Stochastic > 80:
		sell += weightStochastic * 2
	case s.Stochastic > 60:
		sell += weightStochastic * 1.2
	case s.Stochastic > 50:
		sell += weightStochastic * 0.5
	}

	switch {
	case s.RSI > 60:
		buy += weightRSI * ((s.RSI - 50) / 50) * 1.5
	case s.RSI > 50:
		buy += weightRSI * 0.7
	}
	switch {
	case s.RSI < 40:
		sell += weightRSI * ((50 - s.RSI) / 50) * 1.5
	case s.RSI < 50:
		sell += weightRSI * 0.7
	}

	diff := s.MACD - s.MACDSignal
	macdStrength := math.Min(math.Abs(diff)*500, 2)
	switch {
	case diff > macdThreshold:
		buy += weightMACD * (1 + macdStrength)
	case diff > 0:
		buy += weightMACD * 0.5
	}
	switch {
	case diff < -macdThreshold:
		sell += weightMACD * (1 + macdStrength)
	case diff < 0:
		sell += weightMACD * 0.5
	}

	multiplier := 0.85
	switch {
	case s.ADX > 30:
		multiplier = 1.3
		buy += weightADX * 1.5
		sell += weightADX * 1.5
	case s.ADX > 20:
		multiplier = 1.15
		buy += weightADX
		sell += weightADX
	case s.ADX > 15:
		multiplier = 1.0
		buy += weightADX * 0.5
		sell += weightADX * 0.5
	}
	buy *= multiplier
	sell *= multiplier

	total := buy + sell
	gap := math.Abs(buy - sell)
	confidence := 50.0
	if total > 0 {
		confidence = gap / total * 100
	}

	bonus := 1.0
	if (s.RSI > 50 && diff > 0) || (s.RSI < 50 && diff < 0) {
		bonus += 0.15
	}
	if (s.Stochastic < 40 && diff > 0) || (s.Stochastic > 60 && diff < 0) {
		bonus += 0.15
	}
	if s.ADX > 30 {
		bonus += 0.2
	} else if s.ADX > 20 {
		bonus += 0.1
	}
	confidence = math.Min(confidence*bonus, maxConfidence)
	if gap > 2 {
		confidence = math.Max(confidence, minGapFloor)
	}

	direction := domain.DirectionPut
	if buy > sell {
		direction = domain.DirectionCall
	}

	strength := domain.StrengthWeak
	if confidence >= 75 && s.ADX > 20 && gap > 3 {
		strength = domain.StrengthStrong
	} else if confidence >= 60 && gap > 2 {
		strength = domain.StrengthMedium
	}

	successBase, profitBase := 76.0, 73.0
	switch strength {
	case domain.StrengthStrong:
		successBase, profitBase = 83, 79
	case domain.StrengthMedium:
		successBase, profitBase = 79, 76
	}

	return domain.ScoreResult{
		Direction:      direction,
		Strength:       strength,
		Confidence:     confidence,
		SuccessRate:    math.Min(successBase+confidence/100*9, 93),
		ProfitRate:     math.Min(profitBase+confidence/100*11, 90),
		BuyScore:       buy,
		SellScore:      sell,
		MeetsThreshold: confidence >= float64(threshold),
	}
}

func emaDistancePct(s domain.IndicatorSnapshot) float64 {
	if s.EMA21 == 0 {
		return 0
	}
	return (s.CurrentPrice() - s.EMA21) / s.EMA21 * 100
}

// Levels is the trade plan derived from a score: one-minute binary option
// entering on the next whole minute.
type Levels struct {
	EntryPrice float64   `json:"entryPrice"`
	ExitPrice  float64   `json:"exitPrice"`
	EntryTime  time.Time `json:"entryTime"`
	ExitTime   time.Time `json:"exitTime"`
}

func PlanLevels(result domain.ScoreResult, price, atr float64, now time.Time) Levels {
	exit := price * (1 - atr*1.5)
	if result.Direction == domain.DirectionCall {
		exit = price * (1 + atr*1.5)
	}
	entry := now.Truncate(time.Minute).Add(time.Minute)
	return Levels{
		EntryPrice: Round(price, 5),
		ExitPrice:  Round(exit, 5),
		EntryTime:  entry,
		ExitTime:   entry.Add(time.Minute),
	}
}

// Reading pairs a rounded indicator value with its textual verdict.
type Reading struct {
	Value  float64 `json:"value"`
	Signal string  `json:"signal"`
}

// ReadingOrder is the display order of the keys Readings returns.
var ReadingOrder = []string{"ema21", "stochastic", "rsi", "macd", "atr", "adx"}

// Readings labels each indicator the way the algorithm panel shows them.
func Readings(s domain.IndicatorSnapshot) map[string]Reading {
	dist := emaDistancePct(s)
	diff := s.MACD - s.MACDSignal

	bullish := func(ok bool) string {
		if ok {
			return "صعودي"
		}
		return "هبوطي"
	}

	stoch := "محايد"
	if s.Stochastic < 20 {
		stoch = "ذروة بيع"
	} else if s.Stochastic > 80 {
		stoch = "ذروة شراء"
	}

	volatility := "تقلب منخفض"
	if s.ATR > 0.0015 {
		volatility = "تقلب عالي"
	}

	trend := "اتجاه ضعيف"
	switch {
	case s.ADX > 30:
		trend = "اتجاه قوي جداً"
	case s.ADX > 20:
		trend = "اتجاه قوي"
	case s.ADX > 15:
		trend = "اتجاه متوسط"
	}

	return map[string]Reading{
		"ema21":      {Value: Round(s.EMA21, 5), Signal: bullish(dist > 0)},
		"stochastic": {Value: Round(s.Stochastic, 1), Signal: stoch},
		"rsi":        {Value: Round(s.RSI, 1), Signal: bullish(s.RSI > 50)},
		"macd":       {Value: Round(diff, 4), Signal: bullish(diff > 0)},
		"atr":        {Value: Round(s.ATR, 5), Signal: volatility},
		"adx":        {Value: Round(s.ADX, 1), Signal: trend},
	}
}

func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
