// Package indicator holds the pure technical-analysis functions behind every
// snapshot. Short series never fail: each function returns a documented
// neutral value instead.
package indicator

import (
	"math"

	"otc-signals/internal/domain"
)

const (
	RSIPeriod        = 7
	MACDFastPeriod   = 12
	MACDSlowPeriod   = 26
	MACDSignalPeriod = 9
	StochasticPeriod = 5
	EMAPeriod        = 21
	MAShortPeriod    = 20
	MALongPeriod     = 50
	ATRPeriod        = 14
	ADXPeriod        = 14

	NeutralRSI        = 50.0
	NeutralStochastic = 50.0
	DefaultATR        = 0.001
	DefaultADX        = 20.0
)

// RSI uses simple averages of the last period deltas.
func RSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return NeutralRSI
	}

	var gains, losses float64
	for i := len(closes) - period; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains += change
		} else {
			losses += -change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// EMA seeds with the SMA of the first period prices and runs the recurrence
// over the rest. A series shorter than period yields its last price.
func EMA(prices []float64, period int) float64 {
	if len(prices) == 0 {
		return 0
	}
	if period <= 0 || len(prices) < period {
		return prices[len(prices)-1]
	}

	var sum float64
	for _, p := range prices[:period] {
		sum += p
	}
	ema := sum / float64(period)
	for _, p := range prices[period:] {
		ema = EMAStep(ema, p, period)
	}
	return ema
}

// EMAStep advances an EMA by one price.
func EMAStep(prev, price float64, period int) float64 {
	k := 2 / (float64(period) + 1)
	return price*k + prev*(1-k)
}

func SMA(prices []float64, period int) float64 {
	if len(prices) == 0 {
		return 0
	}
	if period <= 0 || len(prices) < period {
		return prices[len(prices)-1]
	}
	var sum float64
	for _, p := range prices[len(prices)-period:] {
		sum += p
	}
	return sum / float64(period)
}

// MACD returns EMA12-EMA26 and a 9-period EMA over the MACD history, where
// history[j] is the MACD of the prefix ending at index MACDSlowPeriod+j.
// An empty history makes the signal equal to the MACD value.
func MACD(closes []float64) (macd, signal float64) {
	if len(closes) == 0 {
		return 0, 0
	}
	macd = EMA(closes, MACDFastPeriod) - EMA(closes, MACDSlowPeriod)

	history := macdHistory(closes)
	if len(history) == 0 {
		return macd, macd
	}
	return macd, EMA(history, MACDSignalPeriod)
}

// macdHistory walks both EMAs forward once. The arithmetic matches recomputing
// EMA on every prefix, operation for operation, so the values are identical.
func macdHistory(closes []float64) []float64 {
	if len(closes) <= MACDSlowPeriod {
		return nil
	}

	fast := newRunningEMA(MACDFastPeriod)
	slow := newRunningEMA(MACDSlowPeriod)
	history := make([]float64, 0, len(closes)-MACDSlowPeriod)
	for i, c := range closes {
		fast.add(c)
		slow.add(c)
		if i >= MACDSlowPeriod {
			history = append(history, fast.value-slow.value)
		}
	}
	return history
}

type runningEMA struct {
	period int
	count  int
	sum    float64
	value  float64
}

func newRunningEMA(period int) *runningEMA {
	return &runningEMA{period: period}
}

func (r *runningEMA) add(price float64) {
	r.count++
	switch {
	case r.count < r.period:
		r.sum += price
		r.value = price
	case r.count == r.period:
		r.sum += price
		r.value = r.sum / float64(r.period)
	default:
		r.value = EMAStep(r.value, price, r.period)
	}
}

func Stochastic(highs, lows, closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period || len(highs) < period || len(lows) < period {
		return NeutralStochastic
	}

	highest := math.Inf(-1)
	for _, h := range highs[len(highs)-period:] {
		highest = math.Max(highest, h)
	}
	lowest := math.Inf(1)
	for _, l := range lows[len(lows)-period:] {
		lowest = math.Min(lowest, l)
	}
	if highest == lowest {
		return NeutralStochastic
	}
	return (closes[len(closes)-1] - lowest) / (highest - lowest) * 100
}

func trueRange(high, low, prevClose float64) float64 {
	return math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
}

func ATR(highs, lows, closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 || len(highs) != len(closes) || len(lows) != len(closes) {
		return DefaultATR
	}

	var sum float64
	for i := len(closes) - period; i < len(closes); i++ {
		sum += trueRange(highs[i], lows[i], closes[i-1])
	}
	return sum / float64(period)
}

// ADX reports the directional index of the last period bars. Only the larger
// positive of the paired high/low deltas counts per bar.
func ADX(highs, lows, closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 || len(highs) != len(closes) || len(lows) != len(closes) {
		return DefaultADX
	}

	var plusDM, minusDM, trSum float64
	for i := len(closes) - period; i < len(closes); i++ {
		highDiff := highs[i] - highs[i-1]
		lowDiff := lows[i-1] - lows[i]
		if highDiff > lowDiff && highDiff > 0 {
			plusDM += highDiff
		}
		if lowDiff > highDiff && lowDiff > 0 {
			minusDM += lowDiff
		}
		trSum += trueRange(highs[i], lows[i], closes[i-1])
	}
	if trSum == 0 {
		return DefaultADX
	}

	plusDI := plusDM / trSum * 100
	minusDI := minusDM / trSum * 100
	if plusDI+minusDI == 0 {
		return DefaultADX
	}
	return math.Abs(plusDI-minusDI) / (plusDI + minusDI) * 100
}

// Neutral is the snapshot reported for an empty series.
func Neutral() domain.IndicatorSnapshot {
	return domain.IndicatorSnapshot{
		RSI:        NeutralRSI,
		Stochastic: NeutralStochastic,
		ATR:        DefaultATR,
		ADX:        DefaultADX,
	}
}

// Compute builds a snapshot from a chronological candle series.
func Compute(candles []domain.Candle) domain.IndicatorSnapshot {
	if len(candles) == 0 {
		return Neutral()
	}

	closes, highs, lows := extract(candles)
	macd, signal := MACD(closes)
	return domain.IndicatorSnapshot{
		RSI:        RSI(closes, RSIPeriod),
		MACD:       macd,
		MACDSignal: signal,
		MA20:       SMA(closes, MAShortPeriod),
		MA50:       SMA(closes, MALongPeriod),
		Stochastic: Stochastic(highs, lows, closes, StochasticPeriod),
		EMA21:      EMA(closes, EMAPeriod),
		ATR:        ATR(highs, lows, closes, ATRPeriod),
		ADX:        ADX(highs, lows, closes, ADXPeriod),
		Price:      closes[len(closes)-1],
	}
}

func extract(candles []domain.Candle) (closes, highs, lows []float64) {
	closes = make([]float64, len(candles))
	highs = make([]float64, len(candles))
	lows = make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
	}
	return closes, highs, lows
}
