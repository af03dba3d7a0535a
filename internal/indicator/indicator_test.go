package indicator

import (
	"math"
	"math/rand"
	"testing"

	"otc-signals/internal/domain"
)

func TestRSIShortSeriesIsNeutral(t *testing.T) {
	if got := RSI([]float64{1, 2, 3}, 7); got != 50 {
		t.Fatalf("expected 50, got %v", got)
	}
	if got := RSI(nil, 7); got != 50 {
		t.Fatalf("expected 50 for empty input, got %v", got)
	}
}

func TestRSIFlatSeriesHitsZeroLossBranch(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 1.1
	}
	if got := RSI(closes, 14); got != 100 {
		t.Fatalf("expected 100 for flat series, got %v", got)
	}
}

func TestRSIMixedSeries(t *testing.T) {
	// Deltas over the last 2: +1, -1 -> avgGain == avgLoss -> 50.
	closes := []float64{10, 9, 10, 9}
	if got := RSI(closes, 2); math.Abs(got-50) > 1e-9 {
		t.Fatalf("expected 50, got %v", got)
	}
	// Deltas over the last 2: +3, -1 -> RS 3 -> 75.
	closes = []float64{10, 13, 12}
	if got := RSI(closes, 2); math.Abs(got-75) > 1e-9 {
		t.Fatalf("expected 75, got %v", got)
	}
}

func TestEMAShortSeriesReturnsLastPrice(t *testing.T) {
	if got := EMA([]float64{1, 2, 3}, 5); got != 3 {
		t.Fatalf("expected 3, got %v", got)
	}
	if got := EMA(nil, 5); got != 0 {
		t.Fatalf("expected 0 for empty input, got %v", got)
	}
}

func TestEMASeedAndRecurrence(t *testing.T) {
	// seed = mean(1,2,3) = 2, k = 0.5: 2*0.5+4*0.5 = 3, then 3*0.5+5*0.5 = 4.
	if got := EMA([]float64{1, 2, 3, 4, 5}, 3); math.Abs(got-4) > 1e-12 {
		t.Fatalf("expected 4, got %v", got)
	}
}

func TestEMAContinuesFromPrefix(t *testing.T) {
	prices := randomWalk(rand.New(rand.NewSource(7)), 80)
	const period = 21
	for k := period; k < len(prices); k += 9 {
		ema := EMA(prices[:k], period)
		for _, p := range prices[k:] {
			ema = EMAStep(ema, p, period)
		}
		if ema != EMA(prices, period) {
			t.Fatalf("prefix k=%d diverged: %v vs %v", k, ema, EMA(prices, period))
		}
	}
}

func TestSMA(t *testing.T) {
	if got := SMA([]float64{1, 2, 3, 4}, 2); got != 3.5 {
		t.Fatalf("expected 3.5, got %v", got)
	}
	if got := SMA([]float64{1, 2}, 5); got != 2 {
		t.Fatalf("expected last price, got %v", got)
	}
}

func TestMACDMatchesPrefixRecomputation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, n := range []int{1, 10, 26, 27, 35, 60, 200} {
		closes := randomWalk(rng, n)
		macd, signal := MACD(closes)
		wantMACD, wantSignal := naiveMACD(closes)
		if macd != wantMACD || signal != wantSignal {
			t.Fatalf("n=%d: got (%v, %v), want (%v, %v)", n, macd, signal, wantMACD, wantSignal)
		}
	}
}

func TestMACDWithoutHistoryUsesMACDAsSignal(t *testing.T) {
	closes := randomWalk(rand.New(rand.NewSource(3)), 20)
	macd, signal := MACD(closes)
	if macd != signal {
		t.Fatalf("expected signal to equal macd, got %v vs %v", signal, macd)
	}
}

func TestStochastic(t *testing.T) {
	highs := []float64{2, 3, 4}
	lows := []float64{1, 1, 2}
	closes := []float64{1.5, 2, 3.5}
	if got := Stochastic(highs, lows, closes, 3); math.Abs(got-250.0/3) > 1e-9 {
		t.Fatalf("unexpected %%K %v", got)
	}
	if got := Stochastic(highs, lows, closes, 5); got != 50 {
		t.Fatalf("expected 50 for short series, got %v", got)
	}
	flat := []float64{1, 1, 1}
	if got := Stochastic(flat, flat, flat, 3); got != 50 {
		t.Fatalf("expected 50 for zero range, got %v", got)
	}
}

func TestATR(t *testing.T) {
	highs := []float64{1.2, 1.3, 1.25}
	lows := []float64{1.0, 1.1, 1.05}
	closes := []float64{1.1, 1.2, 1.1}
	// TR1 = max(0.2, 0.2, 0) = 0.2; TR2 = max(0.2, 0.05, 0.15) = 0.2.
	if got := ATR(highs, lows, closes, 2); math.Abs(got-0.2) > 1e-12 {
		t.Fatalf("expected 0.2, got %v", got)
	}
	if got := ATR(highs, lows, closes, 3); got != 0.001 {
		t.Fatalf("expected default, got %v", got)
	}
}

func TestADX(t *testing.T) {
	// Steady uptrend: only +DM accumulates, so DX is 100.
	highs := []float64{1, 2, 3, 4}
	lows := []float64{0.5, 1.5, 2.5, 3.5}
	closes := []float64{0.8, 1.8, 2.8, 3.8}
	if got := ADX(highs, lows, closes, 3); math.Abs(got-100) > 1e-9 {
		t.Fatalf("expected 100, got %v", got)
	}

	flat := []float64{1, 1, 1, 1}
	if got := ADX(flat, flat, flat, 3); got != 20 {
		t.Fatalf("expected default for zero range, got %v", got)
	}
	// Inside bars: range but no directional movement.
	if got := ADX([]float64{2, 1.9, 1.8}, []float64{1, 1.1, 1.2}, []float64{1.5, 1.5, 1.5}, 2); got != 20 {
		t.Fatalf("expected default for zero DI sum, got %v", got)
	}
	if got := ADX(highs[:2], lows[:2], closes[:2], 3); got != 20 {
		t.Fatalf("expected default for short series, got %v", got)
	}
}

func TestComputeDoesNotMutateAndStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	candles := randomCandles(rng, 120)
	before := append([]domain.Candle(nil), candles...)

	snap := Compute(candles)
	for i := range candles {
		if candles[i] != before[i] {
			t.Fatal("input candles were mutated")
		}
	}
	if snap.RSI < 0 || snap.RSI > 100 {
		t.Fatalf("rsi out of range: %v", snap.RSI)
	}
	if snap.Stochastic < 0 || snap.Stochastic > 100 {
		t.Fatalf("stochastic out of range: %v", snap.Stochastic)
	}
	if snap.Price != candles[len(candles)-1].Close {
		t.Fatalf("expected last close as price, got %v", snap.Price)
	}
	if again := Compute(candles); again != snap {
		t.Fatal("compute is not deterministic")
	}
}

func TestComputeShortAndEmptySeries(t *testing.T) {
	if got := Compute(nil); got != Neutral() {
		t.Fatalf("expected neutral snapshot, got %+v", got)
	}

	one := []domain.Candle{{Open: 1.1, High: 1.2, Low: 1.0, Close: 1.15}}
	snap := Compute(one)
	if snap.RSI != 50 || snap.Stochastic != 50 || snap.ATR != 0.001 || snap.ADX != 20 {
		t.Fatalf("unexpected defaults: %+v", snap)
	}
	if snap.EMA21 != 1.15 || snap.MA20 != 1.15 || snap.MA50 != 1.15 {
		t.Fatalf("expected averages to fall back to last close: %+v", snap)
	}
	if snap.MACD != 0 || snap.MACDSignal != 0 {
		t.Fatalf("expected zero macd, got %+v", snap)
	}
}

func naiveMACD(closes []float64) (float64, float64) {
	if len(closes) == 0 {
		return 0, 0
	}
	macd := EMA(closes, 12) - EMA(closes, 26)
	var history []float64
	for i := 26; i < len(closes); i++ {
		history = append(history, EMA(closes[:i+1], 12)-EMA(closes[:i+1], 26))
	}
	if len(history) == 0 {
		return macd, macd
	}
	return macd, EMA(history, 9)
}

func randomWalk(rng *rand.Rand, n int) []float64 {
	out := make([]float64, n)
	price := 1.1
	for i := range out {
		price += (rng.Float64() - 0.5) * 0.002
		out[i] = price
	}
	return out
}

func randomCandles(rng *rand.Rand, n int) []domain.Candle {
	out := make([]domain.Candle, n)
	price := 1.1
	for i := range out {
		open := price
		price += (rng.Float64() - 0.5) * 0.002
		high := math.Max(open, price) + rng.Float64()*0.0005
		low := math.Min(open, price) - rng.Float64()*0.0005
		out[i] = domain.Candle{Open: open, High: high, Low: low, Close: price, Timestamp: int64(i) * 60000}
	}
	return out
}
