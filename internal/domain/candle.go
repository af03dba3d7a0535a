package domain

// Candle is one OHLC bar. Timestamp is epoch milliseconds.
type Candle struct {
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Timestamp int64   `json:"timestamp"`
}

type IndicatorSnapshot struct {
	RSI        float64 `json:"rsi"`
	MACD       float64 `json:"macd"`
	MACDSignal float64 `json:"macdSignal"`
	MA20       float64 `json:"ma20"`
	MA50       float64 `json:"ma50"`
	Stochastic float64 `json:"stochastic"`
	EMA21      float64 `json:"ema21"`
	ATR        float64 `json:"atr"`
	ADX        float64 `json:"adx"`
	// Price is the last close. Zero means callers should treat MA20 as the price.
	Price float64 `json:"price,omitempty"`
}

// CurrentPrice returns the price the scorer measures distance from.
func (s IndicatorSnapshot) CurrentPrice() float64 {
	if s.Price > 0 {
		return s.Price
	}
	return s.MA20
}

type Strength string

const (
	StrengthStrong Strength = "strong"
	StrengthMedium Strength = "medium"
	StrengthWeak   Strength = "weak"
)

func (s Strength) Label() string {
	switch s {
	case StrengthStrong:
		return "قوية"
	case StrengthMedium:
		return "متوسطة"
	default:
		return "ضعيفة"
	}
}

type ScoreResult struct {
	Direction      Direction `json:"direction"`
	Strength       Strength  `json:"strength"`
	Confidence     float64   `json:"confidence"`
	SuccessRate    float64   `json:"successRate"`
	ProfitRate     float64   `json:"profitRate"`
	BuyScore       float64   `json:"buyScore"`
	SellScore      float64   `json:"sellScore"`
	MeetsThreshold bool      `json:"meetsThreshold"`
}
