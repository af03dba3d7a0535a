package domain

import "strings"

type IndicatorCategory string

const (
	CategoryBasic       IndicatorCategory = "basic"
	CategoryAdvanced    IndicatorCategory = "advanced"
	CategoryCandlestick IndicatorCategory = "candlestick"
)

type IndicatorConfig struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Category IndicatorCategory `json:"category"`
	Enabled  bool              `json:"enabled"`
}

var defaultIndicators = []IndicatorConfig{
	{ID: "rsi", Name: "RSI (مؤشر القوة النسبية)", Category: CategoryBasic, Enabled: true},
	{ID: "macd", Name: "MACD (تقارب وتباعد المتوسطات)", Category: CategoryBasic, Enabled: true},
	{ID: "ema", Name: "EMA (المتوسط المتحرك الأسي)", Category: CategoryBasic, Enabled: true},
	{ID: "sma", Name: "SMA (المتوسط المتحرك البسيط)", Category: CategoryBasic, Enabled: true},
	{ID: "bollinger", Name: "Bollinger Bands (نطاقات بولينجر)", Category: CategoryBasic, Enabled: true},

	{ID: "stochastic", Name: "Stochastic Oscillator (مذبذب ستوكاستيك)", Category: CategoryAdvanced, Enabled: false},
	{ID: "atr", Name: "ATR (متوسط المدى الحقيقي)", Category: CategoryAdvanced, Enabled: false},
	{ID: "adx", Name: "ADX (مؤشر الاتجاه)", Category: CategoryAdvanced, Enabled: false},
	{ID: "cci", Name: "CCI (مؤشر قناة السلع)", Category: CategoryAdvanced, Enabled: false},
	{ID: "ichimoku", Name: "Ichimoku Cloud (سحابة إيشيموكو)", Category: CategoryAdvanced, Enabled: false},

	{ID: "doji", Name: "Doji (شمعة دوجي)", Category: CategoryCandlestick, Enabled: true},
	{ID: "hammer", Name: "Hammer (المطرقة)", Category: CategoryCandlestick, Enabled: true},
	{ID: "engulfing", Name: "Engulfing (الابتلاع)", Category: CategoryCandlestick, Enabled: true},
	{ID: "morning-star", Name: "Morning Star (نجمة الصباح)", Category: CategoryCandlestick, Enabled: false},
	{ID: "evening-star", Name: "Evening Star (نجمة المساء)", Category: CategoryCandlestick, Enabled: false},
}

// DefaultIndicators returns a fresh copy of the catalog in display order.
func DefaultIndicators() []IndicatorConfig {
	return append([]IndicatorConfig(nil), defaultIndicators...)
}

// EnabledIndicators keeps catalog order.
func EnabledIndicators(list []IndicatorConfig) []IndicatorConfig {
	out := make([]IndicatorConfig, 0, len(list))
	for _, ind := range list {
		if ind.Enabled {
			out = append(out, ind)
		}
	}
	return out
}

type PairType string

const (
	PairOTC   PairType = "OTC"
	PairStock PairType = "STOCK"
)

type TradingPair struct {
	Symbol string   `json:"symbol"`
	Type   PairType `json:"type"`
	Name   string   `json:"name"`
}

var TradingPairs = []TradingPair{
	{Symbol: "EUR/USD-OTC", Type: PairOTC, Name: "Euro / US Dollar"},
	{Symbol: "GBP/USD-OTC", Type: PairOTC, Name: "British Pound / US Dollar"},
	{Symbol: "AUD/USD-OTC", Type: PairOTC, Name: "Australian Dollar / US Dollar"},
	{Symbol: "USD/JPY-OTC", Type: PairOTC, Name: "US Dollar / Japanese Yen"},
	{Symbol: "EUR/JPY-OTC", Type: PairOTC, Name: "Euro / Japanese Yen"},
	{Symbol: "GBP/JPY-OTC", Type: PairOTC, Name: "British Pound / Japanese Yen"},
	{Symbol: "USD/CAD-OTC", Type: PairOTC, Name: "US Dollar / Canadian Dollar"},
	{Symbol: "USD/CHF-OTC", Type: PairOTC, Name: "US Dollar / Swiss Franc"},
	{Symbol: "NZD/USD-OTC", Type: PairOTC, Name: "New Zealand Dollar / US Dollar"},
	{Symbol: "EUR/GBP-OTC", Type: PairOTC, Name: "Euro / British Pound"},
	{Symbol: "AUD/CAD-OTC", Type: PairOTC, Name: "Australian Dollar / Canadian Dollar"},
	{Symbol: "XAU/USD-OTC", Type: PairOTC, Name: "Gold"},
	{Symbol: "XAG/USD-OTC", Type: PairOTC, Name: "Silver"},
	{Symbol: "UKBrent-OTC", Type: PairOTC, Name: "Brent Oil"},
	{Symbol: "#AAPL", Type: PairStock, Name: "Apple"},
	{Symbol: "#MSFT", Type: PairStock, Name: "Microsoft"},
	{Symbol: "#TSLA", Type: PairStock, Name: "Tesla"},
	{Symbol: "#AMZN", Type: PairStock, Name: "Amazon"},
}

var DefaultPairs = []string{"EUR/USD-OTC", "GBP/USD-OTC", "AUD/USD-OTC"}

func IsJPY(pair string) bool {
	return strings.Contains(strings.ToUpper(pair), "JPY")
}

func FindPair(symbol string) (TradingPair, bool) {
	symbol = strings.TrimSpace(symbol)
	for _, p := range TradingPairs {
		if strings.EqualFold(p.Symbol, symbol) {
			return p, true
		}
	}
	return TradingPair{}, false
}
