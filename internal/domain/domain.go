package domain

import (
	"strconv"
	"strings"
	"time"
)

type Direction string

const (
	DirectionCall Direction = "CALL"
	DirectionPut  Direction = "PUT"
)

// Arabic renders the direction the way it appears in delivered messages.
func (d Direction) Arabic() string {
	if d == DirectionCall {
		return "صعود"
	}
	return "هبوط"
}

type Timeframe string

const (
	TimeframeM1  Timeframe = "M1"
	TimeframeM2  Timeframe = "M2"
	TimeframeM3  Timeframe = "M3"
	TimeframeM5  Timeframe = "M5"
	TimeframeM15 Timeframe = "M15"
	TimeframeM30 Timeframe = "M30"
)

var SupportedTimeframes = []Timeframe{
	TimeframeM1, TimeframeM2, TimeframeM3, TimeframeM5, TimeframeM15, TimeframeM30,
}

func (t Timeframe) Valid() bool {
	for _, tf := range SupportedTimeframes {
		if t == tf {
			return true
		}
	}
	return false
}

// Minutes parses the numeric part of the timeframe; unknown values count as one minute.
func (t Timeframe) Minutes() int {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.ToUpper(string(t)), "M"))
	if err != nil || n <= 0 {
		return 1
	}
	return n
}

type Signal struct {
	ID         string    `json:"id"`
	Pair       string    `json:"pair"`
	Direction  Direction `json:"direction"`
	Duration   int       `json:"duration"`
	Confidence int       `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
	EntryTime  string    `json:"entryTime"`
	Indicators []string  `json:"indicators"`
	Price      float64   `json:"price"`
	Reason     string    `json:"reason,omitempty"`
}

type AnalysisSettings struct {
	SelectedPairs    []string          `json:"selectedPairs"`
	Timeframe        Timeframe         `json:"timeframe"`
	StartTime        string            `json:"startTime"`
	EndTime          string            `json:"endTime"`
	Timezone         string            `json:"timezone,omitempty"`
	SuccessThreshold int               `json:"successThreshold"`
	HistoricalDays   int               `json:"historicalDays"`
	MartingaleLevel  int               `json:"martingaleLevel,omitempty"`
	Indicators       []IndicatorConfig `json:"indicators"`
	AIModel          string            `json:"aiModel,omitempty"`
}

const (
	DefaultStartTime        = "07:00"
	DefaultEndTime          = "23:59"
	DefaultSuccessThreshold = 78
	DefaultHistoricalDays   = 10
	DefaultAIModel          = "xai/grok-2-1212"
)

// WithDefaults fills the options a caller may omit. Indicators fall back to
// the default catalog only when none were sent at all.
func (s AnalysisSettings) WithDefaults() AnalysisSettings {
	out := s
	out.SelectedPairs = append([]string(nil), s.SelectedPairs...)
	if strings.TrimSpace(out.StartTime) == "" {
		out.StartTime = DefaultStartTime
	}
	if strings.TrimSpace(out.EndTime) == "" {
		out.EndTime = DefaultEndTime
	}
	if out.SuccessThreshold <= 0 {
		out.SuccessThreshold = DefaultSuccessThreshold
	}
	if out.SuccessThreshold > 95 {
		out.SuccessThreshold = 95
	}
	if out.HistoricalDays <= 0 {
		out.HistoricalDays = DefaultHistoricalDays
	}
	if !out.Timeframe.Valid() {
		out.Timeframe = TimeframeM1
	}
	if out.AIModel == "" {
		out.AIModel = DefaultAIModel
	}
	if s.Indicators == nil {
		out.Indicators = DefaultIndicators()
	} else {
		out.Indicators = append([]IndicatorConfig(nil), s.Indicators...)
	}
	return out
}

type TelegramChannel struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	ChatID  string `json:"chatId"`
	Enabled bool   `json:"enabled"`
}
