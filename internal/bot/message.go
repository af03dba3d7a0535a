package bot

import (
	"fmt"
	"strings"
	"time"

	"otc-signals/internal/domain"
	"otc-signals/internal/service"
	"otc-signals/internal/signal"
)

const (
	highConfidence    = 85
	signalsPerMessage = 40
	separator         = "➖➖➖➖➖➖➖➖➖➖➖➖"
)

// FormatSignals renders one HTML message. now should already be in the
// delivery timezone.
func FormatSignals(signals []domain.Signal, tf domain.Timeframe, now time.Time) string {
	unit := "دقائق"
	if tf == domain.TimeframeM1 {
		unit = "دقيقة"
	}

	lines := make([]string, 0, len(signals))
	for _, s := range signals {
		lines = append(lines, formatSignal(s))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "💹 إشارات زمنية %s\n\n", tf)
	b.WriteString("المنصة: Pocket Option\n")
	fmt.Fprintf(&b, "تاريخ: %s\n", now.Format("02/01/2006"))
	b.WriteString(separator + "\n\n")
	fmt.Fprintf(&b, "⏱️ مدة دخول صفقات %s %s.\n", tf, unit)
	fmt.Fprintf(&b, "⏰ الوقت الحالي: %s (GMT 3+)\n\n", now.Format("15:04"))
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\n" + separator + "\n\n")
	b.WriteString("🚫 شروط صفقات الزمني\n\n")
	b.WriteString(`🛑 <a href="https://t.me/TradingWorldProo/13">ممنوع دخول عكس الترند</a> 🛑` + "\n\n")
	b.WriteString(`💫 <a href="https://t.me/Tradefreet">تقديم عالم التداول</a>`)
	return b.String()
}

func formatSignal(s domain.Signal) string {
	dir := "هبوط 🔴 ⬇️"
	if s.Direction == domain.DirectionCall {
		dir = "صعود 🟢 ⬆️"
	}
	line := fmt.Sprintf("%s %s %s", s.EntryTime, s.Pair, dir)
	if s.Confidence >= highConfidence {
		line += "\n⭐"
	}
	return line
}

// chunkSignals keeps each message well under Telegram's 4096 character limit.
func chunkSignals(signals []domain.Signal) [][]domain.Signal {
	if len(signals) == 0 {
		return [][]domain.Signal{nil}
	}
	var out [][]domain.Signal
	for start := 0; start < len(signals); start += signalsPerMessage {
		end := start + signalsPerMessage
		if end > len(signals) {
			end = len(signals)
		}
		out = append(out, signals[start:end])
	}
	return out
}

func formatEvaluation(ev service.Evaluation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 %s %s\n", ev.Pair, ev.Timeframe)
	fmt.Fprintf(&b, "الاتجاه: %s | القوة: %s\n", ev.Score.Direction.Arabic(), ev.Score.Strength.Label())
	fmt.Fprintf(&b, "الثقة: %.1f%% | النجاح: %.1f%% | الربح: %.1f%%\n", ev.Score.Confidence, ev.Score.SuccessRate, ev.Score.ProfitRate)
	fmt.Fprintf(&b, "دخول: %.5f عند %s\n", ev.Levels.EntryPrice, ev.Levels.EntryTime.Format("15:04"))
	fmt.Fprintf(&b, "خروج: %.5f عند %s\n", ev.Levels.ExitPrice, ev.Levels.ExitTime.Format("15:04"))
	for _, key := range signal.ReadingOrder {
		r, ok := ev.Readings[key]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%s: %v (%s)\n", strings.ToUpper(key), r.Value, r.Signal)
	}
	return strings.TrimRight(b.String(), "\n")
}
