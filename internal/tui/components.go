package tui

import (
	"fmt"
	"math"
	"strings"

	"otc-signals/internal/domain"

	"github.com/charmbracelet/lipgloss"
)

// Quote is one watch list price with the previous refresh for comparison.
type Quote struct {
	Symbol string
	Price  float64
	Prev   float64
}

func (q Quote) change() float64 {
	if q.Prev == 0 {
		return 0
	}
	return (q.Price - q.Prev) / q.Prev * 100
}

// FormatQuote renders a quote as a single line.
func FormatQuote(q Quote) string {
	change := q.change()
	changeStyle := PriceZeroStyle
	arrow := "="
	if change > 0 {
		changeStyle = PriceUpStyle
		arrow = "▲"
	} else if change < 0 {
		changeStyle = PriceDownStyle
		arrow = "▼"
	}

	return fmt.Sprintf("%-12s %12s  %s",
		q.Symbol,
		formatPrice(q.Symbol, q.Price),
		changeStyle.Render(fmt.Sprintf("%s %+.3f%%", arrow, change)),
	)
}

// FormatSignal renders a scheduled signal as a single line.
func FormatSignal(s domain.Signal) string {
	dirStyle := DirectionPutStyle
	if s.Direction == domain.DirectionCall {
		dirStyle = DirectionCallStyle
	}

	star := ""
	if s.Confidence >= 85 {
		star = " ⭐"
	}

	return fmt.Sprintf("%-5s  %-12s %s  %s  %12s  M%d%s",
		s.EntryTime,
		s.Pair,
		dirStyle.Render(fmt.Sprintf("%-4s", s.Direction)),
		confidenceStyle(float64(s.Confidence)).Render(fmt.Sprintf("%3d%%", s.Confidence)),
		formatPrice(s.Pair, s.Price),
		s.Duration,
		star,
	)
}

// RenderHeatMap renders a colored grid showing the last move of each symbol.
func RenderHeatMap(quotes []Quote, width int) string {
	if len(quotes) == 0 {
		return SubtextStyle.Render("No price data")
	}

	cellWidth := 14
	cols := width / cellWidth
	if cols < 1 {
		cols = 1
	}

	var rows []string
	var row []string
	for i, q := range quotes {
		bg := HeatNeutral
		if c := q.change(); c > 0 {
			bg = heatColorScale(c, 0.05, HeatGreen)
		} else if c < 0 {
			bg = heatColorScale(-c, 0.05, HeatRed)
		}

		cell := lipgloss.NewStyle().
			Background(bg).
			Foreground(lipgloss.Color("#000000")).
			Bold(true).
			Width(cellWidth - 1).
			Align(lipgloss.Center).
			Render(strings.TrimSuffix(q.Symbol, "-OTC"))

		row = append(row, cell)
		if (i+1)%cols == 0 || i == len(quotes)-1 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}

	return strings.Join(rows, "\n")
}

// RenderGauge renders an ASCII bar of a 0-100 reading.
func RenderGauge(label string, value float64, barWidth int) string {
	if barWidth <= 0 {
		barWidth = 20
	}
	filled := int(math.Round(value / 100 * float64(barWidth)))
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	empty := barWidth - filled

	bar := confidenceStyle(value).Render(strings.Repeat("█", filled)) + SubtextStyle.Render(strings.Repeat("░", empty))
	return fmt.Sprintf("%-12s %s %5.1f", label, bar, value)
}

func confidenceStyle(v float64) lipgloss.Style {
	switch {
	case v >= 85:
		return ConfidenceHighStyle
	case v >= 70:
		return ConfidenceMedStyle
	default:
		return ConfidenceLowStyle
	}
}

// heatColorScale produces a color scaled by magnitude.
func heatColorScale(magnitude, maxMagnitude float64, baseColor lipgloss.Color) lipgloss.Color {
	intensity := magnitude / maxMagnitude
	if intensity > 1 {
		intensity = 1
	}
	if intensity < 0.1 {
		return HeatNeutral
	}
	return baseColor
}

// formatPrice uses 3 decimals for yen pairs, 2 for stocks and 5 otherwise.
func formatPrice(pair string, v float64) string {
	switch {
	case strings.HasPrefix(pair, "#"):
		return fmt.Sprintf("%.2f", v)
	case domain.IsJPY(pair):
		return fmt.Sprintf("%.3f", v)
	default:
		return fmt.Sprintf("%.5f", v)
	}
}
