package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"otc-signals/internal/domain"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Schedule message types.
type scheduleMsg []domain.Signal
type scheduleErrMsg struct{ err error }

const analyzeTimeout = 60 * time.Second

// SignalScheduleModel is the Bubble Tea model for the daily schedule screen.
type SignalScheduleModel struct {
	services     Services
	pairs        []string
	signals      []domain.Signal
	tfIdx        int
	scrollOffset int
	loading      bool
	err          error
	width        int
	height       int
}

// NewSignalScheduleModel creates a new schedule model.
func NewSignalScheduleModel(svc Services) SignalScheduleModel {
	return SignalScheduleModel{
		services: svc,
		pairs:    svc.watchPairs(),
		loading:  true,
	}
}

// Init fires the first schedule generation.
func (m SignalScheduleModel) Init() tea.Cmd {
	return m.analyzeCmd()
}

// Update handles incoming messages.
func (m SignalScheduleModel) Update(msg tea.Msg) (SignalScheduleModel, tea.Cmd) {
	switch msg := msg.(type) {
	case scheduleMsg:
		m.signals = []domain.Signal(msg)
		m.loading = false
		m.scrollOffset = 0
		m.err = nil
		return m, nil

	case scheduleErrMsg:
		m.err = msg.err
		m.loading = false
		return m, nil

	case watchListMsg:
		m.pairs = append([]string(nil), msg...)
		m.loading = true
		return m, m.analyzeCmd()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, DefaultKeyMap.CycleTimeframe):
			m.tfIdx = (m.tfIdx + 1) % len(domain.SupportedTimeframes)
			m.loading = true
			return m, m.analyzeCmd()

		case key.Matches(msg, DefaultKeyMap.Refresh):
			m.loading = true
			return m, m.analyzeCmd()

		case msg.String() == "j" || msg.String() == "down":
			if m.scrollOffset < len(m.signals)-m.visibleRows() {
				m.scrollOffset++
			}
			return m, nil

		case msg.String() == "k" || msg.String() == "up":
			if m.scrollOffset > 0 {
				m.scrollOffset--
			}
			return m, nil
		}
	}

	return m, nil
}

// View renders the schedule.
func (m SignalScheduleModel) View() string {
	sections := []string{
		HeaderStyle.Render("  Today's Signals"),
		"",
		m.renderFilters(),
		SubtextStyle.Render(strings.Repeat("─", max(m.width-2, 1))),
	}

	if m.loading {
		sections = append(sections, SubtextStyle.Render("  Analyzing..."))
		return strings.Join(sections, "\n")
	}
	if m.err != nil {
		sections = append(sections, ErrorStyle.Render(fmt.Sprintf("  Error: %v", m.err)))
		return strings.Join(sections, "\n")
	}
	if len(m.signals) == 0 {
		sections = append(sections, SubtextStyle.Render("  No signals in the window"))
		return strings.Join(sections, "\n")
	}

	sections = append(sections, SubtextStyle.Render(
		fmt.Sprintf("  %-5s  %-12s %-4s  %-4s  %12s  %s", "Entry", "Pair", "Dir", "Conf", "Price", "Dur"),
	))

	maxVisible := m.visibleRows()
	end := m.scrollOffset + maxVisible
	if end > len(m.signals) {
		end = len(m.signals)
	}
	for i := m.scrollOffset; i < end; i++ {
		sections = append(sections, "  "+FormatSignal(m.signals[i]))
	}

	if len(m.signals) > maxVisible {
		sections = append(sections, SubtextStyle.Render(
			fmt.Sprintf("  Showing %d-%d of %d (j/k to scroll)", m.scrollOffset+1, end, len(m.signals)),
		))
	}

	sections = append(sections, "", SubtextStyle.Render("  [t] timeframe  [R] regenerate  [j/k] scroll"))
	return strings.Join(sections, "\n")
}

// SetSize updates the model dimensions.
func (m *SignalScheduleModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Timeframe returns the selected timeframe (for testing).
func (m SignalScheduleModel) Timeframe() domain.Timeframe {
	return domain.SupportedTimeframes[m.tfIdx]
}

// SignalCount returns the number of loaded signals (for testing).
func (m SignalScheduleModel) SignalCount() int { return len(m.signals) }

func (m SignalScheduleModel) renderFilters() string {
	var parts []string
	parts = append(parts, SubtextStyle.Render("Timeframe: "))
	for i, tf := range domain.SupportedTimeframes {
		if i == m.tfIdx {
			parts = append(parts, ActiveTabStyle.Render(string(tf)))
		} else {
			parts = append(parts, SubtextStyle.Render(string(tf)))
		}
		parts = append(parts, " ")
	}
	pairs := SubtextStyle.Render("  Pairs: " + strings.Join(m.pairs, ", "))
	return "  " + lipgloss.JoinHorizontal(lipgloss.Top, parts...) + pairs
}

func (m SignalScheduleModel) analyzeCmd() tea.Cmd {
	settings := domain.AnalysisSettings{
		SelectedPairs: append([]string(nil), m.pairs...),
		Timeframe:     m.Timeframe(),
	}
	analyzer := m.services.Analyzer
	return func() tea.Msg {
		if analyzer == nil {
			return scheduleErrMsg{err: fmt.Errorf("analysis service not available")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
		defer cancel()
		signals, err := analyzer.Analyze(ctx, settings)
		if err != nil {
			return scheduleErrMsg{err: err}
		}
		return scheduleMsg(signals)
	}
}

func (m SignalScheduleModel) visibleRows() int {
	// header, filters, table header and help footer
	available := m.height - 10
	if available < 5 {
		return 5
	}
	return available
}
