package tui

import (
	"context"
	"fmt"
	"strings"

	"otc-signals/internal/domain"
	"otc-signals/internal/service"
	"otc-signals/internal/signal"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Algorithm message types.
type evaluationMsg service.Evaluation
type evaluationErrMsg struct{ err error }

// watchListMsg carries the saved watch list to the other screens.
type watchListMsg []string
type watchListErrMsg struct{ err error }

// AlgorithmModel evaluates one pair at a time and edits the watch list.
type AlgorithmModel struct {
	services   Services
	pairIdx    int
	tfIdx      int
	watch      []string
	evaluation *service.Evaluation
	loading    bool
	err        error
	notice     string
	width      int
	height     int
}

// NewAlgorithmModel opens on the first watched pair.
func NewAlgorithmModel(svc Services) AlgorithmModel {
	m := AlgorithmModel{
		services: svc,
		watch:    svc.watchPairs(),
		loading:  true,
	}
	if len(m.watch) > 0 {
		for i, p := range domain.TradingPairs {
			if p.Symbol == m.watch[0] {
				m.pairIdx = i
				break
			}
		}
	}
	return m
}

// Init evaluates the opening pair.
func (m AlgorithmModel) Init() tea.Cmd {
	return m.evaluateCmd()
}

// Update handles incoming messages.
func (m AlgorithmModel) Update(msg tea.Msg) (AlgorithmModel, tea.Cmd) {
	switch msg := msg.(type) {
	case evaluationMsg:
		eval := service.Evaluation(msg)
		m.evaluation = &eval
		m.loading = false
		m.err = nil
		return m, nil

	case evaluationErrMsg:
		m.err = msg.err
		m.loading = false
		return m, nil

	case watchListMsg:
		m.notice = "watch list saved"
		return m, nil

	case watchListErrMsg:
		m.notice = fmt.Sprintf("watch list not saved: %v", msg.err)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, DefaultKeyMap.CyclePair):
			m.pairIdx = (m.pairIdx + 1) % len(domain.TradingPairs)
			m.loading = true
			return m, m.evaluateCmd()

		case key.Matches(msg, DefaultKeyMap.CycleTimeframe):
			m.tfIdx = (m.tfIdx + 1) % len(domain.SupportedTimeframes)
			m.loading = true
			return m, m.evaluateCmd()

		case key.Matches(msg, DefaultKeyMap.Refresh):
			m.loading = true
			return m, m.evaluateCmd()

		case key.Matches(msg, DefaultKeyMap.ToggleWatch):
			m.watch = togglePair(m.watch, m.Pair())
			m.notice = ""
			return m, m.saveWatchCmd()
		}
	}

	return m, nil
}

// View renders the evaluation of the selected pair.
func (m AlgorithmModel) View() string {
	marker := "  "
	if m.Watched() {
		marker = WatchStyle.Render("★ ")
	}
	sections := []string{
		HeaderStyle.Render(fmt.Sprintf("  Algorithm  %s%s  %s", marker, m.Pair(), m.timeframe())),
		"",
	}

	switch {
	case m.loading:
		sections = append(sections, SubtextStyle.Render("  Evaluating..."))
	case m.err != nil:
		sections = append(sections, ErrorStyle.Render(fmt.Sprintf("  Error: %v", m.err)))
	case m.evaluation != nil:
		sections = append(sections, m.renderEvaluation(*m.evaluation)...)
	}

	if m.notice != "" {
		sections = append(sections, "", SubtextStyle.Render("  "+m.notice))
	}
	sections = append(sections, "", SubtextStyle.Render("  [p] pair  [t] timeframe  [w] watch  [R] refresh"))
	return strings.Join(sections, "\n")
}

// SetSize updates the model dimensions.
func (m *AlgorithmModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Pair returns the selected pair symbol.
func (m AlgorithmModel) Pair() string { return domain.TradingPairs[m.pairIdx].Symbol }

// Watched reports whether the selected pair is on the watch list.
func (m AlgorithmModel) Watched() bool {
	for _, p := range m.watch {
		if p == m.Pair() {
			return true
		}
	}
	return false
}

// WatchList returns the current watch list (for testing).
func (m AlgorithmModel) WatchList() []string { return append([]string(nil), m.watch...) }

func (m AlgorithmModel) timeframe() domain.Timeframe { return domain.SupportedTimeframes[m.tfIdx] }

func (m AlgorithmModel) renderEvaluation(e service.Evaluation) []string {
	dirStyle := DirectionPutStyle
	if e.Score.Direction == domain.DirectionCall {
		dirStyle = DirectionCallStyle
	}

	source := "synthetic history"
	if e.FromStore {
		source = "recorded history"
	}

	lines := []string{
		fmt.Sprintf("  Direction  %s  strength %s", dirStyle.Render(string(e.Score.Direction)), e.Score.Strength),
		"  " + RenderGauge("Confidence", e.Score.Confidence, 30),
		"  " + RenderGauge("Success", e.Score.SuccessRate, 30),
		"  " + RenderGauge("Profit", e.Score.ProfitRate, 30),
		SubtextStyle.Render(fmt.Sprintf("  buy %.2f  sell %.2f  from %s", e.Score.BuyScore, e.Score.SellScore, source)),
		"",
		HeaderStyle.Render("  Indicators"),
	}
	for _, name := range signal.ReadingOrder {
		r, ok := e.Readings[name]
		if !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("  %-11s %10v  %s", strings.ToUpper(name), r.Value, SubtextStyle.Render(r.Signal)))
	}

	lines = append(lines,
		"",
		HeaderStyle.Render("  Trade"),
		fmt.Sprintf("  entry %s at %s  exit %s at %s",
			formatPrice(e.Pair, e.Levels.EntryPrice), e.Levels.EntryTime.Format("15:04"),
			formatPrice(e.Pair, e.Levels.ExitPrice), e.Levels.ExitTime.Format("15:04")),
	)
	if !e.Score.MeetsThreshold {
		lines = append(lines, ConfidenceLowStyle.Render("  below the confidence threshold"))
	}
	return lines
}

func (m AlgorithmModel) evaluateCmd() tea.Cmd {
	pair, tf := m.Pair(), m.timeframe()
	analyzer := m.services.Analyzer
	return func() tea.Msg {
		if analyzer == nil {
			return evaluationErrMsg{err: fmt.Errorf("analysis service not available")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
		defer cancel()
		eval, err := analyzer.Evaluate(ctx, pair, tf, nil, domain.DefaultSuccessThreshold)
		if err != nil {
			return evaluationErrMsg{err: err}
		}
		return evaluationMsg(eval)
	}
}

// saveWatchCmd broadcasts the list even without a store; it just is not
// kept past the session.
func (m AlgorithmModel) saveWatchCmd() tea.Cmd {
	pairs := append([]string(nil), m.watch...)
	store, userID := m.services.WatchList, m.services.UserID
	return func() tea.Msg {
		if store != nil && userID != "" {
			ctx, cancel := context.WithTimeout(context.Background(), dashRefresh)
			defer cancel()
			if err := store.SavePairs(ctx, userID, pairs); err != nil {
				return watchListErrMsg{err: err}
			}
		}
		return watchListMsg(pairs)
	}
}

// togglePair never empties the list.
func togglePair(pairs []string, pair string) []string {
	out := make([]string, 0, len(pairs)+1)
	found := false
	for _, p := range pairs {
		if p == pair {
			found = true
			continue
		}
		out = append(out, p)
	}
	if !found {
		out = append(out, pair)
	}
	if len(out) == 0 {
		return pairs
	}
	return out
}
