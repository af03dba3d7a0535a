package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"otc-signals/internal/domain"
	"otc-signals/internal/service"

	tea "github.com/charmbracelet/bubbletea"
)

// --- stub services ---

type stubAnalyzer struct {
	signals      []domain.Signal
	eval         service.Evaluation
	err          error
	lastSettings domain.AnalysisSettings
	lastPair     string
	lastTF       domain.Timeframe
}

func (s *stubAnalyzer) Analyze(ctx context.Context, settings domain.AnalysisSettings) ([]domain.Signal, error) {
	s.lastSettings = settings
	return s.signals, s.err
}

func (s *stubAnalyzer) Evaluate(ctx context.Context, pair string, tf domain.Timeframe, candles []domain.Candle, threshold int) (service.Evaluation, error) {
	s.lastPair = pair
	s.lastTF = tf
	eval := s.eval
	eval.Pair = pair
	eval.Timeframe = tf
	return eval, s.err
}

type stubMarket struct {
	prices map[string]float64
	status service.MarketStatus
}

func (s *stubMarket) Prices(ctx context.Context, symbols []string) map[string]float64 {
	out := make(map[string]float64, len(symbols))
	for _, sym := range symbols {
		if p, ok := s.prices[sym]; ok {
			out[sym] = p
		}
	}
	return out
}

func (s *stubMarket) Status() service.MarketStatus { return s.status }

type stubWatchList struct {
	userID string
	pairs  []string
	err    error
}

func (s *stubWatchList) SavePairs(ctx context.Context, userID string, pairs []string) error {
	s.userID = userID
	s.pairs = pairs
	return s.err
}

func testServices() Services {
	return Services{
		Analyzer:  &stubAnalyzer{},
		Market:    &stubMarket{prices: map[string]float64{"EUR/USD-OTC": 1.085}},
		WatchList: &stubWatchList{},
		UserID:    "user-1",
		Username:  "testuser",
	}
}

func pressKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestAppModelInitialTab(t *testing.T) {
	m := NewAppModel(testServices())
	if m.ActiveTab() != TabMarket {
		t.Fatalf("expected TabMarket, got %d", m.ActiveTab())
	}
}

func TestAppModelTabSwitchByNumber(t *testing.T) {
	m := NewAppModel(testServices())
	m.SetSize(120, 40)

	for _, tc := range []struct {
		key  rune
		want Tab
	}{{'2', TabSignals}, {'3', TabAlgorithm}, {'1', TabMarket}} {
		updated, _ := m.Update(pressKey(tc.key))
		m = updated.(AppModel)
		if m.ActiveTab() != tc.want {
			t.Fatalf("expected tab %d after pressing %c, got %d", tc.want, tc.key, m.ActiveTab())
		}
	}
}

func TestAppModelTabSwitchByTab(t *testing.T) {
	m := NewAppModel(testServices())
	m.SetSize(120, 40)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	app := updated.(AppModel)
	if app.ActiveTab() != TabSignals {
		t.Fatalf("expected TabSignals after Tab, got %d", app.ActiveTab())
	}

	updated, _ = app.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	app = updated.(AppModel)
	updated, _ = app.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	app = updated.(AppModel)
	if app.ActiveTab() != TabAlgorithm {
		t.Fatalf("expected Shift+Tab to wrap to TabAlgorithm, got %d", app.ActiveTab())
	}
}

func TestAppModelQuit(t *testing.T) {
	m := NewAppModel(testServices())
	updated, cmd := m.Update(pressKey('q'))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
	if updated.View() != "Goodbye!\n" {
		t.Fatalf("unexpected view after quit: %q", updated.View())
	}
}

func TestAppModelWindowResize(t *testing.T) {
	m := NewAppModel(testServices())

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 50})
	app := updated.(AppModel)
	if app.width != 100 || app.height != 50 {
		t.Fatalf("expected 100x50, got %dx%d", app.width, app.height)
	}
	if app.signals.height != 48 {
		t.Fatalf("expected children to lose the tab bar rows, got %d", app.signals.height)
	}
}

func TestAppModelRoutesDataToInactiveScreens(t *testing.T) {
	m := NewAppModel(testServices())

	updated, _ := m.Update(scheduleMsg{{Pair: "EUR/USD-OTC", EntryTime: "10:00"}})
	app := updated.(AppModel)
	if app.signals.SignalCount() != 1 {
		t.Fatalf("expected schedule delivered while on market tab, got %d", app.signals.SignalCount())
	}
}

func TestAppModelBroadcastsWatchList(t *testing.T) {
	m := NewAppModel(testServices())

	updated, _ := m.Update(watchListMsg{"USD/JPY-OTC"})
	app := updated.(AppModel)
	if len(app.dashboard.pairs) != 1 || app.dashboard.pairs[0] != "USD/JPY-OTC" {
		t.Fatalf("dashboard did not follow watch list: %v", app.dashboard.pairs)
	}
	if len(app.signals.pairs) != 1 || app.signals.pairs[0] != "USD/JPY-OTC" {
		t.Fatalf("schedule did not follow watch list: %v", app.signals.pairs)
	}
}

func TestAppModelViewRendersWithoutPanic(t *testing.T) {
	m := NewAppModel(testServices())
	m.SetSize(120, 40)

	for _, tab := range []Tab{TabMarket, TabSignals, TabAlgorithm} {
		m.activeTab = tab
		view := m.View()
		if !strings.Contains(view, tabNames[tab]) {
			t.Fatalf("expected tab bar in view for tab %d", tab)
		}
	}
}

func TestServicesWatchPairsDefaults(t *testing.T) {
	if got := (Services{}).watchPairs(); len(got) != len(domain.DefaultPairs) {
		t.Fatalf("expected default pairs, got %v", got)
	}
	svc := Services{Pairs: []string{"EUR/JPY-OTC"}}
	got := svc.watchPairs()
	got[0] = "mutated"
	if svc.Pairs[0] != "EUR/JPY-OTC" {
		t.Fatal("watchPairs must copy the slice")
	}
}

var errBoom = errors.New("boom")
