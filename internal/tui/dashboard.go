package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"otc-signals/internal/service"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Dashboard message types.
type quotesMsg struct {
	prices map[string]float64
	status service.MarketStatus
}
type quotesErrMsg struct{ err error }
type dashTickMsg time.Time

const dashRefresh = 10 * time.Second

// DashboardModel is the Bubble Tea model for the live quotes screen.
type DashboardModel struct {
	services Services
	pairs    []string
	quotes   []Quote
	status   service.MarketStatus
	loading  bool
	err      error
	width    int
	height   int
}

// NewDashboardModel creates a new dashboard model.
func NewDashboardModel(svc Services) DashboardModel {
	return DashboardModel{
		services: svc,
		pairs:    svc.watchPairs(),
		loading:  true,
	}
}

// Init fires initial data fetch commands.
func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(m.fetchQuotesCmd(), m.tickCmd())
}

// Update handles incoming messages.
func (m DashboardModel) Update(msg tea.Msg) (DashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case quotesMsg:
		m.applyQuotes(msg.prices)
		m.status = msg.status
		m.loading = false
		m.err = nil
		return m, nil

	case quotesErrMsg:
		m.err = msg.err
		m.loading = false
		return m, nil

	case watchListMsg:
		m.pairs = append([]string(nil), msg...)
		return m, m.fetchQuotesCmd()

	case dashTickMsg:
		return m, tea.Batch(m.fetchQuotesCmd(), m.tickCmd())
	}

	return m, nil
}

// View renders the dashboard.
func (m DashboardModel) View() string {
	if m.loading && len(m.quotes) == 0 {
		return SubtextStyle.Render("Loading prices...")
	}
	if m.err != nil && len(m.quotes) == 0 {
		return ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}

	priceWidth := m.width*2/3 - 2
	if priceWidth < 40 {
		priceWidth = 40
	}
	heatWidth := m.width - priceWidth - 4
	if heatWidth < 15 {
		heatWidth = 15
	}

	priceBox := BorderStyle.Width(priceWidth).Render(m.renderPriceTable())
	heatBox := BorderStyle.Width(heatWidth).Render(HeaderStyle.Render("  Moves") + "\n" + RenderHeatMap(m.quotes, heatWidth))

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, priceBox, heatBox),
		m.renderStatus(),
	)
}

// SetSize updates the model dimensions.
func (m *DashboardModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// Quotes returns the current quotes (for testing).
func (m DashboardModel) Quotes() []Quote { return m.quotes }

// applyQuotes keeps watch list order and remembers the previous price.
func (m *DashboardModel) applyQuotes(prices map[string]float64) {
	prev := make(map[string]float64, len(m.quotes))
	for _, q := range m.quotes {
		prev[q.Symbol] = q.Price
	}
	quotes := make([]Quote, 0, len(m.pairs))
	for _, pair := range m.pairs {
		price, ok := prices[pair]
		if !ok {
			continue
		}
		quotes = append(quotes, Quote{Symbol: pair, Price: price, Prev: prev[pair]})
	}
	m.quotes = quotes
}

func (m DashboardModel) renderPriceTable() string {
	lines := []string{
		HeaderStyle.Render("  Watch List"),
		SubtextStyle.Render("  Pair                Price  Move"),
		SubtextStyle.Render(strings.Repeat("─", 45)),
	}
	for _, q := range m.quotes {
		lines = append(lines, "  "+FormatQuote(q))
	}
	if len(m.quotes) == 0 {
		lines = append(lines, SubtextStyle.Render("  No price data available"))
	}
	return strings.Join(lines, "\n")
}

func (m DashboardModel) renderStatus() string {
	feed := ErrorStyle.Render("offline, synthetic quotes")
	if m.status.Connected {
		feed = PriceUpStyle.Render("live")
	}
	updated := ""
	if m.status.Timestamp > 0 {
		updated = "  updated " + time.UnixMilli(m.status.Timestamp).Format("15:04:05")
	}
	return SubtextStyle.Render("  Feed: ") + feed + SubtextStyle.Render(updated)
}

func (m DashboardModel) fetchQuotesCmd() tea.Cmd {
	pairs := append([]string(nil), m.pairs...)
	market := m.services.Market
	return func() tea.Msg {
		if market == nil {
			return quotesErrMsg{err: fmt.Errorf("market data service not available")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), dashRefresh)
		defer cancel()
		return quotesMsg{prices: market.Prices(ctx, pairs), status: market.Status()}
	}
}

func (m DashboardModel) tickCmd() tea.Cmd {
	return tea.Tick(dashRefresh, func(t time.Time) tea.Msg {
		return dashTickMsg(t)
	})
}
