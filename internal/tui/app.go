package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Tab represents a screen tab in the TUI.
type Tab int

const (
	TabMarket Tab = iota
	TabSignals
	TabAlgorithm
)

var tabNames = []string{"1:Market", "2:Signals", "3:Algorithm"}

// AppModel is the root Bubble Tea model that manages tab navigation and child screens.
type AppModel struct {
	services  Services
	activeTab Tab
	dashboard DashboardModel
	signals   SignalScheduleModel
	algorithm AlgorithmModel
	width     int
	height    int
	quitting  bool
}

// NewAppModel creates the root application model with all child screens.
func NewAppModel(svc Services) AppModel {
	return AppModel{
		services:  svc,
		activeTab: TabMarket,
		dashboard: NewDashboardModel(svc),
		signals:   NewSignalScheduleModel(svc),
		algorithm: NewAlgorithmModel(svc),
	}
}

// Init initializes all child models.
func (m AppModel) Init() tea.Cmd {
	return tea.Batch(
		m.dashboard.Init(),
		m.signals.Init(),
		m.algorithm.Init(),
	)
}

// Update handles incoming messages, routing to the active tab.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.propagateSize()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, DefaultKeyMap.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, DefaultKeyMap.Tab):
			m.activeTab = Tab((int(m.activeTab) + 1) % len(tabNames))
			return m, nil

		case key.Matches(msg, DefaultKeyMap.ShiftTab):
			next := int(m.activeTab) - 1
			if next < 0 {
				next = len(tabNames) - 1
			}
			m.activeTab = Tab(next)
			return m, nil

		case msg.String() == "1":
			m.activeTab = TabMarket
			return m, nil
		case msg.String() == "2":
			m.activeTab = TabSignals
			return m, nil
		case msg.String() == "3":
			m.activeTab = TabAlgorithm
			return m, nil
		}
	}

	var cmds []tea.Cmd

	switch msg.(type) {
	case quotesMsg, quotesErrMsg, dashTickMsg:
		var cmd tea.Cmd
		m.dashboard, cmd = m.dashboard.Update(msg)
		cmds = append(cmds, cmd)

	case scheduleMsg, scheduleErrMsg:
		var cmd tea.Cmd
		m.signals, cmd = m.signals.Update(msg)
		cmds = append(cmds, cmd)

	case evaluationMsg, evaluationErrMsg, watchListErrMsg:
		var cmd tea.Cmd
		m.algorithm, cmd = m.algorithm.Update(msg)
		cmds = append(cmds, cmd)

	case watchListMsg:
		// every screen follows the saved list
		var cmd tea.Cmd
		m.dashboard, cmd = m.dashboard.Update(msg)
		cmds = append(cmds, cmd)
		m.signals, cmd = m.signals.Update(msg)
		cmds = append(cmds, cmd)
		m.algorithm, cmd = m.algorithm.Update(msg)
		cmds = append(cmds, cmd)

	default:
		var cmd tea.Cmd
		switch m.activeTab {
		case TabMarket:
			m.dashboard, cmd = m.dashboard.Update(msg)
		case TabSignals:
			m.signals, cmd = m.signals.Update(msg)
		case TabAlgorithm:
			m.algorithm, cmd = m.algorithm.Update(msg)
		}
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View renders the tab bar and active screen.
func (m AppModel) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	var content string
	switch m.activeTab {
	case TabMarket:
		content = m.dashboard.View()
	case TabSignals:
		content = m.signals.View()
	case TabAlgorithm:
		content = m.algorithm.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.renderTabBar(), content)
}

// SetSize updates dimensions on the root model and propagates to children.
func (m *AppModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.propagateSize()
}

// ActiveTab returns the currently active tab (for testing).
func (m AppModel) ActiveTab() Tab { return m.activeTab }

func (m *AppModel) propagateSize() {
	contentHeight := m.height - 2 // tab bar
	m.dashboard.SetSize(m.width, contentHeight)
	m.signals.SetSize(m.width, contentHeight)
	m.algorithm.SetSize(m.width, contentHeight)
}

func (m AppModel) renderTabBar() string {
	var tabs []string
	for i, name := range tabNames {
		if Tab(i) == m.activeTab {
			tabs = append(tabs, ActiveTabStyle.Render(name))
		} else {
			tabs = append(tabs, InactiveTabStyle.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}
