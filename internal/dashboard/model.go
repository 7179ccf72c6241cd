// Package dashboard implements gatewaytop, a terminal dashboard that polls
// a running gateway's /_health endpoint and renders live circuit-breaker
// state per provider.
package dashboard

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Colours mirror the theme package's palette (good/danger/primary) but are
// expressed directly in lipgloss's own colour type rather than converted
// from pterm.Color, since the two packages don't share a colour model.
var (
	colorPrimary = lipgloss.Color("12")
	colorGood    = lipgloss.Color("10")
	colorDanger  = lipgloss.Color("9")
)

const pollInterval = time.Second

type breakerRow struct {
	name          string
	isOpen        bool
	failureCount  int
	remainingTime *float64
}

type healthPayload struct {
	Status          string `json:"status"`
	Providers       []string `json:"providers"`
	CircuitBreakers map[string]struct {
		IsOpen        bool     `json:"is_open"`
		FailureCount  int      `json:"failure_count"`
		RemainingTime *float64 `json:"remaining_time"`
	} `json:"circuit_breakers"`
}

// Model is the bubbletea model for gatewaytop.
type Model struct {
	healthURL string
	client    *http.Client
	rows      []breakerRow
	err       error
	lastPoll  time.Time
	quitting  bool
}

func New(healthURL string) Model {
	return Model{
		healthURL: healthURL,
		client:    &http.Client{Timeout: 2 * time.Second},
	}
}

func (m Model) Init() tea.Cmd {
	return m.poll()
}

type pollResultMsg struct {
	rows []breakerRow
	err  error
}

type tickMsg time.Time

func (m Model) poll() tea.Cmd {
	return func() tea.Msg {
		resp, err := m.client.Get(m.healthURL)
		if err != nil {
			return pollResultMsg{err: err}
		}
		defer resp.Body.Close()

		var payload healthPayload
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return pollResultMsg{err: err}
		}

		rows := make([]breakerRow, 0, len(payload.CircuitBreakers))
		for name, cb := range payload.CircuitBreakers {
			rows = append(rows, breakerRow{
				name:          name,
				isOpen:        cb.IsOpen,
				failureCount:  cb.FailureCount,
				remainingTime: cb.RemainingTime,
			})
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].name < rows[j].name })

		return pollResultMsg{rows: rows}
	}
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
	case tickMsg:
		return m, m.poll()
	case pollResultMsg:
		m.lastPoll = time.Now()
		m.err = msg.err
		if msg.err == nil {
			m.rows = msg.rows
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("gatewaytop")

	if m.err != nil {
		return fmt.Sprintf("%s\n\nerror polling %s: %v\n\npress q to quit\n", title, m.healthURL, m.err)
	}

	header := fmt.Sprintf("%-20s %-8s %-10s %s", "PROVIDER", "STATE", "FAILURES", "RESET IN")
	lines := []string{title, "", header}

	for _, row := range m.rows {
		state := "closed"
		stateStyle := lipgloss.NewStyle().Foreground(colorGood)
		if row.isOpen {
			state = "open"
			stateStyle = lipgloss.NewStyle().Foreground(colorDanger)
		}

		reset := "-"
		if row.remainingTime != nil {
			reset = fmt.Sprintf("%.0fs", *row.remainingTime)
		}

		lines = append(lines, fmt.Sprintf("%-20s %-8s %-10d %s", row.name, stateStyle.Render(state), row.failureCount, reset))
	}

	lines = append(lines, "", fmt.Sprintf("last polled: %s", m.lastPoll.Format(time.RFC3339)), "press q to quit")
	return lipgloss.JoinVertical(lipgloss.Left, lines...) + "\n"
}
