package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/beehive-swarm/beehive/internal/store"
	"github.com/beehive-swarm/beehive/internal/task"
	"github.com/beehive-swarm/beehive/pkg/hive"
)

// keyMap is the dashboard's key bindings, rendered by bubbles/help.
type keyMap struct {
	Refresh key.Binding
	Quit    key.Binding
	Help    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keys = keyMap{
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh now")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
}

// tickMsg triggers a periodic refresh from the Store.
type tickMsg time.Time

// statesMsg carries freshly polled bee liveness state.
type statesMsg []*store.AgentState

// summaryMsg carries freshly polled task counts.
type summaryMsg struct {
	summary *task.ProgressSummary
	err     error
}

func tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func fetchStatesCmd(h *hive.Hive) tea.Cmd {
	return func() tea.Msg {
		states, err := h.Store.ListStates(context.Background())
		if err != nil {
			return statesMsg(nil)
		}
		return statesMsg(states)
	}
}

func fetchSummaryCmd(h *hive.Hive) tea.Cmd {
	return func() tea.Msg {
		_, summary, err := h.Tasks.GetProgress(context.Background(), "")
		return summaryMsg{summary: summary, err: err}
	}
}

// Model is the Bubble Tea model for the beehive dashboard.
type Model struct {
	hive   *hive.Hive
	states []*store.AgentState
	byStat map[store.TaskStatus]int
	byBee  map[string]int
	err    error
	width  int
	height int
	help   help.Model
}

func newModel(h *hive.Hive) Model {
	return Model{hive: h, byStat: map[store.TaskStatus]int{}, byBee: map[string]int{}, help: help.New()}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(fetchStatesCmd(m.hive), fetchSummaryCmd(m.hive), tickCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Refresh):
			return m, tea.Batch(fetchStatesCmd(m.hive), fetchSummaryCmd(m.hive))
		case key.Matches(msg, keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
	case statesMsg:
		m.states = msg
	case summaryMsg:
		if msg.err != nil {
			m.err = msg.err
			break
		}
		m.err = nil
		m.byStat = msg.summary.ByStatus
		m.byBee = msg.summary.ByAssignee
	case tickMsg:
		return m, tea.Batch(fetchStatesCmd(m.hive), fetchSummaryCmd(m.hive), tickCmd())
	}
	return m, nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render("beehive dashboard"))
	sb.WriteString("\n\n")
	sb.WriteString(renderBees(m.states))
	sb.WriteString("\n")
	sb.WriteString(renderTasksByStatus(m.byStat))
	sb.WriteString("\n")
	sb.WriteString(renderTasksByBee(m.byBee))
	sb.WriteString("\n")
	sb.WriteString(m.help.View(keys))
	sb.WriteString("\n")
	if m.err != nil {
		sb.WriteString(warnStyle.Render(fmt.Sprintf("error: %v\n", m.err)))
	}
	return sb.String()
}

func renderBees(states []*store.AgentState) string {
	if len(states) == 0 {
		return dimStyle.Render("no bee activity recorded yet")
	}
	var sb strings.Builder
	sb.WriteString(headerStyle.Render(fmt.Sprintf("%-10s %-12s %-10s %s", "BEE", "STATUS", "TASK", "LAST HEARTBEAT")))
	sb.WriteString("\n")
	for _, st := range states {
		style := okStyle
		if st.Status == store.AgentOffline || st.Status == store.AgentError {
			style = warnStyle
		}
		age := time.Since(st.LastHeartbeat).Round(time.Second)
		task := st.CurrentTaskID
		if task == "" {
			task = "-"
		}
		sb.WriteString(style.Render(fmt.Sprintf("%-10s %-12s %-10s %s ago", st.BeeName, st.Status, task, age)))
		sb.WriteString("\n")
	}
	return sb.String()
}

func renderTasksByStatus(byStatus map[store.TaskStatus]int) string {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render("tasks by status"))
	sb.WriteString("\n")
	if len(byStatus) == 0 {
		sb.WriteString(dimStyle.Render("no tasks\n"))
		return sb.String()
	}
	for _, status := range []store.TaskStatus{
		store.StatusPending, store.StatusInProgress,
		store.StatusCompleted, store.StatusFailed, store.StatusCancelled,
	} {
		n, ok := byStatus[status]
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("  %-12s %d\n", status, n))
	}
	return sb.String()
}

func renderTasksByBee(byBee map[string]int) string {
	var sb strings.Builder
	sb.WriteString(headerStyle.Render("tasks by assignee"))
	sb.WriteString("\n")
	if len(byBee) == 0 {
		sb.WriteString(dimStyle.Render("no assignments\n"))
		return sb.String()
	}
	for bee, n := range byBee {
		sb.WriteString(fmt.Sprintf("  %-10s %d\n", bee, n))
	}
	return sb.String()
}
