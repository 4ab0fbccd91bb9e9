package view

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/capital/internal/ledger"
)

var (
	kindLabels   = []string{"All", "Income", "Expenses"}
	periodCycles = []Period{PeriodAll, PeriodThisMonth, PeriodLastMonth, PeriodThisYear}
)

// ListModel is the journal: incomes and expenses, newest first.
type ListModel struct {
	CommonModel
	ledger *ledger.Service
	user   User

	table   table.Model
	entries []*ledger.Entry
	shown   []*ledger.Entry

	kindFilterIdx int
	periodIdx     int

	loading bool
	err     error
}

func NewListModel(l *ledger.Service, user User) ListModel {
	columns := []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Kind", Width: 8},
		{Title: "Amount", Width: 12},
		{Title: "Category", Width: 20},
		{Title: "Description", Width: 40},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return ListModel{
		ledger:  l,
		user:    user,
		table:   t,
		loading: true,
	}
}

func (m ListModel) Title() string { return "Journal" }
func (m ListModel) ShortHelp() string {
	return "Esc: back | k: kind filter | d: date filter | r: refresh"
}

func (m ListModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m ListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadListMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.entries = msg.entries
		m.refreshTable()

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "k":
			m.kindFilterIdx = (m.kindFilterIdx + 1) % len(kindLabels)
			m.refreshTable()

			return m, nil
		case "d":
			m.periodIdx = (m.periodIdx + 1) % len(periodCycles)
			m.loading = true

			return m, m.loadCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m ListModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading journal...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	header := fmt.Sprintf(
		"Filter: [k] Kind: %s | [d] Date: %s | %d entries",
		activeStyle(kindLabels[m.kindFilterIdx]),
		activeStyle(periodCycles[m.periodIdx].String()),
		len(m.shown),
	)

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	return lipgloss.NewStyle().Padding(1).Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	))
}

func (m *ListModel) refreshTable() {
	m.shown = make([]*ledger.Entry, 0, len(m.entries))

	for _, e := range m.entries {
		switch {
		case m.kindFilterIdx == 1 && e.Kind != ledger.KindIncome:
			continue
		case m.kindFilterIdx == 2 && e.Kind != ledger.KindExpense:
			continue
		}

		m.shown = append(m.shown, e)
	}

	rows := make([]table.Row, 0, len(m.shown))
	for _, e := range m.shown {
		amount := FormatAmount(e.Amount)
		if e.Kind == ledger.KindExpense {
			amount = "-" + amount
		}

		rows = append(rows, table.Row{
			FormatDate(e.Date),
			string(e.Kind),
			amount,
			e.CategoryName,
			e.Description,
		})
	}

	m.table.SetRows(rows)
	m.table.SetCursor(0)
}

type loadListMsg struct {
	entries []*ledger.Entry
	err     error
}

func (m ListModel) loadCmd() tea.Cmd {
	filter := periodCycles[m.periodIdx].Filter(time.Now())

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		entries, err := m.ledger.Report(ctx, m.user.ID, filter)

		return loadListMsg{entries: entries, err: err}
	}
}
