package view

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/capital/internal/ledger"
)

// BalanceModel shows the account totals and this year's monthly breakdown.
type BalanceModel struct {
	CommonModel
	ledger *ledger.Service
	user   User

	totals  *ledger.Totals
	monthly []ledger.MonthlyTotal
	year    int
	loading bool
	err     error
}

func NewBalanceModel(l *ledger.Service, user User) BalanceModel {
	return BalanceModel{ledger: l, user: user, year: time.Now().Year(), loading: true}
}

func (m BalanceModel) Title() string     { return "Balance" }
func (m BalanceModel) ShortHelp() string { return "Esc: back | r: refresh | ←/→: year" }

func (m BalanceModel) Init() tea.Cmd {
	return m.loadCmd()
}

type balanceMsg struct {
	totals  *ledger.Totals
	monthly []ledger.MonthlyTotal
	err     error
}

func (m BalanceModel) loadCmd() tea.Cmd {
	year := m.year

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		totals, err := m.ledger.Totals(ctx, m.user.ID)
		if err != nil {
			return balanceMsg{err: err}
		}

		monthly, err := m.ledger.Monthly(ctx, m.user.ID, year, nil)
		if err != nil {
			return balanceMsg{err: err}
		}

		return balanceMsg{totals: totals, monthly: monthly}
	}
}

func (m BalanceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case balanceMsg:
		m.loading = false
		m.err = msg.err
		m.totals = msg.totals
		m.monthly = msg.monthly

		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "left":
			m.year--
			m.loading = true

			return m, m.loadCmd()
		case "right":
			m.year++
			m.loading = true

			return m, m.loadCmd()
		}
	}

	return m, nil
}

func (m BalanceModel) View() string {
	style := lipgloss.NewStyle().Padding(1)

	if m.loading {
		return style.Render("Loading balance...")
	}

	if m.err != nil {
		return style.Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	t := m.totals

	var b strings.Builder

	fmt.Fprintf(&b, "Initial capital:  %s\n", FormatAmount(t.InitialCapital))
	fmt.Fprintf(&b, "Total income:     %s\n", FormatAmount(t.TotalIncome))
	fmt.Fprintf(&b, "Total expenses:   %s\n", FormatAmount(t.TotalExpense))
	fmt.Fprintf(&b, "Current capital:  %s\n", activeStyle(FormatAmount(t.CurrentCapital)))

	if !t.Consistent {
		fmt.Fprintf(&b, "\n%s\n", errorStyle.Render(fmt.Sprintf(
			"Balance drift: expected %s from the journal", FormatAmount(t.ExpectedCapital))))
	}

	fmt.Fprintf(&b, "\n%d\n\n", m.year)
	fmt.Fprintf(&b, "%-10s %12s %12s\n", "Month", "Income", "Expenses")

	for _, mt := range m.monthly {
		line := fmt.Sprintf("%-10s %12s %12s", mt.Month.String(), FormatAmount(mt.Income), FormatAmount(mt.Expense))
		if mt.Income.IsZero() && mt.Expense.IsZero() {
			line = faintStyle.Render(line)
		}

		b.WriteString(line + "\n")
	}

	return style.Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Render(m.user.Username),
		"",
		b.String(),
	))
}
