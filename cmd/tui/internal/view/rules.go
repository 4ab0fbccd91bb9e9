package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/capital/internal/category"
	"github.com/MrJamesThe3rd/capital/internal/matching"
)

// RulesModel lists the description patterns that categorize imports.
type RulesModel struct {
	CommonModel
	rules      *matching.Service
	categories *category.Service
	user       User

	table table.Model
	items []*matching.Rule

	status string
	err    error
}

func NewRulesModel(rules *matching.Service, cats *category.Service, user User) RulesModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Pattern", Width: 40},
			{Title: "Category", Width: 24},
			{Title: "Created", Width: 12},
		}),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	return RulesModel{rules: rules, categories: cats, user: user, table: t}
}

func (m RulesModel) Title() string     { return "Category Rules" }
func (m RulesModel) ShortHelp() string { return "Esc: back | x: forget rule | r: refresh" }

func (m RulesModel) Init() tea.Cmd {
	return m.loadCmd()
}

type rulesMsg struct {
	rules []*matching.Rule
	names map[uuid.UUID]string
	err   error
}

type ruleForgottenMsg struct {
	pattern string
	err     error
}

func (m RulesModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		rules, err := m.rules.Rules(ctx, m.user.ID)
		if err != nil {
			return rulesMsg{err: err}
		}

		cats, err := m.categories.List(ctx, m.user.ID)
		if err != nil {
			return rulesMsg{err: err}
		}

		names := make(map[uuid.UUID]string, len(cats))
		for _, c := range cats {
			names[c.ID] = c.Name
		}

		return rulesMsg{rules: rules, names: names}
	}
}

func (m RulesModel) forgetCmd(rule *matching.Rule) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		return ruleForgottenMsg{pattern: rule.Pattern, err: m.rules.Forget(ctx, m.user.ID, rule.ID)}
	}
}

func (m RulesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case rulesMsg:
		m.err = msg.err
		if msg.err != nil {
			return m, nil
		}

		m.items = msg.rules

		rows := make([]table.Row, len(msg.rules))
		for i, r := range msg.rules {
			rows[i] = table.Row{r.Pattern, msg.names[r.CategoryID], FormatDate(r.CreatedAt)}
		}

		m.table.SetRows(rows)

		return m, nil

	case ruleForgottenMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status = fmt.Sprintf("Forgot %q.", msg.pattern)
		}

		return m, m.loadCmd()

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			return m, m.loadCmd()
		case "x":
			idx := m.table.Cursor()
			if idx < 0 || idx >= len(m.items) {
				return m, nil
			}

			return m, m.forgetCmd(m.items[idx])
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m RulesModel) View() string {
	body := m.table.View()
	if len(m.items) == 0 {
		body = faintStyle.Render("No rules yet. Tick \"remember\" when recording an entry to add one.")
	}

	if m.status != "" {
		body += "\n\n" + successStyle.Render(m.status)
	}

	if m.err != nil {
		body += "\n\n" + errorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}

	return lipgloss.NewStyle().Padding(1).Render(body)
}
