package view

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/capital/internal/category"
	"github.com/MrJamesThe3rd/capital/internal/ledger"
	"github.com/MrJamesThe3rd/capital/internal/matching"
)

type recordState int

const (
	recordStateDetails recordState = iota
	recordStateCategory
	recordStateSaving
	recordStateResult
)

// recordInput is shared by every copy of the model so huh can bind to it.
type recordInput struct {
	kind        ledger.Kind
	amount      string
	description string
	date        string
	categoryID  uuid.UUID
	remember    bool
}

// RecordModel records a single income or expense. The category step is
// preselected from the user's rules when one matches the description.
type RecordModel struct {
	CommonModel
	ledger     *ledger.Service
	categories *category.Service
	rules      *matching.Service
	user       User

	state recordState
	form  *huh.Form
	in    *recordInput

	options   []huh.Option[uuid.UUID]
	suggested bool

	status string
	err    error
}

func NewRecordModel(l *ledger.Service, cats *category.Service, rules *matching.Service, user User) RecordModel {
	m := RecordModel{
		ledger:     l,
		categories: cats,
		rules:      rules,
		user:       user,
		in: &recordInput{
			kind: ledger.KindExpense,
			date: time.Now().Format(time.DateOnly),
		},
	}
	m.form = m.detailsForm()

	return m
}

func (m RecordModel) Title() string     { return "Record Entry" }
func (m RecordModel) ShortHelp() string { return "Esc: back | Enter: next" }

func (m RecordModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m *RecordModel) detailsForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[ledger.Kind]().
				Key("kind").
				Title("Kind").
				Options(
					huh.NewOption("Expense", ledger.KindExpense),
					huh.NewOption("Income", ledger.KindIncome),
				).
				Value(&m.in.kind),
			huh.NewInput().
				Key("amount").
				Title("Amount").
				Placeholder("12.50").
				Value(&m.in.amount).
				Validate(func(s string) error {
					d, err := decimal.NewFromString(strings.TrimSpace(s))
					if err != nil {
						return errors.New("not a number")
					}

					if !d.IsPositive() {
						return errors.New("must be greater than zero")
					}

					return nil
				}),
			huh.NewInput().
				Key("description").
				Title("Description").
				Value(&m.in.description).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("description cannot be empty")
					}

					return nil
				}),
			huh.NewInput().
				Key("date").
				Title("Date").
				Placeholder("YYYY-MM-DD").
				Value(&m.in.date).
				Validate(func(s string) error {
					if _, err := time.Parse(time.DateOnly, s); err != nil {
						return errors.New("use YYYY-MM-DD")
					}

					return nil
				}),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m *RecordModel) categoryForm() *huh.Form {
	fields := []huh.Field{
		huh.NewSelect[uuid.UUID]().
			Key("category").
			Title("Category").
			Options(m.options...).
			Value(&m.in.categoryID),
	}

	if !m.suggested {
		fields = append(fields, huh.NewConfirm().
			Key("remember").
			Title("Remember this category for similar descriptions?").
			Value(&m.in.remember))
	}

	return huh.NewForm(huh.NewGroup(fields...)).WithWidth(50).WithShowHelp(false)
}

type categoryOptionsMsg struct {
	options   []huh.Option[uuid.UUID]
	suggested uuid.UUID
	found     bool
	err       error
}

func (m RecordModel) loadCategoriesCmd() tea.Cmd {
	desc := m.in.description

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		cats, err := m.categories.List(ctx, m.user.ID)
		if err != nil {
			return categoryOptionsMsg{err: err}
		}

		opts := make([]huh.Option[uuid.UUID], len(cats))
		for i, c := range cats {
			opts[i] = huh.NewOption(strings.TrimSpace(c.Icon+" "+c.Name), c.ID)
		}

		suggested, found, err := m.rules.Suggest(ctx, m.user.ID, desc)
		if err != nil {
			return categoryOptionsMsg{err: err}
		}

		return categoryOptionsMsg{options: opts, suggested: suggested, found: found}
	}
}

type recordResultMsg struct {
	entry *ledger.Entry
	err   error
}

func (m RecordModel) saveCmd() tea.Cmd {
	in := *m.in
	amount, _ := decimal.NewFromString(strings.TrimSpace(in.amount))
	params := ledger.EntryParams{
		CategoryID:  in.categoryID,
		Amount:      amount,
		Description: in.description,
		Date:        in.date,
	}
	kind := in.kind
	remember := in.remember
	desc := strings.TrimSpace(in.description)

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		var (
			entry *ledger.Entry
			err   error
		)

		if kind == ledger.KindIncome {
			var in *ledger.Income
			if in, err = m.ledger.RecordIncome(ctx, m.user.ID, params); err == nil {
				entry = &ledger.Entry{Kind: kind, Amount: in.Amount, Description: in.Description, Date: in.Date}
			}
		} else {
			var ex *ledger.Expense
			if ex, err = m.ledger.RecordExpense(ctx, m.user.ID, params); err == nil {
				entry = &ledger.Entry{Kind: kind, Amount: ex.Amount, Description: ex.Description, Date: ex.Date}
			}
		}

		if err != nil {
			return recordResultMsg{err: err}
		}

		if remember {
			if _, err := m.rules.Learn(ctx, m.user.ID, desc, params.CategoryID); err != nil {
				return recordResultMsg{entry: entry, err: fmt.Errorf("entry recorded, rule not saved: %w", err)}
			}
		}

		return recordResultMsg{entry: entry}
	}
}

func (m RecordModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case categoryOptionsMsg:
		if msg.err != nil {
			m.state = recordStateResult
			m.err = msg.err

			return m, nil
		}

		if len(msg.options) == 0 {
			m.state = recordStateResult
			m.err = errors.New("no categories available")

			return m, nil
		}

		m.options = msg.options
		m.suggested = msg.found
		m.in.categoryID = msg.options[0].Value

		if msg.found {
			m.in.categoryID = msg.suggested
		}

		m.form = m.categoryForm()
		m.state = recordStateCategory

		return m, m.form.Init()

	case recordResultMsg:
		m.state = recordStateResult
		m.err = msg.err

		if msg.entry != nil {
			m.status = fmt.Sprintf("Recorded %s of %s on %s.",
				msg.entry.Kind, FormatAmount(msg.entry.Amount), FormatDate(msg.entry.Date))
		}

		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m, Back
		}

		if m.state == recordStateResult && msg.Type == tea.KeyEnter {
			next := NewRecordModel(m.ledger, m.categories, m.rules, m.user)
			return next, next.Init()
		}
	}

	if m.state != recordStateDetails && m.state != recordStateCategory {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if m.state == recordStateDetails {
		return m, m.loadCategoriesCmd()
	}

	m.state = recordStateSaving

	return m, m.saveCmd()
}

func (m RecordModel) View() string {
	style := lipgloss.NewStyle().Padding(1)

	switch m.state {
	case recordStateDetails:
		return style.Render(m.form.View())
	case recordStateCategory:
		hint := ""
		if m.suggested {
			hint = faintStyle.Render("Suggested by your rules") + "\n\n"
		}

		return style.Render(hint + m.form.View())
	case recordStateSaving:
		return style.Render("Saving...")
	}

	var out string
	if m.status != "" {
		out = successStyle.Render(m.status) + "\n"
	}

	if m.err != nil {
		out += errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n"
	}

	return style.Render(out + "\n(Enter for another entry, Esc to go back)")
}
