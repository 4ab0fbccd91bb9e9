package view

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/capital/internal/ledger"
)

type savingsState int

const (
	savingsStateList savingsState = iota
	savingsStateCreate
	savingsStateDeposit
	savingsStateConfirmDelete
)

type planItem struct {
	plan *ledger.SavingsPlan
}

func (i planItem) Title() string       { return i.plan.Name }
func (i planItem) Description() string { return "" }
func (i planItem) FilterValue() string { return i.plan.Name }

type planDelegate struct{}

func (d planDelegate) Height() int                             { return 2 }
func (d planDelegate) Spacing() int                            { return 1 }
func (d planDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d planDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	item, ok := listItem.(planItem)
	if !ok {
		return
	}

	p := item.plan

	cursor := "  "
	if index == m.Index() {
		cursor = "> "
	}

	line1 := fmt.Sprintf("%s%s  %s / %s", cursor, p.Name, FormatAmount(p.Accumulated), FormatAmount(p.TargetAmount))
	line2 := faintStyle.Render(fmt.Sprintf("    %s to %s  %s",
		FormatDate(p.StartDate), FormatDate(p.TargetDate), progressBar(p.Accumulated, p.TargetAmount, 20)))

	fmt.Fprintf(w, "%s\n%s", line1, line2)
}

// progressBar renders accumulated/target as a fixed-width bar.
func progressBar(accumulated, target decimal.Decimal, width int) string {
	if !target.IsPositive() {
		return ""
	}

	ratio := accumulated.Div(target)
	if ratio.GreaterThan(decimal.NewFromInt(1)) {
		ratio = decimal.NewFromInt(1)
	}

	filled := int(ratio.Mul(decimal.NewFromInt(int64(width))).IntPart())

	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "] " +
		ratio.Mul(decimal.NewFromInt(100)).StringFixed(0) + "%"
}

type planInput struct {
	name    string
	target  string
	initial string
	start   string
	end     string
	amount  string
	date    string
	confirm bool
}

// SavingsModel lists savings plans and moves money into them.
type SavingsModel struct {
	CommonModel
	ledger *ledger.Service
	user   User

	state   savingsState
	list    list.Model
	form    *huh.Form
	in      *planInput
	balance decimal.Decimal

	status string
	err    error
}

func NewSavingsModel(l *ledger.Service, user User) SavingsModel {
	lm := list.New(nil, planDelegate{}, 80, 20)
	lm.Title = "Savings Plans"
	lm.SetShowStatusBar(false)
	lm.SetFilteringEnabled(false)
	lm.SetShowHelp(false)

	return SavingsModel{ledger: l, user: user, list: lm, in: &planInput{}}
}

func (m SavingsModel) Title() string { return "Savings Plans" }
func (m SavingsModel) ShortHelp() string {
	if m.state != savingsStateList {
		return "Esc: cancel"
	}

	return "Esc: back | n: new | d: deposit | x: delete | r: refresh"
}

func (m SavingsModel) Init() tea.Cmd {
	return m.loadCmd()
}

type plansMsg struct {
	plans   []*ledger.SavingsPlan
	balance decimal.Decimal
	err     error
}

type planChangedMsg struct {
	status string
	err    error
}

func (m SavingsModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		plans, balance, err := m.ledger.ListPlans(ctx, m.user.ID)

		return plansMsg{plans: plans, balance: balance, err: err}
	}
}

func (m SavingsModel) selected() *ledger.SavingsPlan {
	item, ok := m.list.SelectedItem().(planItem)
	if !ok {
		return nil
	}

	return item.plan
}

func (m SavingsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case plansMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		items := make([]list.Item, len(msg.plans))
		for i, p := range msg.plans {
			items[i] = planItem{plan: p}
		}

		m.balance = msg.balance

		return m, m.list.SetItems(items)

	case planChangedMsg:
		m.state = savingsStateList
		m.form = nil
		m.status = msg.status
		m.err = msg.err

		return m, m.loadCmd()

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			if m.state == savingsStateList {
				return m, Back
			}

			m.state = savingsStateList
			m.form = nil

			return m, nil
		}

		if m.state == savingsStateList {
			return m.updateList(msg)
		}
	}

	if m.form == nil {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)

		return m, cmd
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	switch m.state {
	case savingsStateCreate:
		return m, m.createCmd()
	case savingsStateDeposit:
		return m, m.depositCmd()
	case savingsStateConfirmDelete:
		if !m.in.confirm {
			m.state = savingsStateList
			m.form = nil

			return m, nil
		}

		return m, m.deleteCmd()
	}

	return m, nil
}

func (m SavingsModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "r":
		return m, m.loadCmd()
	case "n":
		today := time.Now().Format(time.DateOnly)
		*m.in = planInput{start: today, date: today}
		m.form = m.createForm()
		m.state = savingsStateCreate

		return m, m.form.Init()
	case "d":
		if m.selected() == nil {
			return m, nil
		}

		*m.in = planInput{date: time.Now().Format(time.DateOnly)}
		m.form = m.depositForm()
		m.state = savingsStateDeposit

		return m, m.form.Init()
	case "x":
		p := m.selected()
		if p == nil {
			return m, nil
		}

		*m.in = planInput{}
		m.form = huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %q?", p.Name)).
				Description(fmt.Sprintf("Its expenses are removed and %s returns to your balance.", FormatAmount(p.Accumulated))).
				Value(&m.in.confirm),
		)).WithShowHelp(false)
		m.state = savingsStateConfirmDelete

		return m, m.form.Init()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	return m, cmd
}

func positiveAmount(optional bool) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" && optional {
			return nil
		}

		d, err := decimal.NewFromString(s)
		if err != nil {
			return errors.New("not a number")
		}

		if d.IsNegative() || (!optional && d.IsZero()) {
			return errors.New("must be greater than zero")
		}

		return nil
	}
}

func validDate(s string) error {
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return errors.New("use YYYY-MM-DD")
	}

	return nil
}

func (m *SavingsModel) createForm() *huh.Form {
	return huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Name").Value(&m.in.name).Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("name cannot be empty")
			}

			return nil
		}),
		huh.NewInput().Title("Target amount").Value(&m.in.target).Validate(positiveAmount(false)),
		huh.NewInput().Title("Initial deposit").Placeholder("0.00").Value(&m.in.initial).Validate(positiveAmount(true)),
		huh.NewInput().Title("Start date").Value(&m.in.start).Validate(validDate),
		huh.NewInput().Title("Target date").Placeholder("YYYY-MM-DD").Value(&m.in.end).Validate(validDate),
	)).WithWidth(50).WithShowHelp(false)
}

func (m *SavingsModel) depositForm() *huh.Form {
	return huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Amount").Value(&m.in.amount).Validate(positiveAmount(false)),
		huh.NewInput().Title("Date").Value(&m.in.date).Validate(validDate),
	)).WithWidth(50).WithShowHelp(false)
}

func (m SavingsModel) createCmd() tea.Cmd {
	in := *m.in

	return func() tea.Msg {
		target, _ := decimal.NewFromString(strings.TrimSpace(in.target))
		initial := decimal.Zero
		if v := strings.TrimSpace(in.initial); v != "" {
			initial, _ = decimal.NewFromString(v)
		}

		params := ledger.PlanParams{
			Name:          in.name,
			TargetAmount:  target,
			InitialAmount: &initial,
			StartDate:     in.start,
			TargetDate:    in.end,
		}

		ctx, cancel := DbCtx()
		defer cancel()

		mv, err := m.ledger.CreatePlan(ctx, m.user.ID, params)
		if err != nil {
			return planChangedMsg{err: err}
		}

		return planChangedMsg{status: fmt.Sprintf("Created %q. Balance: %s", mv.Plan.Name, FormatAmount(mv.Balance))}
	}
}

func (m SavingsModel) depositCmd() tea.Cmd {
	plan := m.selected()
	in := *m.in

	return func() tea.Msg {
		amount, _ := decimal.NewFromString(strings.TrimSpace(in.amount))

		ctx, cancel := DbCtx()
		defer cancel()

		mv, err := m.ledger.Deposit(ctx, m.user.ID, plan.ID, ledger.DepositParams{Amount: amount, Date: in.date})
		if err != nil {
			return planChangedMsg{err: err}
		}

		return planChangedMsg{status: fmt.Sprintf("Deposited %s into %q. Balance: %s",
			FormatAmount(amount), mv.Plan.Name, FormatAmount(mv.Balance))}
	}
}

func (m SavingsModel) deleteCmd() tea.Cmd {
	plan := m.selected()

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		del, err := m.ledger.DeletePlan(ctx, m.user.ID, plan.ID)
		if err != nil {
			return planChangedMsg{err: err}
		}

		return planChangedMsg{status: fmt.Sprintf("Deleted %q, %s returned. Balance: %s",
			del.Plan.Name, FormatAmount(del.Reversed), FormatAmount(del.Balance))}
	}
}

func (m SavingsModel) View() string {
	style := lipgloss.NewStyle().Padding(1)

	if m.form != nil {
		title := "New plan"
		if p := m.selected(); p != nil && m.state != savingsStateCreate {
			title = p.Name
		}

		return style.Render(lipgloss.NewStyle().Bold(true).Render(title) + "\n\n" + m.form.View())
	}

	header := fmt.Sprintf("Current capital: %s", activeStyle(FormatAmount(m.balance)))

	var footer string
	if m.status != "" {
		footer = "\n" + successStyle.Render(m.status)
	}

	if m.err != nil {
		footer = "\n" + errorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}

	body := m.list.View()
	if len(m.list.Items()) == 0 {
		body = faintStyle.Render("No savings plans yet. Press n to create one.")
	}

	return style.Render(header + "\n\n" + body + footer)
}
