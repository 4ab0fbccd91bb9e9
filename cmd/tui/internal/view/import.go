package view

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/capital/internal/category"
	"github.com/MrJamesThe3rd/capital/internal/importer"
	"github.com/MrJamesThe3rd/capital/internal/ledger"
)

const importTimeout = 2 * time.Minute

type importStep int

const (
	importLoading importStep = iota
	importSetup
	importPickFile
	importRunning
	importReview
	importDone
)

// importInput is shared by the model copies bubbletea makes, so the form
// bindings survive Update.
type importInput struct {
	bank     importer.Bank
	fallback uuid.UUID
	accepted []int
}

// ImportModel walks through a statement import: choose the bank layout and
// the fallback category, pick the file, then decide which duplicates still
// go in.
type ImportModel struct {
	CommonModel
	ledger     *ledger.Service
	importer   *importer.Service
	categories *category.Service
	user       User

	step   importStep
	in     *importInput
	form   *huh.Form
	picker filepicker.Model

	pending   []ledger.BatchEntry
	conflicts []ledger.Conflict

	outcome string
	err     error
}

func NewImportModel(l *ledger.Service, imp *importer.Service, cats *category.Service, user User) ImportModel {
	fp := filepicker.New()
	fp.CurrentDirectory, _ = os.Getwd()
	fp.AllowedTypes = []string{".csv", ".txt"}
	fp.DirAllowed = false
	fp.FileAllowed = true
	fp.SetHeight(15)

	return ImportModel{
		ledger:     l,
		importer:   imp,
		categories: cats,
		user:       user,
		in:         &importInput{},
		picker:     fp,
	}
}

func (m ImportModel) Title() string { return "Import Statement" }

func (m ImportModel) ShortHelp() string {
	switch m.step {
	case importReview:
		return "x: toggle | Enter: confirm | Esc: cancel"
	case importDone:
		return "Esc: back"
	}

	return "Esc: back | Enter: select"
}

func (m ImportModel) Init() tea.Cmd {
	return m.loadCategoriesCmd()
}

func (m ImportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m.escape()
		}

	case importCategoriesMsg:
		if msg.err != nil {
			return m.finish("", msg.err), nil
		}

		m.form = m.setupForm(msg.options)
		m.step = importSetup

		return m, m.form.Init()

	case importParsedMsg:
		if msg.err != nil {
			return m.finish("", msg.err), nil
		}

		if len(msg.result.Conflicts) == 0 {
			return m.finish(fmt.Sprintf("Imported %d entries.", len(msg.result.Imported)), nil), nil
		}

		m.pending = msg.result.New
		m.conflicts = msg.result.Conflicts
		m.in.accepted = nil
		m.form = m.reviewForm()
		m.step = importReview

		return m, m.form.Init()

	case importRecordedMsg:
		if msg.err != nil {
			return m.finish("", msg.err), nil
		}

		return m.finish(fmt.Sprintf("Imported %d entries, skipped %d duplicates.", msg.count, msg.skipped), nil), nil
	}

	switch m.step {
	case importSetup:
		return m.updateForm(msg, func(m ImportModel) (tea.Model, tea.Cmd) {
			m.step = importPickFile
			return m, m.picker.Init()
		})

	case importReview:
		return m.updateForm(msg, func(m ImportModel) (tea.Model, tea.Cmd) {
			m.step = importRunning
			return m, m.recordCmd()
		})

	case importPickFile:
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)

		if ok, path := m.picker.DidSelectFile(msg); ok {
			m.step = importRunning
			return m, m.parseCmd(path)
		}

		return m, cmd
	}

	return m, nil
}

func (m ImportModel) updateForm(msg tea.Msg, done func(ImportModel) (tea.Model, tea.Cmd)) (tea.Model, tea.Cmd) {
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return done(m)
	case huh.StateAborted:
		return m.escape()
	}

	return m, cmd
}

func (m ImportModel) escape() (tea.Model, tea.Cmd) {
	switch m.step {
	case importPickFile, importReview, importDone:
		m.step = importLoading
		m.pending = nil
		m.conflicts = nil
		m.err = nil
		m.outcome = ""

		return m, m.loadCategoriesCmd()
	case importRunning:
		return m, nil
	}

	return m, Back
}

func (m ImportModel) finish(outcome string, err error) ImportModel {
	m.step = importDone
	m.outcome = outcome
	m.err = err

	return m
}

func (m ImportModel) setupForm(categories []huh.Option[uuid.UUID]) *huh.Form {
	banks := m.importer.Banks()

	bankOptions := make([]huh.Option[importer.Bank], len(banks))
	for i, b := range banks {
		bankOptions[i] = huh.NewOption(strings.ToUpper(string(b)), b)
	}

	if len(banks) > 0 {
		m.in.bank = banks[0]
	}

	m.in.fallback = uuid.Nil

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[importer.Bank]().
				Title("Bank").
				Options(bankOptions...).
				Value(&m.in.bank),
			huh.NewSelect[uuid.UUID]().
				Title("Category for movements no rule matches").
				Options(categories...).
				Value(&m.in.fallback),
		),
	).WithWidth(60).WithShowHelp(false)
}

func (m ImportModel) reviewForm() *huh.Form {
	options := make([]huh.Option[int], len(m.conflicts))
	for i, c := range m.conflicts {
		options[i] = huh.NewOption(conflictLabel(c), i)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title(fmt.Sprintf("%d new entries", len(m.pending))).
				Description("Already recorded movements below are skipped unless selected."),
			huh.NewMultiSelect[int]().
				Title("Duplicates to import anyway").
				Options(options...).
				Height(12).
				Value(&m.in.accepted),
		),
	).WithWidth(100).WithShowHelp(false)
}

func conflictLabel(c ledger.Conflict) string {
	in := c.Incoming
	label := fmt.Sprintf("%s %-7s %10s  %s", FormatDate(in.Date), in.Kind, FormatAmount(in.Amount), in.Description)

	if c.Existing != nil && c.Existing.CategoryName != "" {
		label += faintStyle.Render(" (recorded under " + c.Existing.CategoryName + ")")
	}

	return label
}

func (m ImportModel) View() string {
	pad := lipgloss.NewStyle().Padding(1)

	switch m.step {
	case importLoading:
		return pad.Render("Loading categories...")
	case importSetup, importReview:
		return pad.Render(m.form.View())
	case importPickFile:
		return pad.Render(fmt.Sprintf("Statement file (%s):\n\n%s", m.in.bank, m.picker.View()))
	case importRunning:
		return pad.Render("Importing...")
	}

	if m.err != nil {
		return pad.Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	return pad.Render(successStyle.Render(m.outcome))
}

type importCategoriesMsg struct {
	options []huh.Option[uuid.UUID]
	err     error
}

type importParsedMsg struct {
	result *ledger.ImportResult
	err    error
}

type importRecordedMsg struct {
	count   int
	skipped int
	err     error
}

func (m ImportModel) loadCategoriesCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		cats, err := m.categories.List(ctx, m.user.ID)
		if err != nil {
			return importCategoriesMsg{err: err}
		}

		opts := make([]huh.Option[uuid.UUID], 0, len(cats)+1)
		opts = append(opts, huh.NewOption("None, rules only", uuid.Nil))

		for _, c := range cats {
			opts = append(opts, huh.NewOption(c.Name, c.ID))
		}

		return importCategoriesMsg{options: opts}
	}
}

func (m ImportModel) parseCmd(path string) tea.Cmd {
	bank, fallback := m.in.bank, m.in.fallback

	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return importParsedMsg{err: err}
		}
		defer f.Close()

		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		result, err := m.importer.Import(ctx, m.user.ID, bank, f, fallback)

		return importParsedMsg{result: result, err: err}
	}
}

func (m ImportModel) recordCmd() tea.Cmd {
	entries := append([]ledger.BatchEntry(nil), m.pending...)
	for _, i := range m.in.accepted {
		entries = append(entries, m.conflicts[i].Incoming)
	}

	skipped := len(m.conflicts) - len(m.in.accepted)

	return func() tea.Msg {
		if len(entries) == 0 {
			return importRecordedMsg{skipped: skipped}
		}

		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		recorded, err := m.ledger.RecordBatch(ctx, m.user.ID, entries)

		return importRecordedMsg{count: len(recorded), skipped: skipped, err: err}
	}
}
