package view

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/capital/internal/export"
)

const exportTimeout = 2 * time.Minute

type exportStep int

const (
	exportAsk exportStep = iota
	exportRunning
	exportDone
)

type exportInput struct {
	periodInput
	dir string
}

// ExportModel writes the journal archive for a chosen period to disk.
type ExportModel struct {
	CommonModel
	exports *export.Service
	user    User

	step    exportStep
	in      *exportInput
	form    *huh.Form
	spinner spinner.Model

	summary string
	written string
	err     error
}

func NewExportModel(svc *export.Service, user User) ExportModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := ExportModel{
		exports: svc,
		user:    user,
		in:      &exportInput{periodInput: periodInput{period: PeriodThisMonth}, dir: "./exports"},
		spinner: s,
	}
	m.form = m.newForm()

	return m
}

func (m ExportModel) newForm() *huh.Form {
	groups := periodGroups(&m.in.periodInput)
	groups = append(groups, huh.NewGroup(
		huh.NewInput().
			Title("Output directory").
			Description("Created if missing").
			Placeholder("./exports").
			Value(&m.in.dir),
	))

	return huh.NewForm(groups...).WithWidth(50).WithShowHelp(false)
}

func (m ExportModel) Title() string { return "Export Journal" }

func (m ExportModel) ShortHelp() string {
	switch m.step {
	case exportRunning:
		return "Exporting..."
	case exportDone:
		return "Esc: back to menu | n: new export"
	}

	return "Esc: back | Enter: confirm"
}

func (m ExportModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m ExportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEsc && m.step != exportRunning {
		return m, Back
	}

	switch m.step {
	case exportAsk:
		form, cmd := m.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.form = f
		}

		if m.form.State != huh.StateCompleted {
			return m, cmd
		}

		m.step = exportRunning

		return m, tea.Batch(m.spinner.Tick, m.exportCmd())

	case exportRunning:
		if res, ok := msg.(exportResultMsg); ok {
			m.step = exportDone
			m.summary, m.written, m.err = res.summary, res.path, res.err

			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case exportDone:
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "n" {
			m.step = exportAsk
			m.err = nil
			m.form = m.newForm()

			return m, m.form.Init()
		}
	}

	return m, nil
}

func (m ExportModel) View() string {
	pad := lipgloss.NewStyle().Padding(1)

	switch m.step {
	case exportAsk:
		return pad.Render(m.form.View())
	case exportRunning:
		return pad.Render(m.spinner.View() + " Exporting journal...")
	}

	if m.err != nil {
		return pad.Render(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	return pad.Render(lipgloss.JoinVertical(lipgloss.Left,
		successStyle.Bold(true).Render("Export complete"),
		"",
		faintStyle.Render(m.written),
		"",
		m.summary,
	))
}

type exportResultMsg struct {
	summary string
	path    string
	err     error
}

func (m ExportModel) exportCmd() tea.Cmd {
	in := *m.in

	return func() tea.Msg {
		filter, err := in.Filter(time.Now())
		if err != nil {
			return exportResultMsg{err: err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()

		exp, err := m.exports.Export(ctx, m.user.ID, filter)
		if err != nil {
			return exportResultMsg{err: err}
		}

		if err := os.MkdirAll(in.dir, 0o755); err != nil {
			return exportResultMsg{err: fmt.Errorf("creating %s: %w", in.dir, err)}
		}

		path := filepath.Join(in.dir, m.exports.Filename(filter))
		if err := writeArchive(path, exp); err != nil {
			return exportResultMsg{err: err}
		}

		return exportResultMsg{summary: exp.Summary(), path: path}
	}
}

func writeArchive(path string, exp *export.Export) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return exp.WriteZip(f, time.Now())
}
