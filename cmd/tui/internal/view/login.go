package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/capital/internal/account"
)

// LoggedInMsg carries the user a successful login resolved to.
type LoggedInMsg struct {
	User User
}

type LoginModel struct {
	CommonModel
	accountService *account.Service

	form *huh.Form
	in   *loginInput
	busy bool
	err  error
}

type loginInput struct {
	login    string
	password string
}

func NewLoginModel(svc *account.Service) LoginModel {
	m := LoginModel{accountService: svc, in: &loginInput{}}
	m.form = m.buildForm()

	return m
}

func (m *LoginModel) buildForm() *huh.Form {
	notBlank := func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("required")
		}

		return nil
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("login").
				Title("Username or email").
				Value(&m.in.login).
				Validate(notBlank),
			huh.NewInput().
				Key("password").
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.in.password).
				Validate(notBlank),
		),
	).WithWidth(45).WithShowHelp(false)
}

func (m LoginModel) Init() tea.Cmd {
	return m.form.Init()
}

type loginResultMsg struct {
	user User
	err  error
}

func (m LoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if res, ok := msg.(loginResultMsg); ok {
		m.busy = false
		if res.err != nil {
			m.err = res.err
			m.in.password = ""
			m.form = m.buildForm()

			return m, m.form.Init()
		}

		user := res.user

		return m, func() tea.Msg { return LoggedInMsg{User: user} }
	}

	if m.busy {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.busy = true
	m.err = nil

	return m, m.loginCmd(m.in.login, m.in.password)
}

func (m LoginModel) loginCmd(login, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		sess, err := m.accountService.Login(ctx, login, password)
		if err != nil {
			return loginResultMsg{err: err}
		}

		return loginResultMsg{user: User{ID: sess.User.ID, Username: sess.User.Username}}
	}
}

func (m LoginModel) View() string {
	title := lipgloss.NewStyle().Bold(true).Render("Capital")

	body := m.form.View()
	if m.busy {
		body = "Signing in..."
	}

	if m.err != nil {
		body += "\n\n" + errorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	}

	return lipgloss.NewStyle().Padding(2).Render(title + "\n\n" + body)
}
