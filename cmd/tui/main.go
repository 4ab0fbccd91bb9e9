package main

import (
	"context"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/capital/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/capital/internal/account"
	accountStore "github.com/MrJamesThe3rd/capital/internal/account/store"
	"github.com/MrJamesThe3rd/capital/internal/auth"
	"github.com/MrJamesThe3rd/capital/internal/category"
	categoryStore "github.com/MrJamesThe3rd/capital/internal/category/store"
	"github.com/MrJamesThe3rd/capital/internal/config"
	"github.com/MrJamesThe3rd/capital/internal/database"
	"github.com/MrJamesThe3rd/capital/internal/export"
	"github.com/MrJamesThe3rd/capital/internal/importer"
	"github.com/MrJamesThe3rd/capital/internal/ledger"
	ledgerStore "github.com/MrJamesThe3rd/capital/internal/ledger/store"
	"github.com/MrJamesThe3rd/capital/internal/matching"
	matchingStore "github.com/MrJamesThe3rd/capital/internal/matching/store"
)

type model struct {
	ledgerService   *ledger.Service
	categoryService *category.Service
	matchingService *matching.Service
	importService   *importer.Service
	exportService   *export.Service

	user        view.User
	currentView View

	loginView   view.LoginModel
	balanceView view.BalanceModel
	listView    view.ListModel
	recordView  view.RecordModel
	savingsView view.SavingsModel
	rulesView   view.RulesModel
	importView  view.ImportModel
	exportView  view.ExportModel
}

type View int

const (
	ViewLogin   View = 0
	ViewMenu    View = 1
	ViewBalance View = 2
	ViewList    View = 3
	ViewRecord  View = 4
	ViewSavings View = 5
	ViewRules   View = 6
	ViewImport  View = 7
	ViewExport  View = 8
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(context.Background(), cfg.ConnectionString(), cfg.Pool())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	ledgerSvc := ledger.NewService(ledgerStore.New(db))
	tokens := auth.NewTokenManager(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	accountSvc := account.NewService(accountStore.New(db), ledgerSvc, tokens)
	matchSvc := matching.NewService(matchingStore.New(db))

	return model{
		ledgerService:   ledgerSvc,
		categoryService: category.NewService(categoryStore.New(db)),
		matchingService: matchSvc,
		importService:   importer.NewService(matchSvc, ledgerSvc),
		exportService:   export.NewService(ledgerSvc),
		currentView:     ViewLogin,
		loginView:       view.NewLoginModel(accountSvc),
	}
}

func (m model) Init() tea.Cmd {
	return m.loginView.Init()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			return m.updateMenu(msg)
		}
	case view.LoggedInMsg:
		m.user = msg.User
		m.currentView = ViewMenu

		return m, nil
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewLogin:
		var newModel tea.Model
		newModel, cmd = m.loginView.Update(msg)
		m.loginView = newModel.(view.LoginModel)
	case ViewBalance:
		var newModel tea.Model
		newModel, cmd = m.balanceView.Update(msg)
		m.balanceView = newModel.(view.BalanceModel)
	case ViewList:
		var newModel tea.Model
		newModel, cmd = m.listView.Update(msg)
		m.listView = newModel.(view.ListModel)
	case ViewRecord:
		var newModel tea.Model
		newModel, cmd = m.recordView.Update(msg)
		m.recordView = newModel.(view.RecordModel)
	case ViewSavings:
		var newModel tea.Model
		newModel, cmd = m.savingsView.Update(msg)
		m.savingsView = newModel.(view.SavingsModel)
	case ViewRules:
		var newModel tea.Model
		newModel, cmd = m.rulesView.Update(msg)
		m.rulesView = newModel.(view.RulesModel)
	case ViewImport:
		var newModel tea.Model
		newModel, cmd = m.importView.Update(msg)
		m.importView = newModel.(view.ImportModel)
	case ViewExport:
		var newModel tea.Model
		newModel, cmd = m.exportView.Update(msg)
		m.exportView = newModel.(view.ExportModel)
	}

	return m, cmd
}

func (m model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "1":
		m.currentView = ViewBalance
		m.balanceView = view.NewBalanceModel(m.ledgerService, m.user)

		return m, m.balanceView.Init()
	case "2":
		m.currentView = ViewList
		m.listView = view.NewListModel(m.ledgerService, m.user)

		return m, m.listView.Init()
	case "3":
		m.currentView = ViewRecord
		m.recordView = view.NewRecordModel(m.ledgerService, m.categoryService, m.matchingService, m.user)

		return m, m.recordView.Init()
	case "4":
		m.currentView = ViewSavings
		m.savingsView = view.NewSavingsModel(m.ledgerService, m.user)

		return m, m.savingsView.Init()
	case "5":
		m.currentView = ViewRules
		m.rulesView = view.NewRulesModel(m.matchingService, m.categoryService, m.user)

		return m, m.rulesView.Init()
	case "6":
		m.currentView = ViewImport
		m.importView = view.NewImportModel(m.ledgerService, m.importService, m.categoryService, m.user)

		return m, m.importView.Init()
	case "7":
		m.currentView = ViewExport
		m.exportView = view.NewExportModel(m.exportService, m.user)

		return m, m.exportView.Init()
	}

	return m, nil
}

// screen returns the active view, or nil on the login and menu screens.
func (m model) screen() view.View {
	switch m.currentView {
	case ViewBalance:
		return m.balanceView
	case ViewList:
		return m.listView
	case ViewRecord:
		return m.recordView
	case ViewSavings:
		return m.savingsView
	case ViewRules:
		return m.rulesView
	case ViewImport:
		return m.importView
	case ViewExport:
		return m.exportView
	}

	return nil
}

func (m model) View() string {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"Capital, signed in as " + m.user.Username + "\n\n" +
				"1. Balance\n" +
				"2. Journal\n" +
				"3. Record Entry\n" +
				"4. Savings Plans\n" +
				"5. Category Rules\n" +
				"6. Import Statement\n" +
				"7. Export Journal\n\n" +
				"q. Quit",
		)
	}

	s := m.screen()
	if s == nil {
		return "Unknown View"
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")).PaddingLeft(1).Render(s.Title())
	help := lipgloss.NewStyle().Faint(true).PaddingLeft(1).Render(s.ShortHelp())

	return lipgloss.JoinVertical(lipgloss.Left, title, s.View(), help)
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
