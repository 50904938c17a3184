// internal/tui/app.go
//
// This is the main TUI (Terminal User Interface) for flowdeck.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen

package tui

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kingrea/flowdeck/internal/api"
	"github.com/kingrea/flowdeck/internal/config"
	"github.com/kingrea/flowdeck/internal/logbook"
)

// appState represents which "screen" we're on
type appState int

const (
	stateLogin     appState = iota // Token entry before anything can talk to the backend
	stateDashboard                 // Pending approvals and workflow statistics
	stateWorkflows                 // Workflow list with lifecycle actions
	stateDesigner                  // Graph editor for one workflow draft
)

// Service is the backend surface the TUI talks to. *api.Client satisfies it;
// tests substitute a fake.
type Service interface {
	WithToken(token string) Service
	WorkflowService
	DashboardService
}

// clientService adapts *api.Client to Service, so WithToken can return the
// interface instead of the concrete type.
type clientService struct {
	*api.Client
}

func (c clientService) WithToken(token string) Service {
	return clientService{c.Client.WithToken(token)}
}

// AppOption customizes App construction for tests.
type AppOption func(*App)

// WithService overrides the backend client used by the TUI.
func WithService(svc Service) AppOption {
	return func(a *App) {
		if svc != nil {
			a.service = svc
		}
	}
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	state   appState
	config  *config.Config
	service Service
	logbook *logbook.Logbook

	loginView     *loginView
	dashboardView *dashboardView
	workflowsView *workflowsView
	designerView  *designerView

	statusMsg     string
	lastLogStatus string

	// Window size (we get this from bubbletea)
	width  int
	height int
}

// NewApp creates a new App instance rooted at the given project directory.
func NewApp(projectDir string, opts ...AppOption) (*App, error) {
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		return nil, err
	}
	lb, err := logbook.Open(cfg.LogsDir())
	if err != nil {
		return nil, err
	}

	app := &App{
		config:  cfg,
		service: clientService{api.New(cfg.BaseURL(), cfg.Token())},
		logbook: lb,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}

	app.loginView = newLoginView(app)
	app.dashboardView = newDashboardView(app)
	app.workflowsView = newWorkflowsView(app)
	app.designerView = newDesignerView(app)

	if cfg.Token() == "" {
		app.state = stateLogin
		app.statusMsg = "Paste an API token to connect"
	} else {
		app.state = stateDashboard
		app.logInfo("Session opened against %s", cfg.BaseURL())
	}
	return app, nil
}

func (a *App) logInfo(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Info(format, args...)
}

func (a *App) logWarn(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Warn(format, args...)
}

func (a *App) logError(format string, args ...any) {
	if a.logbook == nil {
		return
	}
	a.logbook.Error(format, args...)
}

func (a *App) logProgress(status string) {
	status = strings.TrimSpace(status)
	if status == "" || status == a.lastLogStatus {
		return
	}
	a.lastLogStatus = status
	a.logInfo(status)
}

func (a *App) setStatus(message string) {
	message = strings.TrimSpace(message)
	if message == "" {
		return
	}
	a.statusMsg = message
	a.logProgress(message)
}

// handleAPIError routes backend failures. An expired or rejected token drops
// the whole app back to the login screen; anything else lands in the status
// bar for the current view.
func (a *App) handleAPIError(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, api.ErrUnauthorized) {
		_ = a.config.ClearToken()
		a.service = a.service.WithToken("")
		a.state = stateLogin
		a.loginView.reset()
		a.setStatus("Session expired · log in again")
		a.logWarn("Backend rejected the token")
		return
	}
	a.setStatus(fmt.Sprintf("Error: %v", err))
	a.logError("%v", err)
}

// bindToken installs a verified token on the running app and persists it.
func (a *App) bindToken(token string) {
	a.service = a.service.WithToken(token)
	if err := a.config.SetToken(token); err != nil {
		a.logWarn("Token not persisted: %v", err)
	}
	a.state = stateDashboard
	a.setStatus("Connected")
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	if a.state == stateDashboard {
		return a.dashboardView.refresh()
	}
	return a.loginView.focus()
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.workflowsView.setSize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "ctrl+c":
			return a, tea.Quit
		case "q":
			if a.state == stateDashboard && !a.dashboardView.capturingInput() {
				a.logInfo("Session closed")
				return a, tea.Quit
			}
		}
		if a.state != stateLogin && !a.capturingInput() {
			switch key {
			case "1":
				if a.state != stateDashboard {
					a.state = stateDashboard
					return a, a.dashboardView.refresh()
				}
			case "2":
				if a.state != stateWorkflows {
					a.state = stateWorkflows
					return a, a.workflowsView.refresh()
				}
			case "3":
				if a.state != stateDesigner {
					a.state = stateDesigner
					return a, nil
				}
			}
		}
	}

	var cmd tea.Cmd
	switch a.state {
	case stateLogin:
		cmd = a.loginView.Update(msg)
	case stateDashboard:
		cmd = a.dashboardView.Update(msg)
	case stateWorkflows:
		cmd = a.workflowsView.Update(msg)
	case stateDesigner:
		cmd = a.designerView.Update(msg)
	}
	return a, cmd
}

// capturingInput reports whether the active view is in a text prompt, so
// global hotkeys must not steal keystrokes.
func (a *App) capturingInput() bool {
	switch a.state {
	case stateDashboard:
		return a.dashboardView.capturingInput()
	case stateWorkflows:
		return a.workflowsView.capturingInput()
	case stateDesigner:
		return a.designerView.capturingInput()
	}
	return false
}

// openDesigner switches to the designer screen, leaving whatever draft the
// calling view just loaded into the editor on display.
func (a *App) openDesigner() {
	a.state = stateDesigner
	a.designerView.refreshBoard()
}

// View renders the current state to a string.
func (a *App) View() string {
	var content string
	switch a.state {
	case stateLogin:
		content = a.loginView.View()
	case stateDashboard:
		content = a.dashboardView.View()
	case stateWorkflows:
		content = a.workflowsView.View()
	case stateDesigner:
		content = a.designerView.View()
	}
	return a.renderFrame(content)
}

func (a *App) renderFrame(mainContent string) string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF6B6B")).
		MarginBottom(1).
		Render("⬡ FLOWDECK")
	tabs := a.renderTabs()
	body := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Width(max(40, width-2)).
		Render(mainContent)
	sections := []string{header}
	if tabs != "" {
		sections = append(sections, tabs)
	}
	sections = append(sections, body)
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		MarginTop(1).
		Render(a.statusMsg)
	sections = append(sections, footer)
	return strings.Join(sections, "\n")
}

func (a *App) renderTabs() string {
	if a.state == stateLogin {
		return ""
	}
	labels := []struct {
		state appState
		text  string
	}{
		{stateDashboard, "1 Dashboard"},
		{stateWorkflows, "2 Workflows"},
		{stateDesigner, "3 Designer"},
	}
	active := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	inactive := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	parts := make([]string, 0, len(labels))
	for _, label := range labels {
		if label.state == a.state {
			parts = append(parts, active.Render(label.text))
		} else {
			parts = append(parts, inactive.Render(label.text))
		}
	}
	return strings.Join(parts, "   ")
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines, total := a.logbook.Tail(6)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	label := fmt.Sprintf("LOG · %s", fileName)
	if earlier := total - len(lines); earlier > 0 {
		label += fmt.Sprintf(" · %d earlier", earlier)
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(label)
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(fmt.Sprintf("%s\n%s", head, body))
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
