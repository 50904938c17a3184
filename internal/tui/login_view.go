package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// loginView collects a bearer token and verifies it against the backend
// before letting the rest of the app talk to it.
type loginView struct {
	app      *App
	input    textinput.Model
	checking bool
}

type loginResultMsg struct {
	token string
	err   error
}

func newLoginView(app *App) *loginView {
	input := textinput.New()
	input.Placeholder = "paste token"
	input.EchoMode = textinput.EchoPassword
	input.CharLimit = 512
	input.Width = 48
	return &loginView{app: app, input: input}
}

func (v *loginView) focus() tea.Cmd {
	return v.input.Focus()
}

func (v *loginView) reset() {
	v.checking = false
	v.input.SetValue("")
	v.input.Focus()
}

func (v *loginView) Update(msg tea.Msg) tea.Cmd {
	switch m := msg.(type) {
	case loginResultMsg:
		v.checking = false
		if m.err != nil {
			v.app.handleAPIError(m.err)
			v.app.setStatus(fmt.Sprintf("Login failed: %v", m.err))
			return v.input.Focus()
		}
		v.app.bindToken(m.token)
		v.app.logInfo("Logged in against %s", v.app.config.BaseURL())
		return v.app.dashboardView.refresh()

	case tea.KeyMsg:
		if v.checking {
			return nil
		}
		if m.String() == "enter" {
			token := strings.TrimSpace(v.input.Value())
			if token == "" {
				v.app.setStatus("Token is required")
				return nil
			}
			v.checking = true
			v.app.setStatus("Verifying token…")
			return v.verify(token)
		}
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return cmd
}

// verify round-trips the candidate token through the stats endpoint. A 401
// comes back as loginResultMsg.err; anything else proves the token works.
func (v *loginView) verify(token string) tea.Cmd {
	probe := v.app.service.WithToken(token)
	return func() tea.Msg {
		if _, err := probe.Stats(context.Background()); err != nil {
			return loginResultMsg{err: err}
		}
		return loginResultMsg{token: token}
	}
}

func (v *loginView) View() string {
	title := lipgloss.NewStyle().Bold(true).Render("Connect to Workflow Builder")
	server := fmt.Sprintf("Server: %s", v.app.config.BaseURL())
	lines := []string{title, server, "", v.input.View()}
	if v.checking {
		lines = append(lines, "", "Verifying…")
	} else {
		lines = append(lines, "", "enter=connect  ctrl+c=quit")
	}
	return strings.Join(lines, "\n")
}
