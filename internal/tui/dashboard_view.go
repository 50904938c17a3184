package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kingrea/flowdeck/internal/api"
	"github.com/kingrea/flowdeck/internal/approvals"
)

// DashboardService is the slice of the backend the dashboard needs.
type DashboardService interface {
	Stats(ctx context.Context) (approvals.Stats, error)
	MyApprovals(ctx context.Context) ([]approvals.PendingApproval, error)
	ActOnInstance(ctx context.Context, id int, action, comment string) (api.Instance, error)
}

var (
	slaBreachStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	slaOKStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	headlineStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
)

type statsMsg struct {
	stats approvals.Stats
	err   error
}

type approvalsMsg struct {
	items []approvals.PendingApproval
	err   error
}

type actionDoneMsg struct {
	instance api.Instance
	action   string
	err      error
}

// dashboardView shows the aggregate stats header and the list of approvals
// waiting on the current user.
type dashboardView struct {
	app *App

	stats         approvals.Stats
	statsLoaded   bool
	statsLoading  bool
	items         []approvals.PendingApproval
	itemsLoaded   bool
	itemsLoading  bool
	selection     int
	pendingAction string
	comment       textinput.Model
	prompting     bool
	acting        bool
}

func newDashboardView(app *App) *dashboardView {
	comment := textinput.New()
	comment.Placeholder = "comment (optional)"
	comment.CharLimit = 500
	comment.Width = 56
	return &dashboardView{app: app, comment: comment}
}

func (v *dashboardView) capturingInput() bool { return v.prompting }

// refresh fires both dashboard fetches at once; bubbletea runs batched
// commands concurrently and delivers the two result messages separately,
// so each panel tracks its own loading state.
func (v *dashboardView) refresh() tea.Cmd {
	v.statsLoading = true
	v.itemsLoading = true
	svc := v.app.service
	fetchStats := func() tea.Msg {
		stats, err := svc.Stats(context.Background())
		return statsMsg{stats: stats, err: err}
	}
	fetchApprovals := func() tea.Msg {
		items, err := svc.MyApprovals(context.Background())
		return approvalsMsg{items: items, err: err}
	}
	return tea.Batch(fetchStats, fetchApprovals)
}

func (v *dashboardView) Update(msg tea.Msg) tea.Cmd {
	switch m := msg.(type) {
	case statsMsg:
		v.statsLoading = false
		if m.err != nil {
			v.app.handleAPIError(m.err)
			return nil
		}
		v.stats = m.stats
		v.statsLoaded = true
		return nil

	case approvalsMsg:
		v.itemsLoading = false
		if m.err != nil {
			v.app.handleAPIError(m.err)
			return nil
		}
		v.items = m.items
		v.itemsLoaded = true
		if v.selection >= len(v.items) {
			v.selection = max(0, len(v.items)-1)
		}
		return nil

	case actionDoneMsg:
		v.acting = false
		if m.err != nil {
			v.app.handleAPIError(m.err)
			return nil
		}
		v.app.setStatus(fmt.Sprintf("Instance #%d %sd", m.instance.ID, m.action))
		return v.refresh()

	case tea.KeyMsg:
		return v.handleKey(m)
	}

	if v.prompting {
		var cmd tea.Cmd
		v.comment, cmd = v.comment.Update(msg)
		return cmd
	}
	return nil
}

func (v *dashboardView) handleKey(msg tea.KeyMsg) tea.Cmd {
	if v.prompting {
		switch msg.String() {
		case "esc":
			v.prompting = false
			v.comment.Blur()
			v.app.setStatus("Action cancelled")
			return nil
		case "enter":
			return v.submitAction()
		}
		var cmd tea.Cmd
		v.comment, cmd = v.comment.Update(msg)
		return cmd
	}

	switch msg.String() {
	case "up", "k":
		if v.selection > 0 {
			v.selection--
		}
	case "down", "j":
		if v.selection < len(v.items)-1 {
			v.selection++
		}
	case "r":
		v.app.setStatus("Refreshing dashboard…")
		return v.refresh()
	case "a":
		return v.beginAction(api.ActionApprove)
	case "x":
		return v.beginAction(api.ActionReject)
	}
	return nil
}

func (v *dashboardView) beginAction(action string) tea.Cmd {
	if v.acting {
		v.app.setStatus("An action is already in flight")
		return nil
	}
	if len(v.items) == 0 {
		v.app.setStatus("Nothing is waiting on you")
		return nil
	}
	v.pendingAction = action
	v.prompting = true
	v.comment.SetValue("")
	v.app.setStatus(fmt.Sprintf("%s instance #%d · enter=confirm esc=cancel",
		titleVerb(action), v.items[v.selection].InstanceID))
	return v.comment.Focus()
}

func (v *dashboardView) submitAction() tea.Cmd {
	if v.selection >= len(v.items) {
		v.prompting = false
		return nil
	}
	item := v.items[v.selection]
	action := v.pendingAction
	comment := strings.TrimSpace(v.comment.Value())
	v.prompting = false
	v.acting = true
	v.comment.Blur()
	v.app.logInfo("%s instance #%d (%s)", titleVerb(action), item.InstanceID, item.WorkflowName)
	svc := v.app.service
	return func() tea.Msg {
		instance, err := svc.ActOnInstance(context.Background(), item.InstanceID, action, comment)
		return actionDoneMsg{instance: instance, action: action, err: err}
	}
}

func (v *dashboardView) View() string {
	var sections []string
	sections = append(sections, v.renderStats())
	sections = append(sections, "")
	sections = append(sections, v.renderApprovals())
	if v.prompting {
		label := fmt.Sprintf("%s with comment:", titleVerb(v.pendingAction))
		sections = append(sections, "", label, v.comment.View())
	} else {
		sections = append(sections, "", dimStyle.Render("a=approve  x=reject  r=refresh  j/k=move"))
	}
	return strings.Join(sections, "\n")
}

func (v *dashboardView) renderStats() string {
	if !v.statsLoaded {
		if v.statsLoading {
			return dimStyle.Render("Loading statistics…")
		}
		return dimStyle.Render("Statistics unavailable")
	}
	headline := fmt.Sprintf("Pending %d · SLA breaches %d · Completed this month %d",
		v.stats.PendingCount, v.stats.SLABreachCount, v.stats.CompletedThisMonth)
	lines := []string{headlineStyle.Render(headline)}
	if len(v.stats.ByResourceType) > 0 {
		types := make([]string, 0, len(v.stats.ByResourceType))
		for name := range v.stats.ByResourceType {
			types = append(types, name)
		}
		sort.Strings(types)
		parts := make([]string, 0, len(types))
		for _, name := range types {
			parts = append(parts, fmt.Sprintf("%s %d", name, v.stats.ByResourceType[name]))
		}
		lines = append(lines, dimStyle.Render("By type: "+strings.Join(parts, " · ")))
	}
	return strings.Join(lines, "\n")
}

func (v *dashboardView) renderApprovals() string {
	title := headlineStyle.Render(fmt.Sprintf("Waiting on you (%d)", len(v.items)))
	if !v.itemsLoaded {
		if v.itemsLoading {
			return lipgloss.JoinVertical(lipgloss.Left, title, dimStyle.Render("Loading…"))
		}
		return lipgloss.JoinVertical(lipgloss.Left, title, dimStyle.Render("Not loaded"))
	}
	if len(v.items) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title, dimStyle.Render("All clear. Nothing needs your approval."))
	}
	now := time.Now()
	rows := make([]string, 0, len(v.items))
	for i, item := range v.items {
		rows = append(rows, v.renderApprovalRow(item, i == v.selection, now))
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(rows, "\n"))
}

func (v *dashboardView) renderApprovalRow(item approvals.PendingApproval, selected bool, now time.Time) string {
	indicator := " "
	if selected {
		indicator = ">"
	}
	badge := ""
	if item.SLAHours > 0 {
		if item.Breached(now) {
			badge = " " + slaBreachStyle.Render("[SLA BREACHED]")
		} else {
			badge = " " + slaOKStyle.Render(fmt.Sprintf("[SLA %dh]", item.SLAHours))
		}
	}
	line1 := fmt.Sprintf("%s #%d %s · %s %d%s",
		indicator, item.InstanceID, item.WorkflowName, item.ResourceType, item.ResourceID, badge)
	line2 := fmt.Sprintf("   stage: %s · waiting %s",
		item.CurrentStage, humanizeDuration(now.Sub(item.UpdatedAt)))
	if selected {
		return lipgloss.NewStyle().Bold(true).Render(line1) + "\n" + dimStyle.Render(line2)
	}
	return line1 + "\n" + dimStyle.Render(line2)
}

// titleVerb upper-cases the first letter of an action verb for status and
// prompt lines. The verbs are plain ASCII, so no locale handling.
func titleVerb(action string) string {
	if action == "" {
		return ""
	}
	return strings.ToUpper(action[:1]) + action[1:]
}

func humanizeDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 48*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours())/24)
}
