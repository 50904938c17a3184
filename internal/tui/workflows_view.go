package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kingrea/flowdeck/internal/api"
	"github.com/kingrea/flowdeck/internal/designer"
)

// WorkflowService is the slice of the backend the workflow screens need.
// It covers both the list view's lifecycle actions and the editor's saves.
type WorkflowService interface {
	designer.Service
	ListWorkflows(ctx context.Context, status api.WorkflowStatus) ([]api.Workflow, error)
	GetWorkflow(ctx context.Context, id int) (api.Workflow, error)
	CloneWorkflow(ctx context.Context, id int, newName string) (api.Workflow, error)
	DeleteWorkflow(ctx context.Context, id int) error
	WorkflowVersions(ctx context.Context, id int) ([]api.WorkflowVersion, error)
}

type listPrompt int

const (
	promptNone listPrompt = iota
	promptCloneName
	promptPublishConfirm
	promptDeleteConfirm
)

type workflowsMsg struct {
	filter api.WorkflowStatus
	items  []api.Workflow
	err    error
}

type workflowOpenedMsg struct {
	workflow api.Workflow
	err      error
}

type workflowPublishedMsg struct {
	workflow api.Workflow
	err      error
}

type workflowClonedMsg struct {
	workflow api.Workflow
	err      error
}

type workflowDeletedMsg struct {
	id  int
	err error
}

type workflowVersionsMsg struct {
	id       int
	versions []api.WorkflowVersion
	err      error
}

// workflowItem implements list.Item for a server-side definition.
type workflowItem struct {
	workflow api.Workflow
}

func (i workflowItem) Title() string {
	return fmt.Sprintf("%s · v%d · %s", i.workflow.Name, i.workflow.Version, i.workflow.Status)
}

func (i workflowItem) Description() string {
	desc := strings.TrimSpace(i.workflow.Description)
	if desc == "" {
		desc = "no description"
	}
	return fmt.Sprintf("%s · model: %s", desc, i.workflow.ModelName)
}

func (i workflowItem) FilterValue() string { return i.workflow.Name }

// workflowsView lists server-side definitions and runs lifecycle actions
// against them: open in the designer, publish, clone, delete, history.
type workflowsView struct {
	app *App

	menu     list.Model
	filter   api.WorkflowStatus
	loaded   bool
	prompt   listPrompt
	input    textinput.Model
	busy     bool
	versions []api.WorkflowVersion
	verID    int
}

func newWorkflowsView(app *App) *workflowsView {
	menu := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	menu.Title = "Workflows"
	menu.SetShowStatusBar(false)
	menu.SetFilteringEnabled(false)
	input := textinput.New()
	input.Placeholder = "name for the copy"
	input.CharLimit = 120
	input.Width = 48
	view := &workflowsView{app: app, menu: menu, input: input}
	view.filter = api.WorkflowStatus(app.config.DefaultStatusFilter())
	return view
}

func (v *workflowsView) capturingInput() bool { return v.prompt != promptNone }

func (v *workflowsView) setSize(width, height int) {
	v.menu.SetSize(max(0, width-6), max(0, height-14))
}

func (v *workflowsView) selected() (api.Workflow, bool) {
	item, ok := v.menu.SelectedItem().(workflowItem)
	if !ok {
		return api.Workflow{}, false
	}
	return item.workflow, true
}

func (v *workflowsView) refresh() tea.Cmd {
	v.busy = true
	svc := v.app.service
	filter := v.filter
	return func() tea.Msg {
		items, err := svc.ListWorkflows(context.Background(), filter)
		return workflowsMsg{filter: filter, items: items, err: err}
	}
}

func (v *workflowsView) Update(msg tea.Msg) tea.Cmd {
	switch m := msg.(type) {
	case workflowsMsg:
		v.busy = false
		if m.err != nil {
			v.app.handleAPIError(m.err)
			return nil
		}
		if m.filter != v.filter {
			return nil // stale response from a previous filter
		}
		v.loaded = true
		items := make([]list.Item, len(m.items))
		for i := range m.items {
			items[i] = workflowItem{workflow: m.items[i]}
		}
		v.menu.SetItems(items)
		label := string(v.filter)
		if label == "" {
			label = "all"
		}
		v.app.setStatus(fmt.Sprintf("%d workflow(s) · filter: %s", len(m.items), label))
		return nil

	case workflowOpenedMsg:
		v.busy = false
		if m.err != nil {
			v.app.handleAPIError(m.err)
			return nil
		}
		v.app.designerView.loadWorkflow(m.workflow)
		v.app.openDesigner()
		v.app.setStatus(fmt.Sprintf("Editing %s (v%d)", m.workflow.Name, m.workflow.Version))
		return nil

	case workflowPublishedMsg:
		v.busy = false
		if m.err != nil {
			v.app.handleAPIError(m.err)
			return nil
		}
		v.app.logInfo("Published %s (v%d)", m.workflow.Name, m.workflow.Version)
		v.app.setStatus(fmt.Sprintf("%s is now %s", m.workflow.Name, m.workflow.Status))
		return v.refresh()

	case workflowClonedMsg:
		v.busy = false
		if m.err != nil {
			v.app.handleAPIError(m.err)
			return nil
		}
		v.app.logInfo("Cloned into %s (#%d)", m.workflow.Name, m.workflow.ID)
		v.app.setStatus(fmt.Sprintf("Created draft copy %s", m.workflow.Name))
		return v.refresh()

	case workflowDeletedMsg:
		v.busy = false
		if m.err != nil {
			v.app.handleAPIError(m.err)
			return nil
		}
		v.app.logInfo("Deleted workflow #%d", m.id)
		v.app.setStatus("Workflow deleted")
		return v.refresh()

	case workflowVersionsMsg:
		v.busy = false
		if m.err != nil {
			v.app.handleAPIError(m.err)
			return nil
		}
		v.versions = m.versions
		v.verID = m.id
		v.app.setStatus(fmt.Sprintf("%d version(s)", len(m.versions)))
		return nil

	case tea.KeyMsg:
		return v.handleKey(m)
	}

	var cmd tea.Cmd
	v.menu, cmd = v.menu.Update(msg)
	return cmd
}

func (v *workflowsView) handleKey(msg tea.KeyMsg) tea.Cmd {
	if v.prompt != promptNone {
		return v.handlePromptKey(msg)
	}

	switch msg.String() {
	case "r":
		v.app.setStatus("Refreshing workflows…")
		return v.refresh()
	case "f":
		return v.cycleFilter()
	case "n":
		v.app.designerView.newDraft()
		v.app.openDesigner()
		v.app.setStatus("New empty draft")
		return nil
	case "enter", "e":
		return v.openSelected()
	case "p":
		if wf, ok := v.selected(); ok {
			if wf.Status == api.StatusActive {
				v.app.setStatus(fmt.Sprintf("%s is already active", wf.Name))
				return nil
			}
			v.prompt = promptPublishConfirm
			v.app.setStatus(fmt.Sprintf("Publish %s? y=yes n=cancel", wf.Name))
		}
		return nil
	case "c":
		if wf, ok := v.selected(); ok {
			v.prompt = promptCloneName
			v.input.SetValue(fmt.Sprintf("%s (copy)", wf.Name))
			v.app.setStatus("Name the copy · enter=clone esc=cancel")
			return v.input.Focus()
		}
		return nil
	case "d":
		if wf, ok := v.selected(); ok {
			v.prompt = promptDeleteConfirm
			v.app.setStatus(fmt.Sprintf("Delete %s? y=yes n=cancel", wf.Name))
		}
		return nil
	case "v":
		return v.fetchVersions()
	case "esc":
		if v.versions != nil {
			v.versions = nil
			v.verID = 0
			return nil
		}
	}

	var cmd tea.Cmd
	v.menu, cmd = v.menu.Update(msg)
	return cmd
}

func (v *workflowsView) handlePromptKey(msg tea.KeyMsg) tea.Cmd {
	switch v.prompt {
	case promptCloneName:
		switch msg.String() {
		case "esc":
			v.prompt = promptNone
			v.input.Blur()
			v.app.setStatus("Clone cancelled")
			return nil
		case "enter":
			name := strings.TrimSpace(v.input.Value())
			if name == "" {
				v.app.setStatus("A name is required")
				return nil
			}
			v.prompt = promptNone
			v.input.Blur()
			return v.cloneSelected(name)
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return cmd

	case promptPublishConfirm:
		switch msg.String() {
		case "y":
			v.prompt = promptNone
			return v.publishSelected()
		case "n", "esc":
			v.prompt = promptNone
			v.app.setStatus("Publish cancelled")
		}
		return nil

	case promptDeleteConfirm:
		switch msg.String() {
		case "y":
			v.prompt = promptNone
			return v.deleteSelected()
		case "n", "esc":
			v.prompt = promptNone
			v.app.setStatus("Delete cancelled")
		}
		return nil
	}
	return nil
}

func (v *workflowsView) cycleFilter() tea.Cmd {
	filters := api.StatusFilters()
	next := 0
	for i, f := range filters {
		if f == v.filter {
			next = (i + 1) % len(filters)
			break
		}
	}
	v.filter = filters[next]
	return v.refresh()
}

func (v *workflowsView) openSelected() tea.Cmd {
	wf, ok := v.selected()
	if !ok {
		return nil
	}
	v.busy = true
	v.app.setStatus(fmt.Sprintf("Opening %s…", wf.Name))
	svc := v.app.service
	return func() tea.Msg {
		full, err := svc.GetWorkflow(context.Background(), wf.ID)
		return workflowOpenedMsg{workflow: full, err: err}
	}
}

func (v *workflowsView) publishSelected() tea.Cmd {
	wf, ok := v.selected()
	if !ok {
		return nil
	}
	v.busy = true
	svc := v.app.service
	return func() tea.Msg {
		published, err := svc.PublishWorkflow(context.Background(), wf.ID)
		return workflowPublishedMsg{workflow: published, err: err}
	}
}

func (v *workflowsView) cloneSelected(name string) tea.Cmd {
	wf, ok := v.selected()
	if !ok {
		return nil
	}
	v.busy = true
	svc := v.app.service
	return func() tea.Msg {
		cloned, err := svc.CloneWorkflow(context.Background(), wf.ID, name)
		return workflowClonedMsg{workflow: cloned, err: err}
	}
}

func (v *workflowsView) deleteSelected() tea.Cmd {
	wf, ok := v.selected()
	if !ok {
		return nil
	}
	v.busy = true
	svc := v.app.service
	return func() tea.Msg {
		err := svc.DeleteWorkflow(context.Background(), wf.ID)
		return workflowDeletedMsg{id: wf.ID, err: err}
	}
}

func (v *workflowsView) fetchVersions() tea.Cmd {
	wf, ok := v.selected()
	if !ok {
		return nil
	}
	v.busy = true
	svc := v.app.service
	return func() tea.Msg {
		versions, err := svc.WorkflowVersions(context.Background(), wf.ID)
		return workflowVersionsMsg{id: wf.ID, versions: versions, err: err}
	}
}

func (v *workflowsView) View() string {
	if !v.loaded && !v.busy {
		return dimStyle.Render("Press r to load workflows")
	}
	sections := []string{v.menu.View()}
	if v.prompt == promptCloneName {
		sections = append(sections, "", "Clone as:", v.input.View())
	}
	if v.versions != nil {
		sections = append(sections, "", v.renderVersions())
	}
	sections = append(sections, "", dimStyle.Render(
		"enter=edit  n=new  f=filter  p=publish  c=clone  d=delete  v=history  r=refresh"))
	return strings.Join(sections, "\n")
}

func (v *workflowsView) renderVersions() string {
	title := headlineStyle.Render(fmt.Sprintf("History · workflow #%d", v.verID))
	if len(v.versions) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title, dimStyle.Render("No recorded versions"))
	}
	rows := make([]string, 0, len(v.versions))
	for _, ver := range v.versions {
		change := strings.TrimSpace(ver.ChangeDescription)
		if change == "" {
			change = "no change description"
		}
		rows = append(rows, fmt.Sprintf("v%d · %s · %s",
			ver.VersionNumber, ver.CreatedAt.Format("2006-01-02 15:04"), change))
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(rows, "\n"), dimStyle.Render("esc=close"))
}
