package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kingrea/flowdeck/internal/api"
	"github.com/kingrea/flowdeck/internal/designer"
	"github.com/kingrea/flowdeck/internal/graph"
)

type designerMode int

const (
	modeBoard designerMode = iota
	modeKindPicker
	modeTemplatePicker
	modeConnectTarget
	modeConnectHandle
	modeNodeForm
	modeMetaForm
	modeImportPath
	modePublishConfirm
)

var (
	kindGlyphs = map[graph.Kind]string{
		graph.KindStart:     "▶",
		graph.KindApproval:  "◆",
		graph.KindCondition: "?",
		graph.KindEnd:       "■",
	}
	selectedNodeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	errorTextStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
)

type draftSavedMsg struct {
	workflow api.Workflow
	created  bool
	err      error
}

type draftPublishedMsg struct {
	workflow api.Workflow
	err      error
}

// editorService forwards the editor's backend calls through the app, so a
// re-login mid-session rebinds the draft to the fresh token automatically.
type editorService struct {
	app *App
}

func (s editorService) CreateWorkflowGraph(ctx context.Context, payload api.GraphPayload) (api.Workflow, error) {
	return s.app.service.CreateWorkflowGraph(ctx, payload)
}

func (s editorService) UpdateWorkflowGraph(ctx context.Context, id int, payload api.GraphPayload) (api.Workflow, error) {
	return s.app.service.UpdateWorkflowGraph(ctx, id, payload)
}

func (s editorService) PublishWorkflow(ctx context.Context, id int) (api.Workflow, error) {
	return s.app.service.PublishWorkflow(ctx, id)
}

// designerView is the graph editor screen: a node board over one
// designer.Editor draft plus the modal flows that mutate it.
type designerView struct {
	app    *App
	editor *designer.Editor
	mode   designerMode

	selection     int
	kindIdx       int
	templateIdx   int
	connectIdx    int
	connectSource string

	form       *nodeForm
	meta       *metaForm
	importPath textinput.Model
}

func newDesignerView(app *App) *designerView {
	importPath := textinput.New()
	importPath.Placeholder = "path to exported .json"
	importPath.CharLimit = 512
	importPath.Width = 56
	v := &designerView{app: app, importPath: importPath}
	v.newDraft()
	return v
}

func (v *designerView) capturingInput() bool {
	switch v.mode {
	case modeNodeForm, modeMetaForm, modeImportPath:
		return true
	}
	return false
}

// newDraft replaces whatever is on the board with an empty unbound draft.
func (v *designerView) newDraft() {
	v.editor = designer.New(editorService{app: v.app})
	if model := v.app.config.DefaultModelName(); model != "" {
		v.editor.ModelName = model
	}
	v.mode = modeBoard
	v.selection = 0
}

// loadWorkflow replaces the draft with a server record for editing.
func (v *designerView) loadWorkflow(w api.Workflow) {
	v.editor = designer.New(editorService{app: v.app})
	v.editor.LoadWorkflow(w)
	v.mode = modeBoard
	v.selection = 0
}

// refreshBoard clamps the selection after the draft changed underneath us.
func (v *designerView) refreshBoard() {
	if v.selection >= len(v.editor.Nodes()) {
		v.selection = max(0, len(v.editor.Nodes())-1)
	}
}

func (v *designerView) selectedNode() (*graph.Node, bool) {
	nodes := v.editor.Nodes()
	if len(nodes) == 0 || v.selection >= len(nodes) {
		return nil, false
	}
	return v.editor.NodeByID(nodes[v.selection].ID)
}

func (v *designerView) Update(msg tea.Msg) tea.Cmd {
	switch m := msg.(type) {
	case draftSavedMsg:
		if m.err != nil {
			v.app.handleAPIError(m.err)
			return nil
		}
		verb := "Updated"
		if m.created {
			verb = "Created"
		}
		v.app.logInfo("%s workflow #%d (v%d)", verb, m.workflow.ID, m.workflow.Version)
		v.app.setStatus(fmt.Sprintf("Saved · #%d v%d", m.workflow.ID, m.workflow.Version))
		return nil

	case draftPublishedMsg:
		if m.err != nil {
			v.app.handleAPIError(m.err)
			return nil
		}
		v.app.logInfo("Published workflow #%d", m.workflow.ID)
		v.app.setStatus(fmt.Sprintf("%s is now %s", m.workflow.Name, m.workflow.Status))
		return nil

	case tea.KeyMsg:
		return v.handleKey(m)
	}

	switch v.mode {
	case modeNodeForm:
		if v.form != nil {
			return v.form.Update(msg)
		}
	case modeMetaForm:
		if v.meta != nil {
			return v.meta.Update(msg)
		}
	case modeImportPath:
		var cmd tea.Cmd
		v.importPath, cmd = v.importPath.Update(msg)
		return cmd
	}
	return nil
}

func (v *designerView) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch v.mode {
	case modeBoard:
		return v.handleBoardKey(msg)
	case modeKindPicker:
		return v.handleKindPickerKey(msg)
	case modeTemplatePicker:
		return v.handleTemplatePickerKey(msg)
	case modeConnectTarget:
		return v.handleConnectTargetKey(msg)
	case modeConnectHandle:
		return v.handleConnectHandleKey(msg)
	case modeNodeForm:
		return v.handleNodeFormKey(msg)
	case modeMetaForm:
		return v.handleMetaFormKey(msg)
	case modeImportPath:
		return v.handleImportPathKey(msg)
	case modePublishConfirm:
		return v.handlePublishConfirmKey(msg)
	}
	return nil
}

func (v *designerView) handleBoardKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		if v.selection > 0 {
			v.selection--
		}
	case "down", "j":
		if v.selection < len(v.editor.Nodes())-1 {
			v.selection++
		}
	case "a":
		v.mode = modeKindPicker
		v.kindIdx = 0
		v.app.setStatus("Pick a stage type · enter=add esc=cancel")
	case "t":
		v.mode = modeTemplatePicker
		v.templateIdx = 0
		v.app.setStatus("Pick a starter template · enter=load esc=cancel")
	case "enter", "e":
		if node, ok := v.selectedNode(); ok {
			v.form = newNodeForm(*node)
			v.mode = modeNodeForm
			v.app.setStatus("Edit stage · tab=next field enter=apply esc=cancel")
			return v.form.focusFirst()
		}
	case "c":
		if node, ok := v.selectedNode(); ok {
			if len(v.editor.Nodes()) < 2 {
				v.app.setStatus("Add another stage to connect to")
				return nil
			}
			v.connectSource = node.ID
			v.connectIdx = 0
			v.mode = modeConnectTarget
			v.app.setStatus(fmt.Sprintf("Connect %s to… · enter=pick esc=cancel", node.Label()))
		}
	case "x":
		if node, ok := v.selectedNode(); ok {
			removed, err := v.editor.DeleteNode(node.ID)
			if err != nil {
				v.app.setStatus(fmt.Sprintf("Delete failed: %v", err))
				return nil
			}
			v.refreshBoard()
			v.app.setStatus(fmt.Sprintf("Removed %s and %d edge(s)", node.Label(), removed))
		}
	case "m":
		v.meta = newMetaForm(v.editor)
		v.mode = modeMetaForm
		v.app.setStatus("Workflow details · tab=next field enter=apply esc=cancel")
		return v.meta.focusFirst()
	case "v":
		if err := v.editor.Validate(); err != nil {
			v.app.setStatus(fmt.Sprintf("Invalid: %v", err))
		} else {
			v.app.setStatus("Draft is structurally valid")
		}
	case "s":
		return v.save()
	case "p":
		if v.editor.BoundID() == 0 {
			v.app.setStatus("Save the draft before publishing")
			return nil
		}
		v.mode = modePublishConfirm
		v.app.setStatus(fmt.Sprintf("Publish %s? y=yes n=cancel", v.editor.Name))
	case "o":
		v.exportDraft()
	case "i":
		v.mode = modeImportPath
		v.importPath.SetValue("")
		v.app.setStatus("Import · enter=load esc=cancel")
		return v.importPath.Focus()
	}
	return nil
}

func (v *designerView) handleKindPickerKey(msg tea.KeyMsg) tea.Cmd {
	kinds := graph.Kinds()
	switch msg.String() {
	case "esc":
		v.mode = modeBoard
	case "up", "k":
		if v.kindIdx > 0 {
			v.kindIdx--
		}
	case "down", "j":
		if v.kindIdx < len(kinds)-1 {
			v.kindIdx++
		}
	case "enter":
		node, err := v.editor.AddNode(kinds[v.kindIdx])
		v.mode = modeBoard
		if err != nil {
			v.app.setStatus(fmt.Sprintf("Add failed: %v", err))
			return nil
		}
		v.selection = len(v.editor.Nodes()) - 1
		v.app.setStatus(fmt.Sprintf("Added %s stage %s", node.Kind, node.ID))
	}
	return nil
}

func (v *designerView) handleTemplatePickerKey(msg tea.KeyMsg) tea.Cmd {
	templates := graph.Templates()
	switch msg.String() {
	case "esc":
		v.mode = modeBoard
	case "up", "k":
		if v.templateIdx > 0 {
			v.templateIdx--
		}
	case "down", "j":
		if v.templateIdx < len(templates)-1 {
			v.templateIdx++
		}
	case "enter":
		tmpl := templates[v.templateIdx]
		v.editor.LoadTemplate(tmpl)
		v.mode = modeBoard
		v.selection = 0
		v.app.logInfo("Loaded template %s", tmpl.ID)
		v.app.setStatus(fmt.Sprintf("Loaded template: %s", tmpl.Name))
	}
	return nil
}

func (v *designerView) handleConnectTargetKey(msg tea.KeyMsg) tea.Cmd {
	nodes := v.editor.Nodes()
	switch msg.String() {
	case "esc":
		v.mode = modeBoard
		v.app.setStatus("Connect cancelled")
	case "up", "k":
		if v.connectIdx > 0 {
			v.connectIdx--
		}
	case "down", "j":
		if v.connectIdx < len(nodes)-1 {
			v.connectIdx++
		}
	case "enter":
		if v.connectIdx >= len(nodes) {
			return nil
		}
		target := nodes[v.connectIdx]
		source, ok := v.editor.NodeByID(v.connectSource)
		if !ok {
			v.mode = modeBoard
			return nil
		}
		if source.Kind == graph.KindCondition {
			v.connectIdx = indexOfNode(nodes, target.ID)
			v.mode = modeConnectHandle
			v.app.setStatus("Which branch? t=true f=false esc=cancel")
			return nil
		}
		v.finishConnect(target.ID, "")
	}
	return nil
}

func (v *designerView) handleConnectHandleKey(msg tea.KeyMsg) tea.Cmd {
	nodes := v.editor.Nodes()
	if v.connectIdx >= len(nodes) {
		v.mode = modeBoard
		return nil
	}
	targetID := nodes[v.connectIdx].ID
	switch msg.String() {
	case "esc":
		v.mode = modeBoard
		v.app.setStatus("Connect cancelled")
	case "t":
		v.finishConnect(targetID, graph.HandleTrue)
	case "f":
		v.finishConnect(targetID, graph.HandleFalse)
	}
	return nil
}

func (v *designerView) finishConnect(targetID, handle string) {
	v.mode = modeBoard
	edge, err := v.editor.Connect(v.connectSource, targetID, handle)
	if err != nil {
		v.app.setStatus(fmt.Sprintf("Connect failed: %v", err))
		return
	}
	label := edge.Source + " → " + edge.Target
	if handle != "" {
		label += " (" + handle + ")"
	}
	v.app.setStatus("Connected " + label)
}

func (v *designerView) handleNodeFormKey(msg tea.KeyMsg) tea.Cmd {
	if v.form == nil {
		v.mode = modeBoard
		return nil
	}
	switch msg.String() {
	case "esc":
		v.form = nil
		v.mode = modeBoard
		v.app.setStatus("Edit cancelled")
		return nil
	case "enter":
		data, err := v.form.apply()
		if err != nil {
			v.app.setStatus(fmt.Sprintf("Invalid value: %v", err))
			return nil
		}
		if err := v.editor.UpdateNodeData(v.form.nodeID, data); err != nil {
			v.app.setStatus(fmt.Sprintf("Update failed: %v", err))
			return nil
		}
		v.form = nil
		v.mode = modeBoard
		v.app.setStatus("Stage updated")
		return nil
	}
	return v.form.Update(msg)
}

func (v *designerView) handleMetaFormKey(msg tea.KeyMsg) tea.Cmd {
	if v.meta == nil {
		v.mode = modeBoard
		return nil
	}
	switch msg.String() {
	case "esc":
		v.meta = nil
		v.mode = modeBoard
		v.app.setStatus("Edit cancelled")
		return nil
	case "enter":
		v.meta.apply(v.editor)
		v.meta = nil
		v.mode = modeBoard
		v.app.setStatus("Workflow details updated")
		return nil
	}
	return v.meta.Update(msg)
}

func (v *designerView) handleImportPathKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		v.mode = modeBoard
		v.importPath.Blur()
		v.app.setStatus("Import cancelled")
		return nil
	case "enter":
		path := strings.TrimSpace(v.importPath.Value())
		if path == "" {
			v.app.setStatus("A file path is required")
			return nil
		}
		v.mode = modeBoard
		v.importPath.Blur()
		v.importDraft(path)
		return nil
	}
	var cmd tea.Cmd
	v.importPath, cmd = v.importPath.Update(msg)
	return cmd
}

func (v *designerView) handlePublishConfirmKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y":
		v.mode = modeBoard
		return v.publish()
	case "n", "esc":
		v.mode = modeBoard
		v.app.setStatus("Publish cancelled")
	}
	return nil
}

// save snapshots the draft on the event loop so keystrokes landing while
// the request is in flight cannot alter what gets sent.
func (v *designerView) save() tea.Cmd {
	created := v.editor.BoundID() == 0
	op, err := v.editor.BeginSave()
	if err != nil {
		v.app.setStatus(fmt.Sprintf("Cannot save: %v", err))
		return nil
	}
	v.app.setStatus("Saving…")
	return func() tea.Msg {
		saved, err := op(context.Background())
		return draftSavedMsg{workflow: saved, created: created, err: err}
	}
}

func (v *designerView) publish() tea.Cmd {
	op, err := v.editor.BeginPublish()
	if err != nil {
		v.app.setStatus(fmt.Sprintf("Cannot publish: %v", err))
		return nil
	}
	v.app.setStatus("Publishing…")
	return func() tea.Msg {
		published, err := op(context.Background())
		return draftPublishedMsg{workflow: published, err: err}
	}
}

// exportDraft writes the draft to .flowdeck/exports as a timestamped
// workflow document.
func (v *designerView) exportDraft() {
	content, err := v.editor.Export(time.Now())
	if err != nil {
		v.app.setStatus(fmt.Sprintf("Export failed: %v", err))
		return
	}
	name := slugify(v.editor.Name)
	if name == "" {
		name = "workflow"
	}
	path := filepath.Join(v.app.config.ExportsDir(),
		fmt.Sprintf("%s-%s.json", name, time.Now().Format("20060102-150405")))
	if err := os.WriteFile(path, content, 0o644); err != nil {
		v.app.setStatus(fmt.Sprintf("Export failed: %v", err))
		return
	}
	v.app.logInfo("Exported draft to %s", path)
	v.app.setStatus("Exported to " + path)
}

// importDraft replaces the draft with the document at path. A bad file
// leaves the current draft untouched.
func (v *designerView) importDraft(path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		v.app.setStatus(fmt.Sprintf("Import failed: %v", err))
		return
	}
	if err := v.editor.Import(content); err != nil {
		v.app.setStatus(fmt.Sprintf("Import rejected: %v", err))
		v.app.logWarn("Import of %s rejected: %v", path, err)
		return
	}
	v.selection = 0
	v.app.logInfo("Imported draft from %s", path)
	v.app.setStatus(fmt.Sprintf("Imported %s as a new draft", v.editor.Name))
}

func (v *designerView) View() string {
	switch v.mode {
	case modeKindPicker:
		return v.renderKindPicker()
	case modeTemplatePicker:
		return v.renderTemplatePicker()
	case modeNodeForm:
		if v.form != nil {
			return v.form.View()
		}
	case modeMetaForm:
		if v.meta != nil {
			return v.meta.View()
		}
	case modeImportPath:
		return strings.Join([]string{"Import workflow document", "", v.importPath.View()}, "\n")
	}
	return v.renderBoard()
}

func (v *designerView) renderBoard() string {
	var sections []string
	sections = append(sections, v.renderHeader(), "")
	sections = append(sections, v.renderNodes())
	if edges := v.renderEdges(); edges != "" {
		sections = append(sections, "", edges)
	}
	sections = append(sections, "", dimStyle.Render(
		"a=add  t=template  enter=edit  c=connect  x=delete  m=details\n"+
			"s=save  p=publish  v=validate  o=export  i=import  j/k=move"))
	return strings.Join(sections, "\n")
}

func (v *designerView) renderHeader() string {
	name := v.editor.Name
	if name == "" {
		name = "(unnamed draft)"
	}
	binding := "unsaved draft"
	if id := v.editor.BoundID(); id != 0 {
		binding = fmt.Sprintf("#%d v%d", id, v.editor.Version())
	}
	line := fmt.Sprintf("%s · model: %s · %s", name, v.editor.ModelName, binding)
	if v.editor.Saving() {
		line += " · saving…"
	}
	return headlineStyle.Render(line)
}

func (v *designerView) renderNodes() string {
	nodes := v.editor.Nodes()
	if len(nodes) == 0 {
		return dimStyle.Render("Empty canvas. Press a to add a stage or t for a template.")
	}
	highlight := v.selection
	marker := ">"
	if v.mode == modeConnectTarget || v.mode == modeConnectHandle {
		highlight = v.connectIdx
		marker = "→"
	}
	rows := make([]string, 0, len(nodes))
	for i, node := range nodes {
		indicator := " "
		if i == highlight {
			indicator = marker
		}
		glyph := kindGlyphs[node.Kind]
		line := fmt.Sprintf("%s %s %s · %s", indicator, glyph, node.Label(), node.ID)
		if i == highlight {
			line = selectedNodeStyle.Render(line)
		}
		rows = append(rows, line)
		if i == v.selection && v.mode == modeBoard {
			if detail := nodeDetail(node); detail != "" {
				rows = append(rows, dimStyle.Render("    "+detail))
			}
		}
	}
	return strings.Join(rows, "\n")
}

func (v *designerView) renderEdges() string {
	edges := v.editor.Edges()
	if len(edges) == 0 {
		return ""
	}
	rows := make([]string, 0, len(edges)+1)
	rows = append(rows, headlineStyle.Render(fmt.Sprintf("Connections (%d)", len(edges))))
	for _, edge := range edges {
		line := fmt.Sprintf("%s → %s", v.nodeLabel(edge.Source), v.nodeLabel(edge.Target))
		if edge.SourceHandle != "" {
			line += fmt.Sprintf(" [%s]", edge.SourceHandle)
		}
		rows = append(rows, dimStyle.Render(line))
	}
	return strings.Join(rows, "\n")
}

func (v *designerView) nodeLabel(id string) string {
	if node, ok := v.editor.NodeByID(id); ok {
		return node.Label()
	}
	return id
}

func (v *designerView) renderKindPicker() string {
	rows := []string{headlineStyle.Render("Add stage"), ""}
	for i, kind := range graph.Kinds() {
		indicator := " "
		line := fmt.Sprintf("%s %s %s", indicator, kindGlyphs[kind], kind)
		if i == v.kindIdx {
			line = selectedNodeStyle.Render("> " + kindGlyphs[kind] + " " + string(kind))
		}
		rows = append(rows, line)
	}
	return strings.Join(rows, "\n")
}

func (v *designerView) renderTemplatePicker() string {
	rows := []string{headlineStyle.Render("Starter templates"), ""}
	for i, tmpl := range graph.Templates() {
		indicator := " "
		if i == v.templateIdx {
			indicator = ">"
		}
		line := fmt.Sprintf("%s %s · %s", indicator, tmpl.Name, tmpl.Category)
		if i == v.templateIdx {
			line = selectedNodeStyle.Render(line)
			line += "\n" + dimStyle.Render("    "+tmpl.Description)
		}
		rows = append(rows, line)
	}
	return strings.Join(rows, "\n")
}

// nodeDetail summarizes a node's payload for the board.
func nodeDetail(node graph.Node) string {
	switch d := node.Data.(type) {
	case *graph.StartData, *graph.EndData:
		return ""
	case *graph.ConditionData:
		if d.Field == "" {
			return errorTextStyle.Render("condition not configured")
		}
		return fmt.Sprintf("if %s %s %s", d.Field, d.Operator, d.Value)
	case *graph.ApprovalData:
		var parts []string
		if d.RequiredRole != "" {
			parts = append(parts, "role: "+d.RequiredRole)
		}
		if len(d.RequiredRoles) > 0 {
			parts = append(parts, "roles: "+strings.Join(d.RequiredRoles, ","))
		}
		if len(d.SpecificUsers) > 0 {
			parts = append(parts, fmt.Sprintf("%d user(s)", len(d.SpecificUsers)))
		}
		if len(parts) == 0 {
			parts = append(parts, errorTextStyle.Render("no approvers"))
		}
		if d.ApprovalType != "" {
			parts = append(parts, string(d.ApprovalType))
		}
		if d.SLAHours > 0 {
			parts = append(parts, fmt.Sprintf("SLA %dh", d.SLAHours))
		}
		if d.ABACEnabled {
			parts = append(parts, fmt.Sprintf("ABAC ×%d", len(d.ABACConditions)))
		}
		return strings.Join(parts, " · ")
	default:
		return ""
	}
}

func indexOfNode(nodes []graph.Node, id string) int {
	for i, node := range nodes {
		if node.ID == id {
			return i
		}
	}
	return 0
}

func slugify(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	var b strings.Builder
	lastDash := true
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
