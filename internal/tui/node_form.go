package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kingrea/flowdeck/internal/designer"
	"github.com/kingrea/flowdeck/internal/graph"
)

// formField is one row of a configuration form: either a free-text input or
// a fixed set of choices cycled with left/right.
type formField struct {
	key     string
	label   string
	input   textinput.Model
	choices []string
	choice  int
}

func textField(key, label, value string, width int) formField {
	input := textinput.New()
	input.SetValue(value)
	input.CharLimit = 500
	input.Width = width
	return formField{key: key, label: label, input: input}
}

func choiceField(key, label string, choices []string, current string) formField {
	idx := 0
	for i, c := range choices {
		if c == current {
			idx = i
			break
		}
	}
	return formField{key: key, label: label, choices: choices, choice: idx}
}

func (f *formField) value() string {
	if f.choices != nil {
		return f.choices[f.choice]
	}
	return strings.TrimSpace(f.input.Value())
}

// nodeForm edits one node's payload field by field. apply() parses the rows
// back into the typed payload; nothing touches the draft until then.
type nodeForm struct {
	nodeID string
	kind   graph.Kind
	fields []formField
	focus  int
}

func newNodeForm(node graph.Node) *nodeForm {
	form := &nodeForm{nodeID: node.ID, kind: node.Kind}
	switch d := node.Data.(type) {
	case *graph.StartData:
		form.fields = []formField{textField("label", "Label", d.Label, 40)}
	case *graph.EndData:
		form.fields = []formField{textField("label", "Label", d.Label, 40)}
	case *graph.ConditionData:
		form.fields = []formField{
			textField("label", "Label", d.Label, 40),
			textField("field", "Field", d.Field, 40),
			choiceField("operator", "Operator", graph.ConditionOperators, d.Operator),
			textField("value", "Value", d.Value, 40),
		}
	case *graph.ApprovalData:
		form.fields = approvalFields(d)
	}
	return form
}

func approvalFields(d *graph.ApprovalData) []formField {
	types := make([]string, 0, len(graph.ApprovalTypes()))
	for _, t := range graph.ApprovalTypes() {
		types = append(types, string(t))
	}
	fields := []formField{
		textField("label", "Label", d.Label, 40),
		textField("required_role", "Required role", d.RequiredRole, 40),
		textField("required_roles", "Role list (comma)", strings.Join(d.RequiredRoles, ","), 40),
		textField("specific_users", "User IDs (comma)", joinInts(d.SpecificUsers), 40),
		choiceField("approval_type", "Approval type", types, string(d.ApprovalType)),
		textField("required_count", "Required approvals", intOrEmpty(d.RequiredApprovalsCount), 10),
		textField("sla_hours", "SLA hours", intOrEmpty(d.SLAHours), 10),
		choiceField("auto_escalate", "Auto escalate", []string{"no", "yes"}, yesNo(d.AutoEscalate)),
		textField("escalation_role", "Escalation role", d.EscalationRole, 40),
		textField("escalation_user", "Escalation user ID", intOrEmpty(d.EscalationUserID), 10),
		textField("notification", "Notification template", d.NotificationTemplate, 40),
		textField("custom_action", "Custom action", d.CustomAction, 40),
		choiceField("abac_enabled", "ABAC checks", []string{"no", "yes"}, yesNo(d.ABACEnabled)),
	}
	for i, cond := range d.ABACConditions {
		fields = append(fields, abacFields(i, cond)...)
	}
	return fields
}

func abacFields(idx int, cond graph.ABACCondition) []formField {
	prefix := fmt.Sprintf("abac.%d.", idx)
	return []formField{
		textField(prefix+"attribute", fmt.Sprintf("  Condition %d attribute", idx+1), cond.Attribute, 40),
		choiceField(prefix+"operator", fmt.Sprintf("  Condition %d operator", idx+1), graph.ABACOperators, cond.Operator),
		textField(prefix+"value", fmt.Sprintf("  Condition %d value", idx+1), cond.Value, 40),
	}
}

func (f *nodeForm) focusField(idx int) tea.Cmd {
	var cmd tea.Cmd
	for i := range f.fields {
		if f.fields[i].choices != nil {
			continue
		}
		if i == idx {
			cmd = f.fields[i].input.Focus()
		} else {
			f.fields[i].input.Blur()
		}
	}
	f.focus = idx
	return cmd
}

func (f *nodeForm) focusFirst() tea.Cmd {
	return f.focusField(0)
}

func (f *nodeForm) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			return f.focusField((f.focus + 1) % len(f.fields))
		case "shift+tab", "up":
			return f.focusField((f.focus - 1 + len(f.fields)) % len(f.fields))
		case "left":
			if field := &f.fields[f.focus]; field.choices != nil {
				field.choice = (field.choice - 1 + len(field.choices)) % len(field.choices)
				return nil
			}
		case "right":
			if field := &f.fields[f.focus]; field.choices != nil {
				field.choice = (field.choice + 1) % len(field.choices)
				return nil
			}
		case "ctrl+a":
			if f.kind == graph.KindApproval {
				idx := f.abacRowCount()
				f.fields = append(f.fields, abacFields(idx, graph.ABACCondition{})...)
				return f.focusField(len(f.fields) - 3)
			}
		case "ctrl+d":
			if f.kind == graph.KindApproval {
				f.removeABACRowAt(f.focus)
				return nil
			}
		}
	}
	if f.focus < len(f.fields) && f.fields[f.focus].choices == nil {
		var cmd tea.Cmd
		f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
		return cmd
	}
	return nil
}

func (f *nodeForm) abacRowCount() int {
	count := 0
	for _, field := range f.fields {
		if strings.HasPrefix(field.key, "abac.") && strings.HasSuffix(field.key, ".attribute") {
			count++
		}
	}
	return count
}

// removeABACRowAt drops the three fields of the condition row containing the
// focused field, then renumbers the remaining rows.
func (f *nodeForm) removeABACRowAt(idx int) {
	if idx >= len(f.fields) || !strings.HasPrefix(f.fields[idx].key, "abac.") {
		return
	}
	start := idx
	for start > 0 && strings.HasPrefix(f.fields[start].key, "abac.") &&
		!strings.HasSuffix(f.fields[start].key, ".attribute") {
		start--
	}
	if start+3 > len(f.fields) {
		return
	}
	f.fields = append(f.fields[:start], f.fields[start+3:]...)
	row := 0
	for i := range f.fields {
		if !strings.HasPrefix(f.fields[i].key, "abac.") {
			continue
		}
		suffix := f.fields[i].key[strings.LastIndex(f.fields[i].key, ".")+1:]
		f.fields[i].key = fmt.Sprintf("abac.%d.%s", row, suffix)
		f.fields[i].label = fmt.Sprintf("  Condition %d %s", row+1, suffix)
		if suffix == "value" {
			row++
		}
	}
	if f.focus >= len(f.fields) {
		f.focus = len(f.fields) - 1
	}
}

func (f *nodeForm) fieldValue(key string) string {
	for i := range f.fields {
		if f.fields[i].key == key {
			return f.fields[i].value()
		}
	}
	return ""
}

// apply parses the form rows into the node's typed payload.
func (f *nodeForm) apply() (graph.NodeData, error) {
	switch f.kind {
	case graph.KindStart:
		return &graph.StartData{Label: f.fieldValue("label")}, nil
	case graph.KindEnd:
		return &graph.EndData{Label: f.fieldValue("label")}, nil
	case graph.KindCondition:
		return &graph.ConditionData{
			Label:    f.fieldValue("label"),
			Field:    f.fieldValue("field"),
			Operator: f.fieldValue("operator"),
			Value:    f.fieldValue("value"),
		}, nil
	case graph.KindApproval:
		return f.applyApproval()
	}
	return nil, fmt.Errorf("unknown node kind %q", f.kind)
}

func (f *nodeForm) applyApproval() (graph.NodeData, error) {
	count, err := parseOptionalInt(f.fieldValue("required_count"))
	if err != nil {
		return nil, fmt.Errorf("required approvals: %w", err)
	}
	sla, err := parseOptionalInt(f.fieldValue("sla_hours"))
	if err != nil {
		return nil, fmt.Errorf("sla hours: %w", err)
	}
	escalationUser, err := parseOptionalInt(f.fieldValue("escalation_user"))
	if err != nil {
		return nil, fmt.Errorf("escalation user: %w", err)
	}
	users, err := parseIntList(f.fieldValue("specific_users"))
	if err != nil {
		return nil, fmt.Errorf("user ids: %w", err)
	}
	data := &graph.ApprovalData{
		Label:                  f.fieldValue("label"),
		RequiredRole:           f.fieldValue("required_role"),
		RequiredRoles:          splitCSV(f.fieldValue("required_roles")),
		SpecificUsers:          users,
		ApprovalType:           graph.ApprovalType(f.fieldValue("approval_type")),
		RequiredApprovalsCount: count,
		SLAHours:               sla,
		AutoEscalate:           f.fieldValue("auto_escalate") == "yes",
		EscalationRole:         f.fieldValue("escalation_role"),
		EscalationUserID:       escalationUser,
		NotificationTemplate:   f.fieldValue("notification"),
		CustomAction:           f.fieldValue("custom_action"),
		ABACEnabled:            f.fieldValue("abac_enabled") == "yes",
	}
	for i := 0; ; i++ {
		prefix := fmt.Sprintf("abac.%d.", i)
		attribute := f.fieldValue(prefix + "attribute")
		operator := f.fieldValue(prefix + "operator")
		value := f.fieldValue(prefix + "value")
		if !f.hasField(prefix + "attribute") {
			break
		}
		if attribute == "" {
			continue // blank rows are dropped on apply
		}
		if !graph.ValidABACOperator(operator) {
			return nil, fmt.Errorf("condition %d: unknown operator %q", i+1, operator)
		}
		data.ABACConditions = append(data.ABACConditions, graph.ABACCondition{
			Attribute: attribute,
			Operator:  operator,
			Value:     value,
		})
	}
	return data, nil
}

func (f *nodeForm) hasField(key string) bool {
	for i := range f.fields {
		if f.fields[i].key == key {
			return true
		}
	}
	return false
}

func (f *nodeForm) View() string {
	title := headlineStyle.Render(fmt.Sprintf("Configure %s stage · %s", f.kind, f.nodeID))
	rows := []string{title, ""}
	for i := range f.fields {
		field := &f.fields[i]
		indicator := " "
		if i == f.focus {
			indicator = ">"
		}
		var value string
		if field.choices != nil {
			value = fmt.Sprintf("◂ %s ▸", field.value())
		} else {
			value = field.input.View()
		}
		line := fmt.Sprintf("%s %-24s %s", indicator, field.label, value)
		if i == f.focus {
			line = lipgloss.NewStyle().Bold(true).Render(line)
		}
		rows = append(rows, line)
	}
	hints := "tab=next  enter=apply  esc=cancel"
	if f.kind == graph.KindApproval {
		hints += "  ctrl+a=add condition  ctrl+d=remove condition"
	}
	rows = append(rows, "", dimStyle.Render(hints))
	return strings.Join(rows, "\n")
}

// metaForm edits the draft's name, description and target model.
type metaForm struct {
	fields []formField
	focus  int
}

func newMetaForm(editor *designer.Editor) *metaForm {
	return &metaForm{fields: []formField{
		textField("name", "Name", editor.Name, 48),
		textField("description", "Description", editor.Description, 48),
		textField("model_name", "Target model", editor.ModelName, 48),
	}}
}

func (m *metaForm) focusField(idx int) tea.Cmd {
	var cmd tea.Cmd
	for i := range m.fields {
		if i == idx {
			cmd = m.fields[i].input.Focus()
		} else {
			m.fields[i].input.Blur()
		}
	}
	m.focus = idx
	return cmd
}

func (m *metaForm) focusFirst() tea.Cmd { return m.focusField(0) }

func (m *metaForm) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			return m.focusField((m.focus + 1) % len(m.fields))
		case "shift+tab", "up":
			return m.focusField((m.focus - 1 + len(m.fields)) % len(m.fields))
		}
	}
	var cmd tea.Cmd
	m.fields[m.focus].input, cmd = m.fields[m.focus].input.Update(msg)
	return cmd
}

func (m *metaForm) apply(editor *designer.Editor) {
	editor.Name = m.fields[0].value()
	editor.Description = m.fields[1].value()
	if model := m.fields[2].value(); model != "" {
		editor.ModelName = model
	}
}

func (m *metaForm) View() string {
	rows := []string{headlineStyle.Render("Workflow details"), ""}
	for i := range m.fields {
		indicator := " "
		if i == m.focus {
			indicator = ">"
		}
		rows = append(rows, fmt.Sprintf("%s %-14s %s", indicator, m.fields[i].label, m.fields[i].input.View()))
	}
	rows = append(rows, "", dimStyle.Render("tab=next  enter=apply  esc=cancel"))
	return strings.Join(rows, "\n")
}

func splitCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseIntList(value string) ([]int, error) {
	parts := splitCSV(value)
	if len(parts) == 0 {
		return nil, nil
	}
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", part)
		}
		out = append(out, n)
	}
	return out, nil
}

func parseOptionalInt(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", value)
	}
	if n < 0 {
		return 0, fmt.Errorf("%d must not be negative", n)
	}
	return n, nil
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func intOrEmpty(value int) string {
	if value == 0 {
		return ""
	}
	return strconv.Itoa(value)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
