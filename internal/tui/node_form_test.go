package tui

import (
	"strings"
	"testing"

	"github.com/kingrea/flowdeck/internal/graph"
)

func (f *nodeForm) setField(t *testing.T, key, value string) {
	t.Helper()
	for i := range f.fields {
		if f.fields[i].key != key {
			continue
		}
		if f.fields[i].choices != nil {
			for j, choice := range f.fields[i].choices {
				if choice == value {
					f.fields[i].choice = j
					return
				}
			}
			t.Fatalf("choice %q not available for %s", value, key)
		}
		f.fields[i].input.SetValue(value)
		return
	}
	t.Fatalf("no field %q", key)
}

func TestApprovalFormApply(t *testing.T) {
	node := graph.Node{
		ID:   "approval-1",
		Kind: graph.KindApproval,
		Data: &graph.ApprovalData{Label: "Review"},
	}
	form := newNodeForm(node)
	form.setField(t, "label", "Finance Review")
	form.setField(t, "required_roles", "finance_manager, cfo")
	form.setField(t, "specific_users", "3, 14")
	form.setField(t, "approval_type", "parallel_any")
	form.setField(t, "sla_hours", "48")
	form.setField(t, "auto_escalate", "yes")
	form.setField(t, "escalation_role", "director")

	data, err := form.apply()
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	payload, ok := data.(*graph.ApprovalData)
	if !ok {
		t.Fatalf("payload type %T", data)
	}
	if payload.Label != "Finance Review" {
		t.Fatalf("label %q", payload.Label)
	}
	if len(payload.RequiredRoles) != 2 || payload.RequiredRoles[1] != "cfo" {
		t.Fatalf("roles %v", payload.RequiredRoles)
	}
	if len(payload.SpecificUsers) != 2 || payload.SpecificUsers[0] != 3 {
		t.Fatalf("users %v", payload.SpecificUsers)
	}
	if payload.ApprovalType != graph.ApprovalParallelAny {
		t.Fatalf("approval type %q", payload.ApprovalType)
	}
	if payload.SLAHours != 48 || !payload.AutoEscalate || payload.EscalationRole != "director" {
		t.Fatalf("escalation fields %+v", payload)
	}
}

func TestApprovalFormRejectsBadNumbers(t *testing.T) {
	node := graph.Node{ID: "approval-2", Kind: graph.KindApproval, Data: &graph.ApprovalData{}}
	form := newNodeForm(node)
	form.setField(t, "sla_hours", "soon")
	if _, err := form.apply(); err == nil || !strings.Contains(err.Error(), "sla hours") {
		t.Fatalf("expected sla hours error, got %v", err)
	}
}

func TestApprovalFormABACRows(t *testing.T) {
	node := graph.Node{
		ID:   "approval-3",
		Kind: graph.KindApproval,
		Data: &graph.ApprovalData{
			ABACEnabled: true,
			ABACConditions: []graph.ABACCondition{
				{Attribute: "user.department_id", Operator: "eq", Value: "{{resource.department_id}}"},
				{Attribute: "user.job_level", Operator: "gte", Value: "5"},
			},
		},
	}
	form := newNodeForm(node)
	if got := form.abacRowCount(); got != 2 {
		t.Fatalf("abac rows = %d, want 2", got)
	}
	form.setField(t, "abac.1.value", "7")

	data, err := form.apply()
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	payload := data.(*graph.ApprovalData)
	if len(payload.ABACConditions) != 2 {
		t.Fatalf("conditions %v", payload.ABACConditions)
	}
	if !payload.ABACConditions[0].IsReference() {
		t.Fatal("first condition should stay a reference")
	}
	if payload.ABACConditions[1].Value != "7" {
		t.Fatalf("edited value %q", payload.ABACConditions[1].Value)
	}
}

func TestApprovalFormRemoveABACRow(t *testing.T) {
	node := graph.Node{
		ID:   "approval-4",
		Kind: graph.KindApproval,
		Data: &graph.ApprovalData{
			ABACConditions: []graph.ABACCondition{
				{Attribute: "user.department_id", Operator: "eq", Value: "1"},
				{Attribute: "user.job_level", Operator: "gte", Value: "5"},
			},
		},
	}
	form := newNodeForm(node)
	for i := range form.fields {
		if form.fields[i].key == "abac.0.attribute" {
			form.focus = i
			break
		}
	}
	form.removeABACRowAt(form.focus)
	if got := form.abacRowCount(); got != 1 {
		t.Fatalf("abac rows = %d, want 1", got)
	}
	data, err := form.apply()
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	payload := data.(*graph.ApprovalData)
	if len(payload.ABACConditions) != 1 || payload.ABACConditions[0].Attribute != "user.job_level" {
		t.Fatalf("surviving conditions %v", payload.ABACConditions)
	}
}

func TestConditionFormApply(t *testing.T) {
	node := graph.Node{
		ID:   "condition-1",
		Kind: graph.KindCondition,
		Data: &graph.ConditionData{Label: "Amount gate"},
	}
	form := newNodeForm(node)
	form.setField(t, "field", "total_amount")
	form.setField(t, "operator", ">")
	form.setField(t, "value", "10000")

	data, err := form.apply()
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	payload := data.(*graph.ConditionData)
	if payload.Field != "total_amount" || payload.Operator != ">" || payload.Value != "10000" {
		t.Fatalf("payload %+v", payload)
	}
}
