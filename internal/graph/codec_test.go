package graph

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestNodeJSONRoundTripVariants(t *testing.T) {
	nodes := []Node{
		{ID: "start-1", Kind: KindStart, Position: Position{X: 10, Y: 20}, Data: &StartData{Label: "Start"}},
		{ID: "approval-1", Kind: KindApproval, Position: Position{X: 30, Y: 40}, Data: &ApprovalData{
			Label:                  "Review",
			RequiredRoles:          []string{"hr_manager", "dept_head"},
			ApprovalType:           ApprovalParallelMajority,
			RequiredApprovalsCount: 2,
			ABACEnabled:            true,
			ABACConditions: []ABACCondition{
				{Attribute: "user.department_id", Operator: "eq", Value: "{{resource.department_id}}"},
				{Attribute: "resource.amount", Operator: "lte", Value: "5000"},
			},
			SLAHours:       24,
			AutoEscalate:   true,
			EscalationRole: "cfo",
		}},
		{ID: "condition-1", Kind: KindCondition, Data: &ConditionData{Label: "Amount", Field: "total", Operator: ">", Value: "100"}},
		{ID: "end-1", Kind: KindEnd, Data: &EndData{Label: "Done"}},
	}
	for _, node := range nodes {
		raw, err := json.Marshal(node)
		if err != nil {
			t.Fatalf("marshal %s: %v", node.ID, err)
		}
		var back Node
		if err := json.Unmarshal(raw, &back); err != nil {
			t.Fatalf("unmarshal %s: %v", node.ID, err)
		}
		if !reflect.DeepEqual(node, back) {
			t.Fatalf("round trip changed %s:\n in: %#v\nout: %#v", node.ID, node, back)
		}
	}
}

func TestNodeUnmarshalRejectsUnknownKind(t *testing.T) {
	raw := []byte(`{"id": "x-1", "type": "teleport", "data": {"label": "X"}}`)
	var node Node
	err := json.Unmarshal(raw, &node)
	if err == nil || !strings.Contains(err.Error(), `unknown node kind "teleport"`) {
		t.Fatalf("expected unknown kind error, got %v", err)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	tmpl, _ := TemplateByID("purchase_order")
	g := tmpl.Build()
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	content, err := Export("PO Approval", "amount routed", "PurchaseOrder", g, now)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	doc, err := Import(content)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if doc.Name != "PO Approval" || doc.ModelName != "PurchaseOrder" {
		t.Fatalf("metadata mangled: %+v", doc)
	}
	if doc.Version != ExportVersion {
		t.Fatalf("version %d, want %d", doc.Version, ExportVersion)
	}
	if !doc.ExportedAt.Equal(now) {
		t.Fatalf("exportedAt %v, want %v", doc.ExportedAt, now)
	}
	if !reflect.DeepEqual(doc.Nodes, g.Nodes) {
		t.Fatalf("nodes changed in round trip")
	}
	if !reflect.DeepEqual(doc.Edges, g.Edges) {
		t.Fatalf("edges changed in round trip")
	}
}

func TestExportEmptyGraphHasArrays(t *testing.T) {
	content, err := Export("Empty", "", "", Graph{}, time.Now())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	text := string(content)
	if !strings.Contains(text, `"nodes": []`) || !strings.Contains(text, `"edges": []`) {
		t.Fatalf("empty collections must serialize as [], got:\n%s", text)
	}
}

func TestImportRejectsMalformedDocuments(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "this is not json {"},
		{"missing name", `{"nodes": [], "edges": []}`},
		{"nodes not array", `{"name": "x", "nodes": {}, "edges": []}`},
		{"edge without target", `{"name": "x", "nodes": [], "edges": [{"id": "e1", "source": "a"}]}`},
		{"node with bad kind", `{"name": "x", "nodes": [{"id": "n1", "type": "warp"}], "edges": []}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := Import([]byte(tc.content))
			if err == nil {
				t.Fatalf("expected import error")
			}
			if len(doc.Nodes) != 0 || len(doc.Edges) != 0 {
				t.Fatalf("failed import must not return partial data: %+v", doc)
			}
		})
	}
}

func TestGraphCloneDetachesPayloads(t *testing.T) {
	g := simpleGraph()
	dup := g.Clone()
	dup.Nodes[1].Data.(*ApprovalData).RequiredRole = "changed"
	if g.Nodes[1].Data.(*ApprovalData).RequiredRole != "manager" {
		t.Fatalf("clone shares approval payload with original")
	}
	dup.Edges[0].Target = "elsewhere"
	if g.Edges[0].Target != "approval-1" {
		t.Fatalf("clone shares edge slice with original")
	}
}

func TestABACConditionHelpers(t *testing.T) {
	ref := ABACCondition{Attribute: "user.department_id", Operator: "eq", Value: "{{resource.department_id}}"}
	if !ref.IsReference() {
		t.Fatalf("placeholder value must be a reference")
	}
	if ref.Namespace() != NamespaceUser {
		t.Fatalf("namespace %q, want %q", ref.Namespace(), NamespaceUser)
	}
	lit := ABACCondition{Attribute: "resource.amount", Operator: "lte", Value: "5000"}
	if lit.IsReference() {
		t.Fatalf("literal must not be a reference")
	}
	if lit.Namespace() != NamespaceResource {
		t.Fatalf("namespace %q, want %q", lit.Namespace(), NamespaceResource)
	}
	if !ValidABACOperator("gte") || ValidABACOperator("between") {
		t.Fatalf("operator whitelist is wrong")
	}
}
