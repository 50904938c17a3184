package graph

import (
	"strings"
	"testing"
)

func approvalNode(id, role string) Node {
	return Node{ID: id, Kind: KindApproval, Data: &ApprovalData{Label: id, RequiredRole: role, ApprovalType: ApprovalSequential}}
}

func simpleGraph() Graph {
	return Graph{
		Nodes: []Node{
			{ID: "start-1", Kind: KindStart, Data: &StartData{Label: "Start"}},
			approvalNode("approval-1", "manager"),
			{ID: "end-1", Kind: KindEnd, Data: &EndData{Label: "End"}},
		},
		Edges: []Edge{
			{ID: "e1", Source: "start-1", Target: "approval-1"},
			{ID: "e2", Source: "approval-1", Target: "end-1"},
		},
	}
}

func TestValidateAcceptsSimpleGraph(t *testing.T) {
	if err := Validate(simpleGraph()); err != nil {
		t.Fatalf("expected valid graph, got %v", err)
	}
}

func TestValidateNamesMissingNodeKind(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Graph)
		want   string
	}{
		{
			name: "no start node",
			mutate: func(g *Graph) {
				g.RemoveNode("start-1")
			},
			want: "exactly one start node (found 0)",
		},
		{
			name: "two start nodes",
			mutate: func(g *Graph) {
				g.Nodes = append(g.Nodes, Node{ID: "start-2", Kind: KindStart, Data: &StartData{Label: "Start"}})
				g.Edges = append(g.Edges, Edge{ID: "e3", Source: "start-2", Target: "approval-1"})
			},
			want: "exactly one start node (found 2)",
		},
		{
			name: "no end node",
			mutate: func(g *Graph) {
				g.RemoveNode("end-1")
			},
			want: "at least one end node",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := simpleGraph()
			tc.mutate(&g)
			err := Validate(g)
			if err == nil {
				t.Fatalf("expected validation failure")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("message %q does not name the missing kind, want substring %q", err.Error(), tc.want)
			}
		})
	}
}

func TestValidateRejectsApprovalWithoutApprovers(t *testing.T) {
	g := simpleGraph()
	node, ok := g.NodeByID("approval-1")
	if !ok {
		t.Fatalf("approval-1 missing")
	}
	node.Data = &ApprovalData{Label: "Orphan Stage"}
	err := Validate(g)
	if err == nil {
		t.Fatalf("expected validation failure")
	}
	if !strings.Contains(err.Error(), `"Orphan Stage" has no approvers`) {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestValidateAcceptsRoleListOrSpecificUsers(t *testing.T) {
	for _, data := range []*ApprovalData{
		{Label: "roles", RequiredRoles: []string{"hr_manager", "dept_head"}},
		{Label: "users", SpecificUsers: []int{4, 9}},
	} {
		g := simpleGraph()
		node, _ := g.NodeByID("approval-1")
		node.Data = data
		if err := Validate(g); err != nil {
			t.Fatalf("%s: expected valid, got %v", data.Label, err)
		}
	}
}

func TestValidateFlagsDisconnectedNodes(t *testing.T) {
	g := simpleGraph()
	g.Nodes = append(g.Nodes, approvalNode("approval-9", "auditor"))
	err := Validate(g)
	if err == nil {
		t.Fatalf("expected validation failure for disconnected node")
	}
	if !strings.Contains(err.Error(), "not connected") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestValidateCollectsEveryReason(t *testing.T) {
	g := Graph{Nodes: []Node{approvalNode("approval-1", "")}}
	err := Validate(g)
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if len(verr.Reasons) != 3 {
		t.Fatalf("expected 3 reasons (start, end, approvers), got %d: %v", len(verr.Reasons), verr.Reasons)
	}
}

func TestRemoveNodeCascadesOnlyTouchingEdges(t *testing.T) {
	g := simpleGraph()
	g.Nodes = append(g.Nodes, approvalNode("approval-2", "cfo"))
	g.Edges = append(g.Edges, Edge{ID: "e3", Source: "approval-1", Target: "approval-2"})

	removed := g.RemoveNode("approval-1")
	if removed != 3 {
		t.Fatalf("expected 3 edges removed, got %d", removed)
	}
	if len(g.Edges) != 0 {
		t.Fatalf("expected no edges left, got %v", g.Edges)
	}
	if _, ok := g.NodeByID("approval-1"); ok {
		t.Fatalf("node should be gone")
	}
	if _, ok := g.NodeByID("approval-2"); !ok {
		t.Fatalf("unrelated node must survive")
	}
}

func TestRemoveNodeKeepsUnrelatedEdges(t *testing.T) {
	g := simpleGraph()
	g.Nodes = append(g.Nodes, approvalNode("approval-2", "cfo"))
	g.Edges = append(g.Edges, Edge{ID: "e3", Source: "approval-2", Target: "end-1"})

	if removed := g.RemoveNode("approval-2"); removed != 1 {
		t.Fatalf("expected 1 edge removed, got %d", removed)
	}
	if len(g.Edges) != 2 {
		t.Fatalf("edges between surviving nodes must stay, got %v", g.Edges)
	}
}

func TestRemoveNodeMissing(t *testing.T) {
	g := simpleGraph()
	if removed := g.RemoveNode("nope"); removed != -1 {
		t.Fatalf("expected -1 for unknown node, got %d", removed)
	}
}

func TestTemplatesAllValidate(t *testing.T) {
	for _, tmpl := range Templates() {
		g := tmpl.Build()
		if err := Validate(g); err != nil {
			t.Fatalf("template %s must validate, got %v", tmpl.ID, err)
		}
	}
}

func TestTemplateBuildsAreIndependent(t *testing.T) {
	tmpl, ok := TemplateByID("leave_request")
	if !ok {
		t.Fatalf("leave_request template missing")
	}
	first := tmpl.Build()
	data := first.Nodes[1].Data.(*ApprovalData)
	data.RequiredRole = "someone_else"

	second := tmpl.Build()
	if second.Nodes[1].Data.(*ApprovalData).RequiredRole != "manager" {
		t.Fatalf("template build leaked state between calls")
	}
}
