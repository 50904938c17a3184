package graph

import (
	"fmt"
	"strings"
)

// ValidationError carries every specific reason a graph failed structural
// validation. The designer surfaces the reasons verbatim and aborts the
// save or publish without mutating anything.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	if len(e.Reasons) == 0 {
		return "workflow graph is invalid"
	}
	return strings.Join(e.Reasons, "; ")
}

// Validate checks the structural invariants a workflow must satisfy before
// it can be saved or published:
//
//   - exactly one start node
//   - at least one end node
//   - every approval node names at least one authorization path
//   - every node other than the start is reachable from the start node
//
// A nil return means the graph is structurally sound.
func Validate(g Graph) error {
	var reasons []string

	starts := g.CountKind(KindStart)
	if starts != 1 {
		reasons = append(reasons, fmt.Sprintf("workflow must have exactly one start node (found %d)", starts))
	}
	if g.CountKind(KindEnd) == 0 {
		reasons = append(reasons, "workflow must have at least one end node")
	}

	for _, n := range g.Nodes {
		data, ok := n.Data.(*ApprovalData)
		if !ok {
			continue
		}
		if !data.HasApprovers() {
			reasons = append(reasons, fmt.Sprintf("approval stage %q has no approvers assigned", n.Label()))
		}
	}

	// Reachability is only meaningful once the start node is unambiguous.
	if starts == 1 {
		for _, n := range unreachableNodes(g) {
			reasons = append(reasons, fmt.Sprintf("stage %q is not connected to the flow", n.Label()))
		}
	}

	if len(reasons) > 0 {
		return &ValidationError{Reasons: reasons}
	}
	return nil
}

// unreachableNodes walks edges from the start node and returns every other
// node the walk never visits.
func unreachableNodes(g Graph) []Node {
	var startID string
	for _, n := range g.Nodes {
		if n.Kind == KindStart {
			startID = n.ID
			break
		}
	}

	adjacent := make(map[string][]string, len(g.Edges))
	for _, e := range g.Edges {
		adjacent[e.Source] = append(adjacent[e.Source], e.Target)
	}

	visited := map[string]struct{}{startID: {}}
	queue := []string{startID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range adjacent[current] {
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = struct{}{}
			queue = append(queue, next)
		}
	}

	var missed []Node
	for _, n := range g.Nodes {
		if _, seen := visited[n.ID]; !seen {
			missed = append(missed, n)
		}
	}
	return missed
}
