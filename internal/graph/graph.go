package graph

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
)

// Named source handles exposed by condition nodes.
const (
	HandleTrue  = "true"
	HandleFalse = "false"
)

// EdgeTypeSmoothstep is the default visual style for new edges.
const EdgeTypeSmoothstep = "smoothstep"

// Edge connects two nodes. It has no identity beyond the pair it joins and
// the optional handle it leaves from.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
	Type         string `json:"type,omitempty"`
	Animated     bool   `json:"animated,omitempty"`
}

// Graph is the in-memory node/edge collection the designer edits.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// NodeByID returns a pointer into the node slice, valid until the slice is
// next mutated.
func (g *Graph) NodeByID(id string) (*Node, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// HasEdge reports whether an edge with the same source, target and source
// handle already exists.
func (g *Graph) HasEdge(source, target, sourceHandle string) bool {
	for _, e := range g.Edges {
		if e.Source == source && e.Target == target && e.SourceHandle == sourceHandle {
			return true
		}
	}
	return false
}

// RemoveNode deletes the node and cascades removal of every edge whose
// source or target equals the node id. It returns the number of edges
// removed, or -1 when the node does not exist.
func (g *Graph) RemoveNode(id string) int {
	idx := -1
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return -1
	}
	g.Nodes = append(g.Nodes[:idx], g.Nodes[idx+1:]...)
	kept := g.Edges[:0]
	removed := 0
	for _, e := range g.Edges {
		if e.Source == id || e.Target == id {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	g.Edges = kept
	return removed
}

// Clone returns a deep copy, detaching node payloads from the original.
func (g Graph) Clone() Graph {
	dup := Graph{}
	if g.Nodes != nil {
		dup.Nodes = make([]Node, len(g.Nodes))
		for i, n := range g.Nodes {
			if n.Data != nil {
				n.Data = n.Data.Clone()
			}
			dup.Nodes[i] = n
		}
	}
	if g.Edges != nil {
		dup.Edges = append([]Edge(nil), g.Edges...)
	}
	return dup
}

// CountKind returns how many nodes of the given kind the graph holds.
func (g Graph) CountKind(kind Kind) int {
	count := 0
	for _, n := range g.Nodes {
		if n.Kind == kind {
			count++
		}
	}
	return count
}

// NewNodeID generates a fresh node id, prefixed with the kind so exported
// files stay readable.
func NewNodeID(kind Kind) string {
	return fmt.Sprintf("%s-%s", kind, uuid.NewString()[:8])
}

// NewEdgeID generates a fresh edge id.
func NewEdgeID() string {
	return fmt.Sprintf("edge-%s", uuid.NewString()[:8])
}

// Canvas region new nodes spawn into. Overlaps are possible and acceptable;
// the user drags nodes where they want them.
const (
	spawnMinX, spawnSpanX = 120, 480
	spawnMinY, spawnSpanY = 80, 320
)

// SpawnPosition picks a pseudo-random position inside the visible canvas
// region. No collision avoidance.
func SpawnPosition(rng *rand.Rand) Position {
	return Position{
		X: spawnMinX + rng.Float64()*spawnSpanX,
		Y: spawnMinY + rng.Float64()*spawnSpanY,
	}
}

// DefaultData returns the kind-appropriate payload for a freshly placed node.
func DefaultData(kind Kind) NodeData {
	switch kind {
	case KindStart:
		return &StartData{Label: "Start"}
	case KindApproval:
		return &ApprovalData{Label: "Approval Stage", ApprovalType: ApprovalSequential}
	case KindCondition:
		return &ConditionData{Label: "Condition", Operator: "=="}
	case KindEnd:
		return &EndData{Label: "End"}
	default:
		return nil
	}
}
