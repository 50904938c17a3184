// Package designer owns the in-memory working copy of a workflow graph and
// the user-driven operations on it: placing nodes, connecting edges, editing
// payloads, and pushing the result to the backend. Everything here is a
// disposable draft until Save succeeds.
package designer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/kingrea/flowdeck/internal/api"
	"github.com/kingrea/flowdeck/internal/graph"
)

var (
	// ErrNotBound means the editor has never saved, so there is no server
	// record to publish.
	ErrNotBound = errors.New("workflow has not been saved yet")

	// ErrSaveInFlight rejects a save while a previous one is still running,
	// so rapid repeated saves cannot race a create against an update.
	ErrSaveInFlight = errors.New("a save is already in progress")

	// ErrDuplicateEdge rejects a second edge over an existing connection.
	ErrDuplicateEdge = errors.New("these stages are already connected")

	// ErrSelfLoop rejects an edge from a node to itself.
	ErrSelfLoop = errors.New("cannot connect a stage to itself")
)

// Service is the slice of the API the editor needs. *api.Client satisfies it.
type Service interface {
	CreateWorkflowGraph(ctx context.Context, payload api.GraphPayload) (api.Workflow, error)
	UpdateWorkflowGraph(ctx context.Context, id int, payload api.GraphPayload) (api.Workflow, error)
	PublishWorkflow(ctx context.Context, id int) (api.Workflow, error)
}

// Editor holds one workflow draft. Graph mutations happen on the UI event
// loop and are unguarded; BeginSave and BeginPublish read the graph on that
// same goroutine and hand a graph-free op to the command closure. Only the
// bound-id/saving state crosses goroutines, guarded by the mutex.
type Editor struct {
	svc Service
	rng *rand.Rand

	Name        string
	Description string
	ModelName   string

	graph graph.Graph

	mu      sync.Mutex
	boundID int
	version int
	saving  bool
}

// Option customizes Editor construction.
type Option func(*Editor)

// WithRand fixes the position source, for deterministic tests.
func WithRand(rng *rand.Rand) Option {
	return func(e *Editor) {
		if rng != nil {
			e.rng = rng
		}
	}
}

// New creates an empty draft backed by the given service.
func New(svc Service, opts ...Option) *Editor {
	e := &Editor{
		svc:       svc,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		ModelName: "GenericModel",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LoadWorkflow replaces the draft with an existing server record, binding
// the editor so the next save updates rather than creates.
func (e *Editor) LoadWorkflow(w api.Workflow) {
	e.Name = w.Name
	e.Description = w.Description
	e.ModelName = w.ModelName
	e.graph = graph.Graph{}
	if w.Graph != nil {
		e.graph = graph.Graph{Nodes: w.Graph.Nodes, Edges: w.Graph.Edges}.Clone()
	}
	e.mu.Lock()
	e.boundID = w.ID
	e.version = w.Version
	e.mu.Unlock()
}

// LoadTemplate replaces the draft with a built-in starter graph. The draft
// stays unbound: saving creates a new record.
func (e *Editor) LoadTemplate(t graph.Template) {
	e.Name = t.Name
	e.Description = t.Description
	e.ModelName = t.ModelName
	e.graph = t.Build()
	e.mu.Lock()
	e.boundID = 0
	e.version = 0
	e.mu.Unlock()
}

// Nodes exposes the draft's nodes for rendering.
func (e *Editor) Nodes() []graph.Node { return e.graph.Nodes }

// Edges exposes the draft's edges for rendering.
func (e *Editor) Edges() []graph.Edge { return e.graph.Edges }

// NodeByID returns the live node so the configuration panel can project it.
func (e *Editor) NodeByID(id string) (*graph.Node, bool) { return e.graph.NodeByID(id) }

// BoundID returns the server record id, or 0 while unbound.
func (e *Editor) BoundID() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.boundID
}

// Version returns the server-side version counter from the last save.
func (e *Editor) Version() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.version
}

// Saving reports whether a save is currently in flight.
func (e *Editor) Saving() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saving
}

// AddNode places a new node of the given kind with default payload at a
// pseudo-random canvas position and returns it.
func (e *Editor) AddNode(kind graph.Kind) (graph.Node, error) {
	data := graph.DefaultData(kind)
	if data == nil {
		return graph.Node{}, fmt.Errorf("unknown node kind %q", kind)
	}
	node := graph.Node{
		ID:       graph.NewNodeID(kind),
		Kind:     kind,
		Position: graph.SpawnPosition(e.rng),
		Data:     data,
	}
	e.graph.Nodes = append(e.graph.Nodes, node)
	return node, nil
}

// Connect appends an edge between two distinct existing nodes. Condition
// nodes pass the branch they leave from as sourceHandle. Duplicate
// connections over the same source, target and handle are rejected.
func (e *Editor) Connect(sourceID, targetID, sourceHandle string) (graph.Edge, error) {
	if sourceID == targetID {
		return graph.Edge{}, ErrSelfLoop
	}
	if _, ok := e.graph.NodeByID(sourceID); !ok {
		return graph.Edge{}, fmt.Errorf("unknown source node %q", sourceID)
	}
	if _, ok := e.graph.NodeByID(targetID); !ok {
		return graph.Edge{}, fmt.Errorf("unknown target node %q", targetID)
	}
	if e.graph.HasEdge(sourceID, targetID, sourceHandle) {
		return graph.Edge{}, ErrDuplicateEdge
	}
	edge := graph.Edge{
		ID:           graph.NewEdgeID(),
		Source:       sourceID,
		Target:       targetID,
		SourceHandle: sourceHandle,
		Type:         graph.EdgeTypeSmoothstep,
	}
	e.graph.Edges = append(e.graph.Edges, edge)
	return edge, nil
}

// UpdateNodeData replaces the payload of a node. The payload kind must
// match the node's kind; a node never changes variant after placement.
func (e *Editor) UpdateNodeData(nodeID string, data graph.NodeData) error {
	node, ok := e.graph.NodeByID(nodeID)
	if !ok {
		return fmt.Errorf("unknown node %q", nodeID)
	}
	if data == nil || data.NodeKind() != node.Kind {
		return fmt.Errorf("payload kind does not match node %q", nodeID)
	}
	node.Data = data
	return nil
}

// MoveNode records a new advisory position for a node.
func (e *Editor) MoveNode(nodeID string, pos graph.Position) error {
	node, ok := e.graph.NodeByID(nodeID)
	if !ok {
		return fmt.Errorf("unknown node %q", nodeID)
	}
	node.Position = pos
	return nil
}

// DeleteNode removes the node and every edge touching it, returning the
// number of edges that went with it.
func (e *Editor) DeleteNode(nodeID string) (int, error) {
	removed := e.graph.RemoveNode(nodeID)
	if removed < 0 {
		return 0, fmt.Errorf("unknown node %q", nodeID)
	}
	return removed, nil
}

// Validate runs the pre-save checks: metadata first, then graph structure.
func (e *Editor) Validate() error {
	if e.Name == "" {
		return &graph.ValidationError{Reasons: []string{"workflow name is required"}}
	}
	return graph.Validate(e.graph)
}

func (e *Editor) payload() api.GraphPayload {
	snapshot := e.graph.Clone()
	payload := api.GraphPayload{
		Name:        e.Name,
		Description: e.Description,
		ModelName:   e.ModelName,
		Nodes:       snapshot.Nodes,
		Edges:       snapshot.Edges,
	}
	if payload.Nodes == nil {
		payload.Nodes = []graph.Node{}
	}
	if payload.Edges == nil {
		payload.Edges = []graph.Edge{}
	}
	return payload
}

// SaveOp is the backend half of a save or publish. It is safe to run on
// another goroutine: the draft was validated and snapshotted when the op
// was created, so later graph edits cannot leak into it.
type SaveOp func(ctx context.Context) (api.Workflow, error)

// BeginSave validates the draft, marks the save in flight and snapshots
// the payload, all on the caller's goroutine. The returned op performs the
// network call: a create while unbound, an update afterwards. The first
// successful create binds the editor so later saves update the record.
func (e *Editor) BeginSave() (SaveOp, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	if e.saving {
		e.mu.Unlock()
		return nil, ErrSaveInFlight
	}
	e.saving = true
	boundID := e.boundID
	e.mu.Unlock()

	payload := e.payload()
	return func(ctx context.Context) (api.Workflow, error) {
		defer func() {
			e.mu.Lock()
			e.saving = false
			e.mu.Unlock()
		}()

		var saved api.Workflow
		var err error
		if boundID == 0 {
			saved, err = e.svc.CreateWorkflowGraph(ctx, payload)
		} else {
			saved, err = e.svc.UpdateWorkflowGraph(ctx, boundID, payload)
		}
		if err != nil {
			return api.Workflow{}, err
		}

		e.mu.Lock()
		e.boundID = saved.ID
		e.version = saved.Version
		e.mu.Unlock()
		return saved, nil
	}, nil
}

// Save is BeginSave plus running the op, for callers that do not edit the
// draft while the request is outstanding.
func (e *Editor) Save(ctx context.Context) (api.Workflow, error) {
	op, err := e.BeginSave()
	if err != nil {
		return api.Workflow{}, err
	}
	return op(ctx)
}

// BeginPublish validates the draft and captures the bound record id on the
// caller's goroutine. The returned op activates the record; the status
// transition is server-side, so callers re-fetch rather than deriving it.
func (e *Editor) BeginPublish() (SaveOp, error) {
	e.mu.Lock()
	boundID := e.boundID
	e.mu.Unlock()
	if boundID == 0 {
		return nil, ErrNotBound
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return func(ctx context.Context) (api.Workflow, error) {
		return e.svc.PublishWorkflow(ctx, boundID)
	}, nil
}

// Publish is BeginPublish plus running the op.
func (e *Editor) Publish(ctx context.Context) (api.Workflow, error) {
	op, err := e.BeginPublish()
	if err != nil {
		return api.Workflow{}, err
	}
	return op(ctx)
}

// Export serializes the draft into a downloadable workflow document.
func (e *Editor) Export(now time.Time) ([]byte, error) {
	return graph.Export(e.Name, e.Description, e.ModelName, e.graph, now)
}

// Import parses a workflow document and replaces the entire draft with it,
// metadata included. On any parse or schema failure the draft is left
// exactly as it was; nothing is partially applied. Importing unbinds the
// editor: the imported graph is a new draft, not an edit of the old record.
func (e *Editor) Import(content []byte) error {
	doc, err := graph.Import(content)
	if err != nil {
		return err
	}
	e.Name = doc.Name
	e.Description = doc.Description
	if doc.ModelName != "" {
		e.ModelName = doc.ModelName
	}
	e.graph = graph.Graph{Nodes: doc.Nodes, Edges: doc.Edges}
	e.mu.Lock()
	e.boundID = 0
	e.version = 0
	e.mu.Unlock()
	return nil
}
