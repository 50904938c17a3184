// Package graph holds the client-side model of an approval workflow graph:
// typed nodes, edges between them, structural validation, and the
// export/import codec. The authoritative copy of a workflow always lives
// server-side; a Graph is a disposable working copy until saved.
package graph

import (
	"encoding/json"
	"fmt"
)

// Kind identifies the variant of a node.
type Kind string

const (
	KindStart     Kind = "start"
	KindApproval  Kind = "approval"
	KindCondition Kind = "condition"
	KindEnd       Kind = "end"
)

// Kinds lists every node kind the designer can place, in menu order.
func Kinds() []Kind {
	return []Kind{KindStart, KindApproval, KindCondition, KindEnd}
}

// ApprovalType selects how multiple approvers on one stage are combined.
type ApprovalType string

const (
	ApprovalSequential       ApprovalType = "sequential"
	ApprovalParallelAll      ApprovalType = "parallel_all"
	ApprovalParallelAny      ApprovalType = "parallel_any"
	ApprovalParallelMajority ApprovalType = "parallel_majority"
)

// ApprovalTypes lists the selectable approval types, in form order.
func ApprovalTypes() []ApprovalType {
	return []ApprovalType{
		ApprovalSequential,
		ApprovalParallelAll,
		ApprovalParallelAny,
		ApprovalParallelMajority,
	}
}

// ConditionOperators are the comparison operators a condition node accepts.
var ConditionOperators = []string{">", "<", "==", "!=", "in"}

// Position is the advisory 2-D placement of a node, persisted for layout only.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData is the kind-specific payload of a node. Concrete types are
// *StartData, *ApprovalData, *ConditionData and *EndData; consumers select
// behavior by exhaustive type switch rather than inspecting kind strings.
type NodeData interface {
	NodeKind() Kind
	Clone() NodeData
}

// StartData is the payload of a start node.
type StartData struct {
	Label string `json:"label"`
}

func (d *StartData) NodeKind() Kind  { return KindStart }
func (d *StartData) Clone() NodeData { dup := *d; return &dup }

// EndData is the payload of an end node.
type EndData struct {
	Label string `json:"label"`
}

func (d *EndData) NodeKind() Kind  { return KindEnd }
func (d *EndData) Clone() NodeData { dup := *d; return &dup }

// ConditionData is the payload of a condition node. The comparison is
// evaluated server-side against the target resource; the two outgoing
// branches use the named source handles HandleTrue and HandleFalse.
type ConditionData struct {
	Label    string `json:"label"`
	Field    string `json:"condition_field,omitempty"`
	Operator string `json:"condition_operator,omitempty"`
	Value    string `json:"condition_value,omitempty"`
}

func (d *ConditionData) NodeKind() Kind  { return KindCondition }
func (d *ConditionData) Clone() NodeData { dup := *d; return &dup }

// ApprovalData is the payload of an approval node. RequiredRoles carry OR
// semantics alongside the single RequiredRole; ABAC conditions are implicitly
// ANDed by the backend.
type ApprovalData struct {
	Label                  string          `json:"label"`
	RequiredRole           string          `json:"required_role,omitempty"`
	RequiredRoles          []string        `json:"required_roles,omitempty"`
	SpecificUsers          []int           `json:"specific_users,omitempty"`
	ApprovalType           ApprovalType    `json:"approval_type,omitempty"`
	RequiredApprovalsCount int             `json:"required_approvals_count,omitempty"`
	ABACEnabled            bool            `json:"abac_enabled,omitempty"`
	ABACConditions         []ABACCondition `json:"abac_conditions,omitempty"`
	SLAHours               int             `json:"sla_hours,omitempty"`
	AutoEscalate           bool            `json:"auto_escalate,omitempty"`
	EscalationRole         string          `json:"escalation_role,omitempty"`
	EscalationUserID       int             `json:"escalation_user_id,omitempty"`
	NotificationTemplate   string          `json:"notification_template,omitempty"`
	CustomAction           string          `json:"custom_action,omitempty"`
}

func (d *ApprovalData) NodeKind() Kind { return KindApproval }

func (d *ApprovalData) Clone() NodeData {
	dup := *d
	if d.RequiredRoles != nil {
		dup.RequiredRoles = append([]string(nil), d.RequiredRoles...)
	}
	if d.SpecificUsers != nil {
		dup.SpecificUsers = append([]int(nil), d.SpecificUsers...)
	}
	if d.ABACConditions != nil {
		dup.ABACConditions = append([]ABACCondition(nil), d.ABACConditions...)
	}
	return &dup
}

// HasApprovers reports whether the stage names at least one authorization
// path: a single role, a role list, or specific users.
func (d *ApprovalData) HasApprovers() bool {
	return d.RequiredRole != "" || len(d.RequiredRoles) > 0 || len(d.SpecificUsers) > 0
}

// Node is one vertex of the workflow graph. IDs are client-generated and
// unique within a graph.
type Node struct {
	ID       string
	Kind     Kind
	Position Position
	Data     NodeData
}

// Label returns the display label of any node payload.
func (n Node) Label() string {
	switch d := n.Data.(type) {
	case *StartData:
		return d.Label
	case *ApprovalData:
		return d.Label
	case *ConditionData:
		return d.Label
	case *EndData:
		return d.Label
	default:
		return n.ID
	}
}

type nodeWire struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Position Position        `json:"position"`
	Data     json.RawMessage `json:"data"`
}

// MarshalJSON writes the node in the wire format the backend stores:
// {"id": ..., "type": ..., "position": {...}, "data": {...}}.
func (n Node) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(n.Data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(nodeWire{
		ID:       n.ID,
		Type:     string(n.Kind),
		Position: n.Position,
		Data:     data,
	})
}

// UnmarshalJSON decodes the payload into the concrete variant named by the
// wire "type" field.
func (n *Node) UnmarshalJSON(b []byte) error {
	var wire nodeWire
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}
	data, err := decodeNodeData(Kind(wire.Type), wire.Data)
	if err != nil {
		return fmt.Errorf("node %s: %w", wire.ID, err)
	}
	n.ID = wire.ID
	n.Kind = Kind(wire.Type)
	n.Position = wire.Position
	n.Data = data
	return nil
}

func decodeNodeData(kind Kind, raw json.RawMessage) (NodeData, error) {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	switch kind {
	case KindStart:
		var d StartData
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, err
		}
		return &d, nil
	case KindApproval:
		var d ApprovalData
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, err
		}
		return &d, nil
	case KindCondition:
		var d ConditionData
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, err
		}
		return &d, nil
	case KindEnd:
		var d EndData
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, err
		}
		return &d, nil
	default:
		return nil, fmt.Errorf("unknown node kind %q", kind)
	}
}
