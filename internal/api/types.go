package api

import (
	"time"

	"github.com/kingrea/flowdeck/internal/graph"
)

// WorkflowStatus is the server-side lifecycle state of a definition.
type WorkflowStatus string

const (
	StatusDraft    WorkflowStatus = "draft"
	StatusActive   WorkflowStatus = "active"
	StatusArchived WorkflowStatus = "archived"
)

// StatusFilters lists the list-view filter cycle; "" means no filter.
func StatusFilters() []WorkflowStatus {
	return []WorkflowStatus{"", StatusDraft, StatusActive, StatusArchived}
}

// Workflow is a workflow definition as the backend returns it.
type Workflow struct {
	ID          int            `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	ModelName   string         `json:"model_name"`
	Graph       *GraphDocument `json:"workflow_graph,omitempty"`
	Version     int            `json:"version"`
	Status      WorkflowStatus `json:"status"`
	IsTemplate  bool           `json:"is_template"`
	CreatedBy   int            `json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   *time.Time     `json:"updated_at,omitempty"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
}

// GraphDocument is the stored graph portion of a definition.
type GraphDocument struct {
	Nodes []graph.Node `json:"nodes"`
	Edges []graph.Edge `json:"edges"`
}

// GraphPayload is the body of create-from-graph and update-graph calls.
type GraphPayload struct {
	Name              string       `json:"name"`
	Description       string       `json:"description,omitempty"`
	ModelName         string       `json:"model_name"`
	Nodes             []graph.Node `json:"nodes"`
	Edges             []graph.Edge `json:"edges"`
	CanViewRoles      []string     `json:"can_view_roles,omitempty"`
	CanEditRoles      []string     `json:"can_edit_roles,omitempty"`
	CanUseRoles       []string     `json:"can_use_roles,omitempty"`
	ChangeDescription string       `json:"change_description,omitempty"`
}

// WorkflowVersion is one entry of a definition's change history.
type WorkflowVersion struct {
	ID                int       `json:"id"`
	WorkflowID        int       `json:"workflow_id"`
	VersionNumber     int       `json:"version_number"`
	ChangeDescription string    `json:"change_description,omitempty"`
	CreatedBy         int       `json:"created_by"`
	CreatedAt         time.Time `json:"created_at"`
}

// Instance action verbs accepted by the backend.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// StartInstanceRequest launches a workflow against a resource.
type StartInstanceRequest struct {
	WorkflowID   int            `json:"workflow_id"`
	ResourceType string         `json:"resource_type"`
	ResourceID   int            `json:"resource_id"`
	Context      map[string]any `json:"context,omitempty"`
}

// Instance is a running execution of a definition.
type Instance struct {
	ID           int        `json:"id"`
	WorkflowID   int        `json:"workflow_id"`
	WorkflowName string     `json:"workflow_name,omitempty"`
	ResourceType string     `json:"resource_type"`
	ResourceID   int        `json:"resource_id"`
	CurrentStage string     `json:"current_stage,omitempty"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// ActionRequest is the body of an approve/reject call on an instance.
type ActionRequest struct {
	Action  string `json:"action"`
	Comment string `json:"comment,omitempty"`
}

// AuthorizationTest asks the backend to evaluate a stage's authorization
// rules for the current user without acting on anything.
type AuthorizationTest struct {
	WorkflowID int            `json:"workflow_id"`
	NodeID     string         `json:"node_id"`
	Context    map[string]any `json:"context,omitempty"`
}

// AuthorizationResult is the backend's verdict for an authorization test.
type AuthorizationResult struct {
	Authorized bool   `json:"authorized"`
	Reason     string `json:"reason,omitempty"`
}

// Policy is an ABAC policy record.
type Policy struct {
	ID               int            `json:"id"`
	Name             string         `json:"name"`
	Description      string         `json:"description,omitempty"`
	Effect           string         `json:"effect"`
	Priority         int            `json:"priority"`
	Action           string         `json:"action"`
	ResourceType     string         `json:"resource_type"`
	Conditions       map[string]any `json:"conditions,omitempty"`
	DepartmentIDs    []int          `json:"department_ids,omitempty"`
	DivisionIDs      []int          `json:"division_ids,omitempty"`
	RoleRequirements []string       `json:"role_requirements,omitempty"`
	IsActive         bool           `json:"is_active"`
	CreatedBy        int            `json:"created_by"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        *time.Time     `json:"updated_at,omitempty"`
}

// PolicyRequest is the body of policy create and update calls. Nil fields
// are left unchanged on update.
type PolicyRequest struct {
	Name             string         `json:"name,omitempty"`
	Description      string         `json:"description,omitempty"`
	Effect           string         `json:"effect,omitempty"`
	Priority         *int           `json:"priority,omitempty"`
	Action           string         `json:"action,omitempty"`
	ResourceType     string         `json:"resource_type,omitempty"`
	Conditions       map[string]any `json:"conditions,omitempty"`
	DepartmentIDs    []int          `json:"department_ids,omitempty"`
	DivisionIDs      []int          `json:"division_ids,omitempty"`
	RoleRequirements []string       `json:"role_requirements,omitempty"`
	IsActive         *bool          `json:"is_active,omitempty"`
}

// PolicyFilter narrows policy listings.
type PolicyFilter struct {
	ResourceType string
	Action       string
	IsActive     *bool
}

// AccessCheckRequest asks whether the current user may perform an action.
type AccessCheckRequest struct {
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   int            `json:"resource_id,omitempty"`
	Context      map[string]any `json:"context,omitempty"`
}

// AccessCheckResponse is the evaluator's decision.
type AccessCheckResponse struct {
	Allowed    bool   `json:"allowed"`
	Reason     string `json:"reason"`
	PolicyID   *int   `json:"policy_id,omitempty"`
	PolicyName string `json:"policy_name,omitempty"`
}

// AuditLog is one access-decision record.
type AuditLog struct {
	ID               int       `json:"id"`
	UserID           int       `json:"user_id"`
	Action           string    `json:"action"`
	ResourceType     string    `json:"resource_type"`
	ResourceID       *int      `json:"resource_id,omitempty"`
	Decision         string    `json:"decision"`
	PolicyID         *int      `json:"policy_id,omitempty"`
	Reason           string    `json:"reason,omitempty"`
	EvaluationTimeMS *int      `json:"evaluation_time_ms,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// AuditLogFilter narrows audit-log listings. Limit defaults server-side.
type AuditLogFilter struct {
	UserID       int
	ResourceType string
	Action       string
	Decision     string
	Limit        int
}

// UserAttributes are the ABAC attributes attached to one user.
type UserAttributes struct {
	UserID                   int            `json:"user_id"`
	DepartmentID             *int           `json:"department_id,omitempty"`
	DivisionID               *int           `json:"division_id,omitempty"`
	TeamID                   *int           `json:"team_id,omitempty"`
	JobTitle                 string         `json:"job_title,omitempty"`
	JobLevel                 *int           `json:"job_level,omitempty"`
	ApprovalLimitAmount      *int           `json:"approval_limit_amount,omitempty"`
	CanApproveOwnDepartment  *bool          `json:"can_approve_own_department,omitempty"`
	CanApproveAllDepartments *bool          `json:"can_approve_all_departments,omitempty"`
	OfficeLocation           string         `json:"office_location,omitempty"`
	CountryCode              string         `json:"country_code,omitempty"`
	CustomAttributes         map[string]any `json:"custom_attributes,omitempty"`
}
