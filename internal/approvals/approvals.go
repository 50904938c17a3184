// Package approvals holds the server-owned read models the dashboards
// render, plus the one derivation the client computes itself: whether a
// pending stage has outlived its SLA budget.
package approvals

import "time"

// PendingApproval is one item awaiting the current user's action.
type PendingApproval struct {
	InstanceID   int       `json:"instance_id"`
	WorkflowName string    `json:"workflow_name"`
	ResourceType string    `json:"resource_type"`
	ResourceID   int       `json:"resource_id"`
	CurrentStage string    `json:"current_stage"`
	SLAHours     int       `json:"sla_hours,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Breached reports whether the approval has been waiting longer than the
// current stage's SLA budget at the given instant. A stage without an SLA
// never breaches.
func (p PendingApproval) Breached(now time.Time) bool {
	return SLABreached(p.UpdatedAt, p.SLAHours, now)
}

// SLABreached is the pure breach rule: breach iff now − updatedAt strictly
// exceeds slaHours.
func SLABreached(updatedAt time.Time, slaHours int, now time.Time) bool {
	if slaHours <= 0 {
		return false
	}
	return now.Sub(updatedAt) > time.Duration(slaHours)*time.Hour
}

// Stats is the aggregate snapshot the dashboard header renders.
type Stats struct {
	PendingCount       int            `json:"pending_count"`
	SLABreachCount     int            `json:"sla_breach_count"`
	CompletedThisMonth int            `json:"completed_this_month"`
	ByResourceType     map[string]int `json:"by_resource_type,omitempty"`
}
