package graph

// Template is a pre-built workflow graph for a common approval scenario.
// Build returns a fresh copy each call so edits never leak between uses.
type Template struct {
	ID          string
	Name        string
	Description string
	Category    string
	ModelName   string
	Build       func() Graph
}

// Templates lists the built-in starter workflows, in picker order.
func Templates() []Template {
	return []Template{
		{
			ID:          "employee_onboarding",
			Name:        "Employee Onboarding",
			Description: "Multi-stage approval for new employee profiles",
			Category:    "HR",
			ModelName:   "EmployeeProfile",
			Build:       employeeOnboarding,
		},
		{
			ID:          "leave_request",
			Name:        "Leave Request",
			Description: "Manager and HR approval for leave applications",
			Category:    "HR",
			ModelName:   "LeaveRequest",
			Build:       leaveRequest,
		},
		{
			ID:          "purchase_order",
			Name:        "Purchase Order",
			Description: "Department, finance, and executive approval based on amount",
			Category:    "Finance",
			ModelName:   "PurchaseOrder",
			Build:       purchaseOrder,
		},
		{
			ID:          "expense_approval",
			Name:        "Expense Approval",
			Description: "Manager approval for employee expenses",
			Category:    "Finance",
			ModelName:   "ExpenseReport",
			Build:       expenseApproval,
		},
		{
			ID:          "budget_revision",
			Name:        "Budget Revision",
			Description: "Multi-level approval for budget changes",
			Category:    "Finance",
			ModelName:   "BudgetRevision",
			Build:       budgetRevision,
		},
	}
}

// TemplateByID looks up a starter template.
func TemplateByID(id string) (Template, bool) {
	for _, t := range Templates() {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

func employeeOnboarding() Graph {
	return Graph{
		Nodes: []Node{
			{ID: "start-1", Kind: KindStart, Position: Position{X: 250, Y: 50}, Data: &StartData{Label: "Start"}},
			{ID: "approval-1", Kind: KindApproval, Position: Position{X: 250, Y: 150}, Data: &ApprovalData{
				Label:                "HR Manager Review",
				RequiredRole:         "hr_manager",
				ApprovalType:         ApprovalSequential,
				SLAHours:             24,
				NotificationTemplate: "New employee profile requires your review",
			}},
			{ID: "approval-2", Kind: KindApproval, Position: Position{X: 250, Y: 300}, Data: &ApprovalData{
				Label:        "Department Head Approval",
				RequiredRole: "department_head",
				ApprovalType: ApprovalSequential,
				SLAHours:     48,
			}},
			{ID: "end-1", Kind: KindEnd, Position: Position{X: 250, Y: 450}, Data: &EndData{Label: "Complete"}},
		},
		Edges: []Edge{
			{ID: "e1", Source: "start-1", Target: "approval-1", Type: EdgeTypeSmoothstep},
			{ID: "e2", Source: "approval-1", Target: "approval-2", Type: EdgeTypeSmoothstep},
			{ID: "e3", Source: "approval-2", Target: "end-1", Type: EdgeTypeSmoothstep},
		},
	}
}

func leaveRequest() Graph {
	return Graph{
		Nodes: []Node{
			{ID: "start-1", Kind: KindStart, Position: Position{X: 250, Y: 50}, Data: &StartData{Label: "Submit Leave"}},
			{ID: "approval-1", Kind: KindApproval, Position: Position{X: 250, Y: 200}, Data: &ApprovalData{
				Label:        "Manager Approval",
				RequiredRole: "manager",
				ApprovalType: ApprovalSequential,
				SLAHours:     24,
			}},
			{ID: "condition-1", Kind: KindCondition, Position: Position{X: 250, Y: 350}, Data: &ConditionData{
				Label:    "Check Duration",
				Field:    "days",
				Operator: ">",
				Value:    "5",
			}},
			{ID: "approval-2", Kind: KindApproval, Position: Position{X: 100, Y: 500}, Data: &ApprovalData{
				Label:        "HR Approval",
				RequiredRole: "hr_manager",
				ApprovalType: ApprovalSequential,
				SLAHours:     48,
			}},
			{ID: "end-1", Kind: KindEnd, Position: Position{X: 250, Y: 650}, Data: &EndData{Label: "Approved"}},
		},
		Edges: []Edge{
			{ID: "e1", Source: "start-1", Target: "approval-1", Type: EdgeTypeSmoothstep},
			{ID: "e2", Source: "approval-1", Target: "condition-1", Type: EdgeTypeSmoothstep},
			{ID: "e3", Source: "condition-1", Target: "approval-2", SourceHandle: HandleTrue, Type: EdgeTypeSmoothstep},
			{ID: "e4", Source: "condition-1", Target: "end-1", SourceHandle: HandleFalse, Type: EdgeTypeSmoothstep},
			{ID: "e5", Source: "approval-2", Target: "end-1", Type: EdgeTypeSmoothstep},
		},
	}
}

// amountRouted builds the shared start → manager → amount condition →
// CFO / finance manager → end shape used by two finance templates.
func amountRouted(field, threshold string) Graph {
	return Graph{
		Nodes: []Node{
			{ID: "start-1", Kind: KindStart, Position: Position{X: 300, Y: 50}, Data: &StartData{Label: "Start"}},
			{ID: "approval-1", Kind: KindApproval, Position: Position{X: 300, Y: 150}, Data: &ApprovalData{
				Label:        "Department Manager",
				RequiredRole: "department_manager",
				ApprovalType: ApprovalSequential,
				SLAHours:     24,
			}},
			{ID: "condition-1", Kind: KindCondition, Position: Position{X: 300, Y: 300}, Data: &ConditionData{
				Label:    "Check Amount",
				Field:    field,
				Operator: ">",
				Value:    threshold,
			}},
			{ID: "approval-2", Kind: KindApproval, Position: Position{X: 150, Y: 450}, Data: &ApprovalData{
				Label:        "CFO Approval",
				RequiredRole: "cfo",
				ApprovalType: ApprovalSequential,
				SLAHours:     72,
			}},
			{ID: "approval-3", Kind: KindApproval, Position: Position{X: 450, Y: 450}, Data: &ApprovalData{
				Label:        "Finance Manager",
				RequiredRole: "finance_manager",
				ApprovalType: ApprovalSequential,
				SLAHours:     48,
			}},
			{ID: "end-1", Kind: KindEnd, Position: Position{X: 300, Y: 600}, Data: &EndData{Label: "Approved"}},
		},
		Edges: []Edge{
			{ID: "e1", Source: "start-1", Target: "approval-1", Type: EdgeTypeSmoothstep},
			{ID: "e2", Source: "approval-1", Target: "condition-1", Type: EdgeTypeSmoothstep},
			{ID: "e3", Source: "condition-1", Target: "approval-2", SourceHandle: HandleTrue, Type: EdgeTypeSmoothstep},
			{ID: "e4", Source: "condition-1", Target: "approval-3", SourceHandle: HandleFalse, Type: EdgeTypeSmoothstep},
			{ID: "e5", Source: "approval-2", Target: "end-1", Type: EdgeTypeSmoothstep},
			{ID: "e6", Source: "approval-3", Target: "end-1", Type: EdgeTypeSmoothstep},
		},
	}
}

func purchaseOrder() Graph {
	return amountRouted("total_amount", "10000")
}

func budgetRevision() Graph {
	return amountRouted("revision_amount", "5000")
}

func expenseApproval() Graph {
	return Graph{
		Nodes: []Node{
			{ID: "start-1", Kind: KindStart, Position: Position{X: 250, Y: 50}, Data: &StartData{Label: "Submit Expense"}},
			{ID: "approval-1", Kind: KindApproval, Position: Position{X: 250, Y: 200}, Data: &ApprovalData{
				Label:        "Manager Approval",
				RequiredRole: "manager",
				ApprovalType: ApprovalSequential,
				SLAHours:     48,
			}},
			{ID: "end-1", Kind: KindEnd, Position: Position{X: 250, Y: 350}, Data: &EndData{Label: "Approved"}},
		},
		Edges: []Edge{
			{ID: "e1", Source: "start-1", Target: "approval-1", Type: EdgeTypeSmoothstep},
			{ID: "e2", Source: "approval-1", Target: "end-1", Type: EdgeTypeSmoothstep},
		},
	}
}
