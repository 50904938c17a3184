package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// ListPolicies returns ABAC policies, optionally filtered.
func (c *Client) ListPolicies(ctx context.Context, filter PolicyFilter) ([]Policy, error) {
	query := url.Values{}
	if filter.ResourceType != "" {
		query.Set("resource_type", filter.ResourceType)
	}
	if filter.Action != "" {
		query.Set("action", filter.Action)
	}
	if filter.IsActive != nil {
		query.Set("is_active", strconv.FormatBool(*filter.IsActive))
	}
	var out []Policy
	err := c.do(ctx, http.MethodGet, "/api/v1/abac/policies", query, nil, &out)
	return out, err
}

// CreatePolicy creates a new ABAC policy.
func (c *Client) CreatePolicy(ctx context.Context, req PolicyRequest) (Policy, error) {
	var out Policy
	err := c.do(ctx, http.MethodPost, "/api/v1/abac/policies", nil, req, &out)
	return out, err
}

// UpdatePolicy updates an existing policy; unset fields are unchanged.
func (c *Client) UpdatePolicy(ctx context.Context, id int, req PolicyRequest) (Policy, error) {
	var out Policy
	err := c.do(ctx, http.MethodPut, "/api/v1/abac/policies/"+strconv.Itoa(id), nil, req, &out)
	return out, err
}

// DeletePolicy removes a policy.
func (c *Client) DeletePolicy(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/abac/policies/"+strconv.Itoa(id), nil, nil, nil)
}

// CheckAccess asks the evaluator whether the current user may perform an
// action on a resource.
func (c *Client) CheckAccess(ctx context.Context, req AccessCheckRequest) (AccessCheckResponse, error) {
	var out AccessCheckResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/abac/check-access", nil, req, &out)
	return out, err
}

// AuditLogs returns access-decision records, newest first.
func (c *Client) AuditLogs(ctx context.Context, filter AuditLogFilter) ([]AuditLog, error) {
	query := url.Values{}
	if filter.UserID != 0 {
		query.Set("user_id", strconv.Itoa(filter.UserID))
	}
	if filter.ResourceType != "" {
		query.Set("resource_type", filter.ResourceType)
	}
	if filter.Action != "" {
		query.Set("action", filter.Action)
	}
	if filter.Decision != "" {
		query.Set("decision", filter.Decision)
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}
	var out []AuditLog
	err := c.do(ctx, http.MethodGet, "/api/v1/abac/audit-logs", query, nil, &out)
	return out, err
}

// UserAttributes fetches one user's ABAC attributes.
func (c *Client) UserAttributes(ctx context.Context, userID int) (UserAttributes, error) {
	var out UserAttributes
	err := c.do(ctx, http.MethodGet, "/api/v1/abac/users/"+strconv.Itoa(userID)+"/attributes", nil, nil, &out)
	return out, err
}

// UpdateUserAttributes replaces the provided attributes on one user.
func (c *Client) UpdateUserAttributes(ctx context.Context, userID int, attrs UserAttributes) (UserAttributes, error) {
	var out UserAttributes
	err := c.do(ctx, http.MethodPut, "/api/v1/abac/users/"+strconv.Itoa(userID)+"/attributes", nil, attrs, &out)
	return out, err
}
