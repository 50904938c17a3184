// Package api is the typed adapter over the Workflow Builder HTTP API.
// It attaches the bearer token per request, decodes the backend's
// {"detail": ...} error envelope, and maps 401 to ErrUnauthorized so the
// UI can drop to the login screen. There are no retries, no caching and
// no request queuing here; all of that is the caller's concern.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kingrea/flowdeck/internal/approvals"
)

// ErrUnauthorized signals a 401 from the backend: the stored token is
// missing, expired or revoked.
var ErrUnauthorized = errors.New("not authenticated")

// Error is a non-401 backend failure carrying the server-provided detail
// when present.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// Client calls the Workflow Builder API. The zero value is not usable;
// construct with New.
type Client struct {
	base  string
	token string
	http  *http.Client
}

// Option customizes Client construction.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// New builds a client for the given base URL. The token may be empty; calls
// then fail with ErrUnauthorized as soon as the backend rejects them.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		base:  strings.TrimRight(baseURL, "/"),
		token: token,
		http:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithToken returns a copy of the client bound to a different token. The
// original is untouched, keeping auth request-scoped rather than ambient.
func (c *Client) WithToken(token string) *Client {
	dup := *c
	dup.token = token
	return &dup
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.base + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	}
	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response for %s %s: %w", method, path, err)
	}
	return nil
}

// decodeError pulls the FastAPI-style detail field out of an error body,
// falling back to the bare status code.
func decodeError(resp *http.Response) error {
	apiErr := &Error{Status: resp.StatusCode}
	var envelope struct {
		Detail string `json:"detail"`
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err == nil && json.Unmarshal(raw, &envelope) == nil {
		apiErr.Detail = envelope.Detail
	}
	return apiErr
}

// ListWorkflows returns the definitions visible to the current user,
// optionally narrowed to one lifecycle status.
func (c *Client) ListWorkflows(ctx context.Context, status WorkflowStatus) ([]Workflow, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status_filter", string(status))
	}
	var out []Workflow
	if err := c.do(ctx, http.MethodGet, "/api/v1/workflows", query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetWorkflow fetches a single definition with its graph.
func (c *Client) GetWorkflow(ctx context.Context, id int) (Workflow, error) {
	var out Workflow
	err := c.do(ctx, http.MethodGet, "/api/v1/workflows/"+strconv.Itoa(id), nil, nil, &out)
	return out, err
}

// CreateWorkflowGraph creates a new definition from a graph payload.
func (c *Client) CreateWorkflowGraph(ctx context.Context, payload GraphPayload) (Workflow, error) {
	var out Workflow
	err := c.do(ctx, http.MethodPost, "/api/v1/workflows/graph", nil, payload, &out)
	return out, err
}

// UpdateWorkflowGraph replaces the graph of an existing definition. The
// version counter is bumped server-side.
func (c *Client) UpdateWorkflowGraph(ctx context.Context, id int, payload GraphPayload) (Workflow, error) {
	var out Workflow
	err := c.do(ctx, http.MethodPut, "/api/v1/workflows/"+strconv.Itoa(id)+"/graph", nil, payload, &out)
	return out, err
}

// PublishWorkflow activates a definition. The status transition happens
// server-side; callers should re-fetch rather than derive it locally.
func (c *Client) PublishWorkflow(ctx context.Context, id int) (Workflow, error) {
	var out Workflow
	err := c.do(ctx, http.MethodPost, "/api/v1/workflows/"+strconv.Itoa(id)+"/publish", nil, nil, &out)
	return out, err
}

// CloneWorkflow copies a definition under a new name, leaving the source
// record untouched.
func (c *Client) CloneWorkflow(ctx context.Context, id int, newName string) (Workflow, error) {
	body := struct {
		NewName string `json:"new_name"`
	}{NewName: newName}
	var out Workflow
	err := c.do(ctx, http.MethodPost, "/api/v1/workflows/"+strconv.Itoa(id)+"/clone", nil, body, &out)
	return out, err
}

// DeleteWorkflow removes a definition.
func (c *Client) DeleteWorkflow(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/workflows/"+strconv.Itoa(id), nil, nil, nil)
}

// WorkflowVersions returns a definition's change history.
func (c *Client) WorkflowVersions(ctx context.Context, id int) ([]WorkflowVersion, error) {
	var out []WorkflowVersion
	err := c.do(ctx, http.MethodGet, "/api/v1/workflows/"+strconv.Itoa(id)+"/versions", nil, nil, &out)
	return out, err
}

// StartInstance launches a workflow against a resource.
func (c *Client) StartInstance(ctx context.Context, req StartInstanceRequest) (Instance, error) {
	var out Instance
	err := c.do(ctx, http.MethodPost, "/api/v1/workflows/start", nil, req, &out)
	return out, err
}

// GetInstance fetches a running instance.
func (c *Client) GetInstance(ctx context.Context, id int) (Instance, error) {
	var out Instance
	err := c.do(ctx, http.MethodGet, "/api/v1/workflows/instances/"+strconv.Itoa(id), nil, nil, &out)
	return out, err
}

// ActOnInstance approves or rejects the current stage of an instance.
func (c *Client) ActOnInstance(ctx context.Context, id int, action, comment string) (Instance, error) {
	var out Instance
	err := c.do(ctx, http.MethodPost, "/api/v1/workflows/instances/"+strconv.Itoa(id)+"/actions", nil,
		ActionRequest{Action: action, Comment: comment}, &out)
	return out, err
}

// MyApprovals lists the items awaiting the current user's action.
func (c *Client) MyApprovals(ctx context.Context) ([]approvals.PendingApproval, error) {
	var out []approvals.PendingApproval
	err := c.do(ctx, http.MethodGet, "/api/v1/workflows/my-approvals", nil, nil, &out)
	return out, err
}

// Stats fetches the aggregate dashboard numbers.
func (c *Client) Stats(ctx context.Context) (approvals.Stats, error) {
	var out approvals.Stats
	err := c.do(ctx, http.MethodGet, "/api/v1/workflows/stats", nil, nil, &out)
	return out, err
}

// TestAuthorization evaluates a stage's authorization rules for the
// current user without acting on anything.
func (c *Client) TestAuthorization(ctx context.Context, req AuthorizationTest) (AuthorizationResult, error) {
	var out AuthorizationResult
	err := c.do(ctx, http.MethodPost, "/api/v1/workflows/test-authorization", nil, req, &out)
	return out, err
}
