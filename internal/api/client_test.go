package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListWorkflowsSendsTokenAndFilter(t *testing.T) {
	var gotAuth, gotFilter string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/workflows" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		gotFilter = r.URL.Query().Get("status_filter")
		_ = json.NewEncoder(w).Encode([]Workflow{{ID: 7, Name: "Leave Request", Status: StatusActive}})
	}))
	defer server.Close()

	client := New(server.URL, "tok-123")
	workflows, err := client.ListWorkflows(context.Background(), StatusActive)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("authorization header %q", gotAuth)
	}
	if gotFilter != "active" {
		t.Fatalf("status filter %q", gotFilter)
	}
	if len(workflows) != 1 || workflows[0].ID != 7 {
		t.Fatalf("unexpected workflows %+v", workflows)
	}
}

func TestUnauthorizedMapsToSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail": "Not authenticated"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := New(server.URL, "expired")
	_, err := client.Stats(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestBackendDetailSurfacedVerbatim(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail": "Cannot publish incomplete workflow: Stage 'Review' missing required approvers"}`))
	}))
	defer server.Close()

	client := New(server.URL, "tok")
	_, err := client.PublishWorkflow(context.Background(), 3)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Fatalf("status %d", apiErr.Status)
	}
	if apiErr.Error() != "Cannot publish incomplete workflow: Stage 'Review' missing required approvers" {
		t.Fatalf("detail not surfaced verbatim: %q", apiErr.Error())
	}
}

func TestErrorFallsBackToStatusCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer server.Close()

	client := New(server.URL, "tok")
	_, err := client.GetWorkflow(context.Background(), 1)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if apiErr.Error() != "request failed with status 502" {
		t.Fatalf("fallback message %q", apiErr.Error())
	}
}

func TestCloneWorkflowDoesNotTouchSourceID(t *testing.T) {
	var gotPath string
	var gotBody struct {
		NewName string `json:"new_name"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode clone body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(Workflow{ID: 42, Name: gotBody.NewName, Status: StatusDraft})
	}))
	defer server.Close()

	client := New(server.URL, "tok")
	cloned, err := client.CloneWorkflow(context.Background(), 7, "Leave Request v2")
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	if gotPath != "/api/v1/workflows/7/clone" {
		t.Fatalf("clone path %q", gotPath)
	}
	if gotBody.NewName != "Leave Request v2" {
		t.Fatalf("clone body %+v", gotBody)
	}
	if cloned.ID == 7 {
		t.Fatalf("clone must come back as a new record, got source id")
	}
}

func TestActOnInstancePostsActionAndComment(t *testing.T) {
	var gotBody ActionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/workflows/instances/11/actions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(Instance{ID: 11, Status: "approved"})
	}))
	defer server.Close()

	client := New(server.URL, "tok")
	instance, err := client.ActOnInstance(context.Background(), 11, ActionApprove, "looks good")
	if err != nil {
		t.Fatalf("act: %v", err)
	}
	if gotBody.Action != ActionApprove || gotBody.Comment != "looks good" {
		t.Fatalf("unexpected action body %+v", gotBody)
	}
	if instance.Status != "approved" {
		t.Fatalf("unexpected instance %+v", instance)
	}
}

func TestWithTokenLeavesOriginalUntouched(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode([]Policy{})
	}))
	defer server.Close()

	original := New(server.URL, "old")
	rebound := original.WithToken("new")
	if _, err := rebound.ListPolicies(context.Background(), PolicyFilter{}); err != nil {
		t.Fatalf("list policies: %v", err)
	}
	if gotAuth != "Bearer new" {
		t.Fatalf("rebound client sent %q", gotAuth)
	}
	if _, err := original.ListPolicies(context.Background(), PolicyFilter{}); err != nil {
		t.Fatalf("list policies: %v", err)
	}
	if gotAuth != "Bearer old" {
		t.Fatalf("original client sent %q", gotAuth)
	}
}
