package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewConfigDefaultsWhenMissing(t *testing.T) {
	projectDir := t.TempDir()
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.BaseURL() != defaultBaseURL {
		t.Fatalf("expected default base URL %q, got %q", defaultBaseURL, c.BaseURL())
	}
	if c.Token() != "" {
		t.Fatalf("expected empty token, got %q", c.Token())
	}
	if c.DefaultModelName() != "GenericModel" {
		t.Fatalf("expected default model name, got %q", c.DefaultModelName())
	}
}

func TestInitFlowdeckDirWritesDefaultConfig(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitFlowdeckDir(projectDir); err != nil {
		t.Fatalf("InitFlowdeckDir: %v", err)
	}
	for _, sub := range []string{"logs", "exports"} {
		if _, err := os.Stat(filepath.Join(projectDir, FlowdeckDir, sub)); err != nil {
			t.Fatalf("expected %s directory: %v", sub, err)
		}
	}
	data, err := os.ReadFile(filepath.Join(projectDir, FlowdeckDir, "config.yaml"))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(data), "base_url") {
		t.Fatalf("default config missing api section:\n%s", data)
	}
}

func TestNewConfigParsesYaml(t *testing.T) {
	projectDir := t.TempDir()
	flowdeckDir := filepath.Join(projectDir, FlowdeckDir)
	if err := os.MkdirAll(flowdeckDir, 0755); err != nil {
		t.Fatal(err)
	}
	configYAML := strings.TrimSpace(`
version: 1
api:
  base_url: https://workflows.example.com
  token: abc-123
defaults:
  status_filter: active
  model_name: PurchaseOrder
`)
	if err := os.WriteFile(filepath.Join(flowdeckDir, "config.yaml"), []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig returned error: %v", err)
	}
	if c.BaseURL() != "https://workflows.example.com" {
		t.Fatalf("wrong base URL: %q", c.BaseURL())
	}
	if c.Token() != "abc-123" {
		t.Fatalf("wrong token: %q", c.Token())
	}
	if c.DefaultStatusFilter() != "active" {
		t.Fatalf("wrong status filter: %q", c.DefaultStatusFilter())
	}
	if c.DefaultModelName() != "PurchaseOrder" {
		t.Fatalf("wrong model name: %q", c.DefaultModelName())
	}
}

func TestNewConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "bad base url",
			yaml: "version: 1\napi:\n  base_url: ftp://nope\n",
			want: "base_url",
		},
		{
			name: "bad status filter",
			yaml: "version: 1\ndefaults:\n  status_filter: published\n",
			want: "status_filter",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			projectDir := t.TempDir()
			flowdeckDir := filepath.Join(projectDir, FlowdeckDir)
			if err := os.MkdirAll(flowdeckDir, 0755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(filepath.Join(flowdeckDir, "config.yaml"), []byte(tc.yaml), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := NewConfig(projectDir)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %s error, got %v", tc.want, err)
			}
		})
	}
}

func TestSetTokenPersists(t *testing.T) {
	projectDir := t.TempDir()
	if err := InitFlowdeckDir(projectDir); err != nil {
		t.Fatalf("init: %v", err)
	}
	c, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if err := c.SetToken("  tok-42  "); err != nil {
		t.Fatalf("SetToken: %v", err)
	}

	reloaded, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Token() != "tok-42" {
		t.Fatalf("token not persisted (or not trimmed): %q", reloaded.Token())
	}

	if err := reloaded.ClearToken(); err != nil {
		t.Fatalf("ClearToken: %v", err)
	}
	again, err := NewConfig(projectDir)
	if err != nil {
		t.Fatalf("reload after clear: %v", err)
	}
	if again.Token() != "" {
		t.Fatalf("token survived clear: %q", again.Token())
	}
}
