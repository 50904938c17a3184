// Package config handles flowdeck's per-project settings and the .flowdeck
// directory structure. Every project that uses flowdeck gets a .flowdeck/
// folder created in its root, holding the config file, the session log and
// exported workflow documents.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FlowdeckDir is the name of the directory created in each project.
const FlowdeckDir = ".flowdeck"

const defaultBaseURL = "http://localhost:8000"

const defaultProjectConfigYAML = `# flowdeck project configuration
version: 1

api:
  # Base URL of the Workflow Builder API.
  base_url: http://localhost:8000
  # Bearer token; filled in by the login screen, or paste one here.
  token: ""

defaults:
  # Status filter the workflow list opens with ("", draft, active, archived).
  status_filter: ""
  # Target model new workflows are created against.
  model_name: GenericModel
`

// APIConfig is the api: section of .flowdeck/config.yaml.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token,omitempty"`
}

// DefaultsConfig is the defaults: section of .flowdeck/config.yaml.
type DefaultsConfig struct {
	StatusFilter string `yaml:"status_filter,omitempty"`
	ModelName    string `yaml:"model_name,omitempty"`
}

// ProjectConfig models .flowdeck/config.yaml.
type ProjectConfig struct {
	Version  int            `yaml:"version"`
	API      APIConfig      `yaml:"api"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

// Config holds the runtime configuration for flowdeck.
type Config struct {
	// ProjectDir is the directory where the user ran `flowdeck` from.
	ProjectDir string

	// FlowdeckProjectDir is ProjectDir/.flowdeck.
	FlowdeckProjectDir string

	Project ProjectConfig
}

// InitFlowdeckDir creates the .flowdeck directory structure in the given
// project directory. Called when the TUI starts up.
//
// Structure created:
// .flowdeck/
// ├── logs/        <- session logbook
// └── exports/     <- exported workflow documents
func InitFlowdeckDir(projectDir string) error {
	flowdeckDir := filepath.Join(projectDir, FlowdeckDir)

	dirs := []string{
		filepath.Join(flowdeckDir, "logs"),
		filepath.Join(flowdeckDir, "exports"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return ensureProjectConfig(filepath.Join(flowdeckDir, "config.yaml"))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0644)
}

// NewConfig creates a Config populated with project settings.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:         projectDir,
		FlowdeckProjectDir: filepath.Join(projectDir, FlowdeckDir),
		Project:            defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.FlowdeckProjectDir, "logs")
}

// ExportsDir returns where exported workflow documents are written.
func (c *Config) ExportsDir() string {
	return filepath.Join(c.FlowdeckProjectDir, "exports")
}

// ProjectConfigPath returns the on-disk location of the config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.FlowdeckProjectDir, "config.yaml")
}

// BaseURL returns the configured API base URL.
func (c *Config) BaseURL() string {
	return c.Project.API.BaseURL
}

// Token returns the stored bearer token, or "" when not logged in.
func (c *Config) Token() string {
	return c.Project.API.Token
}

// DefaultStatusFilter returns the status filter the list view opens with.
func (c *Config) DefaultStatusFilter() string {
	return c.Project.Defaults.StatusFilter
}

// DefaultModelName returns the target model new workflows start with.
func (c *Config) DefaultModelName() string {
	return c.Project.Defaults.ModelName
}

// SetToken stores the bearer token and persists it back to
// .flowdeck/config.yaml so the next launch skips the login screen.
func (c *Config) SetToken(token string) error {
	c.Project.API.Token = strings.TrimSpace(token)
	return c.saveProjectConfig()
}

// ClearToken drops the stored token, used after the backend rejects it.
func (c *Config) ClearToken() error {
	c.Project.API.Token = ""
	return c.saveProjectConfig()
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func (c *Config) saveProjectConfig() error {
	data, err := yaml.Marshal(c.Project)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.MkdirAll(c.FlowdeckProjectDir, 0755); err != nil {
		return err
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("config: write %s: %w", c.ProjectConfigPath(), err)
	}
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		API: APIConfig{
			BaseURL: defaultBaseURL,
		},
		Defaults: DefaultsConfig{
			ModelName: "GenericModel",
		},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	pc.API.BaseURL = strings.TrimSpace(pc.API.BaseURL)
	if pc.API.BaseURL == "" {
		pc.API.BaseURL = defaultBaseURL
	}
	pc.API.Token = strings.TrimSpace(pc.API.Token)
	pc.Defaults.StatusFilter = strings.TrimSpace(pc.Defaults.StatusFilter)
	if strings.TrimSpace(pc.Defaults.ModelName) == "" {
		pc.Defaults.ModelName = "GenericModel"
	}
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if !strings.HasPrefix(pc.API.BaseURL, "http://") && !strings.HasPrefix(pc.API.BaseURL, "https://") {
		return fmt.Errorf("api.base_url must be an http(s) URL, got %q", pc.API.BaseURL)
	}
	switch pc.Defaults.StatusFilter {
	case "", "draft", "active", "archived":
	default:
		return fmt.Errorf("defaults.status_filter must be one of draft, active, archived or empty, got %q", pc.Defaults.StatusFilter)
	}
	return nil
}
