// Package config provides configuration management for lifekit.
// Configuration is loaded from (highest to lowest priority):
// 1. Command-line flags
// 2. Environment variables (LIFEKIT_*)
// 3. Workspace config (<workspace>/.lifekit.yaml)
// 4. Home config (~/.lifekit/config.yaml)
// 5. Defaults
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all lifekit configuration.
type Config struct {
	// Workspace is the root directory for all lifekit artifacts.
	Workspace string `yaml:"workspace" json:"workspace" validate:"required"`

	// Output controls the default output format (text, json).
	Output string `yaml:"output" json:"output" validate:"omitempty,oneof=text json"`

	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose" json:"verbose"`

	// Feishu settings for the chat fetcher.
	Feishu FeishuConfig `yaml:"feishu" json:"feishu"`

	// Cognee settings for the local knowledge API.
	Cognee CogneeConfig `yaml:"cognee" json:"cognee"`

	// Chitin settings for insight harvesting.
	Chitin ChitinConfig `yaml:"chitin" json:"chitin"`

	// Notebook settings for NotebookLM automation.
	Notebook NotebookConfig `yaml:"notebook" json:"notebook"`
}

// FeishuConfig holds Feishu open-api settings.
type FeishuConfig struct {
	// BaseURL is the open-api endpoint root.
	BaseURL string `yaml:"base_url" json:"base_url" validate:"omitempty,url"`

	// AppID is the Feishu application ID (cli_...).
	AppID string `yaml:"app_id" json:"app_id"`

	// AppSecret is the Feishu application secret.
	AppSecret string `yaml:"app_secret" json:"-"`

	// PageSize is the message page size per API call.
	PageSize int `yaml:"page_size" json:"page_size" validate:"omitempty,min=1,max=200"`
}

// CogneeConfig holds settings for the local cognee API.
type CogneeConfig struct {
	// BaseURL is the cognee API root.
	BaseURL string `yaml:"base_url" json:"base_url" validate:"omitempty,url"`

	// Dataset is the default dataset name.
	Dataset string `yaml:"dataset" json:"dataset"`
}

// ChitinConfig holds settings for the chitin insight CLI.
type ChitinConfig struct {
	// Command is the chitin executable name or path.
	Command string `yaml:"command" json:"command"`
}

// NotebookConfig holds settings for NotebookLM browser automation.
type NotebookConfig struct {
	// BrowserPath overrides the chromium binary lookup.
	BrowserPath string `yaml:"browser_path" json:"browser_path"`

	// ProfileDir is the persistent browser profile (holds Google auth).
	ProfileDir string `yaml:"profile_dir" json:"profile_dir"`

	// Headless runs the browser without a window.
	Headless bool `yaml:"headless" json:"headless"`

	// HeadlessSet tracks whether Headless was explicitly configured.
	// A plain bool cannot distinguish `headless: false` from unset.
	HeadlessSet bool `yaml:"-" json:"-"`

	// TimeoutSeconds bounds a single ask round-trip.
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds" validate:"omitempty,min=5,max=600"`
}

// Default config values (used in resolution and validation).
const (
	defaultOutput         = "text"
	defaultFeishuBaseURL  = "https://open.feishu.com"
	defaultFeishuPageSize = 50
	defaultCogneeBaseURL  = "http://localhost:8000/api/v1"
	defaultCogneeDataset  = "default"
	defaultChitinCommand  = "chitin"
	defaultAskTimeout     = 120
)

// Default returns the default configuration.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Workspace: filepath.Join(home, ".openclaw", "workspace"),
		Output:    defaultOutput,
		Feishu: FeishuConfig{
			BaseURL:  defaultFeishuBaseURL,
			PageSize: defaultFeishuPageSize,
		},
		Cognee: CogneeConfig{
			BaseURL: defaultCogneeBaseURL,
			Dataset: defaultCogneeDataset,
		},
		Chitin: ChitinConfig{
			Command: defaultChitinCommand,
		},
		Notebook: NotebookConfig{
			ProfileDir:     filepath.Join(home, ".lifekit", "browser"),
			Headless:       true,
			TimeoutSeconds: defaultAskTimeout,
		},
	}
}

// Load loads configuration with proper precedence.
// Priority: flags > env > workspace > home > defaults.
func Load(flagOverrides *Config) (*Config, error) {
	cfg := Default()

	homeConfig, _ := loadFromPath(homeConfigPath())
	if homeConfig != nil {
		cfg = merge(cfg, homeConfig)
	}

	// The workspace config lives inside whichever workspace the user
	// selected, so resolve that before reading it.
	wsConfig, _ := loadFromPath(workspaceConfigPath(effectiveWorkspace(cfg.Workspace, flagOverrides)))
	if wsConfig != nil {
		cfg = merge(cfg, wsConfig)
	}

	cfg = applyEnv(cfg)

	if flagOverrides != nil {
		cfg = merge(cfg, flagOverrides)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// homeConfigPath returns the home config path.
func homeConfigPath() string {
	if override := strings.TrimSpace(os.Getenv("LIFEKIT_CONFIG")); override != "" {
		return override
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".lifekit", "config.yaml")
}

// effectiveWorkspace resolves the workspace directory ahead of the full
// merge: flag > env > home config / default.
func effectiveWorkspace(fromFiles string, flagOverrides *Config) string {
	if flagOverrides != nil && flagOverrides.Workspace != "" {
		return flagOverrides.Workspace
	}
	if v := os.Getenv("LIFEKIT_WORKSPACE"); v != "" {
		return v
	}
	return fromFiles
}

// workspaceConfigPath returns the per-workspace config path.
func workspaceConfigPath(workspace string) string {
	if workspace == "" {
		return ""
	}
	return filepath.Join(workspace, ".lifekit.yaml")
}

// loadFromPath loads config from a YAML file.
func loadFromPath(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Detect an explicit headless key so `headless: false` survives
	// the merge against the true default.
	var raw struct {
		Notebook struct {
			Headless *bool `yaml:"headless"`
		} `yaml:"notebook"`
	}
	if err := yaml.Unmarshal(data, &raw); err == nil && raw.Notebook.Headless != nil {
		cfg.Notebook.HeadlessSet = true
	}

	return &cfg, nil
}

// applyEnv applies environment variable overrides.
func applyEnv(cfg *Config) *Config {
	if v := os.Getenv("LIFEKIT_WORKSPACE"); v != "" {
		cfg.Workspace = v
	}
	if v := os.Getenv("LIFEKIT_OUTPUT"); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv("LIFEKIT_VERBOSE"); v == "true" || v == "1" {
		cfg.Verbose = true
	}
	if v := os.Getenv("LIFEKIT_FEISHU_BASE_URL"); v != "" {
		cfg.Feishu.BaseURL = v
	}
	if v := os.Getenv("LIFEKIT_FEISHU_APP_ID"); v != "" {
		cfg.Feishu.AppID = v
	}
	if v := os.Getenv("LIFEKIT_FEISHU_APP_SECRET"); v != "" {
		cfg.Feishu.AppSecret = v
	}
	if v := os.Getenv("LIFEKIT_FEISHU_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Feishu.PageSize = n
		}
	}
	if v := os.Getenv("LIFEKIT_COGNEE_BASE_URL"); v != "" {
		cfg.Cognee.BaseURL = v
	}
	if v := os.Getenv("LIFEKIT_COGNEE_DATASET"); v != "" {
		cfg.Cognee.Dataset = v
	}
	if v := os.Getenv("LIFEKIT_CHITIN_COMMAND"); v != "" {
		cfg.Chitin.Command = v
	}
	if v := os.Getenv("LIFEKIT_BROWSER_PATH"); v != "" {
		cfg.Notebook.BrowserPath = v
	}
	if v := os.Getenv("LIFEKIT_NOTEBOOK_HEADLESS"); v != "" {
		cfg.Notebook.Headless = v == "true" || v == "1"
		cfg.Notebook.HeadlessSet = true
	}
	return cfg
}

// mergeStr overwrites dst with src when src is non-empty.
func mergeStr(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

// mergeInt overwrites dst with src when src is non-zero.
func mergeInt(dst *int, src int) {
	if src != 0 {
		*dst = src
	}
}

// merge merges src into dst, with src values taking precedence.
func merge(dst, src *Config) *Config {
	mergeStr(&dst.Workspace, src.Workspace)
	mergeStr(&dst.Output, src.Output)
	if src.Verbose {
		dst.Verbose = true
	}

	mergeStr(&dst.Feishu.BaseURL, src.Feishu.BaseURL)
	mergeStr(&dst.Feishu.AppID, src.Feishu.AppID)
	mergeStr(&dst.Feishu.AppSecret, src.Feishu.AppSecret)
	mergeInt(&dst.Feishu.PageSize, src.Feishu.PageSize)

	mergeStr(&dst.Cognee.BaseURL, src.Cognee.BaseURL)
	mergeStr(&dst.Cognee.Dataset, src.Cognee.Dataset)

	mergeStr(&dst.Chitin.Command, src.Chitin.Command)

	mergeStr(&dst.Notebook.BrowserPath, src.Notebook.BrowserPath)
	mergeStr(&dst.Notebook.ProfileDir, src.Notebook.ProfileDir)
	if src.Notebook.HeadlessSet {
		dst.Notebook.Headless = src.Notebook.Headless
		dst.Notebook.HeadlessSet = true
	}
	mergeInt(&dst.Notebook.TimeoutSeconds, src.Notebook.TimeoutSeconds)

	return dst
}

// Workspace path accessors. All artifact locations derive from the
// workspace root; keeping them here means commands never hardcode layout.

// MemoryDir returns the daily log directory.
func (c *Config) MemoryDir() string {
	return filepath.Join(c.Workspace, "memory")
}

// DecisionsDir returns the decision record directory.
func (c *Config) DecisionsDir() string {
	return filepath.Join(c.Workspace, "life", "decisions")
}

// PatternsDir returns the pattern report output directory.
func (c *Config) PatternsDir() string {
	return filepath.Join(c.Workspace, "life", "projects", "pattern-extraction")
}

// ChatDir returns the chat fetch/parse output directory.
func (c *Config) ChatDir() string {
	return filepath.Join(c.Workspace, "life", "chat")
}

// ArchivePath returns the sqlite chat archive path.
func (c *Config) ArchivePath() string {
	return filepath.Join(c.ChatDir(), "archive.db")
}

// SoulPath returns the SOUL.md location.
func (c *Config) SoulPath() string {
	return filepath.Join(c.Workspace, "SOUL.md")
}
