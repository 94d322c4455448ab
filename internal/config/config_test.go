package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Workspace == "" {
		t.Error("expected non-empty default workspace")
	}
	if cfg.Output != "text" {
		t.Errorf("default output = %q, want text", cfg.Output)
	}
	if cfg.Feishu.PageSize != 50 {
		t.Errorf("default page size = %d, want 50", cfg.Feishu.PageSize)
	}
	if cfg.Chitin.Command != "chitin" {
		t.Errorf("default chitin command = %q", cfg.Chitin.Command)
	}
}

func TestMergePrecedence(t *testing.T) {
	dst := Default()
	src := &Config{
		Workspace: "/tmp/ws",
		Output:    "json",
		Feishu:    FeishuConfig{AppID: "cli_abc", PageSize: 20},
	}

	merged := merge(dst, src)

	if merged.Workspace != "/tmp/ws" {
		t.Errorf("workspace = %q, want /tmp/ws", merged.Workspace)
	}
	if merged.Output != "json" {
		t.Errorf("output = %q, want json", merged.Output)
	}
	if merged.Feishu.PageSize != 20 {
		t.Errorf("page size = %d, want 20", merged.Feishu.PageSize)
	}
	// Unset src fields keep defaults.
	if merged.Feishu.BaseURL != "https://open.feishu.com" {
		t.Errorf("base URL = %q, want default", merged.Feishu.BaseURL)
	}
	if merged.Cognee.Dataset != "default" {
		t.Errorf("dataset = %q, want default", merged.Cognee.Dataset)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "workspace: /data/ws\noutput: json\nfeishu:\n  app_id: cli_test\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadFromPath(path)
	if err != nil {
		t.Fatalf("loadFromPath: %v", err)
	}
	if cfg.Workspace != "/data/ws" {
		t.Errorf("workspace = %q", cfg.Workspace)
	}
	if cfg.Feishu.AppID != "cli_test" {
		t.Errorf("app_id = %q", cfg.Feishu.AppID)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("LIFEKIT_WORKSPACE", "/env/ws")
	t.Setenv("LIFEKIT_OUTPUT", "json")
	t.Setenv("LIFEKIT_FEISHU_PAGE_SIZE", "25")
	// Keep host configs out of the test.
	t.Setenv("LIFEKIT_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workspace != "/env/ws" {
		t.Errorf("workspace = %q, want /env/ws", cfg.Workspace)
	}
	if cfg.Output != "json" {
		t.Errorf("output = %q, want json", cfg.Output)
	}
	if cfg.Feishu.PageSize != 25 {
		t.Errorf("page size = %d, want 25", cfg.Feishu.PageSize)
	}
}

func TestLoadFlagsBeatEnv(t *testing.T) {
	t.Setenv("LIFEKIT_WORKSPACE", "/env/ws")
	t.Setenv("LIFEKIT_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load(&Config{Workspace: "/flag/ws"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workspace != "/flag/ws" {
		t.Errorf("workspace = %q, want /flag/ws", cfg.Workspace)
	}
}

func TestLoadReadsWorkspaceConfigFromFlagWorkspace(t *testing.T) {
	t.Setenv("LIFEKIT_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	ws := t.TempDir()
	content := "feishu:\n  app_id: cli_from_ws_config\n"
	if err := os.WriteFile(filepath.Join(ws, ".lifekit.yaml"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(&Config{Workspace: ws})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workspace != ws {
		t.Errorf("workspace = %q, want %q", cfg.Workspace, ws)
	}
	if cfg.Feishu.AppID != "cli_from_ws_config" {
		t.Errorf("app_id = %q, want cli_from_ws_config", cfg.Feishu.AppID)
	}
}

func TestLoadReadsWorkspaceConfigFromEnvWorkspace(t *testing.T) {
	t.Setenv("LIFEKIT_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	ws := t.TempDir()
	content := "cognee:\n  dataset: ws-dataset\n"
	if err := os.WriteFile(filepath.Join(ws, ".lifekit.yaml"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LIFEKIT_WORKSPACE", ws)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cognee.Dataset != "ws-dataset" {
		t.Errorf("dataset = %q, want ws-dataset", cfg.Cognee.Dataset)
	}
}

func TestLoadEnvBeatsWorkspaceConfig(t *testing.T) {
	t.Setenv("LIFEKIT_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	ws := t.TempDir()
	content := "feishu:\n  app_id: cli_from_ws_config\n"
	if err := os.WriteFile(filepath.Join(ws, ".lifekit.yaml"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LIFEKIT_WORKSPACE", ws)
	t.Setenv("LIFEKIT_FEISHU_APP_ID", "cli_from_env")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Feishu.AppID != "cli_from_env" {
		t.Errorf("app_id = %q, want cli_from_env", cfg.Feishu.AppID)
	}
}

func TestLoadHeadlessFalseFromConfig(t *testing.T) {
	home := filepath.Join(t.TempDir(), "config.yaml")
	content := "notebook:\n  headless: false\n"
	if err := os.WriteFile(home, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LIFEKIT_CONFIG", home)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Notebook.Headless {
		t.Error("headless: false in config was ignored")
	}
}

func TestMergeHeadlessRequiresExplicitSet(t *testing.T) {
	dst := Default()

	// An unset src leaves the headless default alone.
	merged := merge(dst, &Config{})
	if !merged.Notebook.Headless {
		t.Error("unset src must not clear the headless default")
	}

	// An explicit false wins over the default.
	src := &Config{}
	src.Notebook.HeadlessSet = true
	merged = merge(merged, src)
	if merged.Notebook.Headless {
		t.Error("explicit headless=false did not propagate")
	}
}

func TestHeadlessEnvOverride(t *testing.T) {
	t.Setenv("LIFEKIT_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("LIFEKIT_NOTEBOOK_HEADLESS", "false")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Notebook.Headless {
		t.Error("LIFEKIT_NOTEBOOK_HEADLESS=false was ignored")
	}
}

func TestValidateRejectsBadOutput(t *testing.T) {
	cfg := Default()
	cfg.Output = "xml"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error for output=xml")
	}
	verrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if len(verrs) != 1 || verrs[0].Field != "Output" {
		t.Errorf("unexpected errors: %v", verrs)
	}
}

func TestValidateRejectsBadPageSize(t *testing.T) {
	cfg := Default()
	cfg.Feishu.PageSize = 500

	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for page_size=500")
	}
}

func TestWorkspacePaths(t *testing.T) {
	cfg := &Config{Workspace: "/ws"}

	if got := cfg.DecisionsDir(); got != filepath.Join("/ws", "life", "decisions") {
		t.Errorf("DecisionsDir = %q", got)
	}
	if got := cfg.MemoryDir(); got != filepath.Join("/ws", "memory") {
		t.Errorf("MemoryDir = %q", got)
	}
	if got := cfg.SoulPath(); got != filepath.Join("/ws", "SOUL.md") {
		t.Errorf("SoulPath = %q", got)
	}
	if got := cfg.ArchivePath(); got != filepath.Join("/ws", "life", "chat", "archive.db") {
		t.Errorf("ArchivePath = %q", got)
	}
}
