package soul

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var fixedNow = time.Date(2024, 3, 8, 14, 0, 0, 0, time.UTC)

// fakeChitin returns canned output per `list --type <t>` invocation.
func fakeChitin(byType map[string]string, stats string) Runner {
	return func(_ context.Context, name string, args ...string) (string, error) {
		if len(args) > 0 && args[0] == "stats" {
			return stats, nil
		}
		if len(args) >= 3 && args[0] == "list" {
			out, ok := byType[args[2]]
			if !ok {
				return "", errors.New("exit status 1")
			}
			return out, nil
		}
		return "", errors.New("unexpected invocation")
	}
}

func newEvolver(t *testing.T, run Runner) *Evolver {
	t.Helper()
	root := t.TempDir()
	return &Evolver{
		SoulPath:  filepath.Join(root, "SOUL.md"),
		BackupDir: filepath.Join(root, "memory"),
		Command:   "chitin",
		Run:       run,
		Now:       func() time.Time { return fixedNow },
	}
}

func TestGenerateSections(t *testing.T) {
	e := newEvolver(t, fakeChitin(map[string]string{
		"behavioral":  `[{"claim":"晚间效率更高","confidence":0.91},{"claim":"偏好书面沟通","confidence":0.72}]`,
		"principle":   `[{"claim":"先验证再扩张","confidence":0.88}]`,
		"personality": `[]`,
	}, ""))

	got := e.Generate(context.Background())
	for _, want := range []string{
		"### 行为模式",
		"- 晚间效率更高 (置信度：0.91)",
		"- 偏好书面沟通 (置信度：0.72)",
		"### 核心原则",
		"- 先验证再扩张 (置信度：0.88)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
	// Empty and failing types produce no heading.
	if strings.Contains(got, "人格特质") || strings.Contains(got, "关系动态") {
		t.Errorf("empty type rendered:\n%s", got)
	}
	// Heading order follows the fixed type order.
	if strings.Index(got, "行为模式") > strings.Index(got, "核心原则") {
		t.Error("sections out of order")
	}
}

func TestGenerateCapsPerType(t *testing.T) {
	e := newEvolver(t, fakeChitin(map[string]string{
		"skill": `[{"claim":"a","confidence":1},{"claim":"b","confidence":1},{"claim":"c","confidence":1},{"claim":"d","confidence":1}]`,
	}, ""))

	got := e.Generate(context.Background())
	if n := strings.Count(got, "- "); n != insightsPerType {
		t.Errorf("rendered %d insights, want %d", n, insightsPerType)
	}
}

func TestGenerateToleratesGarbage(t *testing.T) {
	e := newEvolver(t, fakeChitin(map[string]string{
		"behavioral": `error: database locked`,
		"skill":      `[not json`,
	}, ""))

	if got := e.Generate(context.Background()); got != "" {
		t.Errorf("expected empty output, got:\n%s", got)
	}
}

func TestBackup(t *testing.T) {
	e := newEvolver(t, nil)

	// No SOUL.md yet: no backup, no error.
	path, err := e.Backup()
	if err != nil || path != "" {
		t.Fatalf("Backup() = %q, %v", path, err)
	}

	if err := os.WriteFile(e.SoulPath, []byte("# SOUL\n身份内容\n"), 0600); err != nil {
		t.Fatal(err)
	}
	path, err = e.Backup()
	if err != nil {
		t.Fatalf("Backup: %v", err)
	}
	if filepath.Base(path) != "chitin-soul-backup-20240308.md" {
		t.Errorf("backup name = %q", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "# SOUL\n身份内容\n" {
		t.Errorf("backup content = %q", data)
	}
}

func TestWriteCreatesManagedBlock(t *testing.T) {
	e := newEvolver(t, nil)
	if err := os.WriteFile(e.SoulPath, []byte("# SOUL\n\n## 身份\n内容\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := e.Write("### 行为模式\n- 早睡 (置信度：0.80)\n"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(e.SoulPath)
	if err != nil {
		t.Fatal(err)
	}
	body := string(data)
	if !strings.Contains(body, "## 身份") {
		t.Error("existing content lost")
	}
	if !strings.Contains(body, "## 人格洞察") {
		t.Error("insight heading missing")
	}
	if !strings.Contains(body, markerBegin) || !strings.Contains(body, markerEnd) {
		t.Error("markers missing")
	}
}

func TestWriteReplacesExistingBlock(t *testing.T) {
	e := newEvolver(t, nil)
	initial := "# SOUL\n\n## 人格洞察\n\n" + markerBegin + "\n- 旧洞察 (置信度：0.50)\n" + markerEnd + "\n\n## 其他\n保留我\n"
	if err := os.WriteFile(e.SoulPath, []byte(initial), 0600); err != nil {
		t.Fatal(err)
	}

	if err := e.Write("- 新洞察 (置信度：0.95)"); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(e.SoulPath)
	if err != nil {
		t.Fatal(err)
	}
	body := string(data)
	if strings.Contains(body, "旧洞察") {
		t.Error("old block content survived")
	}
	if !strings.Contains(body, "新洞察") {
		t.Error("new content missing")
	}
	if !strings.Contains(body, "保留我") {
		t.Error("content after block lost")
	}
	if strings.Count(body, markerBegin) != 1 {
		t.Error("duplicate managed block")
	}
	// Heading is not duplicated on replace.
	if strings.Count(body, "## 人格洞察") != 1 {
		t.Error("duplicate insight heading")
	}
}

func TestWriteCreatesMissingSoulFile(t *testing.T) {
	e := newEvolver(t, nil)
	if err := e.Write("- 洞察 (置信度：0.70)"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(e.SoulPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "## 人格洞察") {
		t.Errorf("unexpected content: %q", data)
	}
}
