// Package soul harvests insights from the chitin CLI and maintains the
// persona sections of SOUL.md.
package soul

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/openclaw/lifekit/internal/storage"
)

// ErrChitinMissing is returned when the chitin binary is not on PATH.
var ErrChitinMissing = errors.New("soul: chitin command not found")

const insightsPerType = 3

// Markers delimit the managed insight block inside SOUL.md.
const (
	markerBegin = "<!-- lifekit:insights -->"
	markerEnd   = "<!-- /lifekit:insights -->"
)

// insightType pairs a chitin type name with its section heading.
type insightType struct {
	Name    string
	Heading string
}

var insightTypes = []insightType{
	{"behavioral", "行为模式"},
	{"personality", "人格特质"},
	{"relational", "关系动态"},
	{"principle", "核心原则"},
	{"skill", "技能经验"},
}

// Insight is one extracted claim with its confidence score.
type Insight struct {
	Claim      string  `json:"claim"`
	Confidence float64 `json:"confidence"`
}

// Runner executes an external command and returns its stdout. Injectable
// so tests can fake chitin.
type Runner func(ctx context.Context, name string, args ...string) (string, error)

// ExecRunner runs commands via os/exec, discarding stderr like the
// chitin invocations always have.
func ExecRunner(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// Evolver drives a chitin-backed SOUL.md update.
type Evolver struct {
	SoulPath  string
	BackupDir string
	Command   string
	Run       Runner
	Log       *zap.Logger

	// Now is the clock, injectable for tests.
	Now func() time.Time
}

func (e *Evolver) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Evolver) log() *zap.Logger {
	if e.Log != nil {
		return e.Log
	}
	return zap.NewNop()
}

func (e *Evolver) runner() Runner {
	if e.Run != nil {
		return e.Run
	}
	return ExecRunner
}

// CheckBinary reports ErrChitinMissing when the configured command is
// not on PATH. Callers using a custom Runner may skip this.
func (e *Evolver) CheckBinary() error {
	if _, err := exec.LookPath(e.Command); err != nil {
		return fmt.Errorf("%w: %s", ErrChitinMissing, e.Command)
	}
	return nil
}

// Stats returns the raw output of `chitin stats`.
func (e *Evolver) Stats(ctx context.Context) string {
	out, err := e.runner()(ctx, e.Command, "stats")
	if err != nil {
		e.log().Debug("chitin stats failed", zap.Error(err))
		return ""
	}
	return out
}

// insights lists up to insightsPerType insights of one type. Failures
// and unparseable output degrade to an empty list.
func (e *Evolver) insights(ctx context.Context, typeName string) []Insight {
	out, err := e.runner()(ctx, e.Command, "list", "--type", typeName, "--json")
	if err != nil || !strings.HasPrefix(out, "[") {
		if err != nil {
			e.log().Debug("chitin list failed", zap.String("type", typeName), zap.Error(err))
		}
		return nil
	}

	var insights []Insight
	if err := json.Unmarshal([]byte(out), &insights); err != nil {
		e.log().Debug("chitin list unparseable", zap.String("type", typeName), zap.Error(err))
		return nil
	}
	if len(insights) > insightsPerType {
		insights = insights[:insightsPerType]
	}
	return insights
}

// Generate collects insights for every type and renders the persona
// sections. Returns "" when no type yields insights.
func (e *Evolver) Generate(ctx context.Context) string {
	var lines []string
	for _, it := range insightTypes {
		insights := e.insights(ctx, it.Name)
		if len(insights) == 0 {
			continue
		}
		lines = append(lines, "### "+it.Heading)
		for _, insight := range insights {
			lines = append(lines, fmt.Sprintf("- %s (置信度：%.2f)", insight.Claim, insight.Confidence))
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// Backup copies SOUL.md to memory/chitin-soul-backup-YYYYMMDD.md.
// Returns "" without error when SOUL.md does not exist yet.
func (e *Evolver) Backup() (string, error) {
	data, err := os.ReadFile(e.SoulPath)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read soul file: %w", err)
	}

	backupPath := filepath.Join(e.BackupDir, fmt.Sprintf("chitin-soul-backup-%s.md", e.now().Format("20060102")))
	if err := storage.WriteBytes(backupPath, data); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	return backupPath, nil
}

// Write replaces the managed insight block in SOUL.md with content,
// appending the block (under a 人格洞察 heading) when no markers exist.
// A missing SOUL.md is created.
func (e *Evolver) Write(content string) error {
	existing, err := os.ReadFile(e.SoulPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read soul file: %w", err)
	}

	block := markerBegin + "\n" + strings.TrimRight(content, "\n") + "\n" + markerEnd
	body := string(existing)

	begin := strings.Index(body, markerBegin)
	end := strings.Index(body, markerEnd)
	switch {
	case begin >= 0 && end > begin:
		body = body[:begin] + block + body[end+len(markerEnd):]
	default:
		if body != "" && !strings.HasSuffix(body, "\n") {
			body += "\n"
		}
		body += "\n## 人格洞察\n\n" + block + "\n"
	}

	return storage.WriteBytes(e.SoulPath, []byte(body))
}
