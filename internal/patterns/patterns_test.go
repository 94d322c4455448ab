package patterns

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var fixedNow = time.Date(2024, 3, 8, 9, 30, 0, 0, time.UTC)

func writeLog(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func newExtractor(t *testing.T) *Extractor {
	t.Helper()
	root := t.TempDir()
	memory := filepath.Join(root, "memory")
	if err := os.MkdirAll(memory, 0700); err != nil {
		t.Fatal(err)
	}
	return &Extractor{
		MemoryDir: memory,
		OutputDir: filepath.Join(root, "reports"),
		Now:       func() time.Time { return fixedNow },
	}
}

func TestExtractCountsHanWords(t *testing.T) {
	e := newExtractor(t)
	writeLog(t, e.MemoryDir, "2024-03-07.md", "今天讨论，项目计划。项目计划，进展顺利。\nsome english words\n")
	writeLog(t, e.MemoryDir, "2024-03-06.md", "项目复盘。单字 不 算。\n")

	report, err := e.Extract(context.Background(), 7)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if report.Files != 2 {
		t.Errorf("Files = %d, want 2", report.Files)
	}

	counts := make(map[string]int)
	for _, wc := range report.Words {
		counts[wc.Word] = wc.Count
	}
	// Words are maximal Han runs between punctuation, as written.
	if counts["项目计划"] != 2 {
		t.Errorf("项目计划 = %d, want 2", counts["项目计划"])
	}
	if counts["项目复盘"] != 1 {
		t.Errorf("项目复盘 = %d, want 1", counts["项目复盘"])
	}
	if _, ok := counts["不"]; ok {
		t.Error("single-rune words must not be counted")
	}
	if report.Words[0].Count < report.Words[len(report.Words)-1].Count {
		t.Error("words not sorted by count desc")
	}
}

func TestExtractWindowFiltering(t *testing.T) {
	e := newExtractor(t)
	writeLog(t, e.MemoryDir, "2024-03-07.md", "窗口内的内容")
	writeLog(t, e.MemoryDir, "2024-02-01.md", "太早的内容")
	writeLog(t, e.MemoryDir, "MEMORY-backup-2024-03-07.md", "备份内容")
	writeLog(t, e.MemoryDir, "notes.md", "没有日期的文件")

	report, err := e.Extract(context.Background(), 7)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if report.Files != 1 {
		t.Errorf("Files = %d, want 1", report.Files)
	}
	for _, wc := range report.Words {
		if strings.Contains(wc.Word, "太早") || strings.Contains(wc.Word, "备份") {
			t.Errorf("out-of-window word counted: %q", wc.Word)
		}
	}
}

func TestExtractNoLogs(t *testing.T) {
	e := newExtractor(t)
	if _, err := e.Extract(context.Background(), 7); !errors.Is(err, ErrNoLogs) {
		t.Fatalf("err = %v, want ErrNoLogs", err)
	}

	// A missing memory dir behaves the same as an empty one.
	e.MemoryDir = filepath.Join(t.TempDir(), "absent")
	if _, err := e.Extract(context.Background(), 7); !errors.Is(err, ErrNoLogs) {
		t.Fatalf("missing dir err = %v, want ErrNoLogs", err)
	}
}

func TestWriteReport(t *testing.T) {
	e := newExtractor(t)
	writeLog(t, e.MemoryDir, "2024-03-07.md", "模式提取 模式提取 模式提取")

	report, err := e.Extract(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	path, err := e.Write(report)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if filepath.Base(path) != "pattern-report-20240308.md" {
		t.Errorf("report name = %q", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	body := string(data)
	for _, want := range []string{
		"# 周度模式提取报告",
		"分析周期：过去 7 天",
		"- 模式提取: 3 次",
		"## 洞察",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("report missing %q\n%s", want, body)
		}
	}
}

func TestWriteReportCapsList(t *testing.T) {
	e := newExtractor(t)
	var sb strings.Builder
	// 15 distinct two-rune words, frequencies 15..1.
	words := []string{"苹果", "香蕉", "橘子", "葡萄", "西瓜", "草莓", "樱桃", "柠檬", "芒果", "桃子", "梨子", "李子", "柿子", "枣子", "栗子"}
	for i, w := range words {
		for j := 0; j < len(words)-i; j++ {
			sb.WriteString(w + " ")
		}
	}
	writeLog(t, e.MemoryDir, "2024-03-07.md", sb.String())

	report, err := e.Extract(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	path, err := e.Write(report)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(data), "- "); got != reportWords {
		t.Errorf("rendered %d list items, want %d", got, reportWords)
	}
	if !strings.Contains(string(data), "- 苹果: 15 次") {
		t.Errorf("top word missing:\n%s", data)
	}
}
