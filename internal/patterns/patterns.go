// Package patterns extracts recurring topics from recent daily logs
// and renders a markdown report.
package patterns

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"text/template"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/openclaw/lifekit/internal/storage"
)

// ErrNoLogs is returned when no daily logs fall inside the window.
var ErrNoLogs = errors.New("patterns: no recent log files found")

const (
	topWords    = 20
	reportWords = 10
	backupName  = "MEMORY-backup"
	readWorkers = 4
)

// Runs of 2+ Han runes.
var wordPattern = regexp.MustCompile(`[\p{Han}]{2,}`)

// WordCount is one topic with its occurrence count.
type WordCount struct {
	Word  string
	Count int
}

// Report holds extraction output before rendering.
type Report struct {
	GeneratedAt time.Time
	Days        int
	Files       int
	Words       []WordCount
}

// Extractor scans a memory directory of YYYY-MM-DD.md logs.
type Extractor struct {
	MemoryDir string
	OutputDir string

	// Now is the clock, injectable for tests.
	Now func() time.Time
}

func (e *Extractor) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// collect returns the log files whose basename date is within the window.
func (e *Extractor) collect(days int) ([]string, error) {
	entries, err := os.ReadDir(e.MemoryDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read memory dir: %w", err)
	}

	cutoff := e.now().AddDate(0, 0, -days)
	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".md") || strings.HasPrefix(name, backupName) {
			continue
		}
		date, err := time.Parse("2006-01-02", strings.TrimSuffix(name, ".md"))
		if err != nil {
			continue
		}
		if !date.Before(cutoff) {
			files = append(files, filepath.Join(e.MemoryDir, name))
		}
	}
	sort.Strings(files)
	return files, nil
}

// Extract reads the window's logs concurrently and counts Han word runs.
func (e *Extractor) Extract(ctx context.Context, days int) (*Report, error) {
	files, err := e.collect(days)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoLogs
	}

	contents := make([]string, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(readWorkers)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", filepath.Base(path), err)
			}
			contents[i] = string(data)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, content := range contents {
		for _, word := range wordPattern.FindAllString(content, -1) {
			counts[word]++
		}
	}

	words := make([]WordCount, 0, len(counts))
	for word, count := range counts {
		words = append(words, WordCount{Word: word, Count: count})
	}
	sort.Slice(words, func(i, j int) bool {
		if words[i].Count != words[j].Count {
			return words[i].Count > words[j].Count
		}
		return words[i].Word < words[j].Word
	})
	if len(words) > topWords {
		words = words[:topWords]
	}

	return &Report{
		GeneratedAt: e.now(),
		Days:        days,
		Files:       len(files),
		Words:       words,
	}, nil
}

const reportTemplate = `# 周度模式提取报告
生成时间：{{ .GeneratedAt.Format "2006-01-02 15:04:05" }}
分析周期：过去 {{ .Days }} 天

## 高频主题

{{ range .TopWords }}- {{ .Word }}: {{ .Count }} 次
{{ end }}
## 洞察

_需要 LLM 进一步分析语义和上下文_
`

type reportData struct {
	*Report
}

// TopWords limits the rendered list to the report cap.
func (d reportData) TopWords() []WordCount {
	if len(d.Words) > reportWords {
		return d.Words[:reportWords]
	}
	return d.Words
}

// Write renders the report to pattern-report-YYYYMMDD.md in OutputDir
// and returns the file path.
func (e *Extractor) Write(report *Report) (string, error) {
	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return "", fmt.Errorf("parse report template: %w", err)
	}

	if err := os.MkdirAll(e.OutputDir, 0700); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	path := filepath.Join(e.OutputDir, fmt.Sprintf("pattern-report-%s.md", report.GeneratedAt.Format("20060102")))
	var buf strings.Builder
	if err := tmpl.Execute(&buf, reportData{report}); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	if err := storage.WriteBytes(path, []byte(buf.String())); err != nil {
		return "", err
	}
	return path, nil
}
