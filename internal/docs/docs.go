// Package docs analyzes local documents: single-file summaries and
// batch directory categorization for knowledge-tool upload planning.
package docs

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

const previewRunes = 500

// Analysis is the summary of one document.
type Analysis struct {
	Path    string `json:"path"`
	Runes   int    `json:"chars"`
	Lines   int    `json:"lines"`
	Preview string `json:"preview"`
}

// Analyze reads a file and computes its summary.
func Analyze(path string) (*Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	content := string(data)

	return &Analysis{
		Path:    path,
		Runes:   utf8.RuneCountInString(content),
		Lines:   countLines(content),
		Preview: truncateRunes(content, previewRunes),
	}, nil
}

// Render writes the framed text summary.
func (a *Analysis) Render(w io.Writer) {
	frame := strings.Repeat("=", 60)
	fmt.Fprintf(w, "\n%s\n", frame)
	fmt.Fprintf(w, "📄 文件：%s\n", a.Path)
	fmt.Fprintf(w, "%s\n", frame)
	fmt.Fprintf(w, "字数：%d 字符\n", a.Runes)
	fmt.Fprintf(w, "行数：%d 行\n", a.Lines)
	fmt.Fprintf(w, "\n📝 内容预览（前 %d 字）：\n\n", previewRunes)
	fmt.Fprintln(w, a.Preview)
	fmt.Fprintln(w, "\n...")
	fmt.Fprintf(w, "\n%s\n", frame)
}

// countLines matches splitlines semantics: a trailing newline does not
// add an empty final line.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
