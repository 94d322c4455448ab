package docs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/openclaw/lifekit/internal/storage"
	"github.com/openclaw/lifekit/internal/worker"
)

// ErrNoFiles is returned when no files match the batch pattern.
var ErrNoFiles = errors.New("docs: no files match pattern")

const (
	categoryShow  = 3
	priorityLimit = 5
)

// category is an analysis bucket keyed by filename keywords.
type category struct {
	Name     string
	Keywords []string
}

// Evaluation order is fixed so output is stable.
var categories = []category{
	{"Business Strategy", []string{"strategy", "plan", "proposal", "roadmap"}},
	{"Financial", []string{"budget", "pricing", "cost", "revenue", "financial"}},
	{"Technical", []string{"architecture", "design", "implementation", "code"}},
	{"Legal", []string{"agreement", "contract", "legal", "compliance"}},
	{"Marketing", []string{"marketing", "sales", "customer", "brand"}},
}

var exampleQuestions = []string{
	"What are the key risks and mitigation strategies in this document?",
	"Identify 3-5 actionable insights from this business plan",
	"What competitive advantages does this strategy establish?",
	"Summarize the financial implications and ROI projections",
	"What compliance or regulatory issues should be addressed?",
}

// CategoryFiles is one bucket's matches (paths relative to the batch dir).
type CategoryFiles struct {
	Name  string
	Files []string
}

// BatchResult is the outcome of a directory scan.
type BatchResult struct {
	Dir        string
	Pattern    string
	Files      []string
	Stats      []*Analysis
	Categories []CategoryFiles
	Priority   []string
}

// Batch scans dir recursively for files matching pattern, categorizes
// them by filename, and gathers per-file stats through the worker pool.
// Unreadable files are skipped rather than failing the batch.
func Batch(ctx context.Context, dir, pattern string) (*BatchResult, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ok, err := filepath.Match(pattern, d.Name())
		if err != nil {
			return fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		if ok {
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s in %s", ErrNoFiles, pattern, dir)
	}
	sort.Strings(files)

	result := &BatchResult{
		Dir:     dir,
		Pattern: pattern,
		Files:   files,
	}

	for _, cat := range categories {
		var matches []string
		for _, f := range files {
			if matchesAny(f, cat.Keywords) {
				matches = append(matches, f)
			}
		}
		if len(matches) > 0 {
			result.Categories = append(result.Categories, CategoryFiles{Name: cat.Name, Files: matches})
		}
	}

	for _, f := range files {
		if len(result.Priority) == priorityLimit {
			break
		}
		for _, cat := range categories {
			if matchesAny(f, cat.Keywords) {
				result.Priority = append(result.Priority, f)
				break
			}
		}
	}

	pool := worker.NewPool[*Analysis](0)
	for _, r := range pool.Process(ctx, files, func(_ context.Context, rel string) (*Analysis, error) {
		return Analyze(filepath.Join(dir, rel))
	}) {
		if r.Err != nil {
			continue
		}
		result.Stats = append(result.Stats, r.Value)
	}

	return result, nil
}

func matchesAny(path string, keywords []string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, kw := range keywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// Render writes the analysis plan and recommended workflow.
func (b *BatchResult) Render(w io.Writer) {
	fmt.Fprintf(w, "[*] Analyzing files in: %s\n", b.Dir)
	fmt.Fprintf(w, "[*] Pattern: %s\n", b.Pattern)
	fmt.Fprintf(w, "[*] Found %d files\n", len(b.Files))

	fmt.Fprintln(w, "\n[*] Analysis Plan:")
	for _, cat := range b.Categories {
		fmt.Fprintf(w, "\n  %s:\n", cat.Name)
		show := cat.Files
		if len(show) > categoryShow {
			show = show[:categoryShow]
		}
		for _, f := range show {
			fmt.Fprintf(w, "    - %s\n", f)
		}
		if rest := len(cat.Files) - categoryShow; rest > 0 {
			fmt.Fprintf(w, "    ... and %d more\n", rest)
		}
	}

	fmt.Fprintln(w, "\n[*] Recommended Workflow:")
	fmt.Fprintln(w, "1. Upload high-value files to NotebookLM:")
	if len(b.Priority) > 0 {
		fmt.Fprintln(w, "\n   Priority files for upload:")
		for _, f := range b.Priority {
			fmt.Fprintf(w, "   - %s\n", f)
		}
	}

	fmt.Fprintln(w, "\n2. Use targeted questions:")
	fmt.Fprintln(w, "\n   Example questions to ask:")
	for i, q := range exampleQuestions {
		fmt.Fprintf(w, "   %d. %s\n", i+1, q)
	}

	fmt.Fprintln(w, "\n3. Upload instructions:")
	fmt.Fprintln(w, "   - Go to https://notebooklm.google.com")
	fmt.Fprintln(w, "   - Create new notebook for your business documents")
	fmt.Fprintln(w, "   - Upload priority files")
	fmt.Fprintln(w, "   - Use targeted questions for analysis")
}

// WriteReport writes the markdown report to path.
func (b *BatchResult) WriteReport(path string) error {
	var sb strings.Builder
	sb.WriteString("# Local File Analysis Report\n\n")
	fmt.Fprintf(&sb, "Directory: %s\n", b.Dir)
	fmt.Fprintf(&sb, "Files found: %d\n\n", len(b.Files))
	sb.WriteString("## Priority Files for Upload\n\n")
	for _, f := range b.Priority {
		fmt.Fprintf(&sb, "- %s\n", f)
	}
	return storage.WriteBytes(path, []byte(sb.String()))
}
