package chat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleExport = `2024/03/01 09:15:22
小明: 早上好
2024/03/01 09:16:01
小红: 早！
今天有空吗
2024-03-02 14:30:00
小明: 有的
`

func TestParseReconstructsMessages(t *testing.T) {
	p := NewParser("小明")
	result, err := p.Parse(strings.NewReader(sampleExport))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(result.Messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(result.Messages))
	}
	if len(result.Target) != 2 {
		t.Errorf("got %d target messages, want 2", len(result.Target))
	}
	if len(result.Other) != 1 {
		t.Errorf("got %d other messages, want 1", len(result.Other))
	}

	first := result.Messages[0]
	if first.Date != "2024/03/01" || first.Time != "09:15:22" {
		t.Errorf("first timestamp = %s %s", first.Date, first.Time)
	}
	if first.Sender != "小明" || first.Text != "早上好" {
		t.Errorf("first = %+v", first)
	}
}

func TestParseMultilineContinuation(t *testing.T) {
	p := NewParser("小红")
	result, err := p.Parse(strings.NewReader(sampleExport))
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Target) != 1 {
		t.Fatalf("got %d target messages, want 1", len(result.Target))
	}
	want := "早！\n今天有空吗"
	if result.Target[0].Text != want {
		t.Errorf("text = %q, want %q", result.Target[0].Text, want)
	}
}

func TestParseDashDateSeparator(t *testing.T) {
	export := "2024-01-05 08:00:00\nAlice: hi\n"
	result, err := NewParser("Alice").Parse(strings.NewReader(export))
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Target) != 1 || result.Target[0].Date != "2024-01-05" {
		t.Errorf("result = %+v", result.Target)
	}
}

func TestParseFlushesLastMessageAtEOF(t *testing.T) {
	export := "2024/03/01 10:00:00\nAlice: trailing message"
	result, err := NewParser("Alice").Parse(strings.NewReader(export))
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Messages) != 1 {
		t.Fatalf("got %d messages, want 1 (EOF flush)", len(result.Messages))
	}
	if result.Messages[0].Text != "trailing message" {
		t.Errorf("text = %q", result.Messages[0].Text)
	}
}

func TestParseNewSenderFlushesPrevious(t *testing.T) {
	export := "2024/03/01 10:00:00\nAlice: one\nBob: two\n"
	result, err := NewParser("Alice").Parse(strings.NewReader(export))
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(result.Messages))
	}
	// Both share the one timestamp header.
	if result.Messages[1].Time != "10:00:00" || result.Messages[1].Sender != "Bob" {
		t.Errorf("second = %+v", result.Messages[1])
	}
}

func TestParseEmptyMessageTextKept(t *testing.T) {
	// "Alice:" with no text still yields a message with empty text.
	export := "2024/03/01 10:00:00\nAlice:\n2024/03/01 10:01:00\nAlice: real\n"
	result, err := NewParser("Alice").Parse(strings.NewReader(export))
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Target) != 2 {
		t.Fatalf("got %d target messages, want 2", len(result.Target))
	}
	if result.Target[0].Text != "" {
		t.Errorf("first text = %q, want empty", result.Target[0].Text)
	}
}

func TestParseSkipsBlankAndOrphanLines(t *testing.T) {
	export := "stray line before any header\n\n2024/03/01 10:00:00\n\nAlice: hello\n\n"
	result, err := NewParser("Alice").Parse(strings.NewReader(export))
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(result.Messages))
	}
	if result.OrphanLines != 1 {
		t.Errorf("orphan lines = %d, want 1", result.OrphanLines)
	}
}

func TestParseNoTimestampMeansNoMessages(t *testing.T) {
	export := "Alice: hi\nBob: hello\n"
	result, err := NewParser("Alice").Parse(strings.NewReader(export))
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Messages) != 0 {
		t.Errorf("got %d messages, want 0", len(result.Messages))
	}
	if result.OrphanLines != 2 {
		t.Errorf("orphan lines = %d, want 2", result.OrphanLines)
	}
}

func TestParseColonInContinuationStartsNewMessage(t *testing.T) {
	// A continuation line containing "word: rest" is indistinguishable from
	// a sender line; the parser treats it as a new sender. Documented
	// export-format limitation.
	export := "2024/03/01 10:00:00\nAlice: reminder\nnote: buy milk\n"
	result, err := NewParser("Alice").Parse(strings.NewReader(export))
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(result.Messages))
	}
	if result.Messages[1].Sender != "note" {
		t.Errorf("second sender = %q", result.Messages[1].Sender)
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.txt")
	if err := os.WriteFile(path, []byte(sampleExport), 0600); err != nil {
		t.Fatal(err)
	}

	result, err := NewParser("小明").ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(result.Messages) != 3 {
		t.Errorf("got %d messages, want 3", len(result.Messages))
	}
}

func TestParseFileMissing(t *testing.T) {
	if _, err := NewParser("x").ParseFile(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}
