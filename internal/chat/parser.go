// Package chat parses Feishu/Lark chat exports and computes frequency
// statistics over one participant's messages.
//
// The export format alternates timestamp headers and sender lines:
//
//	2024/03/01 09:15:22
//	Alice: morning
//	2024/03/01 09:16:01
//	Bob: morning!
//	second line of the same message
//
// Either / or - date separators appear in the wild.
package chat

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"
)

// Message is one reconstructed chat message.
type Message struct {
	Date   string `json:"date"`
	Time   string `json:"time"`
	Sender string `json:"sender,omitempty"`
	Text   string `json:"text"`
}

// ParseResult holds the reconstructed messages split by participant.
type ParseResult struct {
	// Messages is every message in export order.
	Messages []Message

	// Target holds messages from the target sender.
	Target []Message

	// Other holds everyone else's messages.
	Other []Message

	// TotalLines counts scanned lines, OrphanLines counts non-blank lines
	// seen before any timestamp header (they carry no attributable state
	// and are dropped).
	TotalLines  int
	OrphanLines int

	// ParsedAt is when parsing completed.
	ParsedAt time.Time
}

var (
	datePattern   = regexp.MustCompile(`^(\d{4}[-/]\d{2}[-/]\d{2})\s+(\d{2}:\d{2}:\d{2})$`)
	senderPattern = regexp.MustCompile(`^(.+?):\s*(.*)$`)
)

// Parser reconstructs multi-line messages from a flat export.
type Parser struct {
	// TargetName is the participant whose messages are split out.
	TargetName string
}

// NewParser creates a parser for the given target participant.
func NewParser(target string) *Parser {
	return &Parser{TargetName: target}
}

// parseState carries the in-flight message between lines.
type parseState struct {
	date   string
	time   string
	sender string
	text   string
	// hasText distinguishes "no message started" from an empty first line.
	hasText bool
}

// flush appends the pending message, if any, to the result.
func (p *Parser) flush(st *parseState, result *ParseResult) {
	if st.sender == "" || !st.hasText {
		return
	}
	msg := Message{Date: st.date, Time: st.time, Sender: st.sender, Text: st.text}
	result.Messages = append(result.Messages, msg)
	if st.sender == p.TargetName {
		result.Target = append(result.Target, msg)
	} else {
		result.Other = append(result.Other, msg)
	}
	st.sender = ""
	st.text = ""
	st.hasText = false
}

// Parse scans the export line by line. A timestamp header or a new sender
// line flushes the pending message; any other line extends it.
func (p *Parser) Parse(r io.Reader) (*ParseResult, error) {
	result := &ParseResult{}
	st := &parseState{}

	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		result.TotalLines++
		line := strings.TrimRight(scanner.Text(), "\n")

		if strings.TrimSpace(line) == "" {
			continue
		}

		if m := datePattern.FindStringSubmatch(line); m != nil {
			p.flush(st, result)
			st.date, st.time = m[1], m[2]
			continue
		}

		// Sender lines only count once a timestamp header established
		// date/time context.
		if st.date == "" || st.time == "" {
			result.OrphanLines++
			continue
		}

		if m := senderPattern.FindStringSubmatch(line); m != nil {
			p.flush(st, result)
			st.sender, st.text = m[1], m[2]
			st.hasText = true
			continue
		}

		if st.sender != "" {
			// Continuation of the current message.
			st.text += "\n" + line
		} else {
			result.OrphanLines++
		}
	}
	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("scan export: %w", err)
	}

	p.flush(st, result)
	result.ParsedAt = time.Now()

	return result, nil
}

// ParseFile parses an export file by path.
func (p *Parser) ParseFile(path string) (result *ParseResult, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return p.Parse(f)
}
