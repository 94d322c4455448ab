package chat

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/openclaw/lifekit/internal/storage"
)

// Output file names written by WriteOutputs.
const (
	ParsedFileName = "parsed_messages.json"
	TargetFileName = "target_messages.txt"
)

// targetMessage is the target-side JSON shape (sender is implied).
type targetMessage struct {
	Date string `json:"date"`
	Time string `json:"time"`
	Text string `json:"text"`
}

// otherMessage is the counterpart-side JSON shape.
type otherMessage struct {
	Date   string `json:"date"`
	Time   string `json:"time"`
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// outputDoc is the parsed_messages.json document.
type outputDoc struct {
	Stats          *Stats          `json:"stats"`
	TargetMessages []targetMessage `json:"target_messages"`
	OtherMessages  []otherMessage  `json:"other_messages"`
}

// WriteOutputs writes parsed_messages.json and target_messages.txt into
// dir. Returns the path of the JSON document.
func WriteOutputs(dir string, result *ParseResult, stats *Stats) (string, error) {
	doc := outputDoc{
		Stats:          stats,
		TargetMessages: []targetMessage{},
		OtherMessages:  []otherMessage{},
	}
	for _, m := range result.Target {
		if m.Text == "" {
			continue
		}
		doc.TargetMessages = append(doc.TargetMessages, targetMessage{Date: m.Date, Time: m.Time, Text: m.Text})
	}
	for _, m := range result.Other {
		if m.Text == "" {
			continue
		}
		doc.OtherMessages = append(doc.OtherMessages, otherMessage{Date: m.Date, Time: m.Time, Sender: m.Sender, Text: m.Text})
	}

	jsonPath := filepath.Join(dir, ParsedFileName)
	if err := storage.WriteJSON(jsonPath, doc); err != nil {
		return "", fmt.Errorf("write parsed messages: %w", err)
	}

	txtPath := filepath.Join(dir, TargetFileName)
	err := storage.WriteAtomic(txtPath, func(w io.Writer) error {
		for _, m := range result.Target {
			if m.Text == "" {
				continue
			}
			if _, err := fmt.Fprintf(w, "[%s, %s] %s\n", m.Date, m.Time, m.Text); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("write target messages: %w", err)
	}

	return jsonPath, nil
}
