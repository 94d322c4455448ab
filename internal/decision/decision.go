// Package decision maintains the decision log: one JSON record per
// decision under life/decisions/, plus an index.json with summary entries
// and running stats.
package decision

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/openclaw/lifekit/internal/storage"
)

// ErrTitleEmpty is returned when logging a decision without a title.
var ErrTitleEmpty = errors.New("decision title must not be empty")

// Record is a single logged decision.
type Record struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Context   string   `json:"context"`
	Options   []string `json:"options"`
	Selected  int      `json:"selected"`
	Reason    string   `json:"reason"`
	CreatedAt string   `json:"created_at"`
	Status    string   `json:"status"`
}

// IndexEntry is the summary row kept in index.json.
type IndexEntry struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
}

// IndexStats tracks aggregate counters for the index.
type IndexStats struct {
	Total       int    `json:"total"`
	LastUpdated string `json:"last_updated"`
}

// Index is the full index.json document.
type Index struct {
	Decisions []IndexEntry `json:"decisions"`
	Stats     IndexStats   `json:"stats"`
}

// Log holds the decision directory and clock. The clock is injectable so
// tests control record IDs.
type Log struct {
	Dir string
	Now func() time.Time
}

// NewLog creates a decision log rooted at dir.
func NewLog(dir string) *Log {
	return &Log{Dir: dir, Now: time.Now}
}

// indexPath returns the index.json location.
func (l *Log) indexPath() string {
	return filepath.Join(l.Dir, "index.json")
}

// Create writes a new decision record and updates the index.
// Returns the stored record.
func (l *Log) Create(title, context, reason string, options []string) (*Record, error) {
	if title == "" {
		return nil, ErrTitleEmpty
	}

	if err := os.MkdirAll(l.Dir, 0700); err != nil {
		return nil, fmt.Errorf("create decisions dir: %w", err)
	}

	now := l.Now()
	id, err := l.uniqueID(now)
	if err != nil {
		return nil, err
	}

	if options == nil {
		options = []string{}
	}
	rec := &Record{
		ID:        id,
		Title:     title,
		Context:   context,
		Options:   options,
		Selected:  0,
		Reason:    reason,
		CreatedAt: now.Format(time.RFC3339),
		Status:    "active",
	}

	if err := storage.WriteJSON(filepath.Join(l.Dir, id+".json"), rec); err != nil {
		return nil, fmt.Errorf("write decision: %w", err)
	}

	if err := l.updateIndex(rec, now); err != nil {
		return nil, err
	}

	return rec, nil
}

// uniqueID generates dec-YYYYMMDD-HHMMSS, probing -2, -3... on collision
// (two decisions logged within the same second).
func (l *Log) uniqueID(now time.Time) (string, error) {
	base := "dec-" + now.Format("20060102-150405")
	id := base
	for n := 2; ; n++ {
		if _, err := os.Stat(filepath.Join(l.Dir, id+".json")); os.IsNotExist(err) {
			return id, nil
		} else if err != nil {
			return "", fmt.Errorf("check decision file: %w", err)
		}
		if n > 100 {
			return "", fmt.Errorf("too many decisions at %s", base)
		}
		id = fmt.Sprintf("%s-%d", base, n)
	}
}

// updateIndex appends the record summary and refreshes stats.
func (l *Log) updateIndex(rec *Record, now time.Time) error {
	idx, err := l.ReadIndex()
	if err != nil {
		return err
	}

	idx.Decisions = append(idx.Decisions, IndexEntry{
		ID:        rec.ID,
		Title:     rec.Title,
		CreatedAt: rec.CreatedAt,
	})
	idx.Stats.Total = len(idx.Decisions)
	idx.Stats.LastUpdated = now.Format(time.RFC3339)

	if err := storage.WriteJSON(l.indexPath(), idx); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

// ReadIndex loads index.json, returning an empty index when missing.
func (l *Log) ReadIndex() (*Index, error) {
	var idx Index
	err := storage.ReadJSON(l.indexPath(), &idx)
	if os.IsNotExist(err) {
		return &Index{Decisions: []IndexEntry{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	if idx.Decisions == nil {
		idx.Decisions = []IndexEntry{}
	}
	return &idx, nil
}

// Read loads a full decision record by ID.
func (l *Log) Read(id string) (*Record, error) {
	var rec Record
	if err := storage.ReadJSON(filepath.Join(l.Dir, id+".json"), &rec); err != nil {
		return nil, fmt.Errorf("read decision %s: %w", id, err)
	}
	return &rec, nil
}
