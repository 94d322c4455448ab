// Package archive keeps a local sqlite archive of fetched chat messages
// so repeated fetches are idempotent and incremental.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/openclaw/lifekit/internal/feishu"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	message_id  TEXT PRIMARY KEY,
	chat_id     TEXT NOT NULL,
	sender_id   TEXT NOT NULL,
	content     TEXT NOT NULL,
	create_time TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages(sender_id);

CREATE TABLE IF NOT EXISTS fetch_runs (
	run_id     TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	chat_id    TEXT NOT NULL,
	fetched    INTEGER NOT NULL,
	"new"      INTEGER NOT NULL,
	started_at TEXT NOT NULL
);
`

// Archive is a sqlite-backed message store.
type Archive struct {
	db  *sql.DB
	log *zap.Logger
}

// RunSummary reports one recorded fetch run.
type RunSummary struct {
	RunID   string `json:"run_id"`
	UserID  string `json:"user_id"`
	ChatID  string `json:"chat_id"`
	Fetched int    `json:"fetched"`
	New     int    `json:"new"`
}

// SenderCount is the per-sender message total.
type SenderCount struct {
	SenderID string `json:"sender_id"`
	Messages int    `json:"messages"`
}

// Stats summarizes archive contents.
type Stats struct {
	Messages int           `json:"messages"`
	Runs     int           `json:"runs"`
	Senders  []SenderCount `json:"senders"`
}

// Open opens (creating if needed) the archive at path.
func Open(path string, log *zap.Logger) (*Archive, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init archive schema: %w", err)
	}

	return &Archive{db: db, log: log}, nil
}

// Close releases the database handle.
func (a *Archive) Close() error {
	return a.db.Close()
}

// RecordFetch upserts the fetched messages and records a run row.
// Messages already present (by message_id) are left untouched.
func (a *Archive) RecordFetch(ctx context.Context, result *feishu.FetchResult) (*RunSummary, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin archive tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	insert, err := tx.PrepareContext(ctx, `
		INSERT INTO messages (message_id, chat_id, sender_id, content, create_time)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(message_id) DO NOTHING`)
	if err != nil {
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	defer func() {
		_ = insert.Close()
	}()

	newCount := 0
	for _, m := range result.Messages {
		res, err := insert.ExecContext(ctx, m.MessageID, result.ChatID, m.SenderID, m.Content, m.CreateTime)
		if err != nil {
			return nil, fmt.Errorf("insert message %s: %w", m.MessageID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			newCount++
		}
	}

	run := &RunSummary{
		RunID:   uuid.NewString(),
		UserID:  result.UserID,
		ChatID:  result.ChatID,
		Fetched: len(result.Messages),
		New:     newCount,
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO fetch_runs (run_id, user_id, chat_id, fetched, "new", started_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.RunID, run.UserID, run.ChatID, run.Fetched, run.New,
		result.FetchedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("record run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit archive tx: %w", err)
	}

	a.log.Debug("archive updated",
		zap.String("run_id", run.RunID),
		zap.Int("fetched", run.Fetched),
		zap.Int("new", run.New))
	return run, nil
}

// Stats returns totals and the per-sender breakdown.
func (a *Archive) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{Senders: []SenderCount{}}

	if err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&stats.Messages); err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}
	if err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fetch_runs`).Scan(&stats.Runs); err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT sender_id, COUNT(*) AS n
		FROM messages
		GROUP BY sender_id
		ORDER BY n DESC, sender_id`)
	if err != nil {
		return nil, fmt.Errorf("query senders: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var sc SenderCount
		if err := rows.Scan(&sc.SenderID, &sc.Messages); err != nil {
			return nil, fmt.Errorf("scan sender row: %w", err)
		}
		stats.Senders = append(stats.Senders, sc)
	}
	return stats, rows.Err()
}
