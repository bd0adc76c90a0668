// Package ledger records which feed entries have already been processed,
// so reruns inside the same window do not summarize an episode twice.
package ledger

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

type Ledger struct {
	conn *sql.DB
}

func Open(path string) (*Ledger, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	conn.SetMaxOpenConns(2)

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("ping ledger: %w", err)
	}

	l := &Ledger{conn: conn}
	if err := l.migrate(); err != nil {
		return nil, fmt.Errorf("migrate ledger: %w", err)
	}
	return l, nil
}

func (l *Ledger) Close() error {
	return l.conn.Close()
}

func (l *Ledger) migrate() error {
	_, err := l.conn.Exec(`
		CREATE TABLE IF NOT EXISTS processed_entries (
			entry_id     TEXT PRIMARY KEY,
			feed_url     TEXT NOT NULL,
			title        TEXT NOT NULL DEFAULT '',
			processed_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`)
	return err
}

// Seen reports whether the entry has already been processed.
func (l *Ledger) Seen(entryID string) (bool, error) {
	var one int
	err := l.conn.QueryRow(
		`SELECT 1 FROM processed_entries WHERE entry_id = ?`, entryID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkProcessed records the entry. Marking the same entry again is a no-op.
func (l *Ledger) MarkProcessed(entryID, feedURL, title string) error {
	_, err := l.conn.Exec(`
		INSERT INTO processed_entries (entry_id, feed_url, title)
		VALUES (?, ?, ?)
		ON CONFLICT(entry_id) DO NOTHING`,
		entryID, feedURL, title)
	return err
}

// Prune deletes records older than the retention window, keeping the
// ledger from growing without bound.
func (l *Ledger) Prune(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan).Format("2006-01-02 15:04:05")
	res, err := l.conn.Exec(
		`DELETE FROM processed_entries WHERE processed_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
