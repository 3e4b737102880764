// Package sqlite persists pending quiz results in a local SQLite file. It is
// the durable staging medium for single-client deployments: entries written
// before a restart are still there for the next authentication event.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"quiz-session-engine/internal/domain"
)

type PendingStore struct {
	db *sql.DB
}

func NewPendingStore(path string) (*PendingStore, error) {
	if strings.TrimSpace(path) == "" {
		path = "pending.db"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS pending_results (
		quiz_id TEXT PRIMARY KEY,
		entry_json TEXT NOT NULL,
		created_at_unix INTEGER NOT NULL
	);`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &PendingStore{db: db}, nil
}

func (s *PendingStore) Close() error {
	return s.db.Close()
}

// Stage overwrites any existing entry for the same quiz id.
func (s *PendingStore) Stage(ctx context.Context, entry domain.PendingResultEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal pending entry: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO pending_results (quiz_id, entry_json, created_at_unix) VALUES (?, ?, ?)
		 ON CONFLICT(quiz_id) DO UPDATE SET entry_json=excluded.entry_json, created_at_unix=excluded.created_at_unix`,
		entry.QuizID, string(raw), entry.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("stage pending entry: %w", err)
	}
	return nil
}

func (s *PendingStore) Get(ctx context.Context, quizID string) (domain.PendingResultEntry, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT entry_json FROM pending_results WHERE quiz_id = ?`, quizID).Scan(&raw)
	if err == sql.ErrNoRows {
		return domain.PendingResultEntry{}, false, nil
	}
	if err != nil {
		return domain.PendingResultEntry{}, false, fmt.Errorf("get pending entry: %w", err)
	}
	var entry domain.PendingResultEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return domain.PendingResultEntry{}, false, fmt.Errorf("unmarshal pending entry: %w", err)
	}
	return entry, true, nil
}

func (s *PendingStore) Clear(ctx context.Context, quizID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM pending_results WHERE quiz_id = ?`, quizID); err != nil {
		return fmt.Errorf("clear pending entry: %w", err)
	}
	return nil
}

// List returns staged entries oldest first, so a manual resync drains the
// longest-waiting results before fresher ones.
func (s *PendingStore) List(ctx context.Context) ([]domain.PendingResultEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT entry_json FROM pending_results ORDER BY created_at_unix ASC, quiz_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list pending entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.PendingResultEntry
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan pending entry: %w", err)
		}
		var entry domain.PendingResultEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("unmarshal pending entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
