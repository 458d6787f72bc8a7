// Package usage keeps a local ledger of API usage. Conversation
// transcripts are never persisted; the ledger records token accounting
// only, one row per successful remote call.
package usage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS usage_log (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    operation TEXT NOT NULL,
    model TEXT NOT NULL,
    input_tokens INTEGER NOT NULL DEFAULT 0,
    output_tokens INTEGER NOT NULL DEFAULT 0,
    total_tokens INTEGER NOT NULL DEFAULT 0,
    timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_usage_log_session_id ON usage_log(session_id);
CREATE INDEX IF NOT EXISTS idx_usage_log_timestamp ON usage_log(timestamp);
CREATE INDEX IF NOT EXISTS idx_usage_log_operation ON usage_log(operation);
`

type Entry struct {
	ID           string
	SessionID    string
	Operation    string // "generate" or "edit"
	Model        string
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	Timestamp    time.Time
}

type Summary struct {
	Calls       int
	TotalTokens int
}

type OperationSummary struct {
	Operation   string
	Calls       int
	TotalTokens int
}

type Store struct {
	db *sql.DB
}

func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".thumbchat")
	}
	return NewStoreWithPath(filepath.Join(dataDir, "usage.db"))
}

func NewStoreWithPath(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one ledger row, assigning its ID and timestamp.
func (s *Store) Record(ctx context.Context, e *Entry) error {
	e.ID = uuid.New().String()
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO usage_log (id, session_id, operation, model, input_tokens, output_tokens, total_tokens, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SessionID, e.Operation, e.Model,
		e.InputTokens, e.OutputTokens, e.TotalTokens, e.Timestamp)
	return err
}

func (s *Store) Total(ctx context.Context) (*Summary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total_tokens), 0) FROM usage_log`)

	var sum Summary
	if err := row.Scan(&sum.Calls, &sum.TotalTokens); err != nil {
		return nil, err
	}
	return &sum, nil
}

func (s *Store) SessionTotal(ctx context.Context, sessionID string) (*Summary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total_tokens), 0) FROM usage_log WHERE session_id = ?`,
		sessionID)

	var sum Summary
	if err := row.Scan(&sum.Calls, &sum.TotalTokens); err != nil {
		return nil, err
	}
	return &sum, nil
}

func (s *Store) ByOperation(ctx context.Context) ([]OperationSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT operation, COUNT(*), COALESCE(SUM(total_tokens), 0)
		 FROM usage_log GROUP BY operation ORDER BY operation`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []OperationSummary
	for rows.Next() {
		var os OperationSummary
		if err := rows.Scan(&os.Operation, &os.Calls, &os.TotalTokens); err != nil {
			return nil, err
		}
		summaries = append(summaries, os)
	}
	return summaries, rows.Err()
}

func (s *Store) ByDateRange(ctx context.Context, start, end time.Time) (*Summary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total_tokens), 0)
		 FROM usage_log WHERE timestamp >= ? AND timestamp < ?`,
		start, end)

	var sum Summary
	if err := row.Scan(&sum.Calls, &sum.TotalTokens); err != nil {
		return nil, err
	}
	return &sum, nil
}
