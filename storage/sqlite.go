// Package storage provides SQLite request history storage.
//
// Information Hiding:
// - SQLite connection management hidden behind interface
// - Schema and migration details encapsulated
// - Thread-safe via sql.DB's built-in connection pooling

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SqliteStorage implements HistoryStorage using SQLite.
// Thread-safe: sql.DB handles connection pooling and concurrent access.
type SqliteStorage struct {
	db *sql.DB
}

// OpenSqlite opens or creates a SQLite database at the given path.
// Creates parent directories if they don't exist.
func OpenSqlite(path string) (*SqliteStorage, error) {
	// Create parent directory if needed
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	storage := &SqliteStorage{db: db}
	if err := storage.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// NewSqliteInMemory creates an in-memory database (useful for testing).
func NewSqliteInMemory() (*SqliteStorage, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	storage := &SqliteStorage{db: db}
	if err := storage.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// Close closes the database connection.
func (s *SqliteStorage) Close() error {
	return s.db.Close()
}

func (s *SqliteStorage) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS requests (
			request_id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			strategy TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			steps INTEGER NOT NULL DEFAULT 0,
			candidates INTEGER NOT NULL DEFAULT 0,
			plan TEXT,
			execution TEXT,
			timings TEXT,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_requests_created
		ON requests(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveRequest stores a request record. A missing request id is replaced
// by a fresh UUID and a zero CreatedAt by the current time.
func (s *SqliteStorage) SaveRequest(ctx context.Context, record RequestRecord) error {
	if record.RequestID == "" {
		record.RequestID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	var timings []byte
	if record.Timings != nil {
		var err error
		if timings, err = json.Marshal(record.Timings); err != nil {
			return fmt.Errorf("failed to encode timings: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO requests
			(request_id, query, strategy, status, error, steps, candidates, plan, execution, timings, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.RequestID,
		record.Query,
		record.Strategy,
		record.Status,
		record.Error,
		record.Steps,
		record.Candidates,
		nullableText(record.Plan),
		nullableText(record.Execution),
		nullableText(timings),
		record.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save request: %w", err)
	}
	return nil
}

// ListRequests returns the most recent requests first.
func (s *SqliteStorage) ListRequests(ctx context.Context, limit int) ([]RequestRecord, error) {
	query := `
		SELECT request_id, query, strategy, status, error, steps, candidates, plan, execution, timings, created_at
		FROM requests ORDER BY created_at DESC, rowid DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	records := []RequestRecord{}
	for rows.Next() {
		record, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate requests: %w", err)
	}
	return records, nil
}

// GetRequest gets a request by id.
// Returns nil, nil if not found.
func (s *SqliteStorage) GetRequest(ctx context.Context, requestID string) (*RequestRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT request_id, query, strategy, status, error, steps, candidates, plan, execution, timings, created_at
		FROM requests WHERE request_id = ?`,
		requestID)

	record, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row rowScanner) (RequestRecord, error) {
	var record RequestRecord
	var plan, execution, timings sql.NullString
	var createdAt int64

	err := row.Scan(
		&record.RequestID,
		&record.Query,
		&record.Strategy,
		&record.Status,
		&record.Error,
		&record.Steps,
		&record.Candidates,
		&plan,
		&execution,
		&timings,
		&createdAt,
	)
	if err == sql.ErrNoRows {
		return record, err
	}
	if err != nil {
		return record, fmt.Errorf("failed to scan request: %w", err)
	}

	if plan.Valid {
		record.Plan = json.RawMessage(plan.String)
	}
	if execution.Valid {
		record.Execution = json.RawMessage(execution.String)
	}
	if timings.Valid {
		if err := json.Unmarshal([]byte(timings.String), &record.Timings); err != nil {
			return record, fmt.Errorf("invalid timings for request %s: %w", record.RequestID, err)
		}
	}
	record.CreatedAt = time.UnixMilli(createdAt)
	return record, nil
}

func nullableText(data []byte) interface{} {
	if len(data) == 0 {
		return nil
	}
	return string(data)
}

// Verify SqliteStorage implements HistoryStorage
var _ HistoryStorage = (*SqliteStorage)(nil)
