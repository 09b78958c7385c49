// SQLite session storage.
//
// Thread-safe: sql.DB handles connection pooling and concurrent access.

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/richinex/pilotchat/chat"
	"github.com/richinex/pilotchat/tracker"
)

// SqliteStore implements Store using a SQLite database file.
type SqliteStore struct {
	db *sql.DB
}

// OpenSqlite opens or creates a SQLite database at the given path.
// Creates parent directories if they don't exist.
func OpenSqlite(path string) (*SqliteStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	store := &SqliteStore{db: db}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// NewSqliteInMemory creates an in-memory database (useful for testing).
func NewSqliteInMemory() (*SqliteStore, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}

	store := &SqliteStore{db: db}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *SqliteStore) Close() error {
	return s.db.Close()
}

func (s *SqliteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			session_key TEXT PRIMARY KEY,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_key TEXT NOT NULL,
			message_index INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			FOREIGN KEY (session_key) REFERENCES sessions(session_key) ON DELETE CASCADE,
			UNIQUE(session_key, message_index)
		);

		CREATE INDEX IF NOT EXISTS idx_messages_session
		ON messages(session_key, message_index);

		CREATE TABLE IF NOT EXISTS tracked_files (
			session_key TEXT NOT NULL,
			path TEXT NOT NULL,
			modified_at TEXT NOT NULL,
			FOREIGN KEY (session_key) REFERENCES sessions(session_key) ON DELETE CASCADE,
			PRIMARY KEY (session_key, path)
		);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Save writes the record, replacing any previous record with the same key.
func (s *SqliteStore) Save(ctx context.Context, rec Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// defer tx.Rollback() is safe even after Commit() - it becomes a no-op
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO sessions (session_key) VALUES (?)", rec.Key); err != nil {
		return fmt.Errorf("failed to ensure session: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM messages WHERE session_key = ?", rec.Key); err != nil {
		return fmt.Errorf("failed to clear old messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM tracked_files WHERE session_key = ?", rec.Key); err != nil {
		return fmt.Errorf("failed to clear old tracked files: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO messages (session_key, message_index, role, content) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for i, msg := range rec.Messages {
		if _, err := stmt.ExecContext(ctx, rec.Key, i, string(msg.Role), msg.Content); err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}

	for _, f := range rec.Files {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO tracked_files (session_key, path, modified_at) VALUES (?, ?, ?)",
			rec.Key, f.Path, f.ModifiedAt.Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("failed to insert tracked file: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE sessions SET updated_at = datetime('now') WHERE session_key = ?", rec.Key); err != nil {
		return fmt.Errorf("failed to update session timestamp: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Load returns the record for the key; the bool reports existence.
func (s *SqliteStore) Load(ctx context.Context, key string) (Record, bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sessions WHERE session_key = ?", key).Scan(&count); err != nil {
		return Record{}, false, fmt.Errorf("failed to check session existence: %w", err)
	}
	if count == 0 {
		return Record{}, false, nil
	}

	rec := Record{Key: key}

	rows, err := s.db.QueryContext(ctx,
		"SELECT role, content FROM messages WHERE session_key = ? ORDER BY message_index ASC", key)
	if err != nil {
		return Record{}, false, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return Record{}, false, fmt.Errorf("failed to scan message: %w", err)
		}
		rec.Messages = append(rec.Messages, chat.Message{Role: chat.Role(role), Content: content})
	}
	if err := rows.Err(); err != nil {
		return Record{}, false, fmt.Errorf("error iterating messages: %w", err)
	}

	fileRows, err := s.db.QueryContext(ctx,
		"SELECT path, modified_at FROM tracked_files WHERE session_key = ? ORDER BY path ASC", key)
	if err != nil {
		return Record{}, false, fmt.Errorf("failed to query tracked files: %w", err)
	}
	defer fileRows.Close()

	for fileRows.Next() {
		var path, modified string
		if err := fileRows.Scan(&path, &modified); err != nil {
			return Record{}, false, fmt.Errorf("failed to scan tracked file: %w", err)
		}
		modTime, err := time.Parse(time.RFC3339Nano, modified)
		if err != nil {
			return Record{}, false, fmt.Errorf("invalid modified_at %q in database: %w", modified, err)
		}
		rec.Files = append(rec.Files, tracker.TrackedFile{Path: path, ModifiedAt: modTime})
	}
	if err := fileRows.Err(); err != nil {
		return Record{}, false, fmt.Errorf("error iterating tracked files: %w", err)
	}

	return rec, true, nil
}

// Delete removes the record for the key.
func (s *SqliteStore) Delete(ctx context.Context, key string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Cascade manually; foreign_keys pragma is off by default.
	for _, stmt := range []string{
		"DELETE FROM messages WHERE session_key = ?",
		"DELETE FROM tracked_files WHERE session_key = ?",
		"DELETE FROM sessions WHERE session_key = ?",
	} {
		if _, err := tx.ExecContext(ctx, stmt, key); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Verify SqliteStore implements Store
var _ Store = (*SqliteStore)(nil)
