package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite database connection with thread-safe access.
type DB struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// New creates and initializes a new SQLite database connection.
func New(dbPath string) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// migrate creates the necessary tables if they don't exist.
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		carbon_points INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS waste_reports (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		photo_path TEXT NOT NULL,
		latitude REAL DEFAULT 0,
		longitude REAL DEFAULT 0,
		location_name TEXT DEFAULT '',
		description TEXT DEFAULT '',
		waste_type TEXT DEFAULT '',
		severity INTEGER NOT NULL DEFAULT 3,
		status TEXT NOT NULL,
		ai_analysis TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cleanup_activities (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		report_id TEXT NOT NULL,
		before_photo_path TEXT NOT NULL,
		after_photo_path TEXT NOT NULL,
		status TEXT NOT NULL,
		points_awarded INTEGER NOT NULL DEFAULT 0,
		ai_confidence_score REAL,
		ai_analysis_data TEXT,
		admin_notes TEXT DEFAULT '',
		verified_at DATETIME,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (report_id) REFERENCES waste_reports(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_reports_status ON waste_reports(status);
	CREATE INDEX IF NOT EXISTS idx_cleanups_status ON cleanup_activities(status);
	CREATE INDEX IF NOT EXISTS idx_cleanups_report_id ON cleanup_activities(report_id);
	CREATE INDEX IF NOT EXISTS idx_cleanups_created_at ON cleanup_activities(created_at);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection for use by repositories.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Lock acquires a write lock.
func (db *DB) Lock() {
	db.mu.Lock()
}

// Unlock releases the write lock.
func (db *DB) Unlock() {
	db.mu.Unlock()
}

// RLock acquires a read lock.
func (db *DB) RLock() {
	db.mu.RLock()
}

// RUnlock releases the read lock.
func (db *DB) RUnlock() {
	db.mu.RUnlock()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// encodeJSON stores nil values as NULL.
func encodeJSON(v any, isNil bool) (sql.NullString, error) {
	if isNil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeJSON(raw sql.NullString, v any) error {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw.String), v)
}
