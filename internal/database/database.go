package database

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite connection.
type DB struct {
	sqlStore
}

// Ensure DB implements Store interface.
var _ Store = (*DB)(nil)

// New opens or creates an SQLite database at the given path.
func New(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Writes are serialized by SQLite anyway; one connection avoids SQLITE_BUSY.
	conn.SetMaxOpenConns(1)
	// Enable WAL mode for better concurrency.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	db := &DB{sqlStore{conn: conn}}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// DatabaseType returns the database backend name.
func (db *DB) DatabaseType() string {
	return "SQLite"
}

// SupportsHighConcurrency returns false for SQLite.
func (db *DB) SupportsHighConcurrency() bool {
	return false
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sources (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		url TEXT NOT NULL UNIQUE,
		kind TEXT NOT NULL DEFAULT 'feed',
		last_fetched DATETIME,
		last_error TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS camps (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		organizer TEXT NOT NULL,
		date TEXT NOT NULL,
		time TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL,
		city TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		blood_types TEXT NOT NULL DEFAULT '',
		source_id INTEGER REFERENCES sources(id),
		guid TEXT,
		UNIQUE(source_id, guid)
	);
	CREATE TABLE IF NOT EXISTS urgent_requests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		blood_type TEXT NOT NULL,
		hospital TEXT NOT NULL,
		location TEXT NOT NULL,
		city TEXT NOT NULL DEFAULT '',
		contact_name TEXT NOT NULL DEFAULT '',
		contact_number TEXT NOT NULL,
		urgency TEXT NOT NULL,
		patient_name TEXT NOT NULL DEFAULT '',
		details TEXT NOT NULL DEFAULT '',
		posted_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS donors (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		phone TEXT NOT NULL,
		blood_group TEXT NOT NULL,
		city TEXT NOT NULL,
		last_donation_date DATETIME,
		medical_conditions TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS appointments (
		id TEXT PRIMARY KEY,
		camp_id INTEGER NOT NULL REFERENCES camps(id) ON DELETE CASCADE,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT NOT NULL,
		blood_group TEXT NOT NULL,
		preferred_time DATETIME NOT NULL,
		medical_info TEXT NOT NULL DEFAULT '',
		relayed INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_appointments_email ON appointments(email);
	-- Default polling interval (60 minutes).
	INSERT OR IGNORE INTO settings (key, value) VALUES ('polling_interval_minutes', '60');
	`
	_, err := db.conn.Exec(schema)
	return err
}
