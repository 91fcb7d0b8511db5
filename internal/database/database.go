package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// FileName is the name of the single shared database inside the data dir
const FileName = "natal-terminal.db"

var (
	mu    sync.Mutex
	conns = map[string]*sql.DB{}
)

// DBPath returns the path to the single shared database under dataDir
func DBPath(dataDir string) string {
	if dataDir == "" {
		dataDir = "data"
	}
	return filepath.Join(dataDir, FileName)
}

// Open returns the shared connection for dbPath, opening it on first use.
// Every package reading the database goes through here so a path is only opened once.
func Open(dbPath string) (*sql.DB, error) {
	mu.Lock()
	defer mu.Unlock()

	if db, ok := conns[dbPath]; ok {
		return db, nil
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", dbPath, err)
	}
	// Set pragmas for performance
	_, _ = db.Exec("PRAGMA journal_mode=WAL")
	_, _ = db.Exec("PRAGMA synchronous=NORMAL")
	_, _ = db.Exec("PRAGMA cache_size=10000")
	_, _ = db.Exec("PRAGMA busy_timeout=5000")

	conns[dbPath] = db
	return db, nil
}

// CloseAll closes every shared connection
func CloseAll() error {
	mu.Lock()
	defer mu.Unlock()

	var firstErr error
	for path, db := range conns {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing %s: %w", path, err)
		}
		delete(conns, path)
	}
	return firstErr
}

// TableExists reports whether a table is present in db
func TableExists(db *sql.DB, table string) (bool, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking for %s table: %w", table, err)
	}
	return count > 0, nil
}

// NeedsTable reports whether dbPath is missing or lacks table
func NeedsTable(dbPath, table string) (bool, error) {
	// If file doesn't exist, we need to provision
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return true, nil
	}

	db, err := Open(dbPath)
	if err != nil {
		return false, err
	}

	exists, err := TableExists(db, table)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// EnsureUserSchema ensures that the user-specific tables (saved birth profiles) exist.
func EnsureUserSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS user_profiles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			birth_date TEXT NOT NULL,
			birth_time TEXT NOT NULL,
			time_zone TEXT NOT NULL,
			place TEXT,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			house_system TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_user_profiles_name ON user_profiles(name);
	`)
	if err != nil {
		return fmt.Errorf("creating user_profiles table: %w", err)
	}

	return nil
}
