package database

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func TestDBPath(t *testing.T) {
	tests := []struct {
		dataDir string
		want    string
	}{
		{"", filepath.Join("data", "natal-terminal.db")},
		{"/var/lib/natal", filepath.Join("/var/lib/natal", "natal-terminal.db")},
	}
	for _, tt := range tests {
		if got := DBPath(tt.dataDir); got != tt.want {
			t.Errorf("DBPath(%q) = %v, want %v", tt.dataDir, got, tt.want)
		}
	}
}

func TestOpen_SharesConnectionPerPath(t *testing.T) {
	defer CloseAll()
	dir := t.TempDir()

	a, err := Open(filepath.Join(dir, "a.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	again, err := Open(filepath.Join(dir, "a.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	b, err := Open(filepath.Join(dir, "nested", "b.db"))
	if err != nil {
		t.Fatalf("Open() nested error = %v", err)
	}

	if a != again {
		t.Error("Open() returned a different connection for the same path")
	}
	if a == b {
		t.Error("Open() returned the same connection for different paths")
	}
}

func TestNeedsTable(t *testing.T) {
	defer CloseAll()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	// Case 1: DB file does not exist
	needs, err := NeedsTable(dbPath, "ephemeris")
	if err != nil || !needs {
		t.Errorf("Case 1: Expected needs=true, err=nil; got needs=%v, err=%v", needs, err)
	}

	// Case 2: DB file exists and table exists
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := db.Exec(`CREATE TABLE ephemeris (jd REAL)`); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	needs, err = NeedsTable(dbPath, "ephemeris")
	if err != nil || needs {
		t.Errorf("Case 2: Expected needs=false, err=nil; got needs=%v, err=%v", needs, err)
	}

	// Case 3: other table still missing
	needs, err = NeedsTable(dbPath, "tz_boundaries")
	if err != nil || !needs {
		t.Errorf("Case 3: Expected needs=true, err=nil; got needs=%v, err=%v", needs, err)
	}
}

func TestEnsureUserSchema_Persistence(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	defer db.Close()

	// 1. Initialize schema
	if err := EnsureUserSchema(db); err != nil {
		t.Fatalf("First EnsureUserSchema failed: %v", err)
	}

	// 2. Insert a record
	_, err = db.Exec(`INSERT INTO user_profiles (name, birth_date, birth_time, time_zone, latitude, longitude)
		VALUES ('Ada', '1815-12-10', '13:00', 'Europe/London', 51.5, -0.12)`)
	if err != nil {
		t.Fatalf("Failed to insert record: %v", err)
	}

	// 3. Initialize schema again (should not drop table)
	if err := EnsureUserSchema(db); err != nil {
		t.Fatalf("Second EnsureUserSchema failed: %v", err)
	}

	// 4. Verify record exists
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM user_profiles WHERE name = 'Ada'").Scan(&count); err != nil {
		t.Fatalf("Failed to query record: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 record, got %d. Data was likely lost due to table drop.", count)
	}

	// 5. Names are unique
	_, err = db.Exec(`INSERT INTO user_profiles (name, birth_date, birth_time, time_zone, latitude, longitude)
		VALUES ('Ada', '1815-12-10', '13:00', 'Europe/London', 51.5, -0.12)`)
	if err == nil {
		t.Error("Expected duplicate name insert to fail")
	}
}
