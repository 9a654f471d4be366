package store

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_OpensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer s2.Close()

	var count int
	err = s2.db.QueryRow("SELECT COUNT(*) FROM connections").Scan(&count)
	if err != nil {
		t.Errorf("query failed: %v", err)
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	tables := []string{"connections", "part_serials", "parts"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	path := "/nonexistent/dir/test.db"

	_, err := Open(path)
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

// pragmaValue reads PRAGMA name off the store's connection.
func pragmaValue(t *testing.T, s *Store, name string) string {
	t.Helper()
	var v string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&v); err != nil {
		t.Fatalf("read pragma %s: %v", name, err)
	}
	return v
}

func TestOpen_SetsConnectionPragmas(t *testing.T) {
	s := createTestStore(t)
	for _, p := range connPragmas {
		if got := pragmaValue(t, s, p.name); got != p.readBack {
			t.Errorf("pragma %s = %q, want %q", p.name, got, p.readBack)
		}
	}
}

func TestOpen_RecordsSchemaVersion(t *testing.T) {
	s := createTestStore(t)
	if got, want := pragmaValue(t, s, "user_version"), fmt.Sprint(len(migrations)); got != want {
		t.Errorf("user_version = %s, want %s", got, want)
	}
}

func TestOpen_MigratesOlderDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	// Roll the file back to a pre-index part log.
	if _, err := s.db.Exec("DROP INDEX idx_connections_target"); err != nil {
		t.Fatalf("drop index: %v", err)
	}
	if _, err := s.db.Exec("PRAGMA user_version = 0"); err != nil {
		t.Fatalf("reset user_version: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	var name string
	err = s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name='idx_connections_target'").Scan(&name)
	if err != nil {
		t.Errorf("target index not recreated: %v", err)
	}
	if got := pragmaValue(t, s, "user_version"); got != "1" {
		t.Errorf("user_version = %s, want 1", got)
	}
}

// Schema tests

func TestSchema_ConnectionsTable(t *testing.T) {
	s := createTestStore(t)

	columns := getTableColumns(t, s.db, "connections")
	expected := []string{
		"id", "part_number", "part_type", "polarization", "scan_time",
		"connected_to", "connected_to_type", "connected_polarization",
		"connected_scan_time", "connection_status",
	}
	for _, col := range expected {
		if !contains(columns, col) {
			t.Errorf("connections table missing column %q", col)
		}
	}
}

func TestSchema_Indexes(t *testing.T) {
	s := createTestStore(t)

	for _, idx := range []string{
		"idx_connections_order",
		"idx_connections_part",
		"idx_connections_target",
	} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='index' AND name=?",
			idx,
		).Scan(&name)
		if err != nil {
			t.Errorf("index %q not found: %v", idx, err)
		}
	}
}

func TestConstraint_ConnectionStatus(t *testing.T) {
	s := createTestStore(t)

	_, err := s.db.Exec(`
		INSERT INTO connections (part_number, scan_time, connection_status)
		VALUES ('ANT00001', 1, 'broken')
	`)
	if err == nil {
		t.Error("expected CHECK constraint violation for unknown status")
	}
}
