package migrations

import (
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestMigrateUp_FreshDatabase(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	for _, table := range []string{"revisions", "dirs", "files", "schema_migrations"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s was not created: %v", table, err)
		}
	}
}

func TestCheckDBMigrationStatus_FreshDatabase(t *testing.T) {
	db := openTestDB(t)

	err := CheckDBMigrationStatus(db)
	if !errors.Is(err, ErrNoSchema) {
		t.Errorf("CheckDBMigrationStatus() error = %v, want ErrNoSchema", err)
	}
}

func TestCheckDBMigrationStatus_AfterMigration(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	if err := CheckDBMigrationStatus(db); err != nil {
		t.Errorf("CheckDBMigrationStatus() after migration returned error: %v", err)
	}
}

func TestMigrateUp_Idempotent(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("first MigrateUp() failed: %v", err)
	}
	if err := MigrateUp(db); err != nil {
		t.Errorf("second MigrateUp() failed: %v", err)
	}
	if err := CheckDBMigrationStatus(db); err != nil {
		t.Errorf("CheckDBMigrationStatus() after double migration returned error: %v", err)
	}
}

func TestLatestVersion(t *testing.T) {
	v, err := LatestVersion()
	if err != nil {
		t.Fatalf("LatestVersion() error = %v", err)
	}
	if v != 2 {
		t.Errorf("LatestVersion() = %d, want 2", v)
	}
}

func TestDrop_LeavesNoTables(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	// Populate every table so the down migrations have to cope with rows.
	stmts := []string{
		"INSERT INTO revisions (id, name, log, author, date) VALUES (1, 'r1', 'log', 'me', datetime('now'))",
		"INSERT INTO dirs (path, name, root, rev_id) VALUES ('.', '/', 'fake://repo', 1)",
		"INSERT INTO dirs (path, name, root, rev_id, in_dir) VALUES ('./a', 'a', 'fake://repo', 1, '.')",
		"INSERT INTO files (path, name, size, root, ext, type, in_dir, rev_id) VALUES ('./a/x.txt', 'x.txt', 3, 'fake://repo', '.txt', 'other', './a', 1)",
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("Exec(%q) error = %v", stmt, err)
		}
	}

	if err := Drop(db); err != nil {
		t.Fatalf("Drop() error = %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT count(*) FROM sqlite_master WHERE name NOT LIKE 'sqlite_%'").Scan(&count); err != nil {
		t.Fatalf("counting schema objects: %v", err)
	}
	if count != 0 {
		t.Errorf("%d schema objects left after Drop(), want 0", count)
	}

	if err := CheckDBMigrationStatus(db); !errors.Is(err, ErrNoSchema) {
		t.Errorf("CheckDBMigrationStatus() after Drop() = %v, want ErrNoSchema", err)
	}
}

func TestForeignKeyConstraints(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	tests := []struct {
		name string
		stmt string
	}{
		{
			name: "dir with missing revision",
			stmt: "INSERT INTO dirs (path, name, root, rev_id) VALUES ('.', '/', 'r', 99)",
		},
		{
			name: "dir with missing parent",
			stmt: "INSERT INTO dirs (path, name, root, in_dir) VALUES ('./a', 'a', 'r', './missing')",
		},
		{
			name: "file with missing dir",
			stmt: "INSERT INTO files (path, name, size, root, ext, type, in_dir) VALUES ('./x', 'x', 0, 'r', '', 'other', './missing')",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := db.Exec(tt.stmt); err == nil {
				t.Error("expected foreign key violation, insert succeeded")
			}
		})
	}
}

func TestSchema_PrimaryKeys(t *testing.T) {
	db := openTestDB(t)

	if err := MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	if _, err := db.Exec("INSERT INTO dirs (path, name, root) VALUES ('.', '/', 'r')"); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if _, err := db.Exec("INSERT INTO dirs (path, name, root) VALUES ('.', 'again', 'r')"); err == nil {
		t.Error("expected primary key violation for duplicate dir path")
	}
}

// openTestDB opens an in-memory SQLite database with foreign keys enforced.
// A single connection keeps every statement on the same in-memory database.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}
	return db
}
