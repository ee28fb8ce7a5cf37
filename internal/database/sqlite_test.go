package database

import (
	"path/filepath"
	"testing"
	"time"

	"wombatdb/internal/model"
)

// newTestStore creates a new in-memory store with the schema migrated.
func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(":memory:", nil)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	if err := store.CreateSchema(); err != nil {
		store.Close()
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

// commitRevision stores a revision owning one root dir with one file.
func commitRevision(t *testing.T, store *SQLiteStore, id int64, root string) *model.Revision {
	t.Helper()

	s := store.NewSession()
	rev := model.NewRevision(id, "r", model.WithLog("log"))
	dir := model.NewDir(root, filepath.Base(root), root)
	file := model.NewFile(root+"/a.txt", "a.txt", 3, root)

	if err := s.Add(rev); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := s.SetDirRevision(dir, rev); err != nil {
		t.Fatalf("SetDirRevision() error = %v", err)
	}
	if err := s.SetFileRevision(file, rev); err != nil {
		t.Fatalf("SetFileRevision() error = %v", err)
	}
	if err := s.AppendFile(dir, file); err != nil {
		t.Fatalf("AppendFile() error = %v", err)
	}
	if err := s.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	return rev
}

func TestSQLiteStore_FindRevision(t *testing.T) {
	t.Run("returns nil when revision not found", func(t *testing.T) {
		store := newTestStore(t)

		rev, err := store.FindRevision(42)
		if err != nil {
			t.Fatalf("FindRevision() error = %v", err)
		}
		if rev != nil {
			t.Errorf("FindRevision() = %v, want nil", rev)
		}
	})

	t.Run("finds committed revision with members", func(t *testing.T) {
		store := newTestStore(t)
		date := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

		s := store.NewSession()
		rev := model.NewRevision(7, "seven", model.WithAuthor("alice"), model.WithDate(date))
		if err := s.Add(rev); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		dir := model.NewDir("/src", "src", "/src")
		if err := s.SetDirRevision(dir, rev); err != nil {
			t.Fatalf("SetDirRevision() error = %v", err)
		}
		if err := s.Commit(); err != nil {
			t.Fatalf("Commit() error = %v", err)
		}

		found, err := store.FindRevision(7)
		if err != nil {
			t.Fatalf("FindRevision() error = %v", err)
		}
		if found == nil {
			t.Fatal("FindRevision() returned nil, want revision")
		}
		if found.Name != "seven" || found.Author != "alice" || found.Log != model.DefaultLog {
			t.Errorf("FindRevision() = %+v", found)
		}
		if !found.Date.Equal(date) {
			t.Errorf("Date = %v, want %v", found.Date, date)
		}
		if len(found.Dirs) != 1 || found.Dirs[0] != "/src" {
			t.Errorf("Dirs = %v, want [/src]", found.Dirs)
		}
		if len(found.Files) != 0 {
			t.Errorf("Files = %v, want none", found.Files)
		}
	})
}

func TestSQLiteStore_ListRevisions(t *testing.T) {
	store := newTestStore(t)
	commitRevision(t, store, 1, "/one")
	commitRevision(t, store, 2, "/two")
	commitRevision(t, store, 3, "/three")

	t.Run("newest first with limit", func(t *testing.T) {
		revs, err := store.ListRevisions(2)
		if err != nil {
			t.Fatalf("ListRevisions() error = %v", err)
		}
		if len(revs) != 2 {
			t.Fatalf("got %d revisions, want 2", len(revs))
		}
		if revs[0].ID != 3 || revs[1].ID != 2 {
			t.Errorf("IDs = [%d %d], want [3 2]", revs[0].ID, revs[1].ID)
		}
		if len(revs[0].Files) != 1 {
			t.Errorf("Files = %v, want one file", revs[0].Files)
		}
	})

	t.Run("zero limit returns all", func(t *testing.T) {
		revs, err := store.ListRevisions(0)
		if err != nil {
			t.Fatalf("ListRevisions() error = %v", err)
		}
		if len(revs) != 3 {
			t.Errorf("got %d revisions, want 3", len(revs))
		}
	})
}

func TestSQLiteStore_MaxRevisionID(t *testing.T) {
	store := newTestStore(t)

	maxID, err := store.MaxRevisionID()
	if err != nil {
		t.Fatalf("MaxRevisionID() error = %v", err)
	}
	if maxID != 0 {
		t.Errorf("MaxRevisionID() = %d, want 0", maxID)
	}

	commitRevision(t, store, 5, "/five")
	commitRevision(t, store, 2, "/two")

	maxID, err = store.MaxRevisionID()
	if err != nil {
		t.Fatalf("MaxRevisionID() error = %v", err)
	}
	if maxID != 5 {
		t.Errorf("MaxRevisionID() = %d, want 5", maxID)
	}
}

func TestSQLiteStore_FindDir(t *testing.T) {
	t.Run("returns nil when dir not found", func(t *testing.T) {
		store := newTestStore(t)

		dir, err := store.FindDir("/nonexistent")
		if err != nil {
			t.Fatalf("FindDir() error = %v", err)
		}
		if dir != nil {
			t.Errorf("FindDir() = %v, want nil", dir)
		}
	})

	t.Run("finds committed dir with children", func(t *testing.T) {
		store := newTestStore(t)
		commitRevision(t, store, 1, "/home")

		dir, err := store.FindDir("/home")
		if err != nil {
			t.Fatalf("FindDir() error = %v", err)
		}
		if dir == nil {
			t.Fatal("FindDir() returned nil, want dir")
		}
		if !dir.RevID.Valid || dir.RevID.Int64 != 1 {
			t.Errorf("RevID = %v, want 1", dir.RevID)
		}
		if !dir.IsRoot() {
			t.Error("IsRoot() = false, want true")
		}
		if len(dir.Files) != 1 || dir.Files[0] != "/home/a.txt" {
			t.Errorf("Files = %v, want [/home/a.txt]", dir.Files)
		}
	})
}

func TestSQLiteStore_ListRootDirs(t *testing.T) {
	store := newTestStore(t)
	commitRevision(t, store, 1, "/b")
	commitRevision(t, store, 2, "/a")

	s := store.NewSession()
	parent, err := s.Dir("/a")
	if err != nil {
		t.Fatalf("Dir() error = %v", err)
	}
	if err := s.SetParent(model.NewDir("/a/x", "x", "/a"), parent); err != nil {
		t.Fatalf("SetParent() error = %v", err)
	}
	if err := s.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	roots, err := store.ListRootDirs()
	if err != nil {
		t.Fatalf("ListRootDirs() error = %v", err)
	}
	if len(roots) != 2 {
		t.Fatalf("got %d roots, want 2", len(roots))
	}
	// Commit order, not path order
	if roots[0].Path != "/b" || roots[1].Path != "/a" {
		t.Errorf("roots = [%s %s], want [/b /a]", roots[0].Path, roots[1].Path)
	}
	if len(roots[1].Subdirs) != 1 || roots[1].Subdirs[0] != "/a/x" {
		t.Errorf("Subdirs = %v, want [/a/x]", roots[1].Subdirs)
	}
}

func TestSQLiteStore_FindFile(t *testing.T) {
	store := newTestStore(t)
	commitRevision(t, store, 1, "/docs")

	file, err := store.FindFile("/docs/a.txt")
	if err != nil {
		t.Fatalf("FindFile() error = %v", err)
	}
	if file == nil {
		t.Fatal("FindFile() returned nil, want file")
	}
	if file.Size != 3 || file.Ext != ".txt" || file.Type != model.TypeOther {
		t.Errorf("FindFile() = %+v", file)
	}
	if file.InDir.String != "/docs" {
		t.Errorf("InDir = %v, want /docs", file.InDir)
	}

	missing, err := store.FindFile("/docs/b.txt")
	if err != nil {
		t.Fatalf("FindFile() error = %v", err)
	}
	if missing != nil {
		t.Errorf("FindFile() = %v, want nil", missing)
	}
}

func TestSQLiteStore_BackupTo(t *testing.T) {
	store := newTestStore(t)
	commitRevision(t, store, 1, "/home/user/docs")

	destPath := filepath.Join(t.TempDir(), "backup.db")
	if err := store.BackupTo(destPath); err != nil {
		t.Fatalf("BackupTo() error = %v", err)
	}

	// Open the backup and verify it has the data
	backup, err := NewSQLiteStore(destPath, nil)
	if err != nil {
		t.Fatalf("opening backup: %v", err)
	}
	defer backup.Close()

	if err := backup.CheckMigrations(); err != nil {
		t.Errorf("CheckMigrations() on backup = %v", err)
	}

	dir, err := backup.FindDir("/home/user/docs")
	if err != nil {
		t.Fatalf("FindDir() error = %v", err)
	}
	if dir == nil {
		t.Error("backup does not contain the dir")
	}
}

func TestSQLiteStore_CheckMigrations(t *testing.T) {
	t.Run("fails on store without migrations applied", func(t *testing.T) {
		store, err := NewSQLiteStore(":memory:", nil)
		if err != nil {
			t.Fatalf("NewSQLiteStore() error = %v", err)
		}
		defer store.Close()

		if err := store.CheckMigrations(); err == nil {
			t.Error("CheckMigrations() expected error for missing schema")
		}
	})

	t.Run("passes after CreateSchema", func(t *testing.T) {
		store := newTestStore(t)

		if err := store.CheckMigrations(); err != nil {
			t.Errorf("CheckMigrations() error = %v", err)
		}
	})
}

func TestSQLiteStore_DropSchema(t *testing.T) {
	store := newTestStore(t)
	commitRevision(t, store, 1, "/data")

	if err := store.DropSchema(); err != nil {
		t.Fatalf("DropSchema() error = %v", err)
	}

	var count int
	if err := store.db.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&count); err != nil {
		t.Fatalf("counting schema objects: %v", err)
	}
	if count != 0 {
		t.Errorf("sqlite_master has %d objects after DropSchema, want 0", count)
	}

	if err := store.CreateSchema(); err != nil {
		t.Fatalf("CreateSchema() after DropSchema error = %v", err)
	}
	rev, err := store.FindRevision(1)
	if err != nil {
		t.Fatalf("FindRevision() error = %v", err)
	}
	if rev != nil {
		t.Error("recreated schema still holds old rows")
	}
}
