package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"wombatdb/internal/database/migrations"
	"wombatdb/internal/database/sqlc"
	"wombatdb/internal/model"
	"wombatdb/internal/wombat"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements wombat.Store on top of SQLite.
type SQLiteStore struct {
	db      *sql.DB
	queries *sqlc.Queries
	path    string
	logger  wombat.Logger
	ids     wombat.IDGenerator
}

// NewSQLiteStore opens the SQLite database at path.
// path can be a file path or ":memory:" for an in-memory database.
// A nil logger discards output.
func NewSQLiteStore(path string, logger wombat.Logger) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	s := NewSQLiteStoreFromDB(db, logger)
	s.path = path
	return s, nil
}

// NewSQLiteStoreFromDB wraps an existing connection, which should come from
// OpenConnection.
func NewSQLiteStoreFromDB(db *sql.DB, logger wombat.Logger) *SQLiteStore {
	if logger == nil {
		logger = wombat.NewNopLogger()
	}
	return &SQLiteStore{
		db:      db,
		queries: sqlc.New(db),
		logger:  logger,
		ids:     wombat.UUIDGenerator{},
	}
}

// OpenConnection opens a SQLite connection with foreign keys enforced.
// The pool is limited to one connection: SQLite serialises writers anyway,
// and an in-memory database only exists on the connection that created it.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	// SQLite leaves foreign keys off unless asked.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Begin starts a new Session.
func (s *SQLiteStore) Begin() wombat.UnitOfWork {
	return s.NewSession()
}

// NewSession starts a new Session.
func (s *SQLiteStore) NewSession() *Session {
	return newSession(s)
}

// Revision operations

func (s *SQLiteStore) FindRevision(id int64) (*model.Revision, error) {
	return s.loadRevision(context.Background(), id)
}

// ListRevisions returns up to limit revisions, newest first. A limit of
// zero or less returns all of them.
func (s *SQLiteStore) ListRevisions(limit int) ([]*model.Revision, error) {
	ctx := context.Background()
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.queries.ListRevisions(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("listing revisions: %w", err)
	}

	result := make([]*model.Revision, len(rows))
	for i := range rows {
		rev := revisionFromRow(rows[i])
		if err := s.fillRevision(ctx, rev); err != nil {
			return nil, err
		}
		result[i] = rev
	}
	return result, nil
}

func (s *SQLiteStore) MaxRevisionID() (int64, error) {
	id, err := s.queries.GetMaxRevisionID(context.Background())
	if err != nil {
		return 0, fmt.Errorf("getting max revision id: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) loadRevision(ctx context.Context, id int64) (*model.Revision, error) {
	row, err := s.queries.GetRevision(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding revision %d: %w", id, err)
	}

	rev := revisionFromRow(row)
	if err := s.fillRevision(ctx, rev); err != nil {
		return nil, err
	}
	return rev, nil
}

// fillRevision loads the member paths of rev in commit order.
func (s *SQLiteStore) fillRevision(ctx context.Context, rev *model.Revision) error {
	key := sql.NullInt64{Int64: rev.ID, Valid: true}

	dirs, err := s.queries.ListRevisionDirPaths(ctx, key)
	if err != nil {
		return fmt.Errorf("listing dirs of revision %d: %w", rev.ID, err)
	}
	files, err := s.queries.ListRevisionFilePaths(ctx, key)
	if err != nil {
		return fmt.Errorf("listing files of revision %d: %w", rev.ID, err)
	}

	rev.Dirs, rev.Files = dirs, files
	return nil
}

// Dir operations

func (s *SQLiteStore) FindDir(path string) (*model.Dir, error) {
	return s.loadDir(context.Background(), path)
}

func (s *SQLiteStore) ListRootDirs() ([]*model.Dir, error) {
	ctx := context.Background()

	rows, err := s.queries.ListRootDirs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing root dirs: %w", err)
	}

	result := make([]*model.Dir, len(rows))
	for i := range rows {
		dir := dirFromRow(rows[i])
		if err := s.fillDir(ctx, dir); err != nil {
			return nil, err
		}
		result[i] = dir
	}
	return result, nil
}

func (s *SQLiteStore) loadDir(ctx context.Context, path string) (*model.Dir, error) {
	row, err := s.queries.GetDir(ctx, path)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding dir %s: %w", path, err)
	}

	dir := dirFromRow(row)
	if err := s.fillDir(ctx, dir); err != nil {
		return nil, err
	}
	return dir, nil
}

// fillDir loads the child paths of dir in commit order.
func (s *SQLiteStore) fillDir(ctx context.Context, dir *model.Dir) error {
	key := sql.NullString{String: dir.Path, Valid: true}

	subdirs, err := s.queries.ListSubdirPaths(ctx, key)
	if err != nil {
		return fmt.Errorf("listing subdirs of %s: %w", dir.Path, err)
	}
	files, err := s.queries.ListDirFilePaths(ctx, key)
	if err != nil {
		return fmt.Errorf("listing files of %s: %w", dir.Path, err)
	}

	dir.Subdirs, dir.Files = subdirs, files
	return nil
}

// File operations

func (s *SQLiteStore) FindFile(path string) (*model.File, error) {
	return s.loadFile(context.Background(), path)
}

func (s *SQLiteStore) loadFile(ctx context.Context, path string) (*model.File, error) {
	row, err := s.queries.GetFile(ctx, path)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding file %s: %w", path, err)
	}
	return fileFromRow(row), nil
}

// Schema operations

// CreateSchema migrates the database to the latest schema.
func (s *SQLiteStore) CreateSchema() error {
	return migrations.MigrateUp(s.db)
}

// DropSchema removes every table, rows included.
func (s *SQLiteStore) DropSchema() error {
	return migrations.Drop(s.db)
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteStore) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
func (s *SQLiteStore) BackupTo(destPath string) error {
	if _, err := s.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func revisionFromRow(row sqlc.Revision) *model.Revision {
	rev := &model.Revision{
		ID:     row.ID,
		Name:   row.Name,
		Log:    row.Log,
		Author: row.Author,
		Date:   row.Date.UTC(),
	}
	rev.SetStored(true)
	return rev
}

func dirFromRow(row sqlc.Dir) *model.Dir {
	dir := &model.Dir{
		Path:  row.Path,
		Name:  row.Name,
		Root:  row.Root,
		RevID: row.RevID,
		InDir: row.InDir,
	}
	dir.SetStored(true)
	return dir
}

func fileFromRow(row sqlc.File) *model.File {
	file := &model.File{
		Path:  row.Path,
		Name:  row.Name,
		Size:  row.Size,
		Root:  row.Root,
		Ext:   row.Ext,
		Type:  row.Type,
		InDir: row.InDir,
		RevID: row.RevID,
	}
	file.SetStored(true)
	return file
}

// Compile-time check that SQLiteStore implements wombat.Store
var _ wombat.Store = (*SQLiteStore)(nil)
