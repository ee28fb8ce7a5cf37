package wombat

import "wombatdb/internal/model"

// Store is the relational home of revisions, dirs and files.
// Lookups return nil (and no error) when nothing matches. Returned entities
// are detached: their Subdirs/Files/Dirs collections reflect the committed
// state at the time of the call. Handing one to a later unit of work attaches
// it there, and changes to it are written as updates.
type Store interface {
	// Begin starts a unit of work. Nothing is written until it commits.
	Begin() UnitOfWork

	FindRevision(id int64) (*model.Revision, error)
	FindDir(path string) (*model.Dir, error)
	FindFile(path string) (*model.File, error)

	// ListRevisions returns up to limit revisions, highest id first.
	ListRevisions(limit int) ([]*model.Revision, error)

	// ListRootDirs returns every dir without a parent, in commit order.
	ListRootDirs() ([]*model.Dir, error)

	// MaxRevisionID returns the highest revision id, or 0 for an empty store.
	MaxRevisionID() (int64, error)

	// BackupTo writes a consistent copy of the store to destPath.
	BackupTo(destPath string) error

	// CheckMigrations verifies the schema is at the version this binary expects.
	CheckMigrations() error

	Close() error
}

// UnitOfWork buffers entity changes until Commit and discards them on
// Rollback. A UnitOfWork is not safe for concurrent use.
//
// Relationship setters keep both sides consistent: setting a dir's parent
// appends the dir to the parent's Subdirs, and so on. Collections are only
// guaranteed to match the database after Commit.
type UnitOfWork interface {
	// Add queues e for insertion.
	Add(e model.Entity) error

	// Delete queues e for deletion. Deleting an entity that is still
	// referenced fails at commit.
	Delete(e model.Entity) error

	// SetParent makes parent the parent of child. A nil parent detaches
	// child. Assignments that would make the tree cyclic are rejected.
	SetParent(child, parent *model.Dir) error

	// AppendFile places file in dir. It is equivalent to SetFileParent(file, dir).
	AppendFile(dir *model.Dir, file *model.File) error
	SetFileParent(file *model.File, dir *model.Dir) error

	SetDirRevision(dir *model.Dir, rev *model.Revision) error
	SetFileRevision(file *model.File, rev *model.Revision) error

	// Revision, Dir and File return the unit of work's instance for a key,
	// loading committed entities on first access.
	Revision(id int64) (*model.Revision, error)
	Dir(path string) (*model.Dir, error)
	File(path string) (*model.File, error)

	Commit() error
	Rollback()
}
