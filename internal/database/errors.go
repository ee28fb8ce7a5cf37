package database

import (
	"errors"

	"github.com/mattn/go-sqlite3"
)

// ErrCycle is returned when a parent assignment would make the dir tree cyclic.
var ErrCycle = errors.New("dir tree cycle")

// ErrIdentityConflict is returned when a loaded entity is handed to a session
// that already holds a different object for the same key.
var ErrIdentityConflict = errors.New("session already holds another instance")

// ErrStaleCollections is wrapped around a reload failure after a successful
// commit. The data is durable; only the in-memory collections are stale.
var ErrStaleCollections = errors.New("committed, but reloading collections failed")

// IsUniqueViolation reports whether err was caused by inserting a primary
// key (or unique value) that already exists.
func IsUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// IsForeignKeyViolation reports whether err was caused by a reference to a
// missing row, or by deleting a row that is still referenced.
func IsForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}
