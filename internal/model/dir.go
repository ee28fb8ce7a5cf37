package model

import (
	"database/sql"
	"fmt"
)

// Dir is a directory node in a revision's tree, identified by its path.
//
// InDir and RevID are the nullable foreign keys to the parent Dir and the
// owning Revision. Subdirs and Files are the paths of child entities in
// commit order. All four are maintained by a database.Session: assign
// relationships through the session, never by writing these fields.
type Dir struct {
	Path string
	Name string
	Root string

	RevID sql.NullInt64
	InDir sql.NullString

	Subdirs []string
	Files   []string

	Persistence
}

// NewDir creates a Dir with no parent, revision or children.
func NewDir(path, name, root string) *Dir {
	return &Dir{
		Path: path,
		Name: name,
		Root: root,
	}
}

// IsRoot reports whether the dir has no parent.
func (d *Dir) IsRoot() bool {
	return !d.InDir.Valid
}

// Key identifies the dir within a unit of work.
func (d *Dir) Key() string {
	return "dir:" + d.Path
}

// String renders the dir as Dir(u'<path>', <N> subdirs, <M> files).
func (d *Dir) String() string {
	return fmt.Sprintf("Dir(%s, %d subdirs, %d files)", unicodeQuote(d.Path), len(d.Subdirs), len(d.Files))
}
