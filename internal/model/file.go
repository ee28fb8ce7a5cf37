package model

import (
	"database/sql"
	"fmt"
	"strings"
)

// TypeOther is the type every File starts with. No classification is done yet.
const TypeOther = "other"

// File is a leaf entry within a directory, identified by its path.
// Ext and Type are derived by NewFile. InDir and RevID are maintained by a
// database.Session.
type File struct {
	Path string
	Name string
	Size int64
	Root string
	Ext  string
	Type string

	InDir sql.NullString
	RevID sql.NullInt64

	Persistence
}

// NewFile creates a File, deriving Ext from name and setting Type to TypeOther.
func NewFile(path, name string, size int64, root string) *File {
	return &File{
		Path: path,
		Name: name,
		Size: size,
		Root: root,
		Ext:  strings.ToLower(splitExt(name)),
		Type: TypeOther,
	}
}

// Key identifies the file within a unit of work.
func (f *File) Key() string {
	return "file:" + f.Path
}

// String renders the file as File(u'<path>', type: <type>).
func (f *File) String() string {
	return fmt.Sprintf("File(%s, type: %s)", unicodeQuote(f.Path), f.Type)
}

// splitExt returns the extension of the last element of name, including the
// leading dot. Leading dots of the element do not start an extension, so
// ".bashrc" has none.
func splitExt(name string) string {
	base := name
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	dot := strings.LastIndexByte(base, '.')
	if dot <= 0 {
		return ""
	}
	if strings.TrimLeft(base[:dot], ".") == "" {
		return ""
	}
	return base[dot:]
}
