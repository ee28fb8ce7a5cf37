package model

import (
	"fmt"
	"strconv"
	"time"
)

// Defaults applied by NewRevision when the caller omits them.
const (
	DefaultLog    = "No log message"
	DefaultAuthor = "Unknown author"
)

// Revision is one versioned snapshot of a repository.
// Dirs and Files hold the paths of member entities in insertion order; they
// are maintained by a database.Session and are only authoritative after a
// commit.
type Revision struct {
	ID     int64
	Name   string
	Log    string
	Author string
	Date   time.Time

	Dirs  []string
	Files []string

	Persistence
}

// RevisionOption overrides a default of NewRevision.
type RevisionOption func(*Revision)

// WithLog sets the log message.
func WithLog(log string) RevisionOption {
	return func(r *Revision) { r.Log = log }
}

// WithAuthor sets the author.
func WithAuthor(author string) RevisionOption {
	return func(r *Revision) { r.Author = author }
}

// WithDate sets the revision date. The date is stored in UTC.
func WithDate(date time.Time) RevisionOption {
	return func(r *Revision) { r.Date = date.UTC() }
}

// NewRevision creates a Revision. Log and Author default to DefaultLog and
// DefaultAuthor; Date defaults to the current UTC time at the moment of the
// call.
func NewRevision(id int64, name string, opts ...RevisionOption) *Revision {
	r := &Revision{
		ID:     id,
		Name:   name,
		Log:    DefaultLog,
		Author: DefaultAuthor,
		Date:   time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Key identifies the revision within a unit of work.
func (r *Revision) Key() string {
	return "revision:" + strconv.FormatInt(r.ID, 10)
}

// String renders the revision as Revision(<id>: '<log>').
func (r *Revision) String() string {
	return fmt.Sprintf("Revision(%d: %s)", r.ID, quote(r.Log))
}
