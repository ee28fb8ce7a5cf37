package model

import "fmt"

// Entity is implemented by Revision, Dir and File.
type Entity interface {
	fmt.Stringer
	// Key is unique per entity kind and primary key.
	Key() string
	// Stored reports whether the entity has a committed row.
	Stored() bool
	SetStored(stored bool)
}

// Persistence records whether an entity has a committed row. Stores set it
// on everything they load and sessions update it on commit.
type Persistence struct {
	stored bool
}

func (p *Persistence) Stored() bool { return p.stored }

func (p *Persistence) SetStored(stored bool) { p.stored = stored }

var (
	_ Entity = (*Revision)(nil)
	_ Entity = (*Dir)(nil)
	_ Entity = (*File)(nil)
)
