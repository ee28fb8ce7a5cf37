package database

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"wombatdb/internal/database/sqlc"
	"wombatdb/internal/model"
	"wombatdb/internal/wombat"
)

// Session is the unit of work over a SQLiteStore.
//
// It keeps an identity map per entity kind: within one session a key always
// resolves to the same object. Relationships are stored as keys (paths and
// ids) on both sides and resolved through the identity map, so the dir tree
// never holds pointers to itself.
//
// Changes are buffered in memory. Commit writes them in one transaction;
// Rollback undoes them.
type Session struct {
	store  *SQLiteStore
	id     string
	logger wombat.Logger

	revisions map[int64]*model.Revision
	dirs      map[string]*model.Dir
	files     map[string]*model.File

	// reload refreshes collections after a commit.
	reload func(ctx context.Context) error

	persisted map[model.Entity]bool
	pending   map[model.Entity]bool
	dirtySet  map[model.Entity]bool

	inserts []model.Entity
	updates []model.Entity
	deletes []model.Entity
	undo    []func()
}

func newSession(store *SQLiteStore) *Session {
	id := store.ids.New()
	s := &Session{
		store:     store,
		id:        id,
		logger:    store.logger,
		revisions: make(map[int64]*model.Revision),
		dirs:      make(map[string]*model.Dir),
		files:     make(map[string]*model.File),
		persisted: make(map[model.Entity]bool),
		pending:   make(map[model.Entity]bool),
		dirtySet:  make(map[model.Entity]bool),
	}
	s.reload = s.refresh
	return s
}

// ID identifies the session in log output.
func (s *Session) ID() string {
	return s.id
}

// Add queues e for insertion. Adding an entity that is already pending or
// persisted does nothing. An entity returned by an earlier lookup or commit
// is attached to the session instead of inserted. A second new object with
// the key of a known entity is still queued, and its insert fails at commit
// with a uniqueness violation.
func (s *Session) Add(e model.Entity) error {
	if err := checkEntity(e); err != nil {
		return err
	}
	if err := s.attach(e); err != nil {
		return err
	}
	if s.persisted[e] || s.pending[e] {
		return nil
	}
	s.enqueue(e)
	return nil
}

// Delete queues e for deletion. A pending entity is simply dropped.
func (s *Session) Delete(e model.Entity) error {
	if err := checkEntity(e); err != nil {
		return err
	}
	if err := s.attach(e); err != nil {
		return err
	}
	if s.pending[e] {
		delete(s.pending, e)
		s.inserts = slices.DeleteFunc(s.inserts, func(x model.Entity) bool { return x == e })
		s.forget(e)
		return nil
	}
	if !s.persisted[e] {
		return fmt.Errorf("deleting %s: not known to this session", e.Key())
	}
	if !slices.Contains(s.deletes, e) {
		s.deletes = append(s.deletes, e)
	}
	return nil
}

// SetParent makes parent the parent of child, or detaches child when parent
// is nil. It returns ErrCycle, leaving everything unchanged, if parent is
// child or one of its descendants.
func (s *Session) SetParent(child, parent *model.Dir) error {
	if err := s.attach(child, parent); err != nil {
		return err
	}
	if parent != nil {
		if err := s.checkAcyclic(child, parent); err != nil {
			return err
		}
	}

	s.track(child)
	if parent != nil {
		s.track(parent)
	}

	s.remember(rememberValue(&child.InDir))
	if child.InDir.Valid {
		if old, ok := s.dirs[child.InDir.String]; ok {
			s.remember(rememberPaths(&old.Subdirs))
			old.Subdirs = removePath(old.Subdirs, child.Path)
		}
	}

	if parent == nil {
		child.InDir = sql.NullString{}
		return nil
	}

	s.remember(rememberPaths(&parent.Subdirs))
	child.InDir = sql.NullString{String: parent.Path, Valid: true}
	parent.Subdirs = appendPath(parent.Subdirs, child.Path)
	return nil
}

// AppendFile places file in dir.
func (s *Session) AppendFile(dir *model.Dir, file *model.File) error {
	return s.SetFileParent(file, dir)
}

// SetFileParent places file in dir, or detaches it when dir is nil.
func (s *Session) SetFileParent(file *model.File, dir *model.Dir) error {
	if err := s.attach(file, dir); err != nil {
		return err
	}
	s.track(file)
	if dir != nil {
		s.track(dir)
	}

	s.remember(rememberValue(&file.InDir))
	if file.InDir.Valid {
		if old, ok := s.dirs[file.InDir.String]; ok {
			s.remember(rememberPaths(&old.Files))
			old.Files = removePath(old.Files, file.Path)
		}
	}

	if dir == nil {
		file.InDir = sql.NullString{}
		return nil
	}

	s.remember(rememberPaths(&dir.Files))
	file.InDir = sql.NullString{String: dir.Path, Valid: true}
	dir.Files = appendPath(dir.Files, file.Path)
	return nil
}

// SetDirRevision makes rev the owner of dir, or clears it when rev is nil.
func (s *Session) SetDirRevision(dir *model.Dir, rev *model.Revision) error {
	if err := s.attach(dir, rev); err != nil {
		return err
	}
	s.track(dir)
	if rev != nil {
		s.track(rev)
	}

	s.remember(rememberValue(&dir.RevID))
	if dir.RevID.Valid {
		if old, ok := s.revisions[dir.RevID.Int64]; ok {
			s.remember(rememberPaths(&old.Dirs))
			old.Dirs = removePath(old.Dirs, dir.Path)
		}
	}

	if rev == nil {
		dir.RevID = sql.NullInt64{}
		return nil
	}

	s.remember(rememberPaths(&rev.Dirs))
	dir.RevID = sql.NullInt64{Int64: rev.ID, Valid: true}
	rev.Dirs = appendPath(rev.Dirs, dir.Path)
	return nil
}

// SetFileRevision makes rev the owner of file, or clears it when rev is nil.
func (s *Session) SetFileRevision(file *model.File, rev *model.Revision) error {
	if err := s.attach(file, rev); err != nil {
		return err
	}
	s.track(file)
	if rev != nil {
		s.track(rev)
	}

	s.remember(rememberValue(&file.RevID))
	if file.RevID.Valid {
		if old, ok := s.revisions[file.RevID.Int64]; ok {
			s.remember(rememberPaths(&old.Files))
			old.Files = removePath(old.Files, file.Path)
		}
	}

	if rev == nil {
		file.RevID = sql.NullInt64{}
		return nil
	}

	s.remember(rememberPaths(&rev.Files))
	file.RevID = sql.NullInt64{Int64: rev.ID, Valid: true}
	rev.Files = appendPath(rev.Files, file.Path)
	return nil
}

// Revision returns the session's revision with the given id, or nil.
func (s *Session) Revision(id int64) (*model.Revision, error) {
	if rev, ok := s.revisions[id]; ok {
		return rev, nil
	}
	rev, err := s.store.loadRevision(context.Background(), id)
	if err != nil || rev == nil {
		return nil, err
	}
	s.revisions[id] = rev
	s.persisted[rev] = true
	return rev, nil
}

// Dir returns the session's dir with the given path, or nil.
func (s *Session) Dir(path string) (*model.Dir, error) {
	if dir, ok := s.dirs[path]; ok {
		return dir, nil
	}
	dir, err := s.store.loadDir(context.Background(), path)
	if err != nil || dir == nil {
		return nil, err
	}
	s.dirs[path] = dir
	s.persisted[dir] = true
	return dir, nil
}

// File returns the session's file with the given path, or nil.
func (s *Session) File(path string) (*model.File, error) {
	if file, ok := s.files[path]; ok {
		return file, nil
	}
	file, err := s.store.loadFile(context.Background(), path)
	if err != nil || file == nil {
		return nil, err
	}
	s.files[path] = file
	s.persisted[file] = true
	return file, nil
}

// Commit writes every buffered change in a single transaction: inserts
// (revisions, then dirs parents first, then files), relationship updates,
// then deletes. Afterwards the collections of every entity in the session
// are reloaded in commit order.
//
// On failure nothing is written and the buffered changes are kept; call
// Rollback to discard them. An error wrapping ErrStaleCollections means the
// data was committed but the in-memory collections could not be reloaded.
func (s *Session) Commit() error {
	ctx := context.Background()

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.store.queries.WithTx(tx)

	if err := s.flush(ctx, qtx); err != nil {
		s.logger.Error("commit failed", "session", s.id, "error", err)
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("commit failed", "session", s.id, "error", err)
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.logger.Debug("session committed", "session", s.id,
		"inserted", len(s.inserts), "updated", len(s.updates), "deleted", len(s.deletes))

	for _, e := range s.inserts {
		s.persisted[e] = true
		e.SetStored(true)
	}
	for _, e := range s.deletes {
		delete(s.persisted, e)
		e.SetStored(false)
		s.forget(e)
	}
	s.reset()

	if err := s.reload(ctx); err != nil {
		s.logger.Warn("reloading collections after commit failed", "session", s.id, "error", err)
		return fmt.Errorf("%w: %w", ErrStaleCollections, err)
	}
	return nil
}

// Rollback undoes every buffered change, newest first, and forgets entities
// that were never committed.
func (s *Session) Rollback() {
	for i := len(s.undo) - 1; i >= 0; i-- {
		s.undo[i]()
	}
	for _, e := range s.inserts {
		s.forget(e)
	}

	s.logger.Debug("session rolled back", "session", s.id, "discarded", len(s.inserts))
	s.reset()
}

func (s *Session) flush(ctx context.Context, q *sqlc.Queries) error {
	var revs []*model.Revision
	var dirs []*model.Dir
	var files []*model.File
	for _, e := range s.inserts {
		switch e := e.(type) {
		case *model.Revision:
			revs = append(revs, e)
		case *model.Dir:
			dirs = append(dirs, e)
		case *model.File:
			files = append(files, e)
		}
	}

	for _, rev := range revs {
		if err := insertRevision(ctx, q, rev); err != nil {
			return err
		}
	}
	for _, dir := range parentsFirst(dirs) {
		if err := insertDir(ctx, q, dir); err != nil {
			return err
		}
	}
	for _, file := range files {
		if err := insertFile(ctx, q, file); err != nil {
			return err
		}
	}

	for _, e := range s.updates {
		if err := updateRelations(ctx, q, e); err != nil {
			return err
		}
	}

	return s.flushDeletes(ctx, q)
}

// flushDeletes removes files, then dirs children first, then revisions.
func (s *Session) flushDeletes(ctx context.Context, q *sqlc.Queries) error {
	var dirs []*model.Dir
	var revs []*model.Revision
	for _, e := range s.deletes {
		switch e := e.(type) {
		case *model.File:
			if err := q.DeleteFile(ctx, e.Path); err != nil {
				return fmt.Errorf("deleting file %s: %w", e.Path, err)
			}
		case *model.Dir:
			dirs = append(dirs, e)
		case *model.Revision:
			revs = append(revs, e)
		}
	}

	ordered := parentsFirst(dirs)
	for i := len(ordered) - 1; i >= 0; i-- {
		if err := q.DeleteDir(ctx, ordered[i].Path); err != nil {
			return fmt.Errorf("deleting dir %s: %w", ordered[i].Path, err)
		}
	}
	for _, rev := range revs {
		if err := q.DeleteRevision(ctx, rev.ID); err != nil {
			return fmt.Errorf("deleting revision %d: %w", rev.ID, err)
		}
	}
	return nil
}

// refresh reloads the collections of every entity in the identity map.
func (s *Session) refresh(ctx context.Context) error {
	for _, rev := range s.revisions {
		if err := s.store.fillRevision(ctx, rev); err != nil {
			return fmt.Errorf("refreshing revision %d: %w", rev.ID, err)
		}
	}
	for _, dir := range s.dirs {
		if err := s.store.fillDir(ctx, dir); err != nil {
			return fmt.Errorf("refreshing dir %s: %w", dir.Path, err)
		}
	}
	return nil
}

func (s *Session) reset() {
	s.inserts = nil
	s.updates = nil
	s.deletes = nil
	s.undo = nil
	clear(s.pending)
	clear(s.dirtySet)
}

// enqueue registers e in the identity map (unless its key is taken) and
// queues it for insertion.
func (s *Session) enqueue(e model.Entity) {
	switch e := e.(type) {
	case *model.Revision:
		if _, ok := s.revisions[e.ID]; !ok {
			s.revisions[e.ID] = e
		}
	case *model.Dir:
		if _, ok := s.dirs[e.Path]; !ok {
			s.dirs[e.Path] = e
		}
	case *model.File:
		if _, ok := s.files[e.Path]; !ok {
			s.files[e.Path] = e
		}
	}
	s.pending[e] = true
	s.inserts = append(s.inserts, e)
}

// forget removes e from the identity map if it is the registered instance.
func (s *Session) forget(e model.Entity) {
	switch e := e.(type) {
	case *model.Revision:
		if s.revisions[e.ID] == e {
			delete(s.revisions, e.ID)
		}
	case *model.Dir:
		if s.dirs[e.Path] == e {
			delete(s.dirs, e.Path)
		}
	case *model.File:
		if s.files[e.Path] == e {
			delete(s.files, e.Path)
		}
	}
}

// attach brings entities that have a committed row but are unknown to the
// session into its identity map as persisted, so later changes update their
// rows. Nil entries are skipped. It fails with ErrIdentityConflict when the
// session already holds a different object with the same key.
func (s *Session) attach(entities ...model.Entity) error {
	for _, e := range entities {
		if isNilEntity(e) {
			continue
		}
		if err := checkEntity(e); err != nil {
			return err
		}
		if s.persisted[e] || s.pending[e] || !e.Stored() {
			continue
		}

		var known model.Entity
		switch e := e.(type) {
		case *model.Revision:
			if k, ok := s.revisions[e.ID]; ok {
				known = k
			} else {
				s.revisions[e.ID] = e
			}
		case *model.Dir:
			if k, ok := s.dirs[e.Path]; ok {
				known = k
			} else {
				s.dirs[e.Path] = e
			}
		case *model.File:
			if k, ok := s.files[e.Path]; ok {
				known = k
			} else {
				s.files[e.Path] = e
			}
		}
		if known != nil {
			return fmt.Errorf("%w: %s", ErrIdentityConflict, e.Key())
		}
		s.persisted[e] = true
	}
	return nil
}

// track makes sure a relationship change on e reaches the database:
// persisted entities are queued for an update, unknown ones are added.
func (s *Session) track(e model.Entity) {
	switch {
	case s.pending[e]:
	case s.persisted[e]:
		if !s.dirtySet[e] {
			s.dirtySet[e] = true
			s.updates = append(s.updates, e)
		}
	default:
		s.enqueue(e)
	}
}

func (s *Session) remember(undo func()) {
	s.undo = append(s.undo, undo)
}

// checkAcyclic walks up from parent and fails if it meets child.
func (s *Session) checkAcyclic(child, parent *model.Dir) error {
	seen := make(map[string]bool)
	for cur := parent; cur != nil; {
		if cur == child || cur.Path == child.Path {
			return fmt.Errorf("%w: %s cannot be placed under %s", ErrCycle, child.Path, parent.Path)
		}
		if !cur.InDir.Valid {
			return nil
		}
		if seen[cur.Path] {
			return fmt.Errorf("%w: ancestors of %s already loop at %s", ErrCycle, parent.Path, cur.Path)
		}
		seen[cur.Path] = true

		next, err := s.Dir(cur.InDir.String)
		if err != nil {
			return fmt.Errorf("loading ancestor %s: %w", cur.InDir.String, err)
		}
		cur = next
	}
	return nil
}

// parentsFirst orders dirs so that a dir comes after its parent whenever
// both are in the slice. Otherwise the input order is kept.
func parentsFirst(dirs []*model.Dir) []*model.Dir {
	byPath := make(map[string]*model.Dir, len(dirs))
	for _, d := range dirs {
		if _, ok := byPath[d.Path]; !ok {
			byPath[d.Path] = d
		}
	}

	ordered := make([]*model.Dir, 0, len(dirs))
	visited := make(map[*model.Dir]bool, len(dirs))
	var visit func(d *model.Dir)
	visit = func(d *model.Dir) {
		if visited[d] {
			return
		}
		visited[d] = true
		if d.InDir.Valid {
			if parent, ok := byPath[d.InDir.String]; ok {
				visit(parent)
			}
		}
		ordered = append(ordered, d)
	}
	for _, d := range dirs {
		visit(d)
	}
	return ordered
}

func insertRevision(ctx context.Context, q *sqlc.Queries, rev *model.Revision) error {
	err := q.InsertRevision(ctx, sqlc.InsertRevisionParams{
		ID:     rev.ID,
		Name:   rev.Name,
		Log:    rev.Log,
		Author: rev.Author,
		Date:   rev.Date.UTC(),
	})
	if err != nil {
		return fmt.Errorf("inserting revision %d: %w", rev.ID, err)
	}
	return nil
}

func insertDir(ctx context.Context, q *sqlc.Queries, dir *model.Dir) error {
	err := q.InsertDir(ctx, sqlc.InsertDirParams{
		Path:  dir.Path,
		Name:  dir.Name,
		Root:  dir.Root,
		RevID: dir.RevID,
		InDir: dir.InDir,
	})
	if err != nil {
		return fmt.Errorf("inserting dir %s: %w", dir.Path, err)
	}
	return nil
}

func insertFile(ctx context.Context, q *sqlc.Queries, file *model.File) error {
	err := q.InsertFile(ctx, sqlc.InsertFileParams{
		Path:  file.Path,
		Name:  file.Name,
		Size:  file.Size,
		Root:  file.Root,
		Ext:   file.Ext,
		Type:  file.Type,
		InDir: file.InDir,
		RevID: file.RevID,
	})
	if err != nil {
		return fmt.Errorf("inserting file %s: %w", file.Path, err)
	}
	return nil
}

// updateRelations writes the foreign keys of a persisted entity. Revisions
// have none; their membership lives on the dir and file rows.
func updateRelations(ctx context.Context, q *sqlc.Queries, e model.Entity) error {
	switch e := e.(type) {
	case *model.Dir:
		err := q.UpdateDirRelations(ctx, sqlc.UpdateDirRelationsParams{
			RevID: e.RevID,
			InDir: e.InDir,
			Path:  e.Path,
		})
		if err != nil {
			return fmt.Errorf("updating dir %s: %w", e.Path, err)
		}
	case *model.File:
		err := q.UpdateFileRelations(ctx, sqlc.UpdateFileRelationsParams{
			InDir: e.InDir,
			RevID: e.RevID,
			Path:  e.Path,
		})
		if err != nil {
			return fmt.Errorf("updating file %s: %w", e.Path, err)
		}
	}
	return nil
}

// isNilEntity reports whether e is nil or a typed nil pointer, which is how
// optional relation targets reach attach.
func isNilEntity(e model.Entity) bool {
	switch e := e.(type) {
	case nil:
		return true
	case *model.Revision:
		return e == nil
	case *model.Dir:
		return e == nil
	case *model.File:
		return e == nil
	}
	return false
}

func checkEntity(e model.Entity) error {
	switch e.(type) {
	case *model.Revision, *model.Dir, *model.File:
		return nil
	default:
		return fmt.Errorf("unsupported entity type %T", e)
	}
}

func rememberValue[T any](p *T) func() {
	old := *p
	return func() { *p = old }
}

func rememberPaths(p *[]string) func() {
	old := slices.Clone(*p)
	return func() { *p = old }
}

func appendPath(paths []string, path string) []string {
	if slices.Contains(paths, path) {
		return paths
	}
	return append(slices.Clip(paths), path)
}

func removePath(paths []string, path string) []string {
	return slices.DeleteFunc(slices.Clone(paths), func(p string) bool { return p == path })
}

// Compile-time check that Session implements wombat.UnitOfWork
var _ wombat.UnitOfWork = (*Session)(nil)
