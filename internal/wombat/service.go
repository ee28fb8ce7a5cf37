package wombat

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"wombatdb/internal/model"
)

var (
	// ErrRevisionNotFound is returned when a revision id has no row.
	ErrRevisionNotFound = errors.New("revision not found")

	// ErrDirNotFound is returned when a dir path has no row.
	ErrDirNotFound = errors.New("dir not found")

	// ErrNoArchive is returned by FetchArchive when the vault holds nothing
	// for the store.
	ErrNoArchive = errors.New("no archive in vault")

	// ErrArchiveBehind is returned by Archive when the vault already holds a
	// newer archive than the local store.
	ErrArchiveBehind = errors.New("local store is behind the vault archive")
)

// WombatService is the orchestration layer the CLI talks to. It reads the
// snapshot store, records revisions, and moves archives of the store in and
// out of the vault.
type WombatService struct {
	storeID   string
	store     Store
	vault     Vault
	encryptor Encryptor
	logger    Logger
	clock     Clock
}

// NewWombatService creates a new WombatService. vault and encryptor may be
// nil when only inspection is needed.
func NewWombatService(storeID string, store Store, vault Vault, encryptor Encryptor, logger Logger, clock Clock) *WombatService {
	if logger == nil {
		logger = NewNopLogger()
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &WombatService{
		storeID:   storeID,
		store:     store,
		vault:     vault,
		encryptor: encryptor,
		logger:    logger,
		clock:     clock,
	}
}

// RecordRevision stores a new revision under the next free id. The date
// comes from the service clock unless opts set one.
func (s *WombatService) RecordRevision(name string, opts ...model.RevisionOption) (*model.Revision, error) {
	maxID, err := s.store.MaxRevisionID()
	if err != nil {
		return nil, err
	}

	opts = append([]model.RevisionOption{model.WithDate(s.clock.Now())}, opts...)
	rev := model.NewRevision(maxID+1, name, opts...)

	uow := s.store.Begin()
	if err := uow.Add(rev); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		uow.Rollback()
		return nil, fmt.Errorf("recording revision: %w", err)
	}

	s.logger.Info("revision recorded", "id", rev.ID, "name", rev.Name)
	return rev, nil
}

// ListRevisions returns up to limit revisions, newest first. A limit of
// zero or less returns all of them.
func (s *WombatService) ListRevisions(limit int) ([]*model.Revision, error) {
	return s.store.ListRevisions(limit)
}

// RevisionSummary describes one revision and what it owns.
type RevisionSummary struct {
	Revision  *model.Revision
	DirCount  int
	FileCount int
	TotalSize int64 // sum of the sizes of the revision's files
}

// RevisionSummary loads revision id and totals its members.
func (s *WombatService) RevisionSummary(id int64) (*RevisionSummary, error) {
	rev, err := s.store.FindRevision(id)
	if err != nil {
		return nil, err
	}
	if rev == nil {
		return nil, fmt.Errorf("%w: %d", ErrRevisionNotFound, id)
	}

	summary := &RevisionSummary{
		Revision:  rev,
		DirCount:  len(rev.Dirs),
		FileCount: len(rev.Files),
	}
	for _, path := range rev.Files {
		file, err := s.store.FindFile(path)
		if err != nil {
			return nil, err
		}
		if file != nil {
			summary.TotalSize += file.Size
		}
	}
	return summary, nil
}

// TreeEntry is one line of a tree listing. Exactly one of Dir and File is set.
type TreeEntry struct {
	Depth int
	Dir   *model.Dir
	File  *model.File
}

// Path returns the path of the entry's dir or file.
func (e TreeEntry) Path() string {
	if e.Dir != nil {
		return e.Dir.Path
	}
	return e.File.Path
}

// Tree lists the committed tree under path depth first: each dir is
// followed by its subdirs (recursively) and then its files, all in commit
// order. An empty path lists every root dir.
func (s *WombatService) Tree(path string) ([]TreeEntry, error) {
	var roots []*model.Dir
	if path == "" {
		dirs, err := s.store.ListRootDirs()
		if err != nil {
			return nil, err
		}
		roots = dirs
	} else {
		dir, err := s.store.FindDir(path)
		if err != nil {
			return nil, err
		}
		if dir == nil {
			return nil, fmt.Errorf("%w: %s", ErrDirNotFound, path)
		}
		roots = []*model.Dir{dir}
	}

	var entries []TreeEntry
	seen := make(map[string]bool)
	for _, root := range roots {
		var err error
		entries, err = s.walk(root, 0, entries, seen)
		if err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func (s *WombatService) walk(dir *model.Dir, depth int, entries []TreeEntry, seen map[string]bool) ([]TreeEntry, error) {
	if seen[dir.Path] {
		return nil, fmt.Errorf("dir %s reached twice while walking the tree", dir.Path)
	}
	seen[dir.Path] = true

	entries = append(entries, TreeEntry{Depth: depth, Dir: dir})

	for _, path := range dir.Subdirs {
		sub, err := s.store.FindDir(path)
		if err != nil {
			return nil, err
		}
		if sub == nil {
			continue
		}
		entries, err = s.walk(sub, depth+1, entries, seen)
		if err != nil {
			return nil, err
		}
	}

	for _, path := range dir.Files {
		file, err := s.store.FindFile(path)
		if err != nil {
			return nil, err
		}
		if file == nil {
			continue
		}
		entries = append(entries, TreeEntry{Depth: depth + 1, File: file})
	}
	return entries, nil
}

// ArchiveResult describes an archive written to the vault.
type ArchiveResult struct {
	StoreID   string
	Version   int64
	Size      int64
	CreatedAt time.Time
}

// Archive snapshots the store, encrypts the snapshot and uploads it to the
// vault. The archive version is the highest revision id in the store, so an
// empty store cannot be archived. A vault holding a newer version is left
// alone and ErrArchiveBehind returned.
func (s *WombatService) Archive() (*ArchiveResult, error) {
	if s.vault == nil || s.encryptor == nil {
		return nil, fmt.Errorf("archiving requires a vault and an encryptor")
	}

	version, err := s.store.MaxRevisionID()
	if err != nil {
		return nil, err
	}
	if version == 0 {
		return nil, fmt.Errorf("store has no revisions to archive")
	}
	remote, err := s.vault.GetArchiveVersion(s.storeID)
	if err != nil {
		return nil, fmt.Errorf("checking remote archive version: %w", err)
	}
	if remote > version {
		return nil, fmt.Errorf("%w (local=%d, remote=%d)", ErrArchiveBehind, version, remote)
	}

	tmpDir, err := os.MkdirTemp("", "wombat-archive-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir for archive: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	snapshotPath := filepath.Join(tmpDir, "store.db")
	if err := s.store.BackupTo(snapshotPath); err != nil {
		return nil, err
	}

	encryptedPath := filepath.Join(tmpDir, "store.db.enc")
	size, err := s.encryptFile(snapshotPath, encryptedPath)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(encryptedPath)
	if err != nil {
		return nil, fmt.Errorf("opening encrypted archive: %w", err)
	}
	defer f.Close()

	if err := s.vault.PutArchive(s.storeID, f, size, version); err != nil {
		return nil, fmt.Errorf("uploading archive to vault: %w", err)
	}

	result := &ArchiveResult{
		StoreID:   s.storeID,
		Version:   version,
		Size:      size,
		CreatedAt: s.clock.Now().UTC(),
	}
	s.logger.Info("archive uploaded", "store", s.storeID, "version", version, "bytes", size)
	return result, nil
}

// FetchArchive downloads the store's archive, decrypts it with dc and
// writes the plain database to destPath, which must not exist yet. It
// returns the archive version.
func (s *WombatService) FetchArchive(dc DecryptionContext, destPath string) (int64, error) {
	if s.vault == nil {
		return 0, fmt.Errorf("fetching requires a vault")
	}
	if _, err := os.Stat(destPath); err == nil {
		return 0, fmt.Errorf("destination already exists: %s", destPath)
	}

	version, err := s.vault.GetArchiveVersion(s.storeID)
	if err != nil {
		return 0, fmt.Errorf("checking remote archive version: %w", err)
	}
	if version == 0 {
		return 0, fmt.Errorf("%w for store %s", ErrNoArchive, s.storeID)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return 0, fmt.Errorf("creating destination directory: %w", err)
	}

	encrypted, err := os.CreateTemp("", "wombat-fetch-*.enc")
	if err != nil {
		return 0, fmt.Errorf("creating temp file for archive: %w", err)
	}
	defer os.Remove(encrypted.Name())
	defer encrypted.Close()

	if err := s.vault.GetArchive(s.storeID, encrypted); err != nil {
		return 0, fmt.Errorf("downloading archive: %w", err)
	}
	if _, err := encrypted.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("rewinding archive: %w", err)
	}

	// Decrypt next to the destination so the final rename stays on one filesystem.
	plain, err := os.CreateTemp(filepath.Dir(destPath), ".wombat-fetch-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp file for database: %w", err)
	}
	plainPath := plain.Name()
	success := false
	defer func() {
		if !success {
			os.Remove(plainPath)
		}
	}()

	if err := dc.Decrypt(encrypted, plain); err != nil {
		plain.Close()
		return 0, fmt.Errorf("decrypting archive: %w", err)
	}
	if err := plain.Close(); err != nil {
		return 0, fmt.Errorf("closing database file: %w", err)
	}
	if err := os.Rename(plainPath, destPath); err != nil {
		return 0, fmt.Errorf("moving database into place: %w", err)
	}
	success = true

	s.logger.Info("archive fetched", "store", s.storeID, "version", version, "dest", destPath)
	return version, nil
}

func (s *WombatService) encryptFile(srcPath, destPath string) (int64, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return 0, fmt.Errorf("opening database snapshot: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return 0, fmt.Errorf("creating encrypted archive: %w", err)
	}

	if err := s.encryptor.Encrypt(src, dst); err != nil {
		dst.Close()
		return 0, fmt.Errorf("encrypting archive: %w", err)
	}
	if err := dst.Close(); err != nil {
		return 0, fmt.Errorf("closing encrypted archive: %w", err)
	}

	info, err := os.Stat(destPath)
	if err != nil {
		return 0, fmt.Errorf("stat encrypted archive: %w", err)
	}
	return info.Size(), nil
}
