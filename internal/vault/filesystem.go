package vault

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"wombatdb/internal/wombat"
)

// FileSystemVault is a filesystem-based implementation of the Vault interface.
// It stores archives as files in a directory structure:
//
//	<root>/
//	  archives/
//	    <storeID>.db       (encrypted store archive)
//	    <storeID>.version  (highest revision id in the archive)
type FileSystemVault struct {
	root        string
	archivesDir string
}

// NewFileSystemVault creates a new filesystem vault rooted at the given path.
func NewFileSystemVault(root string) (*FileSystemVault, error) {
	archivesDir := filepath.Join(root, "archives")

	if err := os.MkdirAll(archivesDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archives directory: %w", err)
	}

	return &FileSystemVault{
		root:        root,
		archivesDir: archivesDir,
	}, nil
}

// PutArchive stores the archive for storeID along with a version marker.
// The version file is written after the archive, so a reader never sees a
// version without its data.
func (v *FileSystemVault) PutArchive(storeID string, r io.Reader, size int64, version int64) error {
	if err := v.writeFile(v.archivePath(storeID), r, size); err != nil {
		return err
	}

	versionData := strconv.FormatInt(version, 10)
	return v.writeFile(v.versionPath(storeID), strings.NewReader(versionData), int64(len(versionData)))
}

// GetArchiveVersion returns the archive version for storeID.
// Returns 0 if no version file exists.
func (v *FileSystemVault) GetArchiveVersion(storeID string) (int64, error) {
	data, err := os.ReadFile(v.versionPath(storeID))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading version file: %w", err)
	}

	version, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing version: %w", err)
	}
	return version, nil
}

// GetArchive writes the archive for storeID to w.
func (v *FileSystemVault) GetArchive(storeID string, w io.Writer) error {
	f, err := os.Open(v.archivePath(storeID))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w for store: %s", ErrArchiveNotFound, storeID)
		}
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}

	return nil
}

// ValidateSetup verifies that the vault directories are accessible.
func (v *FileSystemVault) ValidateSetup() error {
	for _, dir := range []string{v.root, v.archivesDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("vault directory not accessible: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("vault path is not a directory: %s", dir)
		}
	}

	probe, err := os.CreateTemp(v.archivesDir, ".probe-*")
	if err != nil {
		return fmt.Errorf("vault not writable: %w", err)
	}
	probe.Close()
	return os.Remove(probe.Name())
}

func (v *FileSystemVault) archivePath(storeID string) string {
	return filepath.Join(v.archivesDir, storeID+".db")
}

func (v *FileSystemVault) versionPath(storeID string) string {
	return filepath.Join(v.archivesDir, storeID+".version")
}

// writeFile writes data from r to the specified path using atomic write (temp file + rename).
func (v *FileSystemVault) writeFile(destPath string, r io.Reader, expectedSize int64) error {
	// Create temp file in the same directory to ensure atomic rename works
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// Compile-time check that FileSystemVault implements wombat.Vault interface
var _ wombat.Vault = (*FileSystemVault)(nil)
