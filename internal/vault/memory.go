package vault

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"wombatdb/internal/wombat"
)

// MemoryVault is an in-memory implementation of the Vault interface.
// It keeps every archive in memory, making it useful for testing.
// This implementation is safe for concurrent use.
type MemoryVault struct {
	archives map[string][]byte // storeID -> archive
	versions map[string]int64  // storeID -> version
	mu       sync.RWMutex
}

// NewMemoryVault creates a new empty in-memory vault.
func NewMemoryVault() *MemoryVault {
	return &MemoryVault{
		archives: make(map[string][]byte),
		versions: make(map[string]int64),
	}
}

// PutArchive stores the archive for storeID, replacing any earlier one.
func (m *MemoryVault) PutArchive(storeID string, r io.Reader, size int64, version int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}

	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.archives[storeID] = data
	m.versions[storeID] = version
	return nil
}

// GetArchiveVersion returns the archive version for storeID.
// Returns 0 if no archive has been stored.
func (m *MemoryVault) GetArchiveVersion(storeID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.versions[storeID], nil
}

// GetArchive writes the archive for storeID to w.
func (m *MemoryVault) GetArchive(storeID string, w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.archives[storeID]
	if !ok {
		return fmt.Errorf("%w for store: %s", ErrArchiveNotFound, storeID)
	}

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}

	return nil
}

// ValidateSetup always succeeds for in-memory vault.
func (m *MemoryVault) ValidateSetup() error {
	return nil
}

// Compile-time check that MemoryVault implements wombat.Vault interface
var _ wombat.Vault = (*MemoryVault)(nil)
