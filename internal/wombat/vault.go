package wombat

import "io"

// Vault stores encrypted archives of snapshot stores. Archives are keyed by
// store ID and carry a version (the highest revision id they contain) so a
// stale local store can't overwrite a newer archive.
type Vault interface {
	// PutArchive stores the archive read from r. size is the number of bytes
	// r will produce.
	PutArchive(storeID string, r io.Reader, size int64, version int64) error

	// GetArchive writes the stored archive for storeID to w.
	GetArchive(storeID string, w io.Writer) error

	// GetArchiveVersion returns the version of the stored archive, or 0 if
	// none has been stored.
	GetArchiveVersion(storeID string) (int64, error)

	// ValidateSetup verifies that the vault is reachable and writable.
	ValidateSetup() error
}
