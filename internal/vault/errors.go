package vault

import "errors"

// ErrArchiveNotFound is returned by GetArchive when no archive has been
// stored for the requested store.
var ErrArchiveNotFound = errors.New("archive not found")
