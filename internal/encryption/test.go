package encryption

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"wombatdb/internal/wombat"
)

// testHeader is prepended to data by TestEncryptor to make encrypted output
// clearly different from plaintext while remaining deterministic and reversible.
var testHeader = []byte("WOMBAT\x00\x00")

// ErrNotTestArchive is returned when decrypting data that TestEncryptor did
// not produce.
var ErrNotTestArchive = errors.New("not a test-encrypted archive")

// TestEncryptor is a deterministic encryptor for tests and throwaway stores.
// It prepends a fixed 8-byte header during encryption and strips it during
// decryption, so an "encrypted" archive is never a bare SQLite file.
type TestEncryptor struct {
	setupCalled bool
}

var _ wombat.Encryptor = (*TestEncryptor)(nil)

// NewTestEncryptor creates a new TestEncryptor.
func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{}
}

func (e *TestEncryptor) Setup(passphrase string) error {
	e.setupCalled = true
	return nil
}

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(testHeader); err != nil {
		return fmt.Errorf("writing test header: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (e *TestEncryptor) Unlock(passphrase string) (wombat.DecryptionContext, error) {
	return &TestDecryptionContext{}, nil
}

func (e *TestEncryptor) IsConfigured() bool {
	return true
}

// TestDecryptionContext strips the test header added by TestEncryptor.
type TestDecryptionContext struct{}

var _ wombat.DecryptionContext = (*TestDecryptionContext)(nil)

func (c *TestDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	header := make([]byte, len(testHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("%w: %v", ErrNotTestArchive, err)
	}
	if !bytes.Equal(header, testHeader) {
		return ErrNotTestArchive
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
