package vault

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestMemoryVault_PutAndGetArchive(t *testing.T) {
	vault := NewMemoryVault()

	tests := []struct {
		name    string
		storeID string
		content string
	}{
		{name: "store and retrieve archive", storeID: "store-a", content: "encrypted bytes"},
		{name: "store empty archive", storeID: "store-b", content: ""},
		{name: "store large archive", storeID: "store-c", content: strings.Repeat("x", 10000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := strings.NewReader(tt.content)
			if err := vault.PutArchive(tt.storeID, r, int64(len(tt.content)), 1); err != nil {
				t.Fatalf("PutArchive() error = %v", err)
			}

			var buf bytes.Buffer
			if err := vault.GetArchive(tt.storeID, &buf); err != nil {
				t.Fatalf("GetArchive() unexpected error: %v", err)
			}

			if got := buf.String(); got != tt.content {
				t.Errorf("GetArchive() = %q, want %q", got, tt.content)
			}
		})
	}
}

func TestMemoryVault_PutArchiveOverwrites(t *testing.T) {
	vault := NewMemoryVault()

	for i, data := range []string{"version 1", "version 2"} {
		if err := vault.PutArchive("store", strings.NewReader(data), int64(len(data)), int64(i+1)); err != nil {
			t.Fatalf("PutArchive() iteration %d error: %v", i+1, err)
		}
	}

	var buf bytes.Buffer
	if err := vault.GetArchive("store", &buf); err != nil {
		t.Fatalf("GetArchive() error: %v", err)
	}
	if got := buf.String(); got != "version 2" {
		t.Errorf("GetArchive() = %q, want %q", got, "version 2")
	}

	version, err := vault.GetArchiveVersion("store")
	if err != nil {
		t.Fatalf("GetArchiveVersion() error: %v", err)
	}
	if version != 2 {
		t.Errorf("GetArchiveVersion() = %d, want 2", version)
	}
}

func TestMemoryVault_GetArchiveNotFound(t *testing.T) {
	vault := NewMemoryVault()

	var buf bytes.Buffer
	err := vault.GetArchive("nonexistent", &buf)
	if !errors.Is(err, ErrArchiveNotFound) {
		t.Errorf("GetArchive() error = %v, want ErrArchiveNotFound", err)
	}

	version, err := vault.GetArchiveVersion("nonexistent")
	if err != nil {
		t.Fatalf("GetArchiveVersion() error: %v", err)
	}
	if version != 0 {
		t.Errorf("GetArchiveVersion() = %d, want 0", version)
	}
}

func TestMemoryVault_PutArchiveSizeMismatch(t *testing.T) {
	vault := NewMemoryVault()

	content := "test"
	// Pass wrong size
	err := vault.PutArchive("store", strings.NewReader(content), int64(len(content)+10), 1)
	if err == nil {
		t.Error("PutArchive() expected error for size mismatch, got nil")
	}

	version, _ := vault.GetArchiveVersion("store")
	if version != 0 {
		t.Errorf("version recorded despite failed put: %d", version)
	}
}

func TestMemoryVault_ValidateSetup(t *testing.T) {
	vault := NewMemoryVault()

	if err := vault.ValidateSetup(); err != nil {
		t.Errorf("ValidateSetup() unexpected error: %v", err)
	}
}
