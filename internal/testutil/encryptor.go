package testutil

import (
	"wombatdb/internal/encryption"
	"wombatdb/internal/wombat"
)

// NewTestEncryptor creates a new test encryptor for testing.
func NewTestEncryptor() wombat.Encryptor {
	return encryption.NewTestEncryptor()
}
