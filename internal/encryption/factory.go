package encryption

import (
	"fmt"

	"wombatdb/internal/config"
	"wombatdb/internal/wombat"
)

// NewEncryptorFromConfig creates an Encryptor based on the configuration type.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (wombat.Encryptor, error) {
	switch cfg.Type {
	case config.EncryptionAge, "":
		return NewAgeEncryptor(cfg), nil
	case config.EncryptionTest:
		return NewTestEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
