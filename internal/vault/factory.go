package vault

import (
	"fmt"

	"wombatdb/internal/config"
	"wombatdb/internal/wombat"
)

// NewVaultFromConfig creates a Vault implementation based on the vault config type.
func NewVaultFromConfig(cfg config.VaultConfig) (wombat.Vault, error) {
	switch cfg.Type {
	case config.VaultMemory:
		return NewMemoryVault(), nil
	case config.VaultS3:
		v, err := NewS3Vault(cfg)
		if err != nil {
			return nil, err
		}
		return v, nil
	case config.VaultFilesystem:
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem vault requires fs_root to be set")
		}
		v, err := NewFileSystemVault(cfg.FSRoot)
		if err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unknown vault type: %s", cfg.Type)
	}
}
