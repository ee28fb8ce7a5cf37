package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Database types.
const (
	DatabaseSQLite = "sqlite"
	DatabaseMemory = "memory"
)

// Vault types.
const (
	VaultMemory     = "memory"
	VaultFilesystem = "filesystem"
	VaultS3         = "s3"
)

// Encryption types.
const (
	EncryptionAge  = "age"
	EncryptionTest = "test"
)

// Config represents the main configuration for wombat.
type Config struct {
	StoreID    string           `toml:"store_id"`
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	Database   DatabaseConfig   `toml:"database"`
	Vault      VaultConfig      `toml:"vault"`
	Encryption EncryptionConfig `toml:"encryption"`
}

// DatabaseConfig selects where the snapshot store lives.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// VaultConfig selects where archives of the store are kept.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type VaultConfig struct {
	Type string `toml:"type"` // "memory", "filesystem" or "s3"

	// FSRoot is only used when Type == "filesystem".
	FSRoot string `toml:"fs_root,omitempty"`

	// S3 fields are only used when Type == "s3". Credentials come from the
	// default AWS chain unless both key fields are set.
	S3Bucket      string `toml:"s3_bucket,omitempty"`
	S3Prefix      string `toml:"s3_prefix,omitempty"`
	S3Region      string `toml:"s3_region,omitempty"`
	S3Endpoint    string `toml:"s3_endpoint,omitempty"`
	S3AccessKeyID string `toml:"s3_access_key_id,omitempty"`
	S3SecretKey   string `toml:"s3_secret_key,omitempty"`
	S3Timeout     string `toml:"s3_timeout,omitempty"`
}

// EncryptionConfig holds paths to the age key pair used for archives.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "age" (default) or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// NewConfig creates a Config for a file-backed store under baseDir.
func NewConfig(storeID, baseDir string) *Config {
	return &Config{
		StoreID: storeID,
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Database: DatabaseConfig{
			Type:    DatabaseSQLite,
			DataDir: filepath.Join(baseDir, "db"),
		},
		Vault: VaultConfig{
			Type:   VaultFilesystem,
			FSRoot: filepath.Join(baseDir, "vault"),
		},
		Encryption: EncryptionConfig{
			Type:           EncryptionAge,
			PublicKeyPath:  filepath.Join(baseDir, "keys", "wombat.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "wombat.key"),
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.StoreID, validation.Required),
		validation.Field(&c.LogDir, validation.Required),
	); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Vault.Validate(); err != nil {
		return fmt.Errorf("vault: %w", err)
	}
	if err := c.Encryption.Validate(); err != nil {
		return fmt.Errorf("encryption: %w", err)
	}
	return nil
}

// Validate validates the database configuration.
func (c *DatabaseConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Type, validation.Required, validation.In(DatabaseSQLite, DatabaseMemory)),
		validation.Field(&c.DataDir, validation.When(c.Type == DatabaseSQLite, validation.Required)),
	)
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Type, validation.Required, validation.In(VaultMemory, VaultFilesystem, VaultS3)),
		validation.Field(&c.FSRoot, validation.When(c.Type == VaultFilesystem, validation.Required)),
		validation.Field(&c.S3Bucket, validation.When(c.Type == VaultS3, validation.Required)),
		validation.Field(&c.S3Region, validation.When(c.Type == VaultS3, validation.Required)),
		validation.Field(&c.S3SecretKey, validation.When(c.S3AccessKeyID != "", validation.Required)),
	)
}

// Validate validates the encryption configuration.
// An empty type means age.
func (c *EncryptionConfig) Validate() error {
	isAge := c.Type == "" || c.Type == EncryptionAge
	return validation.ValidateStruct(c,
		validation.Field(&c.Type, validation.In(EncryptionAge, EncryptionTest)),
		validation.Field(&c.PublicKeyPath, validation.When(isAge, validation.Required)),
		validation.Field(&c.PrivateKeyPath, validation.When(isAge, validation.Required)),
	)
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads and validates a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes cfg to path. It refuses to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
