package app

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"wombatdb/internal/config"
	"wombatdb/internal/database"
	"wombatdb/internal/encryption"
	"wombatdb/internal/model"
	"wombatdb/internal/vault"
	"wombatdb/internal/wombat"
)

// WombatApp is the application layer between the CLI and WombatService.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw CLI values, and closes the store and log on Close.
type WombatApp struct {
	cfg       *config.Config
	store     *database.SQLiteStore
	vault     wombat.Vault
	encryptor wombat.Encryptor
	service   *wombat.WombatService
	clock     wombat.Clock
	op        *Operation
	logger    *slog.Logger
	logFile   *os.File
}

// Options tune how a WombatApp is opened.
type Options struct {
	// SkipSchemaCheck opens the store even when its schema is missing or
	// out of date. Schema maintenance commands need it.
	SkipSchemaCheck bool

	// Verbose writes debug records to the log.
	Verbose bool

	// Clock defaults to the real clock.
	Clock wombat.Clock
}

// NewWombatApp creates a fully wired WombatApp from the given config.
// operation identifies the CLI command being run (e.g. "Archive", "Tree").
// The caller must call Close when done.
func NewWombatApp(cfg *config.Config, operation string, opts Options) (*WombatApp, error) {
	clock := opts.Clock
	if clock == nil {
		clock = wombat.RealClock{}
	}

	runID := clock.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, runID, opts.Verbose)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	adapter := &slogAdapter{l: logger}

	fail := func(err error, closers ...func() error) (*WombatApp, error) {
		for _, c := range closers {
			c()
		}
		logFile.Close()
		return nil, err
	}

	v, err := vault.NewVaultFromConfig(cfg.Vault)
	if err != nil {
		return fail(fmt.Errorf("creating vault: %w", err))
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return fail(fmt.Errorf("creating encryptor: %w", err))
	}

	store, err := database.NewStoreFromConfig(cfg.Database, cfg.StoreID, adapter)
	if err != nil {
		return fail(fmt.Errorf("creating store: %w", err))
	}

	if !opts.SkipSchemaCheck {
		if err := store.CheckMigrations(); err != nil {
			return fail(fmt.Errorf("store schema out of date (run `wombat db migrate`): %w", err), store.Close)
		}
		warnIfBehind(store, v, cfg.StoreID, adapter)
	}

	svc := wombat.NewWombatService(cfg.StoreID, store, v, enc, adapter, clock)

	return &WombatApp{
		cfg:       cfg,
		store:     store,
		vault:     v,
		encryptor: enc,
		service:   svc,
		clock:     clock,
		op:        NewOperation(operation, "", clock.Now()),
		logger:    logger,
		logFile:   logFile,
	}, nil
}

// warnIfBehind logs when the vault holds a newer archive than the store.
// Reading is still allowed; Archive refuses to overwrite the newer copy.
func warnIfBehind(store *database.SQLiteStore, v wombat.Vault, storeID string, logger wombat.Logger) {
	remote, err := v.GetArchiveVersion(storeID)
	if err != nil {
		logger.Warn("could not check archive version", "error", err)
		return
	}
	local, err := store.MaxRevisionID()
	if err != nil {
		logger.Warn("could not check local version", "error", err)
		return
	}
	if remote > local {
		logger.Warn("local store is behind the vault archive", "local", local, "remote", remote)
	}
}

// Migrate brings the store schema up to date.
func (a *WombatApp) Migrate() error {
	return a.store.CreateSchema()
}

// SchemaStatus returns nil when the store schema is current.
func (a *WombatApp) SchemaStatus() error {
	return a.store.CheckMigrations()
}

// DropSchema removes every table from the store.
func (a *WombatApp) DropSchema() error {
	return a.store.DropSchema()
}

// StorePath returns where the store lives.
func (a *WombatApp) StorePath() string {
	return a.store.Path()
}

// RecordRevision stores a new revision. Empty log or author keep the defaults.
func (a *WombatApp) RecordRevision(name, log, author string) (*model.Revision, error) {
	var opts []model.RevisionOption
	if log != "" {
		opts = append(opts, model.WithLog(log))
	}
	if author != "" {
		opts = append(opts, model.WithAuthor(author))
	}
	return a.service.RecordRevision(name, opts...)
}

// ListRevisions returns the most recent revisions.
func (a *WombatApp) ListRevisions(limit int) ([]*model.Revision, error) {
	return a.service.ListRevisions(limit)
}

// RevisionSummary returns one revision with its member counts.
func (a *WombatApp) RevisionSummary(id int64) (*wombat.RevisionSummary, error) {
	return a.service.RevisionSummary(id)
}

// Tree lists the committed tree under path (every root when path is empty).
func (a *WombatApp) Tree(path string) ([]wombat.TreeEntry, error) {
	return a.service.Tree(path)
}

// SetupEncryption generates the archive key pair.
func (a *WombatApp) SetupEncryption(passphrase string) error {
	return a.encryptor.Setup(passphrase)
}

// Archive uploads an encrypted copy of the store to the vault.
func (a *WombatApp) Archive() (*wombat.ArchiveResult, error) {
	if !a.encryptor.IsConfigured() {
		return nil, fmt.Errorf("encryption keys not found (run `wombat config keys`)")
	}
	return a.service.Archive()
}

// FetchArchive unlocks the private key and restores the vault archive to dest.
func (a *WombatApp) FetchArchive(passphrase, dest string) (int64, error) {
	dc, err := a.encryptor.Unlock(passphrase)
	if err != nil {
		return 0, fmt.Errorf("unlocking private key: %w", err)
	}
	return a.service.FetchArchive(dc, dest)
}

// Close records the command outcome in the log and closes all resources.
// It returns cmdErr when set, otherwise the first error from closing.
func (a *WombatApp) Close(cmdErr error) error {
	a.op.Finish(cmdErr, a.clock.Now())
	if cmdErr != nil {
		a.logger.Error("command failed", "operation", a.op.Name, "elapsed", a.op.Elapsed.Round(time.Millisecond), "error", cmdErr)
	} else {
		a.logger.Debug("command finished", "operation", a.op.Name, "elapsed", a.op.Elapsed.Round(time.Millisecond))
	}

	closeErr := a.store.Close()
	if closeErr != nil {
		closeErr = fmt.Errorf("closing store: %w", closeErr)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}

	if cmdErr != nil {
		return cmdErr
	}
	return closeErr
}
