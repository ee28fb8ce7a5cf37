package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"wombatdb/internal/app"
	"wombatdb/internal/config"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a WombatApp. The caller must call
// a.Close with the command's error.
// operation identifies the CLI command being run (e.g. "Archive", "Tree").
func newApp(cmd *cobra.Command, operation string, skipSchemaCheck bool) (*app.WombatApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	a, err := app.NewWombatApp(cfg, operation, app.Options{
		SkipSchemaCheck: skipSchemaCheck,
		Verbose:         verbose,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// readPassphrase prompts on stderr and reads a passphrase without echo.
// WOMBAT_PASSPHRASE takes precedence so scripts can run unattended.
func readPassphrase(prompt string) (string, error) {
	if p := os.Getenv("WOMBAT_PASSPHRASE"); p != "" {
		return p, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no terminal to read the passphrase from (set WOMBAT_PASSPHRASE)")
	}

	fmt.Fprint(os.Stderr, prompt)
	data, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(data), nil
}

var rootCmd = &cobra.Command{
	Use:   "wombat",
	Short: "Versioned filesystem snapshot store",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		storeID := uuid.New().String()
		cfg := config.NewConfig(storeID, defaults.BaseDir)

		if err := config.Init(defaults.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Printf("Store ID: %s\n", storeID)
		fmt.Printf("Base Dir: %s\n", defaults.BaseDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults.ConfigPath)
		fmt.Printf("Store ID:   %s\n", cfg.StoreID)
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Database:   %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Vault:      %s\n", cfg.Vault.Type)
		fmt.Printf("Encryption: %s\n", cfg.Encryption.Type)
		return nil
	},
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Generate the archive encryption keys",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "SetupEncryption", true)
		if err != nil {
			return err
		}
		defer func() { err = a.Close(err) }()

		passphrase, err := readPassphrase("New passphrase: ")
		if err != nil {
			return err
		}
		confirm, err := readPassphrase("Repeat passphrase: ")
		if err != nil {
			return err
		}
		if passphrase != confirm {
			return fmt.Errorf("passphrases do not match")
		}

		if err := a.SetupEncryption(passphrase); err != nil {
			return err
		}
		fmt.Println("Encryption keys created.")
		return nil
	},
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the snapshot store",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the store schema",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "Migrate", true)
		if err != nil {
			return err
		}
		defer func() { err = a.Close(err) }()

		if err := a.Migrate(); err != nil {
			return err
		}
		fmt.Printf("Schema up to date: %s\n", a.StorePath())
		return nil
	},
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the store schema",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "SchemaStatus", true)
		if err != nil {
			return err
		}
		defer func() { err = a.Close(err) }()

		if err := a.SchemaStatus(); err != nil {
			return err
		}
		fmt.Printf("Schema up to date: %s\n", a.StorePath())
		return nil
	},
}

var dbDropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Remove every table from the store",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		force, _ := cmd.Flags().GetBool("force")
		if !force {
			return fmt.Errorf("refusing to drop the store without --force")
		}

		a, err := newApp(cmd, "DropSchema", true)
		if err != nil {
			return err
		}
		defer func() { err = a.Close(err) }()

		if err := a.DropSchema(); err != nil {
			return err
		}
		fmt.Println("Schema dropped.")
		return nil
	},
}

var dbArchiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Upload an encrypted copy of the store to the vault",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "Archive", false)
		if err != nil {
			return err
		}
		defer func() { err = a.Close(err) }()

		result, err := a.Archive()
		if err != nil {
			return fmt.Errorf("archive failed: %w", err)
		}
		fmt.Printf("Archived store %s at version %d (%d bytes)\n", result.StoreID, result.Version, result.Size)
		return nil
	},
}

var dbFetchCmd = &cobra.Command{
	Use:   "fetch DEST",
	Short: "Download and decrypt the vault archive to DEST",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "FetchArchive", true)
		if err != nil {
			return err
		}
		defer func() { err = a.Close(err) }()

		passphrase, err := readPassphrase("Passphrase: ")
		if err != nil {
			return err
		}

		version, err := a.FetchArchive(passphrase, args[0])
		if err != nil {
			return fmt.Errorf("fetch failed: %w", err)
		}
		fmt.Printf("Fetched archive version %d to %s\n", version, args[0])
		return nil
	},
}

// revisions command
var revisionsCmd = &cobra.Command{
	Use:   "revisions",
	Short: "List revisions, newest first",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd, "ListRevisions", false)
		if err != nil {
			return err
		}
		defer func() { err = a.Close(err) }()

		revs, err := a.ListRevisions(limit)
		if err != nil {
			return err
		}

		if len(revs) == 0 {
			fmt.Println("No revisions recorded.")
			return nil
		}

		for _, rev := range revs {
			fmt.Printf("#%d  %-20s  %s  %-16s  %s\n",
				rev.ID,
				rev.Name,
				rev.Date.Format("2006-01-02 15:04:05"),
				rev.Author,
				rev.Log,
			)
		}
		return nil
	},
}

var revisionAddCmd = &cobra.Command{
	Use:   "record NAME",
	Short: "Record a new revision",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		message, _ := cmd.Flags().GetString("message")
		author, _ := cmd.Flags().GetString("author")

		a, err := newApp(cmd, "RecordRevision", false)
		if err != nil {
			return err
		}
		defer func() { err = a.Close(err) }()

		rev, err := a.RecordRevision(args[0], message, author)
		if err != nil {
			return err
		}
		fmt.Println(rev)
		return nil
	},
}

// show command
var showCmd = &cobra.Command{
	Use:   "show REV_ID",
	Short: "Show one revision",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid revision id %q: %w", args[0], err)
		}

		a, err := newApp(cmd, "RevisionSummary", false)
		if err != nil {
			return err
		}
		defer func() { err = a.Close(err) }()

		summary, err := a.RevisionSummary(id)
		if err != nil {
			return err
		}

		rev := summary.Revision
		fmt.Println(rev)
		fmt.Printf("Name:   %s\n", rev.Name)
		fmt.Printf("Author: %s\n", rev.Author)
		fmt.Printf("Date:   %s\n", rev.Date.Format("2006-01-02 15:04:05"))
		fmt.Printf("Dirs:   %d\n", summary.DirCount)
		fmt.Printf("Files:  %d (%d bytes)\n", summary.FileCount, summary.TotalSize)
		return nil
	},
}

// tree command
var treeCmd = &cobra.Command{
	Use:   "tree [PATH]",
	Short: "Print the committed tree under a dir",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp(cmd, "Tree", false)
		if err != nil {
			return err
		}
		defer func() { err = a.Close(err) }()

		path := ""
		if len(args) > 0 {
			path = args[0]
		}

		entries, err := a.Tree(path)
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No dirs recorded.")
			return nil
		}

		for _, e := range entries {
			indent := strings.Repeat("  ", e.Depth)
			if e.Dir != nil {
				fmt.Printf("%s%s/\n", indent, e.Dir.Name)
				continue
			}
			fmt.Printf("%s%s  (%d bytes)\n", indent, e.File.Name, e.File.Size)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Write debug records to the log")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configKeysCmd)

	// db subcommands
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbStatusCmd)
	dbCmd.AddCommand(dbDropCmd)
	dbDropCmd.Flags().Bool("force", false, "Confirm dropping every table")
	dbCmd.AddCommand(dbArchiveCmd)
	dbCmd.AddCommand(dbFetchCmd)

	// revisions subcommands
	revisionsCmd.AddCommand(revisionAddCmd)
	revisionsCmd.Flags().IntP("limit", "n", 50, "Maximum number of revisions to show")
	revisionAddCmd.Flags().StringP("message", "m", "", "Log message")
	revisionAddCmd.Flags().String("author", "", "Author of the revision")

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(revisionsCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(treeCmd)
}
