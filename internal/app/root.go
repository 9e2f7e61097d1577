package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/setupvault/internal/config"
	"github.com/blackwell-systems/setupvault/internal/output"
	"github.com/blackwell-systems/setupvault/internal/store"
	"github.com/blackwell-systems/setupvault/internal/vault"
)

// ledgerFile is the default ledger name inside the setupvault home.
const ledgerFile = "seed.db"

var (
	dbPath   string
	noLedger bool
	verbose  bool
	logFile  string

	logger      = slog.New(slog.DiscardHandler)
	closeLogger = func() error { return nil }
	defaults    = &config.Defaults{}

	// RootCmd is the root command for setupvault-seed
	RootCmd = &cobra.Command{
		Use:   "setupvault-seed",
		Short: "Populate a setupvault vault with demo content",
		Long: `setupvault-seed fills a vault with a realistic, reproducible demo
library: entry documents for the packages, configs and applications a
developer machine would carry, an inbox of items awaiting review and a
short snoozed queue.

Runs are deterministic for a given seed, OS family and inbox size, so the
same vault layout can be rebuilt on any host. Every run is recorded in a
local SQLite ledger unless --no-ledger is given.

Settings are resolved in this order, later sources winning:
  1. ~/.config/setupvault/defaults (key=value lines)
  2. SETUPVAULT_PATH for the vault location
  3. command-line flags

Examples:
  # Seed a demo vault with the defaults (seed 42, 12 inbox items)
  setupvault-seed seed --vault ~/demo-vault

  # Seed the macOS catalog from a Linux host
  setupvault-seed seed --vault ./vault --os macos --arch arm64

  # Show what the catalog expands to
  setupvault-seed catalog --os windows

  # Check what a vault contains
  setupvault-seed inspect --vault ~/demo-vault

  # List previous runs
  setupvault-seed history`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
		RunE:              runRoot,
	}
)

func init() {
	// Global flags
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "ledger path (default: ~/.setupvault/seed.db)")
	RootCmd.PersistentFlags().BoolVar(&noLedger, "no-ledger", false, "do not record runs in the ledger")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	RootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write JSON logs to this file")

	// The root command seeds directly when given --vault.
	addSeedFlags(RootCmd)

	RootCmd.SuggestionsMinimumDistance = 2

	RootCmd.AddCommand(seedCmd)
	RootCmd.AddCommand(catalogCmd)
	RootCmd.AddCommand(inspectCmd)
	RootCmd.AddCommand(historyCmd)
	RootCmd.AddCommand(watchCmd)
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := RootCmd.ExecuteContext(ctx)
	if cerr := closeLogger(); cerr != nil && err == nil {
		err = fmt.Errorf("failed to close log file: %w", cerr)
	}
	return err
}

// ExitError asks main to exit with Code without printing anything further.
// The command has already reported the problem.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// setup configures logging and loads the defaults file.
func setup(cmd *cobra.Command, args []string) error {
	logger, closeLogger = config.SetupLogger(logFile, config.LogLevel(verbose))

	dir, err := config.Dir()
	if err != nil {
		logger.Warn("could not locate config directory", "error", err)
		return nil
	}
	loaded, err := config.LoadDefaults(dir)
	if err != nil {
		return fmt.Errorf("failed to read defaults file: %w", err)
	}
	for _, line := range loaded.Skipped {
		logger.Warn("ignoring defaults line", "line", line)
	}
	defaults = loaded
	return nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("vault") {
		return runSeed(cmd, args)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "setupvault-seed: demo content for setupvault vaults")
	fmt.Fprintln(out)

	if last := latestRun(); last != nil {
		fmt.Fprintf(out, "Last run: %s (seed %d, %s)\n", last.VaultPath, last.Seed, last.OS)
		fmt.Fprintln(out, "Tip: Run 'setupvault-seed history' to list all runs.")
	} else {
		fmt.Fprintln(out, "Run 'setupvault-seed seed --vault <path>' to create a demo vault.")
	}
	fmt.Fprintln(out, "Run 'setupvault-seed --help' for the full reference.")
	return nil
}

// latestRun returns the newest ledger run, or nil if there is none or the
// ledger cannot be read.
func latestRun() *store.Run {
	path, err := getDBPath()
	if err != nil {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	st, err := store.New(path)
	if err != nil {
		return nil
	}
	defer st.Close()

	run, err := st.LatestRun()
	if err != nil {
		logger.Debug("could not read ledger", "error", err)
		return nil
	}
	return run
}

// getDBPath returns the ledger path, using the flag value or default.
func getDBPath() (string, error) {
	if dbPath != "" {
		return vault.ExpandHome(dbPath)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, vault.DefaultDir, ledgerFile), nil
}

// openLedger opens the ledger for writing, creating it and its schema if
// needed. It returns nil when --no-ledger is set.
func openLedger() (*store.Store, error) {
	if noLedger {
		return nil, nil
	}

	path, err := getDBPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger path: %w", err)
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	st, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	if err := st.CreateSchema(); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create ledger schema: %w", err)
	}

	logger.Debug("opened ledger", "path", path)
	return st, nil
}

// openLedgerReadOnly opens an existing ledger without creating anything.
func openLedgerReadOnly() (*store.Store, error) {
	path, err := getDBPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger path: %w", err)
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, store.ErrNotInitialized
	}

	st, err := store.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	return st, nil
}

// printSummary writes the four-line run summary to stdout.
func printSummary(cmd *cobra.Command, root string, entries, inbox, snoozed int) {
	fmt.Fprint(cmd.OutOrStdout(), output.RenderSummary(root, entries, inbox, snoozed))
}
