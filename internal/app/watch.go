package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/setupvault/internal/output"
	"github.com/blackwell-systems/setupvault/internal/seed"
	"github.com/blackwell-systems/setupvault/internal/vault"
	"github.com/blackwell-systems/setupvault/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-seed a vault whenever the catalog file changes",
	Long: `Seed a vault from a catalog file, then watch that file and seed again
each time it is saved.

Before each re-seed the entry files written by the previous run are
removed, so the vault always reflects the current catalog. A catalog that
fails to load or validate is reported and the vault is left as it was.

Press Ctrl+C (or send SIGTERM) to stop.`,
	Example: `  # Iterate on a custom catalog
  setupvault-seed watch --vault ./vault --catalog ./catalog.yaml

  # Watch with a fixed OS family and no ledger records
  setupvault-seed watch --vault ./vault --catalog ./catalog.yaml --os macos --no-ledger`,
	RunE: runWatch,
}

func init() {
	addSeedFlags(watchCmd)
}

// reseeder re-runs a seed configuration, replacing the entries of its own
// previous run.
type reseeder struct {
	cmd    *cobra.Command
	ctx    context.Context
	cfg    *seedConfig
	ledger seed.Ledger

	spinner *output.Spinner

	mu   sync.Mutex
	last *seed.Result
}

// seed loads the catalog, removes the previous run's entries and seeds
// again. An invalid catalog leaves the vault untouched.
func (r *reseeder) seed() error {
	c, err := loadCatalog(r.cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.last != nil {
		if err := vault.New(r.cfg.VaultPath).RemoveEntries(r.last.EntryPaths); err != nil {
			return err
		}
		logger.Debug("removed previous entries", "count", len(r.last.EntryPaths))
	}

	result, err := runSeeder(r.ctx, r.cfg, c, r.ledger, false)
	// Track partial runs too so their files are removed next time.
	r.last = result
	if err != nil {
		return err
	}

	if r.spinner != nil {
		r.spinner.UpdateMessage(fmt.Sprintf("Seeded %d entries, waiting for catalog changes", len(result.Entries)))
	}
	printSummary(r.cmd, result.Root, len(result.Entries), len(result.Inbox), len(result.Snoozed))
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := resolveSeedConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.CatalogPath == "" {
		return errors.New("watch needs a catalog file: pass --catalog or set catalog in the defaults file")
	}
	if err := seed.ValidateInboxSize(cfg.Options.InboxSize); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), inboxRangeMessage)
		return &ExitError{Code: 1}
	}
	path, err := vault.ExpandHome(cfg.CatalogPath)
	if err != nil {
		return err
	}
	cfg.CatalogPath = path

	ledger, err := openLedger()
	if err != nil {
		return err
	}
	if ledger != nil {
		defer ledger.Close()
	}

	ctx := commandContext(cmd)
	r := &reseeder{cmd: cmd, ctx: ctx, cfg: cfg}
	if ledger != nil {
		r.ledger = ledger
	}

	if err := r.seed(); err != nil {
		return err
	}

	w, err := watcher.New(cfg.CatalogPath, r.seed, logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s for changes (Ctrl+C to stop)\n", w.Path())
	spinner := output.NewSpinner("Waiting for catalog changes")
	r.spinner = spinner
	spinner.Start()
	defer spinner.Stop()

	if err := w.Run(ctx); err != nil {
		return err
	}

	runs, failures := w.Runs()
	spinner.StopWithMessage(fmt.Sprintf("Stopped after %d re-seed(s), %d failed", runs, failures))
	return nil
}
