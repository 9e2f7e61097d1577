package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/setupvault/internal/catalog"
	"github.com/blackwell-systems/setupvault/internal/output"
	"github.com/blackwell-systems/setupvault/internal/record"
	"github.com/blackwell-systems/setupvault/internal/seed"
	"github.com/blackwell-systems/setupvault/internal/system"
	"github.com/blackwell-systems/setupvault/internal/vault"
)

// inboxRangeMessage is printed on stderr for an out-of-range --inbox.
const inboxRangeMessage = "Inbox count must be between 0 and 15."

var (
	seedVault   string
	seedInbox   int
	seedSeed    int64
	seedOS      string
	seedArch    string
	seedCatalog string
	seedQuiet   bool

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Write demo entries and queues into a vault",
		Long: `Write a reproducible demo library into a vault.

The seed command expands the catalog for the target OS family into entry
documents under entries/, then writes the inbox and snoozed queues under
.state/. The same seed, OS family and inbox size always select the same
entries in the same order; identifiers and timestamps are fresh on every
run.

The inbox holds up to 15 items. When the OS family has fewer curated inbox
candidates than requested, the shared fallback list fills the gap without
repeating a title.`,
		Example: `  # Seed with the defaults
  setupvault-seed seed --vault ~/demo-vault

  # A smaller inbox and a different shuffle
  setupvault-seed seed --vault ./vault --inbox 5 --seed 7

  # Seed the Windows catalog from any host
  setupvault-seed seed --vault ./vault --os windows --arch amd64

  # Use a custom catalog and skip the progress bar
  setupvault-seed seed --vault ./vault --catalog ./catalog.yaml --quiet`,
		RunE: runSeed,
	}
)

func init() {
	addSeedFlags(seedCmd)
}

// addSeedFlags registers the seeding flags on cmd. The root, seed and watch
// commands share them.
func addSeedFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&seedVault, "vault", "", "vault root (default: $SETUPVAULT_PATH or ~/.setupvault)")
	cmd.Flags().IntVar(&seedInbox, "inbox", seed.DefaultInboxSize, "number of inbox items (0-15)")
	cmd.Flags().Int64Var(&seedSeed, "seed", seed.DefaultSeed, "random seed for selection order")
	cmd.Flags().StringVar(&seedOS, "os", "", "OS family to seed: macos, linux, windows (default: detected)")
	cmd.Flags().StringVar(&seedArch, "arch", "", "architecture recorded in entries (default: detected)")
	cmd.Flags().StringVar(&seedCatalog, "catalog", "", "catalog YAML file (default: built-in catalog)")
	cmd.Flags().BoolVar(&seedQuiet, "quiet", false, "suppress the progress bar")
}

// seedConfig is the fully resolved input of one seed run.
type seedConfig struct {
	VaultPath   string
	CatalogPath string
	Options     seed.Options
}

// resolveSeedConfig merges the defaults file, environment and flags, with
// flags winning.
func resolveSeedConfig(cmd *cobra.Command) (*seedConfig, error) {
	flags := cmd.Flags()

	inbox := defaults.InboxOr(seed.DefaultInboxSize)
	if flags.Changed("inbox") {
		inbox = seedInbox
	}
	seedValue := defaults.SeedOr(seed.DefaultSeed)
	if flags.Changed("seed") {
		seedValue = seedSeed
	}
	osName := defaults.OS
	if flags.Changed("os") {
		osName = seedOS
	}
	arch := defaults.Arch
	if flags.Changed("arch") {
		arch = seedArch
	}
	catalogPath := defaults.Catalog
	if flags.Changed("catalog") {
		catalogPath = seedCatalog
	}

	root, err := vault.ResolvePath(seedVault, defaults.Vault)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve vault path: %w", err)
	}

	sys := system.Resolve(system.Detect(), osName, arch)
	if !system.IsKnown(sys.OS) {
		logger.Warn("unrecognized OS family, seeding the base list only", "os", sys.OS)
	}

	return &seedConfig{
		VaultPath:   root,
		CatalogPath: catalogPath,
		Options: seed.Options{
			Seed:      seedValue,
			InboxSize: inbox,
			System:    sys,
		},
	}, nil
}

// loadCatalog returns the built-in catalog, or the one at path if set.
func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	expanded, err := vault.ExpandHome(path)
	if err != nil {
		return nil, err
	}
	return catalog.LoadFile(expanded)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := resolveSeedConfig(cmd)
	if err != nil {
		return err
	}

	if err := seed.ValidateInboxSize(cfg.Options.InboxSize); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), inboxRangeMessage)
		return &ExitError{Code: 1}
	}

	c, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	ledger, err := openLedger()
	if err != nil {
		return err
	}
	if ledger != nil {
		defer ledger.Close()
	}

	var sd seed.Ledger
	if ledger != nil {
		sd = ledger
	}

	result, err := runSeeder(commandContext(cmd), cfg, c, sd, !seedQuiet)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Seeding interrupted; the vault is incomplete.")
		}
		return err
	}

	printSummary(cmd, result.Root, len(result.Entries), len(result.Inbox), len(result.Snoozed))
	return nil
}

// runSeeder performs one seed run into cfg.VaultPath, drawing a progress bar
// on stderr when showProgress is set. A failed run may still return the
// partial result.
func runSeeder(ctx context.Context, cfg *seedConfig, c *catalog.Catalog, ledger seed.Ledger, showProgress bool) (*seed.Result, error) {
	opts := []seed.Option{seed.WithLogger(logger)}
	if ledger != nil {
		opts = append(opts, seed.WithLedger(ledger))
	}

	var bar *output.ProgressBar
	if showProgress {
		bar = output.NewProgress(0, "Writing entries")
		opts = append(opts, seed.WithProgress(bar.Update))
	}

	logger.Debug("seeding",
		"vault", cfg.VaultPath,
		"catalog", catalogLabel(cfg.CatalogPath),
		"seed", cfg.Options.Seed,
		"inbox", cfg.Options.InboxSize,
		"system", cfg.Options.System.OS+"/"+cfg.Options.System.Arch)

	s := seed.New(vault.New(cfg.VaultPath), c, opts...)
	result, err := s.Run(ctx, cfg.Options)
	if err != nil {
		return result, err
	}
	if bar != nil {
		bar.Finish()
	}
	return result, nil
}

// commandContext returns the command's context, or a background context
// when the command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func catalogLabel(path string) string {
	if path == "" {
		return "built-in"
	}
	return path
}

// typeCounts tallies entries per type.
func typeCounts(entries []*record.Entry) map[record.EntryType]int {
	counts := make(map[record.EntryType]int)
	for _, e := range entries {
		counts[e.Type]++
	}
	return counts
}
