package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/setupvault/internal/output"
	"github.com/blackwell-systems/setupvault/internal/system"
)

var (
	catalogOS   string
	catalogFile string

	catalogCmd = &cobra.Command{
		Use:   "catalog",
		Short: "Show the groups the catalog expands to",
		Long: `Show how the catalog expands for one OS family: the shared base list
followed by each package-manager or application group and its size, plus
the inbox candidates and snoozed items that family would get.`,
		Example: `  # Catalog for the current host
  setupvault-seed catalog

  # Catalog for another OS family
  setupvault-seed catalog --os macos

  # Check a custom catalog file
  setupvault-seed catalog --catalog ./catalog.yaml --os linux`,
		RunE: runCatalog,
	}
)

func init() {
	catalogCmd.Flags().StringVar(&catalogOS, "os", "", "OS family: macos, linux, windows (default: detected)")
	catalogCmd.Flags().StringVar(&catalogFile, "catalog", "", "catalog YAML file (default: built-in catalog)")
}

func runCatalog(cmd *cobra.Command, args []string) error {
	path := defaults.Catalog
	if cmd.Flags().Changed("catalog") {
		path = catalogFile
	}
	c, err := loadCatalog(path)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	osName := defaults.OS
	if cmd.Flags().Changed("os") {
		osName = catalogOS
	}
	sys := system.Resolve(system.Detect(), osName, "")

	out := cmd.OutOrStdout()
	fmt.Fprint(out, output.RenderCatalogTable(sys.OS, len(c.Base), c.GroupsFor(sys.OS)))
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Inbox candidates: %d (plus %d fallback)\n", len(c.InboxCandidates(sys.OS)), len(c.FallbackSpecs()))
	fmt.Fprintf(out, "Snoozed: %d\n", len(c.SnoozedSpecs(sys.OS)))
	return nil
}
