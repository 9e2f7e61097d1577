package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/setupvault/internal/output"
	"github.com/blackwell-systems/setupvault/internal/record"
	"github.com/blackwell-systems/setupvault/internal/vault"
)

var (
	inspectVault   string
	inspectEntries bool

	inspectCmd = &cobra.Command{
		Use:   "inspect",
		Short: "Read a vault back and summarize its contents",
		Long: `Read every entry document and both queues from a vault and print what
was found. Each entry is parsed the way the setupvault app reads it, so a
clean inspect means the vault will load.

The command exits with an error if any entry or queue fails to parse.`,
		Example: `  # Summarize the default vault
  setupvault-seed inspect

  # List every entry in a specific vault
  setupvault-seed inspect --vault ~/demo-vault --entries`,
		RunE: runInspect,
	}
)

func init() {
	inspectCmd.Flags().StringVar(&inspectVault, "vault", "", "vault root (default: $SETUPVAULT_PATH or ~/.setupvault)")
	inspectCmd.Flags().BoolVar(&inspectEntries, "entries", false, "list every entry")
}

func runInspect(cmd *cobra.Command, args []string) error {
	root, err := vault.ResolvePath(inspectVault, defaults.Vault)
	if err != nil {
		return fmt.Errorf("failed to resolve vault path: %w", err)
	}
	v := vault.New(root)

	paths, err := v.ListEntries()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	entries := make([]*record.Entry, 0, len(paths))
	failed := 0
	for _, path := range paths {
		e, err := vault.LoadEntry(path)
		if err != nil {
			fmt.Fprintf(errOut, "  %v\n", err)
			failed++
			continue
		}
		entries = append(entries, e)
	}

	inbox, inboxErr := v.LoadInbox()
	if inboxErr != nil {
		fmt.Fprintf(errOut, "  %v\n", inboxErr)
		failed++
	}
	snoozed, snoozedErr := v.LoadSnoozed()
	if snoozedErr != nil {
		fmt.Fprintf(errOut, "  %v\n", snoozedErr)
		failed++
	}

	fmt.Fprintf(out, "Vault: %s\n", root)
	fmt.Fprintf(out, "Entries: %d\n", len(entries))
	fmt.Fprint(out, "  "+output.RenderTypeBreakdown(typeCounts(entries)))
	fmt.Fprintln(out)

	if inspectEntries {
		fmt.Fprint(out, output.RenderEntryTable(entries))
		fmt.Fprintln(out)
	}

	fmt.Fprint(out, output.RenderQueueTable("Inbox", inbox))
	fmt.Fprintln(out)
	fmt.Fprint(out, output.RenderQueueTable("Snoozed", snoozed))

	if failed > 0 {
		return fmt.Errorf("%d file(s) in %s failed to parse", failed, root)
	}
	return nil
}
