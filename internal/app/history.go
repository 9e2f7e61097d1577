package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/setupvault/internal/output"
)

var (
	historyLimit  int
	historyRun    int64
	historyDelete int64

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "List previous seed runs",
		Long: `List the seed runs recorded in the ledger, newest first.

Each run records its seed, OS family, vault and how many entries and queue
items it produced. An inbox count shown in yellow is smaller than was
requested because the catalog ran out of distinct titles.

Use --run to list the records a single run produced and --delete to drop a
run from the ledger. Deleting a run does not touch the vault.`,
		Example: `  # Ten most recent runs
  setupvault-seed history

  # Every run
  setupvault-seed history --limit 0

  # What run 3 wrote
  setupvault-seed history --run 3

  # Forget run 3
  setupvault-seed history --delete 3`,
		RunE: runHistory,
	}
)

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "maximum runs to list (0 for all)")
	historyCmd.Flags().Int64Var(&historyRun, "run", 0, "show the records of one run")
	historyCmd.Flags().Int64Var(&historyDelete, "delete", 0, "delete one run from the ledger")
	historyCmd.MarkFlagsMutuallyExclusive("run", "delete")
}

func runHistory(cmd *cobra.Command, args []string) error {
	st, err := openLedgerReadOnly()
	if err != nil {
		return err
	}
	defer st.Close()

	out := cmd.OutOrStdout()

	switch {
	case historyDelete > 0:
		if err := st.DeleteRun(historyDelete); err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted run %d.\n", historyDelete)
		return nil

	case historyRun > 0:
		run, err := st.GetRun(historyRun)
		if err != nil {
			return err
		}
		entries, err := st.ListRunEntries(run.ID, "")
		if err != nil {
			return err
		}
		fmt.Fprint(out, output.RenderRunEntryTable(run, entries))
		return nil
	}

	runs, err := st.ListRuns(historyLimit)
	if err != nil {
		return err
	}
	total, err := st.CountRuns()
	if err != nil {
		return err
	}

	fmt.Fprint(out, output.RenderRunTable(runs))
	if len(runs) < total {
		fmt.Fprintf(out, "\nShowing %d of %d runs. Use --limit 0 to list all.\n", len(runs), total)
	}
	return nil
}
