package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/setupvault/internal/record"
	"github.com/blackwell-systems/setupvault/internal/seed"
	"github.com/blackwell-systems/setupvault/internal/store"
	"github.com/blackwell-systems/setupvault/internal/vault"
)

func TestWatchCommand(t *testing.T) {
	if watchCmd.Use != "watch" {
		t.Errorf("expected Use to be 'watch', got '%s'", watchCmd.Use)
	}
	if watchCmd.Long == "" || watchCmd.Example == "" {
		t.Error("expected Long and Example to be set")
	}
	for _, name := range []string{"vault", "catalog", "inbox", "seed", "os"} {
		if watchCmd.Flags().Lookup(name) == nil {
			t.Errorf("expected flag '%s' to be registered", name)
		}
	}
}

func TestWatchCommand_RequiresCatalog(t *testing.T) {
	isolate(t)

	_, _, err := executeCommand(t, "watch", "--vault", t.TempDir(), "--no-ledger")
	if err == nil || !strings.Contains(err.Error(), "--catalog") {
		t.Errorf("expected a missing catalog error, got %v", err)
	}
}

func TestReseederReplacesPreviousEntries(t *testing.T) {
	isolate(t)
	catalogDir := t.TempDir()
	vaultDir := filepath.Join(t.TempDir(), "vault")
	catalogPath := writeTestCatalog(t, catalogDir, 3)

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)

	r := &reseeder{
		cmd: cmd,
		ctx: context.Background(),
		cfg: &seedConfig{
			VaultPath:   vaultDir,
			CatalogPath: catalogPath,
			Options: seed.Options{
				Seed:   seed.DefaultSeed,
				System: record.SystemInfo{OS: "linux", Arch: "amd64"},
			},
		},
	}

	countEntries := func() int {
		t.Helper()
		paths, err := vault.New(vaultDir).ListEntries()
		if err != nil {
			t.Fatalf("ListEntries() error: %v", err)
		}
		return len(paths)
	}

	if err := r.seed(); err != nil {
		t.Fatalf("first seed failed: %v", err)
	}
	if n := countEntries(); n != 3 {
		t.Fatalf("expected 3 entries after first seed, got %d", n)
	}

	writeTestCatalog(t, catalogDir, 1)
	if err := r.seed(); err != nil {
		t.Fatalf("re-seed failed: %v", err)
	}
	if n := countEntries(); n != 1 {
		t.Errorf("expected previous entries to be replaced, got %d files", n)
	}

	// A broken catalog leaves the vault as it was.
	if err := os.WriteFile(catalogPath, []byte("base: [\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := r.seed(); err == nil {
		t.Error("expected an error for a broken catalog")
	}
	if n := countEntries(); n != 1 {
		t.Errorf("a failed re-seed should not touch the vault, got %d files", n)
	}

	if got := strings.Count(out.String(), "Seeded vault at "); got != 2 {
		t.Errorf("expected two summaries, got %d:\n%s", got, out.String())
	}
}

type brokenLedger struct{}

func (brokenLedger) InsertRun(*store.Run, []*store.RunEntry) (int64, error) {
	return 0, errors.New("database is locked")
}

func TestReseederRemovesEntriesOfFailedRun(t *testing.T) {
	isolate(t)
	vaultDir := filepath.Join(t.TempDir(), "vault")
	catalogPath := writeTestCatalog(t, t.TempDir(), 3)

	cmd := &cobra.Command{}
	cmd.SetOut(&bytes.Buffer{})

	r := &reseeder{
		cmd:    cmd,
		ctx:    context.Background(),
		ledger: brokenLedger{},
		cfg: &seedConfig{
			VaultPath:   vaultDir,
			CatalogPath: catalogPath,
			Options: seed.Options{
				Seed:   seed.DefaultSeed,
				System: record.SystemInfo{OS: "linux", Arch: "amd64"},
			},
		},
	}

	// The entries are written before the ledger fails.
	if err := r.seed(); err == nil {
		t.Fatal("expected the ledger failure to be reported")
	}
	paths, err := vault.New(vaultDir).ListEntries()
	if err != nil {
		t.Fatalf("ListEntries() error: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("expected 3 entries from the failed run, got %d", len(paths))
	}

	r.ledger = nil
	if err := r.seed(); err != nil {
		t.Fatalf("re-seed failed: %v", err)
	}
	paths, err = vault.New(vaultDir).ListEntries()
	if err != nil {
		t.Fatalf("ListEntries() error: %v", err)
	}
	if len(paths) != 3 {
		t.Errorf("entries of the failed run should be removed, got %d files", len(paths))
	}
}
