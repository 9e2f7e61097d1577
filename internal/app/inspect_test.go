package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blackwell-systems/setupvault/internal/vault"
)

func TestInspectCommand(t *testing.T) {
	isolate(t)
	vaultDir := filepath.Join(t.TempDir(), "vault")

	if _, _, err := executeCommand(t, "seed", "--vault", vaultDir, "--os", "linux", "--no-ledger", "--quiet"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	stdout, stderr, err := executeCommand(t, "inspect", "--vault", vaultDir)
	if err != nil {
		t.Fatalf("unexpected error: %v\nstderr: %s", err, stderr)
	}
	for _, want := range []string{"Vault: " + vaultDir, "Entries: 121", "packages:", "Inbox (12)", "Snoozed (2)", "Zoom"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "Status") {
		t.Error("entry table should only be shown with --entries")
	}

	stdout, _, err = executeCommand(t, "inspect", "--vault", vaultDir, "--entries")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "Status") || !strings.Contains(stdout, "active") {
		t.Errorf("expected entry table with --entries:\n%s", stdout)
	}
}

func TestInspectCommand_ParseFailure(t *testing.T) {
	isolate(t)
	vaultDir := filepath.Join(t.TempDir(), "vault")

	if _, _, err := executeCommand(t, "seed", "--vault", vaultDir, "--os", "macos", "--no-ledger", "--quiet"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	paths, err := vault.New(vaultDir).ListEntries()
	if err != nil {
		t.Fatalf("ListEntries() error: %v", err)
	}
	if err := os.WriteFile(paths[0], []byte("no front matter here\n"), 0644); err != nil {
		t.Fatal(err)
	}

	stdout, stderr, err := executeCommand(t, "inspect", "--vault", vaultDir)
	if err == nil {
		t.Fatal("expected an error when an entry fails to parse")
	}
	if !strings.Contains(err.Error(), "1 file(s)") {
		t.Errorf("error = %v", err)
	}
	if !strings.Contains(stderr, filepath.Base(paths[0])) {
		t.Errorf("stderr should name the broken file, got %q", stderr)
	}
	if !strings.Contains(stdout, "Entries: 99") {
		t.Errorf("the remaining entries should still be counted:\n%s", stdout)
	}
}

func TestInspectCommand_MissingVault(t *testing.T) {
	isolate(t)

	if _, _, err := executeCommand(t, "inspect", "--vault", filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected an error for a vault without entries/")
	}
}
