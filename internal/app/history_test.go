package app

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blackwell-systems/setupvault/internal/store"
)

func TestHistoryCommandFlags(t *testing.T) {
	tests := []struct {
		flagName     string
		defaultValue string
	}{
		{"limit", "10"},
		{"run", "0"},
		{"delete", "0"},
	}

	for _, tt := range tests {
		flag := historyCmd.Flags().Lookup(tt.flagName)
		if flag == nil {
			t.Errorf("expected flag '%s' to be registered", tt.flagName)
			continue
		}
		if flag.DefValue != tt.defaultValue {
			t.Errorf("--%s default = %q, want %q", tt.flagName, flag.DefValue, tt.defaultValue)
		}
	}
}

func TestHistoryCommand_NoLedger(t *testing.T) {
	isolate(t)

	_, _, err := executeCommand(t, "history")
	if !errors.Is(err, store.ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}
}

func TestHistoryCommand(t *testing.T) {
	isolate(t)
	db := filepath.Join(t.TempDir(), "ledger.db")

	for _, osName := range []string{"linux", "windows"} {
		dir := filepath.Join(t.TempDir(), osName)
		if _, _, err := executeCommand(t, "seed", "--db", db, "--vault", dir, "--os", osName, "--quiet"); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	stdout, _, err := executeCommand(t, "history", "--db", db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"linux", "windows", "121", "81"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("history missing %q:\n%s", want, stdout)
		}
	}

	stdout, _, err = executeCommand(t, "history", "--db", db, "--limit", "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, "Showing 1 of 2 runs") {
		t.Errorf("expected truncation note:\n%s", stdout)
	}

	stdout, _, err = executeCommand(t, "history", "--db", db, "--run", "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"Run 1: seed 42 on linux", "entry", "inbox", "snoozed"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("run detail missing %q:\n%s", want, stdout)
		}
	}

	stdout, _, err = executeCommand(t, "history", "--db", db, "--delete", "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stdout != "Deleted run 1.\n" {
		t.Errorf("stdout = %q", stdout)
	}

	if _, _, err := executeCommand(t, "history", "--db", db, "--run", "1"); err == nil {
		t.Error("expected an error for a deleted run")
	}
	if _, _, err := executeCommand(t, "history", "--db", db, "--run", "2", "--delete", "2"); err == nil {
		t.Error("--run and --delete should be mutually exclusive")
	}
}
