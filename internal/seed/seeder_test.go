package seed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/blackwell-systems/setupvault/internal/record"
	"github.com/blackwell-systems/setupvault/internal/store"
	"github.com/blackwell-systems/setupvault/internal/vault"
)

var linuxAmd64 = record.SystemInfo{OS: "linux", Arch: "amd64"}

func newTestLedger(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("store.New() error: %v", err)
	}
	if err := s.CreateSchema(); err != nil {
		t.Fatalf("CreateSchema() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunEndToEnd(t *testing.T) {
	c := defaultCatalog(t)
	ledger := newTestLedger(t)
	v := vault.New(t.TempDir())

	var progressCalls, lastDone, lastTotal int
	seeder := New(v, c,
		WithLedger(ledger),
		WithProgress(func(done, total int) {
			progressCalls++
			lastDone, lastTotal = done, total
		}),
	)

	result, err := seeder.Run(context.Background(), Options{Seed: 42, InboxSize: 12, System: linuxAmd64})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	wantEntries := len(c.Expand("linux"))
	if wantEntries != 121 {
		t.Fatalf("linux catalog expands to %d specs, want 121", wantEntries)
	}

	// One file per entry, each at a distinct path.
	paths, err := v.ListEntries()
	if err != nil {
		t.Fatalf("ListEntries() error: %v", err)
	}
	if len(paths) != wantEntries {
		t.Errorf("wrote %d entry files, want %d", len(paths), wantEntries)
	}
	unique := make(map[string]bool)
	for _, p := range result.EntryPaths {
		unique[p] = true
	}
	if len(unique) != wantEntries {
		t.Errorf("%d distinct entry paths, want %d", len(unique), wantEntries)
	}

	if progressCalls != wantEntries || lastDone != wantEntries || lastTotal != wantEntries {
		t.Errorf("progress: %d calls, last %d/%d", progressCalls, lastDone, lastTotal)
	}

	inbox, err := v.LoadInbox()
	if err != nil {
		t.Fatalf("LoadInbox() error: %v", err)
	}
	if len(inbox) != 12 {
		t.Errorf("inbox.yaml has %d items, want 12", len(inbox))
	}
	seen := make(map[string]bool)
	for _, item := range inbox {
		if seen[item.Title] {
			t.Errorf("duplicate inbox title %q", item.Title)
		}
		seen[item.Title] = true
		if item.System != linuxAmd64 {
			t.Errorf("inbox item system = %+v", item.System)
		}
	}

	snoozed, err := v.LoadSnoozed()
	if err != nil {
		t.Fatalf("LoadSnoozed() error: %v", err)
	}
	if len(snoozed) != 2 || snoozed[0].Title != "Zoom" || snoozed[1].Title != "Spotify" {
		t.Errorf("snoozed = %+v, want Zoom then Spotify", snoozed)
	}

	// Every ID in the run is unique.
	ids := make(map[string]bool)
	for _, e := range result.Entries {
		ids[e.ID.String()] = true
	}
	for _, q := range append(append([]*record.QueueItem{}, result.Inbox...), result.Snoozed...) {
		ids[q.ID.String()] = true
	}
	if len(ids) != wantEntries+12+2 {
		t.Errorf("%d unique IDs, want %d", len(ids), wantEntries+14)
	}

	// Timestamps never go backwards in generation order.
	for i := 1; i < len(result.Entries); i++ {
		if result.Entries[i].DetectedAt.Before(result.Entries[i-1].DetectedAt) {
			t.Fatalf("entry %d detected_at decreased", i)
		}
	}

	for _, e := range result.Entries {
		if e.Status != record.StatusActive {
			t.Fatalf("entry %q status = %q, want active", e.Title, e.Status)
		}
	}

	if result.RunID == 0 {
		t.Fatal("expected run to be recorded in the ledger")
	}
	run, err := ledger.GetRun(result.RunID)
	if err != nil {
		t.Fatalf("GetRun() error: %v", err)
	}
	if run.EntryCount != wantEntries || run.InboxCount != 12 || run.SnoozedCount != 2 || run.InboxRequested != 12 {
		t.Errorf("ledger counts = %+v", run)
	}
	if run.Seed != 42 || run.OS != "linux" || run.VaultPath != v.Root() {
		t.Errorf("ledger run = %+v", run)
	}

	rows, err := ledger.ListRunEntries(result.RunID, "")
	if err != nil {
		t.Fatalf("ListRunEntries() error: %v", err)
	}
	if len(rows) != wantEntries+14 {
		t.Errorf("ledger has %d run entries, want %d", len(rows), wantEntries+14)
	}
}

func TestRunEntryFilesMatchRecords(t *testing.T) {
	v := vault.New(t.TempDir())
	result, err := New(v, defaultCatalog(t)).Run(context.Background(), Options{Seed: 42, InboxSize: 3, System: linuxAmd64})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	for i, e := range result.Entries[:10] {
		got, err := vault.LoadEntry(result.EntryPaths[i])
		if err != nil {
			t.Fatalf("LoadEntry() error: %v", err)
		}
		if got.ID != e.ID || got.Title != e.Title || got.Cmd != e.Cmd || got.Rationale != e.Rationale {
			t.Errorf("entry file %s does not match record %q", result.EntryPaths[i], e.Title)
		}
	}
}

func TestRunDeterminism(t *testing.T) {
	c := defaultCatalog(t)

	run := func() *Result {
		r, err := New(vault.New(t.TempDir()), c).Run(context.Background(), Options{Seed: 42, InboxSize: 12, System: linuxAmd64})
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}
		return r
	}
	a, b := run(), run()

	if !reflect.DeepEqual(entryKeys(a.Entries), entryKeys(b.Entries)) {
		t.Error("entry sequences differ between runs with the same seed")
	}
	if !reflect.DeepEqual(queueKeys(a.Inbox), queueKeys(b.Inbox)) {
		t.Error("inbox sequences differ between runs with the same seed")
	}
	if !reflect.DeepEqual(queueKeys(a.Snoozed), queueKeys(b.Snoozed)) {
		t.Error("snoozed sequences differ between runs with the same seed")
	}
	if a.Entries[0].ID == b.Entries[0].ID {
		t.Error("identifiers should be minted fresh on every run")
	}
}

func entryKeys(entries []*record.Entry) []specKey {
	specs := make([]record.Spec, len(entries))
	for i, e := range entries {
		specs[i] = record.Spec{Title: e.Title, Type: e.Type, Source: e.Source, Cmd: e.Cmd, Tags: e.Tags}
	}
	return keys(specs)
}

func queueKeys(items []*record.QueueItem) []specKey {
	specs := make([]record.Spec, len(items))
	for i, q := range items {
		specs[i] = record.Spec{Title: q.Title, Type: q.Type, Source: q.Source, Cmd: q.Cmd, Tags: q.Tags}
	}
	return keys(specs)
}

func TestRunRejectsInvalidInboxSize(t *testing.T) {
	root := filepath.Join(t.TempDir(), "vault")
	_, err := New(vault.New(root), defaultCatalog(t)).Run(context.Background(), Options{Seed: 42, InboxSize: 16, System: linuxAmd64})
	if !errors.Is(err, ErrInvalidInboxSize) {
		t.Fatalf("Run() error = %v, want ErrInvalidInboxSize", err)
	}
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Error("an invalid run should not touch the filesystem")
	}
}

func TestRunUnknownOS(t *testing.T) {
	v := vault.New(t.TempDir())
	result, err := New(v, defaultCatalog(t)).Run(context.Background(), Options{
		Seed:      42,
		InboxSize: 15,
		System:    record.SystemInfo{OS: "plan9", Arch: "386"},
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(result.Entries) != 9 {
		t.Errorf("entries = %d, want 9 base entries", len(result.Entries))
	}
	if len(result.Inbox) != 12 {
		t.Errorf("inbox = %d, want 12 (undershoot)", len(result.Inbox))
	}
	if len(result.Snoozed) != 1 {
		t.Errorf("snoozed = %d, want 1", len(result.Snoozed))
	}
}

func TestRunZeroInbox(t *testing.T) {
	v := vault.New(t.TempDir())
	if _, err := New(v, defaultCatalog(t)).Run(context.Background(), Options{Seed: 1, System: linuxAmd64}); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	data, err := os.ReadFile(v.InboxPath())
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if string(data) != "\n" {
		t.Errorf("empty inbox file = %q, want a lone newline", data)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(vault.New(t.TempDir()), defaultCatalog(t)).Run(ctx, Options{Seed: 42, InboxSize: 12, System: linuxAmd64})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestRunInterruptedReturnsPartialResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopAfter := func(done, total int) {
		if done == 5 {
			cancel()
		}
	}

	result, err := New(vault.New(t.TempDir()), defaultCatalog(t), WithProgress(stopAfter)).
		Run(ctx, Options{Seed: 42, InboxSize: 12, System: linuxAmd64})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if result == nil {
		t.Fatal("Run() should return the partial result with the error")
	}
	if len(result.EntryPaths) != 5 {
		t.Fatalf("EntryPaths = %d, want 5", len(result.EntryPaths))
	}
	for _, p := range result.EntryPaths {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("partial entry %s missing: %v", p, err)
		}
	}
}

func TestRunFixedClock(t *testing.T) {
	fixed := time.Date(2026, 10, 16, 9, 12, 33, 0, time.UTC)
	result, err := New(vault.New(t.TempDir()), defaultCatalog(t), WithClock(func() time.Time { return fixed })).
		Run(context.Background(), Options{Seed: 42, InboxSize: 1, System: linuxAmd64})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if !result.StartedAt.Equal(fixed) || !result.Inbox[0].DetectedAt.Equal(fixed) {
		t.Errorf("clock not applied: started %v, detected %v", result.StartedAt, result.Inbox[0].DetectedAt)
	}
}

type failingLedger struct{}

func (failingLedger) InsertRun(*store.Run, []*store.RunEntry) (int64, error) {
	return 0, errors.New("database is locked")
}

func TestRunLedgerFailure(t *testing.T) {
	result, err := New(vault.New(t.TempDir()), defaultCatalog(t), WithLedger(failingLedger{})).
		Run(context.Background(), Options{Seed: 42, InboxSize: 1, System: linuxAmd64})
	if err == nil {
		t.Fatal("Run() should surface ledger errors")
	}
	if result == nil || len(result.EntryPaths) != 121 {
		t.Error("a ledger failure should still report the entries written")
	}
}

func TestRunWriteFailure(t *testing.T) {
	root := t.TempDir()
	// A regular file where the entries directory should be.
	if err := os.WriteFile(filepath.Join(root, vault.EntriesDir), []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	_, err := New(vault.New(root), defaultCatalog(t)).Run(context.Background(), Options{Seed: 42, InboxSize: 1, System: linuxAmd64})
	if err == nil {
		t.Fatal("Run() should fail when the vault cannot be written")
	}
}
