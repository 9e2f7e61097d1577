package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/blackwell-systems/setupvault/internal/catalog"
	"github.com/blackwell-systems/setupvault/internal/record"
	"github.com/blackwell-systems/setupvault/internal/store"
	"github.com/blackwell-systems/setupvault/internal/vault"
)

// Ledger records completed runs.
type Ledger interface {
	InsertRun(run *store.Run, entries []*store.RunEntry) (int64, error)
}

// ProgressFunc is called after each entry is written.
type ProgressFunc func(done, total int)

// Options describes one run.
type Options struct {
	Seed      int64
	InboxSize int
	System    record.SystemInfo
}

// Result is the outcome of a run.
type Result struct {
	RunID      int64 // zero when no ledger is configured
	Root       string
	Seed       int64
	System     record.SystemInfo
	StartedAt  time.Time
	Entries    []*record.Entry
	EntryPaths []string
	Inbox      []*record.QueueItem
	Snoozed    []*record.QueueItem
}

// Seeder writes demo content into a vault.
type Seeder struct {
	vault    *vault.Vault
	catalog  *catalog.Catalog
	ledger   Ledger
	logger   *slog.Logger
	progress ProgressFunc
	now      func() time.Time
	newID    func() uuid.UUID
}

// Option configures a Seeder.
type Option func(*Seeder)

// WithLedger records every successful run in l.
func WithLedger(l Ledger) Option {
	return func(s *Seeder) { s.ledger = l }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(s *Seeder) { s.logger = l }
}

// WithProgress reports entry writes to fn.
func WithProgress(fn ProgressFunc) Option {
	return func(s *Seeder) { s.progress = fn }
}

// WithClock replaces the time source (useful for testing).
func WithClock(now func() time.Time) Option {
	return func(s *Seeder) { s.now = now }
}

// WithIDSource replaces the identifier source (useful for testing).
func WithIDSource(newID func() uuid.UUID) Option {
	return func(s *Seeder) { s.newID = newID }
}

// New creates a Seeder writing into v from c.
func New(v *vault.Vault, c *catalog.Catalog, opts ...Option) *Seeder {
	s := &Seeder{
		vault:   v,
		catalog: c,
		logger:  slog.New(slog.DiscardHandler),
		now:     time.Now,
		newID:   uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run seeds the vault. Entries are written first, then the inbox and
// snoozed queues, then the run is recorded in the ledger. A failed write
// aborts the run and leaves earlier files in place. Once writing has begun,
// a failed run still returns the partial Result alongside the error so
// callers can find the files it wrote in EntryPaths.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Result, error) {
	if err := ValidateInboxSize(opts.InboxSize); err != nil {
		return nil, err
	}

	result := &Result{
		Root:      s.vault.Root(),
		Seed:      opts.Seed,
		System:    opts.System,
		StartedAt: s.now().UTC(),
	}
	log := s.logger.With("vault", result.Root, "seed", opts.Seed, "os", opts.System.OS)

	if err := s.vault.Init(); err != nil {
		return nil, err
	}

	selector := NewSelector(s.catalog, NewRand(opts.Seed))
	binder := record.NewBinder(opts.System).WithClock(s.now).WithIDSource(s.newID)

	result.Entries = binder.Entries(selector.DemoSet(opts.System.OS))
	log.Debug("selected demo set", "entries", len(result.Entries))

	result.EntryPaths = make([]string, 0, len(result.Entries))
	for i, e := range result.Entries {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("seeding interrupted after %d entries: %w", i, err)
		}
		path, err := s.vault.WriteEntry(e)
		if err != nil {
			return result, err
		}
		result.EntryPaths = append(result.EntryPaths, path)
		if s.progress != nil {
			s.progress(i+1, len(result.Entries))
		}
	}

	result.Inbox = binder.QueueItems(selector.InboxSet(opts.System.OS, opts.InboxSize))
	if len(result.Inbox) < opts.InboxSize {
		log.Info("inbox smaller than requested", "requested", opts.InboxSize, "selected", len(result.Inbox))
	}
	if err := s.vault.SaveInbox(result.Inbox); err != nil {
		return result, err
	}

	result.Snoozed = binder.QueueItems(selector.SnoozedSet(opts.System.OS))
	if err := s.vault.SaveSnoozed(result.Snoozed); err != nil {
		return result, err
	}

	if s.ledger != nil {
		id, err := s.ledger.InsertRun(result.run(opts.InboxSize), result.runEntries())
		if err != nil {
			return result, fmt.Errorf("failed to record run: %w", err)
		}
		result.RunID = id
		log.Debug("recorded run", "run_id", id)
	}

	log.Info("seeded vault", "entries", len(result.Entries), "inbox", len(result.Inbox), "snoozed", len(result.Snoozed))
	return result, nil
}

func (r *Result) run(inboxRequested int) *store.Run {
	return &store.Run{
		StartedAt:      r.StartedAt,
		Seed:           r.Seed,
		OS:             r.System.OS,
		Arch:           r.System.Arch,
		VaultPath:      r.Root,
		InboxRequested: inboxRequested,
		EntryCount:     len(r.Entries),
		InboxCount:     len(r.Inbox),
		SnoozedCount:   len(r.Snoozed),
	}
}

func (r *Result) runEntries() []*store.RunEntry {
	rows := make([]*store.RunEntry, 0, len(r.Entries)+len(r.Inbox)+len(r.Snoozed))
	for i, e := range r.Entries {
		rows = append(rows, &store.RunEntry{
			EntryID: e.ID.String(),
			Kind:    store.KindEntry,
			Title:   e.Title,
			Type:    string(e.Type),
			Source:  e.Source,
			Path:    r.EntryPaths[i],
		})
	}
	for _, q := range []struct {
		kind  string
		items []*record.QueueItem
	}{
		{store.KindInbox, r.Inbox},
		{store.KindSnoozed, r.Snoozed},
	} {
		for _, item := range q.items {
			row := &store.RunEntry{
				EntryID: item.ID.String(),
				Kind:    q.kind,
				Title:   item.Title,
				Type:    string(item.Type),
				Source:  item.Source,
			}
			if item.Path != nil {
				row.Path = *item.Path
			}
			rows = append(rows, row)
		}
	}
	return rows
}
