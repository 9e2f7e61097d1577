package store

import "time"

// Entry kinds recorded in run_entries.
const (
	KindEntry   = "entry"
	KindInbox   = "inbox"
	KindSnoozed = "snoozed"
)

// Run is one seeding of a vault.
type Run struct {
	ID             int64
	StartedAt      time.Time
	Seed           int64
	OS             string
	Arch           string
	VaultPath      string
	InboxRequested int
	EntryCount     int
	InboxCount     int
	SnoozedCount   int
}

// RunEntry is a record produced by a run. Path is the entry file for
// KindEntry rows and the queue item's path (possibly empty) otherwise.
type RunEntry struct {
	RunID   int64
	EntryID string
	Kind    string // "entry", "inbox" or "snoozed"
	Title   string
	Type    string
	Source  string
	Path    string
}
