package record

import (
	"time"

	"github.com/google/uuid"
)

// Binder turns specs into records for one run. Every record gets a fresh
// identifier and the current time; timestamps never go backwards across
// calls on the same Binder.
type Binder struct {
	System SystemInfo

	now   func() time.Time
	newID func() uuid.UUID
	last  time.Time
}

// NewBinder creates a Binder using the wall clock and random UUIDs.
func NewBinder(system SystemInfo) *Binder {
	return &Binder{
		System: system,
		now:    time.Now,
		newID:  uuid.New,
	}
}

// WithClock replaces the time source (useful for testing).
func (b *Binder) WithClock(now func() time.Time) *Binder {
	b.now = now
	return b
}

// WithIDSource replaces the identifier source (useful for testing).
func (b *Binder) WithIDSource(newID func() uuid.UUID) *Binder {
	b.newID = newID
	return b
}

// Entry binds spec as a full entry with status active.
func (b *Binder) Entry(spec Spec) *Entry {
	return &Entry{
		ID:           b.newID(),
		Title:        spec.Title,
		Type:         spec.Type,
		Source:       spec.Source,
		Cmd:          spec.Cmd,
		System:       b.System,
		DetectedAt:   b.timestamp(),
		Status:       StatusActive,
		Tags:         cloneTags(spec.Tags),
		Rationale:    spec.Rationale,
		Verification: spec.Verification,
	}
}

// QueueItem binds spec as an inbox/snoozed item.
func (b *Binder) QueueItem(spec Spec) *QueueItem {
	var path *string
	if spec.Path != nil {
		p := *spec.Path
		path = &p
	}
	return &QueueItem{
		ID:         b.newID(),
		Path:       path,
		Title:      spec.Title,
		Type:       spec.Type,
		Source:     spec.Source,
		Cmd:        spec.Cmd,
		System:     b.System,
		DetectedAt: b.timestamp(),
		Tags:       cloneTags(spec.Tags),
	}
}

// Entries binds every spec as a full entry, preserving order.
func (b *Binder) Entries(specs []Spec) []*Entry {
	entries := make([]*Entry, 0, len(specs))
	for _, spec := range specs {
		entries = append(entries, b.Entry(spec))
	}
	return entries
}

// QueueItems binds every spec as a queue item, preserving order.
func (b *Binder) QueueItems(specs []Spec) []*QueueItem {
	items := make([]*QueueItem, 0, len(specs))
	for _, spec := range specs {
		items = append(items, b.QueueItem(spec))
	}
	return items
}

func (b *Binder) timestamp() time.Time {
	t := b.now().UTC()
	if t.Before(b.last) {
		t = b.last
	}
	b.last = t
	return t
}

func cloneTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}
