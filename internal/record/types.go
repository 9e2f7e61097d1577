// Package record defines the entry and queue-item shapes written into a vault.
package record

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is the detected_at text form: UTC with microseconds and an
// explicit +00:00 offset. The fraction is always written, even when it is
// zero, so every timestamp has the same width.
const TimestampLayout = "2006-01-02T15:04:05.000000-07:00"

// EntryType classifies an entry.
type EntryType string

const (
	TypePackage     EntryType = "package"
	TypeConfig      EntryType = "config"
	TypeApplication EntryType = "application"
	TypeScript      EntryType = "script"
	TypeOther       EntryType = "other"
)

// EntryTypes lists every valid entry type in declaration order.
var EntryTypes = []EntryType{TypePackage, TypeConfig, TypeApplication, TypeScript, TypeOther}

// ParseEntryType converts s into an EntryType, rejecting unknown values.
func ParseEntryType(s string) (EntryType, error) {
	for _, t := range EntryTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown entry type %q", s)
}

// Dir returns the directory name entries of this type are stored under.
func (t EntryType) Dir() string {
	switch t {
	case TypePackage:
		return "packages"
	case TypeConfig:
		return "configs"
	case TypeApplication:
		return "applications"
	case TypeScript:
		return "scripts"
	default:
		return "other"
	}
}

// Status is the lifecycle state of a full entry.
type Status string

const (
	StatusActive  Status = "active"
	StatusSnoozed Status = "snoozed"
	StatusIgnored Status = "ignored"
)

// SystemInfo identifies the machine a record was generated for.
type SystemInfo struct {
	OS   string `yaml:"os"`
	Arch string `yaml:"arch"`
}

// Spec is the immutable template for one catalog item.
type Spec struct {
	Title        string    `yaml:"title" validate:"required"`
	Type         EntryType `yaml:"type" validate:"required,oneof=package config application script other"`
	Source       string    `yaml:"source" validate:"required"`
	Cmd          string    `yaml:"cmd" validate:"required"`
	Tags         []string  `yaml:"tags"`
	Rationale    string    `yaml:"rationale,omitempty"`
	Verification string    `yaml:"verification,omitempty"`
	Path         *string   `yaml:"path,omitempty"`
}

// Entry is a full vault entry with rationale and status.
type Entry struct {
	ID           uuid.UUID
	Title        string
	Type         EntryType
	Source       string
	Cmd          string
	System       SystemInfo
	DetectedAt   time.Time
	Status       Status
	Tags         []string
	Rationale    string
	Verification string
}

// QueueItem is a detected-but-unclassified item held in the inbox or
// snoozed queue.
type QueueItem struct {
	ID         uuid.UUID
	Path       *string
	Title      string
	Type       EntryType
	Source     string
	Cmd        string
	System     SystemInfo
	DetectedAt time.Time
	Tags       []string
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a detected_at value. Any RFC 3339 form is accepted.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}
