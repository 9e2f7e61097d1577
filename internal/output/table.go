// Package output provides terminal output utilities for setupvault.
//
// This package includes:
//   - The seed run summary printed on stdout
//   - Table rendering for catalog groups, vault contents and ledger history
//   - Progress bars and spinners for long-running operations
//
// Tables use plain fixed-width columns. Color is only emitted when stdout is
// a terminal and NO_COLOR is unset.
package output

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/setupvault/internal/catalog"
	"github.com/blackwell-systems/setupvault/internal/record"
	"github.com/blackwell-systems/setupvault/internal/store"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// colorize wraps text in the given ANSI color code if color is enabled,
// otherwise returns the plain text.
func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// RenderSummary renders the four-line result of a seed run.
func RenderSummary(root string, entries, inbox, snoozed int) string {
	return fmt.Sprintf("Seeded vault at %s\nEntries: %d\nInbox: %d\nSnoozed: %d\n",
		root, entries, inbox, snoozed)
}

// RenderCatalogTable renders the groups a catalog expands to for one OS
// family, with the base list first and a total at the bottom.
func RenderCatalogTable(osName string, baseCount int, groups []catalog.Group) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Catalog for %s\n\n", osName))
	sb.WriteString(fmt.Sprintf("%-15s %-14s %-12s %6s\n", "Group", "Source", "Type", "Count"))
	sb.WriteString(strings.Repeat("─", 50))
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("%-15s %-14s %-12s %6d\n", "base", "(mixed)", "(mixed)", baseCount))
	total := baseCount
	for _, g := range groups {
		sb.WriteString(fmt.Sprintf("%-15s %-14s %-12s %6d\n",
			truncate(g.Kind, 15),
			truncate(g.Source, 14),
			g.Type,
			len(g.Names)))
		total += len(g.Names)
	}

	sb.WriteString(strings.Repeat("─", 50))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%-43s %6d\n", "Total", total))

	if len(groups) == 0 {
		sb.WriteString(colorize(colorGray, "No OS-specific groups; only the base list is seeded.\n"))
	}

	return sb.String()
}

// RenderEntryTable renders vault entries sorted by type, source and title.
func RenderEntryTable(entries []*record.Entry) string {
	if len(entries) == 0 {
		return "No entries found.\n"
	}

	sorted := make([]*record.Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.Title < b.Title
	})

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-12s %-14s %-30s %s\n", "Type", "Source", "Title", "Status"))
	sb.WriteString(strings.Repeat("─", 70))
	sb.WriteString("\n")

	for _, e := range sorted {
		sb.WriteString(fmt.Sprintf("%-12s %-14s %-30s %s\n",
			e.Type,
			truncate(e.Source, 14),
			truncate(e.Title, 30),
			formatStatus(e.Status)))
	}

	return sb.String()
}

// RenderQueueTable renders one queue in stored order.
func RenderQueueTable(name string, items []*record.QueueItem) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s (%d)\n", name, len(items)))
	if len(items) == 0 {
		sb.WriteString("  (empty)\n")
		return sb.String()
	}

	for i, item := range items {
		sb.WriteString(fmt.Sprintf("  %2d. %-28s %-12s %s\n",
			i+1,
			truncate(item.Title, 28),
			item.Type,
			item.Source))
	}

	return sb.String()
}

// RenderTypeBreakdown renders entry counts per type in declaration order.
func RenderTypeBreakdown(counts map[record.EntryType]int) string {
	parts := make([]string, 0, len(record.EntryTypes))
	for _, t := range record.EntryTypes {
		if counts[t] == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %d", t.Dir(), counts[t]))
	}
	if len(parts) == 0 {
		return "no entries\n"
	}
	return strings.Join(parts, " · ") + "\n"
}

// RenderRunTable renders ledger runs newest first.
func RenderRunTable(runs []*store.Run) string {
	if len(runs) == 0 {
		return "No seed runs recorded.\n"
	}

	sorted := make([]*store.Run, len(runs))
	copy(sorted, runs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartedAt.After(sorted[j].StartedAt)
	})

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-5s %-15s %-8s %-6s %7s %6s %8s  %s\n",
		"ID", "Seeded", "OS", "Seed", "Entries", "Inbox", "Snoozed", "Vault"))
	sb.WriteString(strings.Repeat("─", 90))
	sb.WriteString("\n")

	for _, run := range sorted {
		inbox := fmt.Sprintf("%d", run.InboxCount)
		if run.InboxCount < run.InboxRequested {
			inbox = colorize(colorYellow, inbox)
		}

		sb.WriteString(fmt.Sprintf("%-5d %-15s %-8s %-6d %7d %6s %8d  %s\n",
			run.ID,
			formatRelativeTime(run.StartedAt),
			truncate(run.OS, 8),
			run.Seed,
			run.EntryCount,
			inbox,
			run.SnoozedCount,
			run.VaultPath))
	}

	return sb.String()
}

// RenderRunEntryTable renders the records produced by one run, in the order
// they were written.
func RenderRunEntryTable(run *store.Run, entries []*store.RunEntry) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Run %d: seed %d on %s/%s, %s\n",
		run.ID, run.Seed, run.OS, run.Arch, formatRelativeTime(run.StartedAt)))
	sb.WriteString(fmt.Sprintf("Vault: %s\n\n", run.VaultPath))

	if len(entries) == 0 {
		sb.WriteString("No records for this run.\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("%-8s %-12s %-14s %s\n", "Kind", "Type", "Source", "Title"))
	sb.WriteString(strings.Repeat("─", 70))
	sb.WriteString("\n")

	for _, e := range entries {
		sb.WriteString(fmt.Sprintf("%-8s %-12s %-14s %s\n",
			e.Kind,
			e.Type,
			truncate(e.Source, 14),
			e.Title))
	}

	return sb.String()
}

// formatStatus colors an entry status.
func formatStatus(status record.Status) string {
	switch status {
	case record.StatusActive:
		return colorize(colorGreen, string(status))
	case record.StatusSnoozed:
		return colorize(colorYellow, string(status))
	case record.StatusIgnored:
		return colorize(colorRed, string(status))
	default:
		return colorize(colorGray, string(status))
	}
}

// formatRelativeTime converts a timestamp to relative time (e.g., "2 days ago").
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return plural(int(diff.Hours()/24), "day")
	case diff < 30*24*time.Hour:
		return plural(int(diff.Hours()/24/7), "week")
	case diff < 365*24*time.Hour:
		return plural(int(diff.Hours()/24/30), "month")
	default:
		return plural(int(diff.Hours()/24/365), "year")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// truncate shortens s to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
