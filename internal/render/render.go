// Package render writes vault records in their on-disk text forms: a
// front-matter Markdown document per entry and an ordered YAML list per
// queue.
//
// Both renderers build the full document in memory and write it with a
// single call; the output is a pure function of the input records.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/blackwell-systems/setupvault/internal/record"
)

// Quote wraps s in double quotes, escaping only backslash and double quote.
func Quote(s string) string {
	escaped := strings.ReplaceAll(s, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return `"` + escaped + `"`
}

// EntryString renders e as a front-matter document.
func EntryString(e *record.Entry) string {
	var sb strings.Builder

	sb.WriteString("---\n")
	fmt.Fprintf(&sb, "id: %s\n", e.ID)
	fmt.Fprintf(&sb, "title: %s\n", Quote(e.Title))
	fmt.Fprintf(&sb, "type: %s\n", e.Type)
	fmt.Fprintf(&sb, "source: %s\n", Quote(e.Source))
	fmt.Fprintf(&sb, "cmd: %s\n", Quote(e.Cmd))
	sb.WriteString("system:\n")
	fmt.Fprintf(&sb, "  os: %s\n", Quote(e.System.OS))
	fmt.Fprintf(&sb, "  arch: %s\n", Quote(e.System.Arch))
	fmt.Fprintf(&sb, "detected_at: %s\n", record.FormatTimestamp(e.DetectedAt))
	fmt.Fprintf(&sb, "status: %s\n", e.Status)
	sb.WriteString("tags:\n")
	for _, tag := range e.Tags {
		fmt.Fprintf(&sb, "  - %s\n", Quote(tag))
	}
	sb.WriteString("---\n")
	sb.WriteString("\n")
	sb.WriteString("# Rationale\n")
	sb.WriteString(e.Rationale)
	sb.WriteString("\n\n")
	sb.WriteString("# Verification\n")
	sb.WriteString(e.Verification)
	sb.WriteString("\n")

	return sb.String()
}

// Entry writes the front-matter document for e to w.
func Entry(w io.Writer, e *record.Entry) error {
	if _, err := io.WriteString(w, EntryString(e)); err != nil {
		return fmt.Errorf("failed to write entry %s: %w", e.ID, err)
	}
	return nil
}

// QueueString renders items as an ordered YAML list. An empty queue renders
// as a lone newline.
func QueueString(items []*record.QueueItem) string {
	lines := make([]string, 0, len(items)*12)
	for _, item := range items {
		lines = append(lines, "-")
		lines = append(lines, fmt.Sprintf("  id: %s", item.ID))
		if item.Path == nil {
			lines = append(lines, "  path: null")
		} else {
			lines = append(lines, fmt.Sprintf("  path: %s", Quote(*item.Path)))
		}
		lines = append(lines, fmt.Sprintf("  title: %s", Quote(item.Title)))
		lines = append(lines, fmt.Sprintf("  type: %s", item.Type))
		lines = append(lines, fmt.Sprintf("  source: %s", Quote(item.Source)))
		lines = append(lines, fmt.Sprintf("  cmd: %s", Quote(item.Cmd)))
		lines = append(lines, "  system:")
		lines = append(lines, fmt.Sprintf("    os: %s", Quote(item.System.OS)))
		lines = append(lines, fmt.Sprintf("    arch: %s", Quote(item.System.Arch)))
		lines = append(lines, fmt.Sprintf("  detected_at: %s", record.FormatTimestamp(item.DetectedAt)))
		lines = append(lines, "  tags:")
		for _, tag := range item.Tags {
			lines = append(lines, fmt.Sprintf("    - %s", Quote(tag)))
		}
	}
	return strings.Join(lines, "\n") + "\n"
}

// Queue writes the YAML list for items to w.
func Queue(w io.Writer, items []*record.QueueItem) error {
	if _, err := io.WriteString(w, QueueString(items)); err != nil {
		return fmt.Errorf("failed to write queue: %w", err)
	}
	return nil
}
