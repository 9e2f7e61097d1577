package vault

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/blackwell-systems/setupvault/internal/record"
)

// Body section headings of an entry document.
const (
	RationaleHeading    = "Rationale"
	VerificationHeading = "Verification"
)

var (
	// ErrMalformedEntry is returned when an entry document cannot be parsed.
	ErrMalformedEntry = errors.New("malformed entry")

	// ErrMalformedQueue is returned when a queue file cannot be parsed.
	ErrMalformedQueue = errors.New("malformed queue")
)

var frontMatterDelim = []byte("---\n")

type entryFrontMatter struct {
	ID         string            `yaml:"id"`
	Title      string            `yaml:"title"`
	Type       string            `yaml:"type"`
	Source     string            `yaml:"source"`
	Cmd        string            `yaml:"cmd"`
	System     record.SystemInfo `yaml:"system"`
	DetectedAt string            `yaml:"detected_at"`
	Status     string            `yaml:"status"`
	Tags       []string          `yaml:"tags"`
}

type queueItemDoc struct {
	ID         string            `yaml:"id"`
	Path       *string           `yaml:"path"`
	Title      string            `yaml:"title"`
	Type       string            `yaml:"type"`
	Source     string            `yaml:"source"`
	Cmd        string            `yaml:"cmd"`
	System     record.SystemInfo `yaml:"system"`
	DetectedAt string            `yaml:"detected_at"`
	Tags       []string          `yaml:"tags"`
}

// LoadEntry reads an entry document back into a record.
func LoadEntry(path string) (*record.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read entry: %w", err)
	}

	e, err := ParseEntry(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return e, nil
}

// ParseEntry parses a front-matter document. The header is decoded as YAML
// and the Rationale and Verification sections are located in the Markdown
// body.
func ParseEntry(data []byte) (*record.Entry, error) {
	header, body, err := splitFrontMatter(data)
	if err != nil {
		return nil, err
	}

	var fm entryFrontMatter
	if err := yaml.Unmarshal(header, &fm); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEntry, err)
	}

	id, err := uuid.Parse(fm.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: id: %v", ErrMalformedEntry, err)
	}
	entryType, err := record.ParseEntryType(fm.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEntry, err)
	}
	status, err := parseStatus(fm.Status)
	if err != nil {
		return nil, err
	}
	detectedAt, err := record.ParseTimestamp(fm.DetectedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEntry, err)
	}

	sections := bodySections(body)
	rationale, ok := sections[RationaleHeading]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q section", ErrMalformedEntry, RationaleHeading)
	}

	return &record.Entry{
		ID:           id,
		Title:        fm.Title,
		Type:         entryType,
		Source:       fm.Source,
		Cmd:          fm.Cmd,
		System:       fm.System,
		DetectedAt:   detectedAt,
		Status:       status,
		Tags:         nonNil(fm.Tags),
		Rationale:    rationale,
		Verification: sections[VerificationHeading],
	}, nil
}

func splitFrontMatter(data []byte) (header, body []byte, err error) {
	if !bytes.HasPrefix(data, frontMatterDelim) {
		return nil, nil, fmt.Errorf("%w: missing front matter", ErrMalformedEntry)
	}
	rest := data[len(frontMatterDelim):]

	end := bytes.Index(rest, append([]byte("\n"), frontMatterDelim...))
	if end < 0 {
		return nil, nil, fmt.Errorf("%w: unterminated front matter", ErrMalformedEntry)
	}

	return rest[:end+1], rest[end+1+len(frontMatterDelim):], nil
}

// bodySections maps each level-one heading to the raw text between it and
// the next level-one heading, without trailing newlines.
func bodySections(body []byte) map[string]string {
	doc := goldmark.DefaultParser().Parse(text.NewReader(body))

	type mark struct {
		name      string
		lineStart int
		lineEnd   int
	}
	var marks []mark

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Level != 1 || h.Lines().Len() == 0 {
			continue
		}
		seg := h.Lines().At(0)

		lineStart := bytes.LastIndexByte(body[:seg.Start], '\n') + 1
		lineEnd := len(body)
		if i := bytes.IndexByte(body[seg.Stop:], '\n'); i >= 0 {
			lineEnd = seg.Stop + i + 1
		}

		marks = append(marks, mark{
			name:      strings.TrimSpace(string(seg.Value(body))),
			lineStart: lineStart,
			lineEnd:   lineEnd,
		})
	}

	sections := make(map[string]string, len(marks))
	for i, m := range marks {
		end := len(body)
		if i+1 < len(marks) {
			end = marks[i+1].lineStart
		}
		if _, seen := sections[m.name]; seen {
			continue
		}
		sections[m.name] = strings.TrimRight(string(body[m.lineEnd:end]), "\n")
	}
	return sections
}

func parseStatus(s string) (record.Status, error) {
	switch record.Status(s) {
	case record.StatusActive, record.StatusSnoozed, record.StatusIgnored:
		return record.Status(s), nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrMalformedEntry, s)
}

// ListEntries returns the paths of every entry document in the vault,
// sorted.
func (v *Vault) ListEntries() ([]string, error) {
	root := v.EntriesRoot()
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("failed to open entries directory: %w", err)
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == EntryExt {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk entries: %w", err)
	}

	sort.Strings(paths)
	return paths, nil
}

// LoadInbox reads the inbox queue. A missing file is an empty queue.
func (v *Vault) LoadInbox() ([]*record.QueueItem, error) {
	return LoadQueue(v.InboxPath())
}

// LoadSnoozed reads the snoozed queue. A missing file is an empty queue.
func (v *Vault) LoadSnoozed() ([]*record.QueueItem, error) {
	return LoadQueue(v.SnoozedPath())
}

// LoadQueue reads a queue file. A missing file is an empty queue.
func LoadQueue(path string) ([]*record.QueueItem, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []*record.QueueItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read queue: %w", err)
	}

	items, err := ParseQueue(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return items, nil
}

// ParseQueue parses a queue list document.
func ParseQueue(data []byte) ([]*record.QueueItem, error) {
	var docs []queueItemDoc
	if err := yaml.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedQueue, err)
	}

	items := make([]*record.QueueItem, 0, len(docs))
	for i, doc := range docs {
		id, err := uuid.Parse(doc.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: id: %v", ErrMalformedQueue, i, err)
		}
		entryType, err := record.ParseEntryType(doc.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrMalformedQueue, i, err)
		}
		detectedAt, err := record.ParseTimestamp(doc.DetectedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", ErrMalformedQueue, i, err)
		}

		items = append(items, &record.QueueItem{
			ID:         id,
			Path:       doc.Path,
			Title:      doc.Title,
			Type:       entryType,
			Source:     doc.Source,
			Cmd:        doc.Cmd,
			System:     doc.System,
			DetectedAt: detectedAt,
			Tags:       nonNil(doc.Tags),
		})
	}
	return items, nil
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
