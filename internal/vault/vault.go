// Package vault owns the on-disk layout of a vault: entry documents under
// entries/<type>/<source>/ and queue state under .state/.
package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/blackwell-systems/setupvault/internal/record"
	"github.com/blackwell-systems/setupvault/internal/render"
)

// Directory and file names inside a vault root.
const (
	EntriesDir  = "entries"
	StateDir    = ".state"
	InboxFile   = "inbox.yaml"
	SnoozedFile = "snoozed.yaml"
	EntryExt    = ".md"
)

// PathEnv overrides the default vault location.
const PathEnv = "SETUPVAULT_PATH"

// DefaultDir is the vault location used when nothing else is configured,
// relative to the home directory.
const DefaultDir = ".setupvault"

// Vault is a vault directory rooted at an absolute path.
type Vault struct {
	root string
}

// New returns a Vault rooted at root. The directory is not created.
func New(root string) *Vault {
	return &Vault{root: root}
}

// Root returns the vault root path.
func (v *Vault) Root() string {
	return v.root
}

// EntriesRoot returns the directory holding entry documents.
func (v *Vault) EntriesRoot() string {
	return filepath.Join(v.root, EntriesDir)
}

// StateRoot returns the directory holding queue state.
func (v *Vault) StateRoot() string {
	return filepath.Join(v.root, StateDir)
}

// InboxPath returns the path of the inbox queue file.
func (v *Vault) InboxPath() string {
	return filepath.Join(v.StateRoot(), InboxFile)
}

// SnoozedPath returns the path of the snoozed queue file.
func (v *Vault) SnoozedPath() string {
	return filepath.Join(v.StateRoot(), SnoozedFile)
}

// Init creates the entries and state directories. Existing directories are
// left alone.
func (v *Vault) Init() error {
	for _, dir := range []string{v.EntriesRoot(), v.StateRoot()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// EntryPath returns where e is stored:
// <root>/entries/<type dir>/<source>/<source>-<slug>-<id>.md
func (v *Vault) EntryPath(e *record.Entry) string {
	filename := fmt.Sprintf("%s-%s-%s%s", e.Source, Slugify(e.Title), e.ID, EntryExt)
	return filepath.Join(v.EntriesRoot(), e.Type.Dir(), e.Source, filename)
}

// WriteEntry renders e to its entry path, creating parent directories, and
// returns the path written.
func (v *Vault) WriteEntry(e *record.Entry) (string, error) {
	path := v.EntryPath(e)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create entry directory: %w", err)
	}
	if err := writeFile(path, render.EntryString(e)); err != nil {
		return "", err
	}
	return path, nil
}

// RemoveEntries deletes entry files written by an earlier run. Paths outside
// the entries directory are refused and files already gone are ignored.
func (v *Vault) RemoveEntries(paths []string) error {
	root := v.EntriesRoot() + string(filepath.Separator)
	for _, path := range paths {
		if !strings.HasPrefix(filepath.Clean(path), root) {
			return fmt.Errorf("refusing to remove %s: not inside %s", path, v.EntriesRoot())
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}
	return nil
}

// SaveInbox writes the inbox queue.
func (v *Vault) SaveInbox(items []*record.QueueItem) error {
	return writeFile(v.InboxPath(), render.QueueString(items))
}

// SaveSnoozed writes the snoozed queue.
func (v *Vault) SaveSnoozed(items []*record.QueueItem) error {
	return writeFile(v.SnoozedPath(), render.QueueString(items))
}

func writeFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Slugify lowercases letters and digits and collapses every run of other
// characters into a single hyphen. Leading and trailing hyphens are dropped
// and an empty result becomes "entry".
func Slugify(s string) string {
	var sb strings.Builder
	lastDash := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			sb.WriteRune(unicode.ToLower(r))
			lastDash = false
		} else if !lastDash {
			sb.WriteByte('-')
			lastDash = true
		}
	}
	slug := strings.Trim(sb.String(), "-")
	if slug == "" {
		return "entry"
	}
	return slug
}

// ResolvePath picks the vault root: flagValue, then $SETUPVAULT_PATH, then
// configured, then ~/.setupvault. A leading ~ is expanded and the result is
// made absolute.
func ResolvePath(flagValue, configured string) (string, error) {
	candidate := flagValue
	if candidate == "" {
		candidate = os.Getenv(PathEnv)
	}
	if candidate == "" {
		candidate = configured
	}
	if candidate == "" {
		candidate = filepath.Join("~", DefaultDir)
	}

	expanded, err := ExpandHome(candidate)
	if err != nil {
		return "", err
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to resolve vault path: %w", err)
	}
	return abs, nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}
