// Package catalog holds the static software lists used to seed a demo vault
// and expands them into entry specs.
//
// The data lives in a YAML document (data/catalog.yaml, embedded at build
// time) so lists can be edited or swapped without touching the expansion
// and selection code. A catalog file with the same schema can be loaded with
// LoadFile.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/blackwell-systems/setupvault/internal/record"
)

// NamePlaceholder is replaced with the raw catalog name in group templates.
const NamePlaceholder = "{name}"

// DefaultKey selects the inbox and snoozed lists for unrecognized OS families.
const DefaultKey = "default"

// ErrInvalidCatalog is returned when catalog data fails validation.
var ErrInvalidCatalog = errors.New("invalid catalog")

//go:embed data/catalog.yaml
var embedded []byte

// Group is one package-manager or application list. Every name expands into
// one spec sharing the group's type, source, tags and templates.
type Group struct {
	Kind      string           `yaml:"kind" validate:"required"`
	Type      record.EntryType `yaml:"type" validate:"required,oneof=package config application script other"`
	Source    string           `yaml:"source" validate:"required"`
	Cmd       string           `yaml:"cmd" validate:"required"`
	Rationale string           `yaml:"rationale" validate:"required"`
	Tags      []string         `yaml:"tags"`
	Names     []string         `yaml:"names" validate:"min=1,dive,required"`
}

// Catalog is the full set of seed data, keyed by OS family.
type Catalog struct {
	Base     []record.Spec            `yaml:"base"`
	Groups   map[string][]Group       `yaml:"groups"`
	Inbox    map[string][]record.Spec `yaml:"inbox"`
	Fallback []record.Spec            `yaml:"fallback"`
	Snoozed  map[string][]record.Spec `yaml:"snoozed"`
}

var defaultCatalog = sync.OnceValues(func() (*Catalog, error) {
	return Load(bytes.NewReader(embedded))
})

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return defaultCatalog()
}

// Load decodes and validates a catalog document. Unknown fields are rejected.
func Load(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// LoadFile loads a catalog from path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	c, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Validate checks that every spec and group carries the fields needed to
// produce a record. Base specs also need a rationale.
func (c *Catalog) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	for i, spec := range c.Base {
		if err := v.Struct(spec); err != nil {
			return fmt.Errorf("%w: base[%d]: %v", ErrInvalidCatalog, i, err)
		}
		if err := v.Var(spec.Rationale, "required"); err != nil {
			return fmt.Errorf("%w: base[%d] %q: rationale is required", ErrInvalidCatalog, i, spec.Title)
		}
	}

	for _, osName := range sortedKeys(c.Groups) {
		for i, g := range c.Groups[osName] {
			if err := v.Struct(g); err != nil {
				return fmt.Errorf("%w: groups.%s[%d]: %v", ErrInvalidCatalog, osName, i, err)
			}
		}
	}

	for _, lists := range []struct {
		name  string
		specs map[string][]record.Spec
	}{
		{"inbox", c.Inbox},
		{"snoozed", c.Snoozed},
	} {
		for _, key := range sortedKeys(lists.specs) {
			for i, spec := range lists.specs[key] {
				if err := v.Struct(spec); err != nil {
					return fmt.Errorf("%w: %s.%s[%d]: %v", ErrInvalidCatalog, lists.name, key, i, err)
				}
			}
		}
	}

	for i, spec := range c.Fallback {
		if err := v.Struct(spec); err != nil {
			return fmt.Errorf("%w: fallback[%d]: %v", ErrInvalidCatalog, i, err)
		}
	}

	return nil
}

// GroupsFor returns the groups declared for osName, in declared order.
func (c *Catalog) GroupsFor(osName string) []Group {
	return c.Groups[osName]
}

// Expand returns the base specs followed by every group of osName expanded
// name by name. Unrecognized OS families get the base specs only.
func (c *Catalog) Expand(osName string) []record.Spec {
	specs := cloneSpecs(c.Base)
	for _, g := range c.Groups[osName] {
		specs = append(specs, g.Expand()...)
	}
	return specs
}

// Expand turns every name in the group into a spec.
func (g Group) Expand() []record.Spec {
	specs := make([]record.Spec, 0, len(g.Names))
	for _, name := range g.Names {
		specs = append(specs, record.Spec{
			Title:     name,
			Type:      g.Type,
			Source:    g.Source,
			Cmd:       strings.ReplaceAll(g.Cmd, NamePlaceholder, name),
			Tags:      cloneStrings(g.Tags),
			Rationale: strings.ReplaceAll(g.Rationale, NamePlaceholder, name),
		})
	}
	return specs
}

// InboxCandidates returns the curated inbox list for osName.
func (c *Catalog) InboxCandidates(osName string) []record.Spec {
	return cloneSpecs(lookup(c.Inbox, osName))
}

// SnoozedSpecs returns the snoozed list for osName in catalog order.
func (c *Catalog) SnoozedSpecs(osName string) []record.Spec {
	return cloneSpecs(lookup(c.Snoozed, osName))
}

// FallbackSpecs returns the OS-agnostic inbox backfill list.
func (c *Catalog) FallbackSpecs() []record.Spec {
	return cloneSpecs(c.Fallback)
}

func lookup(m map[string][]record.Spec, osName string) []record.Spec {
	if specs, ok := m[osName]; ok {
		return specs
	}
	return m[DefaultKey]
}

func cloneSpecs(specs []record.Spec) []record.Spec {
	out := make([]record.Spec, len(specs))
	for i, s := range specs {
		s.Tags = cloneStrings(s.Tags)
		if s.Path != nil {
			p := *s.Path
			s.Path = &p
		}
		out[i] = s
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
