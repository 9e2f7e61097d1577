// Package seed selects and writes the content of a demo vault.
//
// All shuffling goes through one explicitly seeded generator, so a given
// (seed, OS family, inbox size) always yields the same titles in the same
// order. Identifiers and timestamps are minted fresh on every run.
package seed

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/blackwell-systems/setupvault/internal/catalog"
	"github.com/blackwell-systems/setupvault/internal/record"
)

// DefaultSeed and DefaultInboxSize are used when the caller sets nothing.
const (
	DefaultSeed      int64 = 42
	DefaultInboxSize       = 12
	MaxInboxSize           = 15
)

// ErrInvalidInboxSize is returned for inbox sizes outside [0, MaxInboxSize].
var ErrInvalidInboxSize = errors.New("inbox count must be between 0 and 15")

// ValidateInboxSize rejects sizes outside [0, MaxInboxSize].
func ValidateInboxSize(n int) error {
	if n < 0 || n > MaxInboxSize {
		return fmt.Errorf("%w: got %d", ErrInvalidInboxSize, n)
	}
	return nil
}

// NewRand returns a PCG generator seeded from seed.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
}

// Selector draws the demo, inbox and snoozed sets from a catalog. Calls
// consume the generator in order, so the same call sequence on two
// selectors with equal seeds gives equal results.
type Selector struct {
	rng     *rand.Rand
	catalog *catalog.Catalog
}

// NewSelector creates a Selector over c driven by rng.
func NewSelector(c *catalog.Catalog, rng *rand.Rand) *Selector {
	return &Selector{rng: rng, catalog: c}
}

// DemoSet returns the full expansion for osName in shuffled order.
func (s *Selector) DemoSet(osName string) []record.Spec {
	specs := s.catalog.Expand(osName)
	s.shuffle(specs)
	return specs
}

// InboxSet returns at most n inbox specs. The curated candidates are
// shuffled; when they number fewer than n, the fallback list is shuffled
// and its items are appended, skipping titles already selected, until n is
// reached or the fallback runs out.
func (s *Selector) InboxSet(osName string, n int) []record.Spec {
	if n < 0 {
		n = 0
	}

	specs := s.catalog.InboxCandidates(osName)
	s.shuffle(specs)

	if len(specs) < n {
		fallback := s.catalog.FallbackSpecs()
		s.shuffle(fallback)

		seen := make(map[string]bool, len(specs)+len(fallback))
		for _, spec := range specs {
			seen[spec.Title] = true
		}
		for _, spec := range fallback {
			if seen[spec.Title] {
				continue
			}
			specs = append(specs, spec)
			seen[spec.Title] = true
			if len(specs) >= n {
				break
			}
		}
	}

	if len(specs) > n {
		specs = specs[:n]
	}
	return specs
}

// SnoozedSet returns the snoozed specs for osName in catalog order.
func (s *Selector) SnoozedSet(osName string) []record.Spec {
	return s.catalog.SnoozedSpecs(osName)
}

func (s *Selector) shuffle(specs []record.Spec) {
	s.rng.Shuffle(len(specs), func(i, j int) {
		specs[i], specs[j] = specs[j], specs[i]
	})
}
