// Package config provides configuration file parsing and logging setup for
// setupvault.
package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultsFile is the name of the defaults file inside Dir().
const DefaultsFile = "defaults"

// Dir returns the setupvault config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/setupvault if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "setupvault"), nil
}

// Defaults holds seed settings declared in the defaults file. Unset numeric
// keys are nil so callers can tell them apart from an explicit zero.
type Defaults struct {
	Vault   string
	Inbox   *int
	Seed    *int64
	OS      string
	Arch    string
	Catalog string

	// Skipped lists the lines that were ignored as invalid.
	Skipped []string
}

// LoadDefaults reads the defaults file at {dir}/defaults. If the file does
// not exist, empty defaults are returned without an error. Lines are
// key=value pairs; blank lines and # comments are ignored, and invalid lines
// or unknown keys are skipped.
//
// Recognized keys: vault, inbox, seed, os, arch, catalog.
func LoadDefaults(dir string) (*Defaults, error) {
	cfg := &Defaults{}

	f, err := os.Open(filepath.Join(dir, DefaultsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		idx := strings.IndexByte(line, '=')
		if idx <= 0 {
			cfg.Skipped = append(cfg.Skipped, line)
			continue
		}

		key := strings.ToLower(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])
		if value == "" || !cfg.set(key, value) {
			cfg.Skipped = append(cfg.Skipped, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// set applies one key and reports whether it was accepted.
func (d *Defaults) set(key, value string) bool {
	switch key {
	case "vault":
		d.Vault = value
	case "inbox":
		n, err := strconv.Atoi(value)
		if err != nil {
			return false
		}
		d.Inbox = &n
	case "seed":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return false
		}
		d.Seed = &n
	case "os":
		d.OS = strings.ToLower(value)
	case "arch":
		d.Arch = value
	case "catalog":
		d.Catalog = value
	default:
		return false
	}
	return true
}

// InboxOr returns the configured inbox size, or fallback when unset.
func (d *Defaults) InboxOr(fallback int) int {
	if d.Inbox == nil {
		return fallback
	}
	return *d.Inbox
}

// SeedOr returns the configured seed, or fallback when unset.
func (d *Defaults) SeedOr(fallback int64) int64 {
	if d.Seed == nil {
		return fallback
	}
	return *d.Seed
}
