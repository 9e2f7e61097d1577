// Package system identifies the OS family and architecture a vault is
// seeded for.
package system

import (
	"runtime"
	"strings"

	"github.com/blackwell-systems/setupvault/internal/record"
)

// OS families with their own catalogs.
const (
	MacOS   = "macos"
	Linux   = "linux"
	Windows = "windows"
)

// UnknownArch is reported when no architecture is available.
const UnknownArch = "unknown"

// Families lists the recognized OS families.
var Families = []string{MacOS, Linux, Windows}

// Detect reports the family and architecture of the running host.
func Detect() record.SystemInfo {
	return FromGo(runtime.GOOS, runtime.GOARCH)
}

// FromGo maps Go's GOOS/GOARCH values onto a SystemInfo. darwin becomes
// macos, windows stays windows, and every other GOOS is treated as linux.
func FromGo(goos, goarch string) record.SystemInfo {
	info := record.SystemInfo{OS: Linux, Arch: goarch}
	switch goos {
	case "darwin":
		info.OS = MacOS
	case "windows":
		info.OS = Windows
	}
	if info.Arch == "" {
		info.Arch = UnknownArch
	}
	return info
}

// Resolve applies explicit overrides on top of detected. Empty overrides
// keep the detected value. The OS override is lowercased and passed through
// unchanged otherwise, so unrecognized families reach the catalog fallback.
func Resolve(detected record.SystemInfo, osOverride, archOverride string) record.SystemInfo {
	info := detected
	if v := strings.TrimSpace(osOverride); v != "" {
		info.OS = strings.ToLower(v)
	}
	if v := strings.TrimSpace(archOverride); v != "" {
		info.Arch = v
	}
	return info
}

// IsKnown reports whether family has a dedicated catalog.
func IsKnown(family string) bool {
	for _, f := range Families {
		if f == family {
			return true
		}
	}
	return false
}
