package models

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ParseVersion parses a package version as it appears in a resolved manifest.
//
// Three-part and shorter versions go straight to semver. Legacy four-part
// versions (1.2.3.4) drop a zero revision and carry a nonzero one as build
// metadata so that it still shows up in String().
func ParseVersion(s string) (*semver.Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty version")
	}

	core, suffix := s, ""
	if i := strings.IndexAny(s, "-+"); i >= 0 {
		core, suffix = s[:i], s[i:]
	}

	parts := strings.Split(core, ".")
	if len(parts) == 4 {
		revision := strings.TrimLeft(parts[3], "0")
		core = strings.Join(parts[:3], ".")
		if revision != "" {
			if strings.Contains(suffix, "+") {
				suffix += ".r" + revision
			} else {
				suffix += "+r" + revision
			}
		}
	}

	v, err := semver.NewVersion(core + suffix)
	if err != nil {
		return nil, fmt.Errorf("invalid version %q: %w", s, err)
	}
	return v, nil
}

// MustParseVersion is ParseVersion for literals known to be valid.
func MustParseVersion(s string) *semver.Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

func versionsEqual(a, b *semver.Version) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(b) && a.Metadata() == b.Metadata()
}
