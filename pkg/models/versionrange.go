package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ErrInvalidVersionRange is wrapped by every range parse failure.
var ErrInvalidVersionRange = errors.New("invalid version range")

// VersionRange is the cost carried by a dependency edge.
// A nil bound is unbounded on that side.
type VersionRange struct {
	Min        *semver.Version
	Max        *semver.Version
	IncludeMin bool
	IncludeMax bool

	original string
}

// ParseVersionRange parses NuGet range notation:
//
//	1.0.0        minimum, inclusive
//	[1.0.0]      exact
//	[1.0,2.0)    bounded
//	(,2.0]       maximum only
//	1.0.*        floating, minimum is the fixed prefix
//
// The empty string is the unbounded range.
func ParseVersionRange(s string) (VersionRange, error) {
	original := strings.TrimSpace(s)
	compact := strings.Join(strings.Fields(original), "")

	if compact == "" {
		return VersionRange{original: original}, nil
	}

	first, last := compact[0], compact[len(compact)-1]
	if first != '[' && first != '(' {
		v, err := parseFloatingMin(compact)
		if err != nil {
			return VersionRange{}, fmt.Errorf("%w: %q: %v", ErrInvalidVersionRange, original, err)
		}
		return VersionRange{Min: v, IncludeMin: true, original: original}, nil
	}
	if last != ']' && last != ')' {
		return VersionRange{}, fmt.Errorf("%w: %q: unterminated range", ErrInvalidVersionRange, original)
	}

	r := VersionRange{
		IncludeMin: first == '[',
		IncludeMax: last == ']',
		original:   original,
	}
	inner := compact[1 : len(compact)-1]
	bounds := strings.Split(inner, ",")

	switch len(bounds) {
	case 1:
		if !r.IncludeMin || !r.IncludeMax || inner == "" {
			return VersionRange{}, fmt.Errorf("%w: %q: single version must use [x]", ErrInvalidVersionRange, original)
		}
		v, err := ParseVersion(inner)
		if err != nil {
			return VersionRange{}, fmt.Errorf("%w: %q: %v", ErrInvalidVersionRange, original, err)
		}
		r.Min, r.Max = v, v
		return r, nil
	case 2:
	default:
		return VersionRange{}, fmt.Errorf("%w: %q: too many bounds", ErrInvalidVersionRange, original)
	}

	if bounds[0] != "" {
		v, err := ParseVersion(bounds[0])
		if err != nil {
			return VersionRange{}, fmt.Errorf("%w: %q: %v", ErrInvalidVersionRange, original, err)
		}
		r.Min = v
	} else {
		r.IncludeMin = false
	}
	if bounds[1] != "" {
		v, err := ParseVersion(bounds[1])
		if err != nil {
			return VersionRange{}, fmt.Errorf("%w: %q: %v", ErrInvalidVersionRange, original, err)
		}
		r.Max = v
	} else {
		r.IncludeMax = false
	}

	if r.Min != nil && r.Max != nil {
		cmp := r.Min.Compare(r.Max)
		if cmp > 0 || (cmp == 0 && !(r.IncludeMin && r.IncludeMax)) {
			return VersionRange{}, fmt.Errorf("%w: %q: empty interval", ErrInvalidVersionRange, original)
		}
	}
	return r, nil
}

func parseFloatingMin(s string) (*semver.Version, error) {
	if !strings.Contains(s, "*") {
		return ParseVersion(s)
	}
	if s == "*" {
		return semver.New(0, 0, 0, "", ""), nil
	}

	core, pre := s, ""
	if i := strings.Index(s, "-"); i >= 0 {
		core, pre = s[:i], s[i+1:]
	}
	pre = strings.TrimSuffix(strings.TrimSuffix(pre, "*"), ".")

	var fixed []string
	floating := false
	for _, p := range strings.Split(core, ".") {
		if floating || (p != "*" && strings.Contains(p, "*")) {
			return nil, fmt.Errorf("malformed floating version %q", s)
		}
		if p == "*" {
			floating = true
			continue
		}
		fixed = append(fixed, p)
	}
	for len(fixed) < 3 {
		fixed = append(fixed, "0")
	}

	base := strings.Join(fixed, ".")
	if pre != "" {
		base += "-" + pre
	}
	return ParseVersion(base)
}

// ExactVersionRange returns [v].
func ExactVersionRange(v *semver.Version) VersionRange {
	return VersionRange{Min: v, Max: v, IncludeMin: true, IncludeMax: true}
}

// IsExact reports whether the range pins a single version.
func (r VersionRange) IsExact() bool {
	return r.Min != nil && r.IncludeMin && r.IncludeMax && versionsEqual(r.Min, r.Max)
}

// IsUnbounded reports whether the range accepts every version.
func (r VersionRange) IsUnbounded() bool {
	return r.Min == nil && r.Max == nil
}

// String returns the text the range was parsed from, or its normalized form.
func (r VersionRange) String() string {
	if r.original != "" {
		return r.original
	}
	return r.Normalized()
}

// Normalized renders the range in bracket notation with normalized versions.
func (r VersionRange) Normalized() string {
	if r.IsExact() {
		return "[" + r.Min.String() + "]"
	}

	var b strings.Builder
	if r.IncludeMin {
		b.WriteByte('[')
	} else {
		b.WriteByte('(')
	}
	if r.Min != nil {
		b.WriteString(r.Min.String())
	}
	b.WriteString(", ")
	if r.Max != nil {
		b.WriteString(r.Max.String())
	}
	if r.IncludeMax {
		b.WriteByte(']')
	} else {
		b.WriteByte(')')
	}
	return b.String()
}

// Equal compares bounds and inclusivity, ignoring the original text.
func (r VersionRange) Equal(other VersionRange) bool {
	return versionsEqual(r.Min, other.Min) &&
		versionsEqual(r.Max, other.Max) &&
		r.IncludeMin == other.IncludeMin &&
		r.IncludeMax == other.IncludeMax
}

// Satisfies reports whether v lies inside the range.
func (r VersionRange) Satisfies(v *semver.Version) bool {
	if v == nil {
		return false
	}
	if r.Min != nil {
		cmp := v.Compare(r.Min)
		if cmp < 0 || (cmp == 0 && !r.IncludeMin) {
			return false
		}
	}
	if r.Max != nil {
		cmp := v.Compare(r.Max)
		if cmp > 0 || (cmp == 0 && !r.IncludeMax) {
			return false
		}
	}
	return true
}
