// Package version parses and compares the release tag grammar relcut
// publishes from: major.minor.patch with an optional -suffix marking a
// prerelease (2.0.0, 2.0.1-rc1, 2.1.0-beta-2).
package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/blang/semver"
)

// ErrInvalid marks tags that do not satisfy the release tag grammar.
var ErrInvalid = errors.New("invalid version")

// Version is a parsed release tag.
type Version struct {
	Major  int
	Minor  int
	Patch  int
	Suffix string
}

// ChannelStable and ChannelPrerelease label the two release channels a tag
// can publish to.
const (
	ChannelStable     = "stable"
	ChannelPrerelease = "prerelease"
)

// Parse interprets tag as major.minor.patch with an optional -suffix. A
// leading "v" is rejected: the publish trigger matches bare numeric tags.
func Parse(tag string) (Version, error) {
	trimmed := strings.TrimSpace(tag)
	if trimmed == "" {
		return Version{}, fmt.Errorf("%w: empty tag", ErrInvalid)
	}
	if strings.HasPrefix(trimmed, "v") || strings.HasPrefix(trimmed, "V") {
		return Version{}, fmt.Errorf("%w: %q: tags are bare (2.0.0), drop the leading %q", ErrInvalid, tag, trimmed[:1])
	}

	core := trimmed
	var suffix string
	if idx := strings.IndexByte(trimmed, '-'); idx >= 0 {
		core = trimmed[:idx]
		suffix = trimmed[idx+1:]
		if suffix == "" {
			return Version{}, fmt.Errorf("%w: %q: trailing dash without suffix", ErrInvalid, tag)
		}
		if !validSuffix(suffix) {
			return Version{}, fmt.Errorf("%w: %q: suffix may only contain alphanumerics, dots, and dashes", ErrInvalid, tag)
		}
	}

	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("%w: %q: expected major.minor.patch", ErrInvalid, tag)
	}
	nums := make([]int, 3)
	for i, part := range parts {
		if part == "" {
			return Version{}, fmt.Errorf("%w: %q: empty version component", ErrInvalid, tag)
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("%w: %q: component %q is not a number", ErrInvalid, tag, part)
		}
		nums[i] = n
	}

	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2], Suffix: suffix}, nil
}

// MustParse parses tag and panics on failure. For tests and constants.
func MustParse(tag string) Version {
	v, err := Parse(tag)
	if err != nil {
		panic(err)
	}
	return v
}

// String renders the canonical tag form.
func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Suffix != "" {
		s += "-" + v.Suffix
	}
	return s
}

// IsPrerelease reports whether the version carries a suffix.
func (v Version) IsPrerelease() bool {
	return v.Suffix != ""
}

// Channel returns the release channel the version publishes to.
func (v Version) Channel() string {
	if v.IsPrerelease() {
		return ChannelPrerelease
	}
	return ChannelStable
}

// Compare returns -1, 0, or 1 ordering v against other under semver
// precedence (a suffixed version sorts before its bare counterpart).
func (v Version) Compare(other Version) int {
	return v.semver().Compare(other.semver())
}

// Equal reports whether two versions are identical, suffix included.
func (v Version) Equal(other Version) bool {
	return v == other
}

func (v Version) semver() semver.Version {
	sv := semver.Version{
		Major: uint64(v.Major),
		Minor: uint64(v.Minor),
		Patch: uint64(v.Patch),
	}
	if v.Suffix != "" {
		// Dots separate prerelease identifiers; dashes stay inside one.
		for _, part := range strings.Split(v.Suffix, ".") {
			pr, err := semver.NewPRVersion(part)
			if err != nil {
				continue
			}
			sv.Pre = append(sv.Pre, pr)
		}
	}
	return sv
}

func validSuffix(suffix string) bool {
	for _, r := range suffix {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r == '.' || r == '-':
		default:
			return false
		}
	}
	return true
}
