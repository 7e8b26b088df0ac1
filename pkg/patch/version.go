package patch

import (
	"cmp"
	"fmt"
	"regexp"
	"strconv"

	"github.com/pkg/errors"
)

// Version represents a parsed datamodel version number.
type Version struct {
	Major int // Major version number (e.g., 1)
	Minor int // Minor version number (e.g., 0)
	Patch int // Patch version number (e.g., 2)
}

// versionPattern is anchored on both ends so that strings with trailing
// characters ("1.0.0-beta", "1.0.0 ") are rejected.
var versionPattern = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)$`)

// ParseVersion parses a version string in strict "major.minor.patch" form.
//
// Unlike semantic versioning, no pre-release or build suffixes are allowed:
// versions only ever serve as chain labels for patches, so anything beyond
// the numeric triplet is an error.
//
// Example:
//
//	v, err := patch.ParseVersion("1.0.2")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(v.Major, v.Minor, v.Patch) // 1 0 2
func ParseVersion(s string) (Version, error) {
	matches := versionPattern.FindStringSubmatch(s)
	if matches == nil {
		return Version{}, errors.Wrapf(ErrInvalidVersion, "%q", s)
	}

	major, err := strconv.Atoi(matches[1])
	if err != nil {
		return Version{}, errors.Wrapf(ErrInvalidVersion, "major component of %q", s)
	}

	minor, err := strconv.Atoi(matches[2])
	if err != nil {
		return Version{}, errors.Wrapf(ErrInvalidVersion, "minor component of %q", s)
	}

	patch, err := strconv.Atoi(matches[3])
	if err != nil {
		return Version{}, errors.Wrapf(ErrInvalidVersion, "patch component of %q", s)
	}

	return Version{Major: major, Minor: minor, Patch: patch}, nil
}

// ValidateVersion reports whether s is a well formed version string. It
// returns an error wrapping ErrInvalidVersion otherwise.
func ValidateVersion(s string) error {
	_, err := ParseVersion(s)
	return err
}

// String returns the version as a string in format "major.minor.patch"
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0, or 1 depending on whether v is lower than, equal
// to, or greater than other in numeric triplet order.
//
// Chain lookups compare versions by exact string equality only; Compare
// exists so patch listings can be sorted for display.
func (v Version) Compare(other Version) int {
	if c := cmp.Compare(v.Major, other.Major); c != 0 {
		return c
	}
	if c := cmp.Compare(v.Minor, other.Minor); c != 0 {
		return c
	}
	return cmp.Compare(v.Patch, other.Patch)
}
