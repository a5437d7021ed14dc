package settings

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a major.minor.patch triple.
type Version struct {
	Major int
	Minor int
	Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// ParseVersion parses "major.minor.patch". A leading "v" is accepted and
// missing trailing components default to zero.
func ParseVersion(s string) (Version, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	parts := strings.Split(s, ".")
	if s == "" || len(parts) > 3 {
		return Version{}, fmt.Errorf("invalid version %q", s)
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("invalid version %q", s)
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// Less reports whether v precedes o.
func (v Version) Less(o Version) bool {
	if v.Major != o.Major {
		return v.Major < o.Major
	}
	if v.Minor != o.Minor {
		return v.Minor < o.Minor
	}
	return v.Patch < o.Patch
}

// OutdatedError is returned when the running build is older than the declared latest version.
type OutdatedError struct {
	Build  Version
	Latest Version
}

func (e *OutdatedError) Error() string {
	return fmt.Sprintf("keymaster %s is out of date, version %s is required", e.Build, e.Latest)
}

// CheckVersion refuses builds older than latest. A nil latest always passes.
func CheckVersion(build Version, latest *Version) error {
	if latest == nil || !build.Less(*latest) {
		return nil
	}
	return &OutdatedError{Build: build, Latest: *latest}
}
