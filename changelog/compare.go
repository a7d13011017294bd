package changelog

import (
	"cmp"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var versionPattern = regexp.MustCompile(`^(\d+)(?:\.(\d+))?(?:\.(\d+))?(.*)?$`)

// Version is a loosely parsed MAJOR[.MINOR[.PATCH]][suffix] string.
type Version struct {
	Major  int64
	Minor  int64
	Patch  int64
	Suffix string
}

// ParseVersion never fails: strings that do not start with a number parse as
// the zero Version.
func ParseVersion(s string) Version {
	m := versionPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Version{}
	}
	return Version{
		Major:  versionPart(m[1]),
		Minor:  versionPart(m[2]),
		Patch:  versionPart(m[3]),
		Suffix: m[4],
	}
}

func versionPart(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// only overflow is possible here, the pattern guarantees digits
		return math.MaxInt64
	}
	return n
}

// Compare orders releases newest first: by date descending (empty dates
// last), then by version numbers descending, then by suffix descending.
func Compare(a, b Release) int {
	if c := strings.Compare(b.Date(), a.Date()); c != 0 {
		return c
	}
	av, bv := ParseVersion(a.Version()), ParseVersion(b.Version())
	if c := cmp.Compare(bv.Major, av.Major); c != 0 {
		return c
	}
	if c := cmp.Compare(bv.Minor, av.Minor); c != 0 {
		return c
	}
	if c := cmp.Compare(bv.Patch, av.Patch); c != 0 {
		return c
	}
	return strings.Compare(bv.Suffix, av.Suffix)
}

// Sort orders releases in place. Entries that compare equal keep their
// relative order.
func Sort(releases []Release) {
	slices.SortStableFunc(releases, Compare)
}
