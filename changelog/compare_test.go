package changelog

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func versions(releases []Release) []string {
	out := make([]string, len(releases))
	for i, r := range releases {
		out[i] = r.Version()
	}
	return out
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in   string
		want Version
	}{
		{"1.2.3", Version{Major: 1, Minor: 2, Patch: 3}},
		{"2", Version{Major: 2}},
		{"2.5", Version{Major: 2, Minor: 5}},
		{"1.0.0-beta", Version{Major: 1, Suffix: "-beta"}},
		{"  3.1.4  ", Version{Major: 3, Minor: 1, Patch: 4}},
		{"10.20.30.40", Version{Major: 10, Minor: 20, Patch: 30, Suffix: ".40"}},
		{"abc", Version{}},
		{"v1.2.3", Version{}},
		{"", Version{}},
		{"99999999999999999999.1", Version{Major: math.MaxInt64, Minor: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseVersion(tt.in))
		})
	}
}

func TestSort_DateDescending(t *testing.T) {
	for _, order := range [][]Release{
		{NewRelease("1.0.0", "2024-01-01"), NewRelease("0.9.0", "2024-02-01")},
		{NewRelease("0.9.0", "2024-02-01"), NewRelease("1.0.0", "2024-01-01")},
	} {
		Sort(order)
		assert.Equal(t, []string{"0.9.0", "1.0.0"}, versions(order))
	}
}

func TestSort_EmptyDateLast(t *testing.T) {
	releases := []Release{
		NewRelease("3.0.0", ""),
		NewRelease("1.0.0", "2023-05-01"),
		NewRelease("2.0.0", "2024-05-01"),
	}
	Sort(releases)
	assert.Equal(t, []string{"2.0.0", "1.0.0", "3.0.0"}, versions(releases))
}

func TestSort_SameDateFallsBackToVersion(t *testing.T) {
	releases := []Release{
		NewRelease("2.0.9", "2024-01-01"),
		NewRelease("2.1.0", "2024-01-01"),
		NewRelease("10.0", "2024-01-01"),
		NewRelease("2.1.1", "2024-01-01"),
	}
	Sort(releases)
	assert.Equal(t, []string{"10.0", "2.1.1", "2.1.0", "2.0.9"}, versions(releases))
}

func TestSort_IrregularVersionSortsLast(t *testing.T) {
	releases := []Release{
		NewRelease("abc", "2024-01-01"),
		NewRelease("1.0.0", "2024-01-01"),
	}
	Sort(releases)
	assert.Equal(t, []string{"1.0.0", "abc"}, versions(releases))
}

func TestSort_SuffixDescending(t *testing.T) {
	releases := []Release{
		NewRelease("1.0.0", "2024-01-01"),
		NewRelease("1.0.0-alpha", "2024-01-01"),
		NewRelease("1.0.0-beta", "2024-01-01"),
	}
	Sort(releases)
	assert.Equal(t, []string{"1.0.0-beta", "1.0.0-alpha", "1.0.0"}, versions(releases))
}

func TestSort_Stable(t *testing.T) {
	a := NewRelease("abc", "2024-01-01")
	a.SetValue("tag", "first")
	b := NewRelease("xyz", "2024-01-01")
	b.SetValue("tag", "second")

	// both parse as the zero version with an empty suffix
	releases := []Release{a, b}
	Sort(releases)
	assert.Equal(t, []string{"abc", "xyz"}, versions(releases))

	releases = []Release{b, a}
	Sort(releases)
	assert.Equal(t, []string{"xyz", "abc"}, versions(releases))
}

func TestCompare_Symmetric(t *testing.T) {
	a := NewRelease("2.1.0", "2024-01-01")
	b := NewRelease("2.0.9", "2024-01-01")
	assert.Negative(t, Compare(a, b))
	assert.Positive(t, Compare(b, a))
	assert.Zero(t, Compare(a, a))
}
