package version

import (
	"testing"

	"github.com/fatih/color"
)

func TestBanner(t *testing.T) {
	saved := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = saved }()

	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	defer func() { Version, GitCommit, BuildDate = origVersion, origCommit, origDate }()

	cases := []struct {
		version, commit, date string
		want                  string
	}{
		{"0.3.0-dev", "", "", "cxxsema 0.3.0-dev"},
		{"1.2.3", "abc123", "", "cxxsema 1.2.3 (abc123)"},
		{"1.2.3-rc.1", "abc123", "2026-01-15", "cxxsema 1.2.3-rc.1 (abc123) built 2026-01-15"},
		{"nightly", "", "", "cxxsema nightly"},
	}
	for _, tc := range cases {
		t.Run(tc.version, func(t *testing.T) {
			Version, GitCommit, BuildDate = tc.version, tc.commit, tc.date
			if got := Banner(); got != tc.want {
				t.Fatalf("Banner() = %q, want %q", got, tc.want)
			}
		})
	}
}
