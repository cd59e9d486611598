package version_test

import (
	"testing"

	"relcut/internal/version"
)

func TestParseAcceptsReleaseTags(t *testing.T) {
	cases := []struct {
		tag        string
		str        string
		prerelease bool
		channel    string
	}{
		{"1.2.3", "1.2.3", false, version.ChannelStable},
		{"0.0.1", "0.0.1", false, version.ChannelStable},
		{"10.20.30", "10.20.30", false, version.ChannelStable},
		{"1.2.3-rc1", "1.2.3-rc1", true, version.ChannelPrerelease},
		{"1.2.3-rc.1", "1.2.3-rc.1", true, version.ChannelPrerelease},
		{"2.0.0-beta-2", "2.0.0-beta-2", true, version.ChannelPrerelease},
	}
	for _, tc := range cases {
		v, err := version.Parse(tc.tag)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", tc.tag, err)
		}
		if v.String() != tc.str {
			t.Errorf("Parse(%q).String() = %q, want %q", tc.tag, v.String(), tc.str)
		}
		if v.IsPrerelease() != tc.prerelease {
			t.Errorf("Parse(%q).IsPrerelease() = %v, want %v", tc.tag, v.IsPrerelease(), tc.prerelease)
		}
		if v.Channel() != tc.channel {
			t.Errorf("Parse(%q).Channel() = %q, want %q", tc.tag, v.Channel(), tc.channel)
		}
	}
}

func TestParseRejectsMalformedTags(t *testing.T) {
	bad := []string{
		"",
		"v1.2.3",
		"V1.2.3",
		"1.2",
		"1.2.3.4",
		"1.2.x",
		"1..3",
		"1.2.3-",
		"1.2.3-rc_1",
		"one.two.three",
	}
	for _, tag := range bad {
		if _, err := version.Parse(tag); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", tag)
		}
	}
}

func TestCompareOrdersPrereleasesBeforeRelease(t *testing.T) {
	ordered := []string{
		"0.9.9",
		"1.0.0-alpha",
		"1.0.0-alpha.1",
		"1.0.0-beta",
		"1.0.0-rc.1",
		"1.0.0-rc.2",
		"1.0.0",
		"1.0.1",
		"1.1.0",
		"2.0.0",
	}
	for i := 1; i < len(ordered); i++ {
		lo := version.MustParse(ordered[i-1])
		hi := version.MustParse(ordered[i])
		if lo.Compare(hi) >= 0 {
			t.Errorf("expected %s < %s", lo, hi)
		}
		if hi.Compare(lo) <= 0 {
			t.Errorf("expected %s > %s", hi, lo)
		}
	}
}

func TestEqual(t *testing.T) {
	a := version.MustParse("1.2.3-rc.1")
	b := version.MustParse("1.2.3-rc.1")
	c := version.MustParse("1.2.3")
	if !a.Equal(b) {
		t.Error("expected identical versions to be equal")
	}
	if a.Equal(c) {
		t.Error("expected prerelease and release to differ")
	}
}
