package changelog_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"relcut/internal/changelog"
	"relcut/internal/version"
)

const sampleChangelog = `# Changelog

All notable changes to this project are documented here.

## [Unreleased]

### Features

- Teleoperation over websockets

## [0.3.0] - 2026-02-10

### Features

- Swarm launch profiles
- Diagnostic overlay

### Fixes

- Stop crash on empty config

## [0.2.1-rc.1] - 2026-01-05

### Fixes

- Pin container base image
`

func parseSample(t *testing.T) *changelog.Document {
	t.Helper()
	doc, err := changelog.Parse(strings.NewReader(sampleChangelog))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return doc
}

func TestParseStructure(t *testing.T) {
	doc := parseSample(t)

	if len(doc.Releases) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(doc.Releases))
	}
	if !doc.Releases[0].Unreleased {
		t.Error("expected first entry to be Unreleased")
	}
	if got := doc.Releases[1].Version.String(); got != "0.3.0" {
		t.Errorf("second entry version = %q, want 0.3.0", got)
	}
	if got := doc.Releases[2].Version.String(); got != "0.2.1-rc.1" {
		t.Errorf("third entry version = %q, want 0.2.1-rc.1", got)
	}

	newest := doc.Newest()
	if newest == nil || newest.Version.String() != "0.3.0" {
		t.Fatalf("Newest() = %v, want 0.3.0", newest)
	}
	if newest.EntryCount() != 3 {
		t.Errorf("newest entry count = %d, want 3", newest.EntryCount())
	}
	if len(newest.Sections) != 2 {
		t.Fatalf("newest sections = %d, want 2", len(newest.Sections))
	}
	if newest.Sections[0].Kind != changelog.KindFeatures {
		t.Errorf("first section kind = %v, want features", newest.Sections[0].Kind)
	}
	if newest.Sections[1].Kind != changelog.KindFixes {
		t.Errorf("second section kind = %v, want fixes", newest.Sections[1].Kind)
	}
}

func TestNotesReturnsVerbatimBody(t *testing.T) {
	doc := parseSample(t)

	notes, err := doc.Notes(version.MustParse("0.3.0"))
	if err != nil {
		t.Fatalf("Notes failed: %v", err)
	}
	want := "### Features\n\n- Swarm launch profiles\n- Diagnostic overlay\n\n### Fixes\n\n- Stop crash on empty config"
	if notes != want {
		t.Errorf("Notes = %q, want %q", notes, want)
	}

	if _, err := doc.Notes(version.MustParse("9.9.9")); !errors.Is(err, changelog.ErrVersionNotFound) {
		t.Errorf("Notes for missing version returned %v, want ErrVersionNotFound", err)
	}
}

func TestPromoteMovesUnreleasedToTop(t *testing.T) {
	doc := parseSample(t)

	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if err := doc.Promote(version.MustParse("0.4.0"), date); err != nil {
		t.Fatalf("Promote failed: %v", err)
	}

	if doc.Unreleased() != nil {
		t.Error("expected no Unreleased entry after promote")
	}
	newest := doc.Newest()
	if newest == nil || newest.Version.String() != "0.4.0" {
		t.Fatalf("Newest after promote = %v, want 0.4.0", newest)
	}
	if newest.RawDate != "2026-03-01" {
		t.Errorf("promoted date = %q, want 2026-03-01", newest.RawDate)
	}
	notes, err := doc.Notes(version.MustParse("0.4.0"))
	if err != nil {
		t.Fatalf("Notes after promote failed: %v", err)
	}
	if !strings.Contains(notes, "- Teleoperation over websockets") {
		t.Errorf("promoted notes missing item: %q", notes)
	}
}

func TestPromoteRejections(t *testing.T) {
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	doc := parseSample(t)
	if err := doc.Promote(version.MustParse("0.3.0"), date); err == nil {
		t.Error("expected error promoting an existing version")
	}
	if err := doc.Promote(version.MustParse("0.2.0"), date); err == nil {
		t.Error("expected error promoting an older version")
	}

	empty, err := changelog.Parse(strings.NewReader("# Changelog\n\n## [0.1.0] - 2026-01-01\n\n### Fixes\n\n- Something\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if err := empty.Promote(version.MustParse("0.2.0"), date); !errors.Is(err, changelog.ErrNothingUnreleased) {
		t.Errorf("Promote with no unreleased block returned %v, want ErrNothingUnreleased", err)
	}
}

func TestRenderRoundTrip(t *testing.T) {
	doc := parseSample(t)

	var buf strings.Builder
	if err := doc.Render(&buf); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if buf.String() != sampleChangelog {
		t.Errorf("Render changed the document:\n%s", buf.String())
	}
}

const annotatedChangelog = `# Changelog

## [Unreleased]

### Features

- Upcoming item

## [1.0.0] - 2026-01-15

This release stabilizes the public API.

### Features

- First release

[Unreleased]: https://example.com/compare/1.0.0...HEAD
[1.0.0]: https://example.com/releases/1.0.0
`

func TestRenderPreservesFreeformBody(t *testing.T) {
	doc, err := changelog.Parse(strings.NewReader(annotatedChangelog))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	var buf strings.Builder
	if err := doc.Render(&buf); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if buf.String() != annotatedChangelog {
		t.Errorf("Render changed the document:\n%s", buf.String())
	}
}

func TestPromoteKeepsOtherEntriesVerbatim(t *testing.T) {
	doc, err := changelog.Parse(strings.NewReader(annotatedChangelog))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	date := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	if err := doc.Promote(version.MustParse("1.1.0"), date); err != nil {
		t.Fatalf("Promote failed: %v", err)
	}

	var buf strings.Builder
	if err := doc.Render(&buf); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	out := buf.String()
	for _, line := range []string{
		"## [1.1.0] - 2026-02-01",
		"- Upcoming item",
		"This release stabilizes the public API.",
		"[Unreleased]: https://example.com/compare/1.0.0...HEAD",
		"[1.0.0]: https://example.com/releases/1.0.0",
	} {
		if !strings.Contains(out, line+"\n") {
			t.Errorf("rendered output lost line %q:\n%s", line, out)
		}
	}
}

func TestKindForHeadingAliases(t *testing.T) {
	cases := map[string]changelog.SectionKind{
		"Features":   changelog.KindFeatures,
		"features":   changelog.KindFeatures,
		"Fixes":      changelog.KindFixes,
		"Added":      changelog.KindAdded,
		"Changed":    changelog.KindChanged,
		"Deprecated": changelog.KindDeprecated,
		"Removed":    changelog.KindRemoved,
		"Fixed":      changelog.KindFixed,
		"Security":   changelog.KindSecurity,
		"Misc":       changelog.KindUnknown,
	}
	for heading, want := range cases {
		if got := changelog.KindForHeading(heading); got != want {
			t.Errorf("KindForHeading(%q) = %v, want %v", heading, got, want)
		}
	}
}
