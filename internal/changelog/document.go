package changelog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"relcut/internal/version"
)

var (
	// ErrVersionNotFound indicates the requested version has no entry.
	ErrVersionNotFound = errors.New("version not found in changelog")
	// ErrNothingUnreleased indicates a release was requested with no
	// unreleased entries to promote.
	ErrNothingUnreleased = errors.New("no unreleased entries to promote")
)

// SectionKind names a recognized release subsection.
type SectionKind string

const (
	KindFeatures   SectionKind = "Features"
	KindFixes      SectionKind = "Fixes"
	KindAdded      SectionKind = "Added"
	KindChanged    SectionKind = "Changed"
	KindDeprecated SectionKind = "Deprecated"
	KindRemoved    SectionKind = "Removed"
	KindFixed      SectionKind = "Fixed"
	KindSecurity   SectionKind = "Security"
	// KindUnknown marks a subsection heading the format does not recognize.
	// Unknown sections are preserved verbatim and reported by Lint.
	KindUnknown SectionKind = ""
)

var sectionTitleCaser = cases.Title(language.English)

// KindForHeading maps a subsection heading to its kind, tolerating case
// differences ("### features" is accepted as Features).
func KindForHeading(heading string) SectionKind {
	switch SectionKind(sectionTitleCaser.String(strings.ToLower(strings.TrimSpace(heading)))) {
	case KindFeatures:
		return KindFeatures
	case KindFixes:
		return KindFixes
	case KindAdded:
		return KindAdded
	case KindChanged:
		return KindChanged
	case KindDeprecated:
		return KindDeprecated
	case KindRemoved:
		return KindRemoved
	case KindFixed:
		return KindFixed
	case KindSecurity:
		return KindSecurity
	default:
		return KindUnknown
	}
}

// Section is one bulleted subsection of a release entry.
type Section struct {
	Kind    SectionKind
	Heading string // heading text as written
	Items   []string
	Line    int
}

// Release is one version entry.
type Release struct {
	Unreleased bool
	Version    version.Version
	Date       time.Time
	RawVersion string // heading text between brackets, as written
	RawDate    string // date text as written
	Line       int
	Sections   []Section
	body       []string // verbatim lines between this heading and the next
}

// Document is a parsed changelog.
type Document struct {
	Preamble []string
	Releases []Release
}

// EntryCount returns the number of bullet items across all sections.
func (r *Release) EntryCount() int {
	total := 0
	for _, s := range r.Sections {
		total += len(s.Items)
	}
	return total
}

// Heading renders the release heading line.
func (r *Release) Heading() string {
	if r.Unreleased {
		return "## [Unreleased]"
	}
	return fmt.Sprintf("## [%s] - %s", r.RawVersion, r.RawDate)
}

// Notes returns the verbatim body of the entry for v: everything between its
// heading and the next release heading (or EOF), trimmed of surrounding blank
// lines. This is the extraction the publish pipeline ships as release notes.
func (d *Document) Notes(v version.Version) (string, error) {
	rel := d.Find(v)
	if rel == nil {
		return "", fmt.Errorf("%w: %s", ErrVersionNotFound, v)
	}
	return strings.TrimSpace(strings.Join(rel.body, "\n")), nil
}

// Find returns the release entry for v, or nil.
func (d *Document) Find(v version.Version) *Release {
	for i := range d.Releases {
		rel := &d.Releases[i]
		if !rel.Unreleased && rel.Version.Equal(v) {
			return rel
		}
	}
	return nil
}

// Unreleased returns the unreleased entry, or nil.
func (d *Document) Unreleased() *Release {
	for i := range d.Releases {
		if d.Releases[i].Unreleased {
			return &d.Releases[i]
		}
	}
	return nil
}

// Newest returns the most recent dated release entry, or nil. Entries are in
// document order, so the first dated entry is the newest in a valid document.
func (d *Document) Newest() *Release {
	for i := range d.Releases {
		if !d.Releases[i].Unreleased {
			return &d.Releases[i]
		}
	}
	return nil
}

// Promote converts the unreleased block into a dated entry for v. The
// unreleased block must contain at least one item, and v must be newer than
// every existing entry.
func (d *Document) Promote(v version.Version, date time.Time) error {
	unreleased := d.Unreleased()
	if unreleased == nil || unreleased.EntryCount() == 0 {
		return ErrNothingUnreleased
	}
	if existing := d.Find(v); existing != nil {
		return fmt.Errorf("version %s already has a changelog entry", v)
	}
	if newest := d.Newest(); newest != nil && v.Compare(newest.Version) <= 0 {
		return fmt.Errorf("version %s is not newer than %s", v, newest.Version)
	}

	unreleased.Unreleased = false
	unreleased.Version = v
	unreleased.RawVersion = v.String()
	unreleased.Date = date
	unreleased.RawDate = date.Format(dateLayout)
	unreleased.body = renderSections(unreleased.Sections)

	// Keep the promoted entry ahead of the previously newest release.
	idx := -1
	for i := range d.Releases {
		if !d.Releases[i].Unreleased && d.Releases[i].Version.Equal(v) {
			idx = i
			break
		}
	}
	if idx > 0 {
		promoted := d.Releases[idx]
		copy(d.Releases[1:idx+1], d.Releases[:idx])
		d.Releases[0] = promoted
	}
	return nil
}

const dateLayout = "2006-01-02"
