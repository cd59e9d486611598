package changelog

import (
	"fmt"
	"time"

	"relcut/internal/version"
)

// Problem is a single lint finding with the heading line it refers to.
type Problem struct {
	Line    int
	Message string
}

func (p Problem) String() string {
	return fmt.Sprintf("line %d: %s", p.Line, p.Message)
}

// Lint checks the document against the changelog format: version headings
// that parse under the tag grammar, YYYY-MM-DD dates, strictly descending
// versions, no duplicates, recognized subsection markers, and non-empty
// entries. An empty result means the document is release-ready.
func (d *Document) Lint() []Problem {
	var problems []Problem
	report := func(line int, format string, args ...any) {
		problems = append(problems, Problem{Line: line, Message: fmt.Sprintf(format, args...)})
	}

	seen := make(map[version.Version]int)
	var prev *Release

	for i := range d.Releases {
		rel := &d.Releases[i]

		if rel.Unreleased {
			if i != 0 {
				report(rel.Line, "[Unreleased] must be the first entry")
			}
			lintSections(rel, report)
			continue
		}

		v, err := version.Parse(rel.RawVersion)
		if err != nil {
			report(rel.Line, "version heading %q: %v", rel.RawVersion, err)
			continue
		}

		if rel.RawDate == "" {
			report(rel.Line, "version %s is missing a release date", v)
		} else if _, err := time.Parse(dateLayout, rel.RawDate); err != nil {
			report(rel.Line, "version %s has date %q, expected YYYY-MM-DD", v, rel.RawDate)
		}

		if firstLine, dup := seen[v]; dup {
			report(rel.Line, "duplicate entry for version %s (first at line %d)", v, firstLine)
		} else {
			seen[v] = rel.Line
		}

		if prev != nil && v.Compare(prev.Version) >= 0 {
			report(rel.Line, "version %s is not older than %s above it", v, prev.Version)
		}
		prev = rel

		if rel.EntryCount() == 0 {
			report(rel.Line, "version %s has no entries", v)
		}
		lintSections(rel, report)
	}

	return problems
}

func lintSections(rel *Release, report func(int, string, ...any)) {
	for _, section := range rel.Sections {
		if section.Heading != "" && section.Kind == KindUnknown {
			report(section.Line, "unrecognized subsection %q", section.Heading)
		}
		if section.Heading == "" && len(section.Items) > 0 && !rel.Unreleased {
			report(section.Line, "entries outside a ### subsection")
		}
		for _, item := range section.Items {
			if item == "" {
				report(section.Line, "empty bullet entry")
			}
		}
	}
}
