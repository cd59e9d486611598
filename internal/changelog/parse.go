package changelog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"relcut/internal/version"
)

// releaseHeadingRe matches "## [version] - date" and the unreleased form.
// The version and date are captured loosely; Lint reports entries whose
// captured text does not satisfy the tag grammar or date format.
var releaseHeadingRe = regexp.MustCompile(`^##\s+\[([^\]]+)\]\s*(?:-\s*(.*?)\s*)?$`)

// ParseFile reads and parses the changelog at path.
func ParseFile(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open changelog: %w", err)
	}
	defer file.Close()
	doc, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

// Parse reads a changelog document. Parsing is tolerant: malformed headings
// and unknown subsections are preserved and surface later through Lint rather
// than failing here.
func Parse(r io.Reader) (*Document, error) {
	doc := &Document{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var current *Release
	var section *Section
	line := 0

	for scanner.Scan() {
		line++
		text := scanner.Text()

		if match := releaseHeadingRe.FindStringSubmatch(text); match != nil {
			doc.Releases = append(doc.Releases, Release{Line: line})
			current = &doc.Releases[len(doc.Releases)-1]
			section = nil

			rawVersion := strings.TrimSpace(match[1])
			current.RawVersion = rawVersion
			current.RawDate = strings.TrimSpace(match[2])
			if strings.EqualFold(rawVersion, "unreleased") {
				current.Unreleased = true
				continue
			}
			if v, err := version.Parse(rawVersion); err == nil {
				current.Version = v
			}
			if ts, err := time.Parse(dateLayout, current.RawDate); err == nil {
				current.Date = ts
			}
			continue
		}

		if current == nil {
			doc.Preamble = append(doc.Preamble, text)
			continue
		}

		current.body = append(current.body, text)

		if heading, ok := strings.CutPrefix(text, "### "); ok {
			current.Sections = append(current.Sections, Section{
				Kind:    KindForHeading(heading),
				Heading: strings.TrimSpace(heading),
				Line:    line,
			})
			section = &current.Sections[len(current.Sections)-1]
			continue
		}

		if item, ok := bulletItem(text); ok {
			if section == nil {
				// Bullets before any subsection heading belong to an implicit
				// unnamed section so they survive a round trip.
				current.Sections = append(current.Sections, Section{Line: line})
				section = &current.Sections[len(current.Sections)-1]
			}
			section.Items = append(section.Items, item)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read changelog: %w", err)
	}

	trimTrailingBlank(doc)
	return doc, nil
}

func bulletItem(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "-" || trimmed == "*" {
		// A bare marker is an empty item; Lint reports it.
		return "", true
	}
	for _, marker := range []string{"- ", "* "} {
		if item, ok := strings.CutPrefix(trimmed, marker); ok {
			return strings.TrimSpace(item), true
		}
	}
	return "", false
}

func trimTrailingBlank(doc *Document) {
	for i := range doc.Releases {
		body := doc.Releases[i].body
		for len(body) > 0 && strings.TrimSpace(body[len(body)-1]) == "" {
			body = body[:len(body)-1]
		}
		doc.Releases[i].body = body
	}
	for len(doc.Preamble) > 0 && strings.TrimSpace(doc.Preamble[len(doc.Preamble)-1]) == "" {
		doc.Preamble = doc.Preamble[:len(doc.Preamble)-1]
	}
}
