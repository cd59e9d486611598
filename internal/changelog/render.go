package changelog

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Render writes the document back out: preamble, then each release heading
// followed by its verbatim body. Entry bodies are preserved as parsed, so
// paragraphs and link-reference lines survive a rewrite untouched; only the
// blank line between entries is normalized.
func (d *Document) Render(w io.Writer) error {
	var b strings.Builder

	for _, line := range d.Preamble {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if len(d.Preamble) > 0 && len(d.Releases) > 0 {
		b.WriteByte('\n')
	}

	for i := range d.Releases {
		rel := &d.Releases[i]
		b.WriteString(rel.Heading())
		b.WriteByte('\n')
		for _, line := range rel.body {
			b.WriteString(line)
			b.WriteByte('\n')
		}
		if i < len(d.Releases)-1 {
			b.WriteByte('\n')
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteFile renders the document to path atomically.
func (d *Document) WriteFile(path string) error {
	tmp := path + ".tmp"
	file, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create changelog temp file: %w", err)
	}
	if err := d.Render(file); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("render changelog: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close changelog temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace changelog: %w", err)
	}
	return nil
}

func renderSections(sections []Section) []string {
	var lines []string
	for _, section := range sections {
		lines = append(lines, "")
		if section.Heading != "" {
			lines = append(lines, "### "+section.Heading)
			lines = append(lines, "")
		}
		for _, item := range section.Items {
			lines = append(lines, "- "+item)
		}
	}
	return lines
}
