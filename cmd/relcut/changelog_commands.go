package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"relcut/internal/changelog"
	"relcut/internal/version"
)

func newChangelogCommand(ctx *commandContext) *cobra.Command {
	changelogCmd := &cobra.Command{
		Use:   "changelog",
		Short: "Inspect and maintain the changelog",
	}

	changelogCmd.AddCommand(newChangelogShowCommand(ctx))
	changelogCmd.AddCommand(newChangelogListCommand(ctx))
	changelogCmd.AddCommand(newChangelogLintCommand(ctx))
	changelogCmd.AddCommand(newChangelogReleaseCommand(ctx))

	return changelogCmd
}

func (c *commandContext) loadChangelog() (*changelog.Document, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	doc, err := changelog.ParseFile(cfg.Paths.Changelog)
	if err != nil {
		return nil, fmt.Errorf("read changelog: %w", err)
	}
	return doc, nil
}

func newChangelogShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show [version]",
		Short: "Print the release notes for a version (newest by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := ctx.loadChangelog()
			if err != nil {
				return err
			}

			var rel *changelog.Release
			if len(args) == 1 {
				v, err := version.Parse(args[0])
				if err != nil {
					return fmt.Errorf("parse version %q: %w", args[0], err)
				}
				if rel = doc.Find(v); rel == nil {
					return fmt.Errorf("changelog has no entry for %s", v)
				}
			} else if rel = doc.Newest(); rel == nil {
				return fmt.Errorf("changelog has no released versions")
			}

			notes, err := doc.Notes(rel.Version)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, map[string]any{
					"version": rel.Version.String(),
					"date":    rel.RawDate,
					"channel": rel.Version.Channel(),
					"notes":   notes,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), rel.Heading())
			if notes != "" {
				fmt.Fprintln(cmd.OutOrStdout())
				fmt.Fprintln(cmd.OutOrStdout(), notes)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the entry as JSON")
	return cmd
}

func newChangelogListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List changelog entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := ctx.loadChangelog()
			if err != nil {
				return err
			}
			if asJSON {
				type entry struct {
					Version    string `json:"version,omitempty"`
					Date       string `json:"date,omitempty"`
					Channel    string `json:"channel,omitempty"`
					Unreleased bool   `json:"unreleased,omitempty"`
					Entries    int    `json:"entries"`
				}
				entries := make([]entry, 0, len(doc.Releases))
				for i := range doc.Releases {
					rel := &doc.Releases[i]
					e := entry{Unreleased: rel.Unreleased, Entries: rel.EntryCount()}
					if !rel.Unreleased {
						e.Version = rel.Version.String()
						e.Date = rel.RawDate
						e.Channel = rel.Version.Channel()
					}
					entries = append(entries, e)
				}
				return writeJSON(cmd, entries)
			}

			rows := make([][]string, 0, len(doc.Releases))
			for i := range doc.Releases {
				rel := &doc.Releases[i]
				if rel.Unreleased {
					rows = append(rows, []string{"Unreleased", "", "", fmt.Sprint(rel.EntryCount())})
					continue
				}
				rows = append(rows, []string{
					rel.Version.String(),
					rel.RawDate,
					rel.Version.Channel(),
					fmt.Sprint(rel.EntryCount()),
				})
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Changelog is empty")
				return nil
			}
			out := renderTable([]string{"Version", "Date", "Channel", "Entries"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight})
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit entries as JSON")
	return cmd
}

func newChangelogLintCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "lint",
		Short: "Check the changelog for format problems",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := ctx.loadChangelog()
			if err != nil {
				return err
			}
			problems := doc.Lint()
			if len(problems) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Changelog is clean")
				return nil
			}
			for _, p := range problems {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return fmt.Errorf("changelog has %d problem(s)", len(problems))
		},
	}
}

func newChangelogReleaseCommand(ctx *commandContext) *cobra.Command {
	var dateFlag string

	cmd := &cobra.Command{
		Use:   "release <version>",
		Short: "Promote the Unreleased section to a dated version entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			v, err := version.Parse(args[0])
			if err != nil {
				return fmt.Errorf("parse version %q: %w", args[0], err)
			}

			date := time.Now()
			if dateFlag != "" {
				date, err = time.Parse("2006-01-02", dateFlag)
				if err != nil {
					return fmt.Errorf("parse date %q: expected YYYY-MM-DD", dateFlag)
				}
			}

			doc, err := ctx.loadChangelog()
			if err != nil {
				return err
			}
			if err := doc.Promote(v, date); err != nil {
				return err
			}
			if err := doc.WriteFile(cfg.Paths.Changelog); err != nil {
				return fmt.Errorf("write changelog: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Released %s as of %s\n", v, date.Format("2006-01-02"))
			return nil
		},
	}

	cmd.Flags().StringVar(&dateFlag, "date", "", "Release date (YYYY-MM-DD, default today)")
	return cmd
}
