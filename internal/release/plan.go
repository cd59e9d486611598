package release

import (
	"context"
	"fmt"

	"relcut/internal/changelog"
	"relcut/internal/services"
	"relcut/internal/version"
)

// Plan describes what a publish run would do, without doing it.
type Plan struct {
	TagName    string
	Version    string
	Channel    string
	Title      string
	Notes      string
	BuildsPkg  bool
	Draft      bool
	Notifies   bool
	ReleaseFor string // owner/repo
}

// Plan validates the tag against the changelog and workflows and reports the
// resulting release. Nothing is persisted and no external call is made.
func (p *Pipeline) Plan(ctx context.Context, tag string, opts Options) (*Plan, error) {
	v, err := version.Parse(tag)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "plan", "parse tag", "", err)
	}

	doc, err := changelog.ParseFile(p.cfg.Paths.Changelog)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "plan", "read changelog", "", err)
	}
	if problems := doc.Lint(); len(problems) > 0 {
		return nil, services.Wrap(services.ErrValidation, "plan", "lint changelog",
			fmt.Sprintf("%d problem(s), first: %s", len(problems), problems[0]), nil)
	}
	newest := doc.Newest()
	if newest == nil || !newest.Version.Equal(v) {
		got := "none"
		if newest != nil {
			got = newest.Version.String()
		}
		return nil, services.Wrap(services.ErrValidation, "plan", "match tag",
			fmt.Sprintf("tag %s does not match newest changelog version %s", v, got), nil)
	}
	notes, err := doc.Notes(v)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "plan", "extract notes", "", err)
	}
	if err := p.verifyWorkflows(ctx); err != nil {
		return nil, err
	}

	return &Plan{
		TagName:    tag,
		Version:    v.String(),
		Channel:    v.Channel(),
		Title:      releaseTitle(p.cfg.Project.Name, v.String()),
		Notes:      notes,
		BuildsPkg:  p.cfg.Registry.Enabled && !opts.SkipUpload,
		Draft:      p.cfg.GitHub.Draft,
		Notifies:   p.cfg.DiscordWebhook() != "",
		ReleaseFor: p.cfg.Project.Repository,
	}, nil
}
