package release

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"relcut/internal/changelog"
	"relcut/internal/history"
	"relcut/internal/logging"
	"relcut/internal/notify"
	"relcut/internal/services"
	"relcut/internal/services/github"
	"relcut/internal/workflows"
)

// stageVerify confirms the tag, changelog, and CI workflows agree before any
// external effect happens.
func (p *Pipeline) stageVerify(ctx context.Context, run *history.Run, st *state) error {
	doc, err := changelog.ParseFile(p.cfg.Paths.Changelog)
	if err != nil {
		return services.Wrap(services.ErrValidation, "verify", "read changelog", "", err)
	}

	if problems := doc.Lint(); len(problems) > 0 {
		return services.Wrap(services.ErrValidation, "verify", "lint changelog",
			fmt.Sprintf("%d problem(s), first: %s", len(problems), problems[0]), nil)
	}

	newest := doc.Newest()
	if newest == nil {
		return services.Wrap(services.ErrValidation, "verify", "match tag", "changelog has no released versions", nil)
	}
	if !newest.Version.Equal(st.version) {
		return services.Wrap(services.ErrValidation, "verify", "match tag",
			fmt.Sprintf("tag %s does not match newest changelog version %s", st.version, newest.Version), nil)
	}

	notes, err := doc.Notes(st.version)
	if err != nil {
		return services.Wrap(services.ErrValidation, "verify", "extract notes", "", err)
	}
	if notes == "" {
		return services.Wrap(services.ErrValidation, "verify", "extract notes",
			fmt.Sprintf("changelog entry for %s is empty", st.version), nil)
	}
	st.notes = notes
	st.title = releaseTitle(p.cfg.Project.Name, st.version.String())
	run.NotesDigest = notesDigest(notes)

	if err := p.verifyWorkflows(ctx); err != nil {
		return err
	}

	if err := p.notifier.NotifyPublishStarted(ctx, st.tag); err != nil {
		logging.WithContext(ctx, p.logger).Warn("start notification not delivered", logging.Error(err))
	}
	return nil
}

// verifyWorkflows lints the CI workflow documents when the configured
// directory exists. A missing directory is not an error: not every project
// checks its workflows into the tree relcut runs from.
func (p *Pipeline) verifyWorkflows(ctx context.Context) error {
	dir := strings.TrimSpace(p.cfg.Paths.WorkflowsDir)
	if dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	wfs, err := workflows.LoadDir(dir)
	if err != nil {
		return services.Wrap(services.ErrValidation, "verify", "load workflows", "", err)
	}
	if problems := workflows.LintAll(wfs); len(problems) > 0 {
		return services.Wrap(services.ErrValidation, "verify", "lint workflows",
			fmt.Sprintf("%d problem(s), first: %s", len(problems), problems[0]), nil)
	}
	return nil
}

func (p *Pipeline) stageBuild(ctx context.Context, run *history.Run, st *state) error {
	if p.builder == nil {
		return services.Wrap(services.ErrConfiguration, "build", "check builder", "no builder configured", nil)
	}
	artifacts, err := p.builder.Build(ctx, st.workDir())
	if err != nil {
		return err
	}
	st.artifacts = artifacts
	logging.WithContext(ctx, p.logger).Info("package built", logging.Int("artifacts", len(artifacts)))
	return nil
}

func (p *Pipeline) stageUpload(ctx context.Context, run *history.Run, st *state) error {
	if p.builder == nil {
		return services.Wrap(services.ErrConfiguration, "upload", "check builder", "no builder configured", nil)
	}
	return p.builder.Upload(ctx, st.workDir(), st.artifacts)
}

func (p *Pipeline) stagePublish(ctx context.Context, run *history.Run, st *state) error {
	if p.releases == nil {
		return services.Wrap(services.ErrConfiguration, "publish", "check client", "no release client configured", nil)
	}

	rel, err := p.releases.CreateRelease(ctx, github.ReleaseRequest{
		TagName:    st.tag,
		Name:       st.title,
		Body:       st.notes,
		Prerelease: st.version.IsPrerelease(),
		Draft:      p.cfg.GitHub.Draft,
	})
	if err != nil {
		return services.Wrap(services.ErrTransient, "publish", "create release", "", err)
	}
	st.release = rel
	run.ReleaseURL = rel.HTMLURL

	for _, artifact := range st.artifacts {
		if _, err := p.releases.UploadAsset(ctx, rel, artifact); err != nil {
			return services.Wrap(services.ErrTransient, "publish", "upload asset", artifact, err)
		}
	}
	return nil
}

func (p *Pipeline) stageNotify(ctx context.Context, run *history.Run, st *state) error {
	window := time.Duration(p.cfg.Discord.DedupWindowSeconds) * time.Second
	recent, err := p.store.RecentNotification(ctx, st.tag, window)
	if err != nil {
		return err
	}
	if recent {
		logging.WithContext(ctx, p.logger).Info("notification suppressed by dedup window")
		return nil
	}

	info := notify.ReleaseInfo{
		TagName:    st.tag,
		Title:      st.title,
		Notes:      st.notes,
		URL:        run.ReleaseURL,
		Prerelease: st.version.IsPrerelease(),
	}
	if err := p.notifier.NotifyReleasePublished(ctx, info); err != nil {
		return services.Wrap(services.ErrTransient, "notify", "send webhook", "", err)
	}
	return nil
}

func (st *state) workDir() string {
	if dir := strings.TrimSpace(st.opts.WorkDir); dir != "" {
		return dir
	}
	return "."
}

func releaseTitle(project, version string) string {
	if project = strings.TrimSpace(project); project != "" {
		return project + " " + version
	}
	return version
}
