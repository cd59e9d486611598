package release

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"relcut/internal/config"
	"relcut/internal/history"
	"relcut/internal/logging"
	"relcut/internal/notify"
	"relcut/internal/services"
	"relcut/internal/services/github"
	"relcut/internal/services/pkgbuild"
	"relcut/internal/version"
)

// ErrPublishLocked indicates another publish holds the lock.
var ErrPublishLocked = errors.New("another publish is already running")

// Options tune a single pipeline invocation.
type Options struct {
	// WorkDir is the project checkout the build runs in. Defaults to the
	// current directory.
	WorkDir string
	// SkipUpload publishes the release without building or uploading the
	// package, regardless of registry.enabled.
	SkipUpload bool
}

// Pipeline coordinates one publish run end to end.
type Pipeline struct {
	cfg      *config.Config
	store    *history.Store
	notifier notify.Service
	releases github.Client
	builder  pkgbuild.Builder
	logger   *slog.Logger
}

// New constructs a pipeline. The GitHub client and builder may be nil when
// the corresponding stages are disabled; stages that need them fail with a
// configuration error instead of panicking.
func New(cfg *config.Config, store *history.Store, notifier notify.Service, releases github.Client, builder pkgbuild.Builder, logger *slog.Logger) (*Pipeline, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("pipeline requires config and store")
	}
	if notifier == nil {
		notifier = notify.NewService(cfg)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		cfg:      cfg,
		store:    store,
		notifier: notifier,
		releases: releases,
		builder:  builder,
		logger:   logger.With(logging.String(logging.FieldComponent, "pipeline")),
	}, nil
}

// state carries the in-flight artifacts between stages.
type state struct {
	tag       string
	version   version.Version
	notes     string
	title     string
	artifacts []string
	release   *github.Release
	opts      Options
}

type stage struct {
	name       string
	processing history.Status // zero means the stage runs inside the current status
	done       history.Status
	execute    func(context.Context, *history.Run, *state) error
}

// Run publishes the given tag. The returned run reflects the final persisted
// state; on stage failure the run is failed and the error returned.
func (p *Pipeline) Run(ctx context.Context, tag string, opts Options) (*history.Run, error) {
	v, err := version.Parse(tag)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "verify", "parse tag", "", err)
	}

	lock := flock.New(filepath.Join(p.cfg.Paths.StateDir, "publish.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire publish lock: %w", err)
	}
	if !locked {
		return nil, ErrPublishLocked
	}
	defer func() { _ = lock.Unlock() }()

	ctx = services.WithTag(ctx, tag)
	ctx = services.WithRequestID(ctx, uuid.NewString())

	run, err := p.store.NewRun(ctx, tag, v.String(), v.Channel())
	if err != nil {
		return nil, err
	}
	ctx = services.WithRunID(ctx, run.ID)
	logger := logging.WithContext(ctx, p.logger)
	logger.Info("publish run created", logging.String(logging.FieldVersion, v.String()))

	st := &state{tag: tag, version: v, opts: opts}

	for _, sg := range p.stages(st) {
		if err := p.executeStage(ctx, logger, sg, run, st); err != nil {
			p.failRun(ctx, logger, sg.name, run, err)
			return run, err
		}
	}

	logger.Info("publish complete",
		logging.String("release_url", run.ReleaseURL),
		logging.String(logging.FieldEventType, "publish_complete"),
	)
	return run, nil
}

func (p *Pipeline) stages(st *state) []stage {
	stages := []stage{
		{name: "verify", execute: p.stageVerify},
	}
	if p.cfg.Registry.Enabled && !st.opts.SkipUpload {
		stages = append(stages,
			stage{name: "build", processing: history.StatusBuilding, done: history.StatusBuilt, execute: p.stageBuild},
			stage{name: "upload", execute: p.stageUpload},
		)
	}
	stages = append(stages,
		stage{name: "publish", processing: history.StatusPublishing, done: history.StatusPublished, execute: p.stagePublish},
		stage{name: "notify", processing: history.StatusNotifying, done: history.StatusNotified, execute: p.stageNotify},
	)
	return stages
}

func (p *Pipeline) executeStage(ctx context.Context, logger *slog.Logger, sg stage, run *history.Run, st *state) error {
	ctx = services.WithStage(ctx, sg.name)
	stageLogger := logger.With(logging.String(logging.FieldStage, sg.name))

	if sg.processing != "" {
		run.Status = sg.processing
		if err := p.store.Update(ctx, run); err != nil {
			return fmt.Errorf("persist %s transition: %w", sg.processing, err)
		}
	}

	start := time.Now()
	stageLogger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))

	if err := sg.execute(ctx, run, st); err != nil {
		stageLogger.Error("stage failed",
			logging.Error(err),
			logging.Duration("elapsed", time.Since(start)),
		)
		return err
	}

	if sg.done != "" {
		run.Status = sg.done
		if err := p.store.Update(ctx, run); err != nil {
			return fmt.Errorf("persist %s transition: %w", sg.done, err)
		}
	}
	stageLogger.Info("stage finished",
		logging.String(logging.FieldEventType, "stage_finish"),
		logging.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (p *Pipeline) failRun(ctx context.Context, logger *slog.Logger, stageName string, run *history.Run, cause error) {
	run.Status = history.StatusFailed
	run.ErrorMessage = cause.Error()
	logger.Error("publish failed",
		logging.Error(cause),
		logging.Bool("retryable", services.Retryable(cause)),
		logging.String(logging.FieldEventType, "publish_failed"),
	)
	if err := p.store.Update(ctx, run); err != nil {
		logger.Error("failed to persist run failure", logging.Error(err))
	}
	if err := p.notifier.NotifyPublishFailed(ctx, run.TagName, stageName, cause); err != nil {
		logger.Warn("failure notification not delivered", logging.Error(err))
	}
}

func notesDigest(notes string) string {
	sum := sha256.Sum256([]byte(notes))
	return hex.EncodeToString(sum[:])
}
