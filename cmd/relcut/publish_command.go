package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"relcut/internal/config"
	"relcut/internal/history"
	"relcut/internal/logging"
	"relcut/internal/notify"
	"relcut/internal/release"
	"relcut/internal/services"
	"relcut/internal/services/github"
	"relcut/internal/services/pkgbuild"
)

func newPublishCommand(ctx *commandContext) *cobra.Command {
	var workDir string
	var skipUpload bool
	var dryRun bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "publish <tag>",
		Short: "Publish a release for the given tag",
		Long: "Publish verifies the tag against the changelog and CI workflows, builds and\n" +
			"uploads the package when the registry is enabled, creates the GitHub release\n" +
			"with the changelog entry as notes, and sends the Discord notification.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tag := args[0]
			opts := release.Options{WorkDir: workDir, SkipUpload: skipUpload}

			if dryRun {
				return runPlan(ctx, cmd, tag, opts, asJSON)
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.GitHubToken() == "" {
				return errors.New("GITHUB_TOKEN is not set; export it or use --dry-run")
			}

			return ctx.withStore(func(store *history.Store) error {
				pipeline, err := buildPipeline(cfg, store, opts)
				if err != nil {
					return err
				}
				run, err := pipeline.Run(cmd.Context(), tag, opts)
				if err != nil {
					if run != nil {
						fmt.Fprintf(cmd.OutOrStdout(), "Publish failed at status %s: %s\n", run.Status, run.ErrorMessage)
						fmt.Fprintf(cmd.OutOrStdout(), "Retryable: %s\n", yesNo(services.Retryable(err)))
					}
					return err
				}
				if asJSON {
					return writeJSON(cmd, run)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Published %s\n", run.TagName)
				if run.ReleaseURL != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Release: %s\n", run.ReleaseURL)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&workDir, "work-dir", "", "Project checkout the package build runs in")
	cmd.Flags().BoolVar(&skipUpload, "skip-upload", false, "Skip the package build and upload stages")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Verify and report the plan without publishing")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the result as JSON")
	return cmd
}

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var workDir string
	var skipUpload bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "plan <tag>",
		Short: "Show what publishing a tag would do",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := release.Options{WorkDir: workDir, SkipUpload: skipUpload}
			return runPlan(ctx, cmd, args[0], opts, asJSON)
		},
	}

	cmd.Flags().StringVar(&workDir, "work-dir", "", "Project checkout the package build runs in")
	cmd.Flags().BoolVar(&skipUpload, "skip-upload", false, "Plan without the package build and upload stages")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the plan as JSON")
	return cmd
}

func runPlan(ctx *commandContext, cmd *cobra.Command, tag string, opts release.Options, asJSON bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	return ctx.withStore(func(store *history.Store) error {
		pipeline, err := release.New(cfg, store, nil, nil, nil, logging.NewNop())
		if err != nil {
			return err
		}
		plan, err := pipeline.Plan(cmd.Context(), tag, opts)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(cmd, plan)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Tag:        %s\n", plan.TagName)
		fmt.Fprintf(out, "Version:    %s (%s)\n", plan.Version, plan.Channel)
		fmt.Fprintf(out, "Title:      %s\n", plan.Title)
		fmt.Fprintf(out, "Repository: %s\n", plan.ReleaseFor)
		fmt.Fprintf(out, "Package:    %s\n", yesNo(plan.BuildsPkg))
		fmt.Fprintf(out, "Draft:      %s\n", yesNo(plan.Draft))
		fmt.Fprintf(out, "Notifies:   %s\n", yesNo(plan.Notifies))
		fmt.Fprintln(out)
		fmt.Fprintln(out, plan.Notes)
		return nil
	})
}

// buildPipeline wires the pipeline dependencies from configuration: logger,
// notification service, GitHub client, and the package builder when enabled.
func buildPipeline(cfg *config.Config, store *history.Store, opts release.Options) (*release.Pipeline, error) {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}
	logging.CleanupOldLogs(logger, cfg.Paths.StateDir, cfg.Logging.RetentionDays)

	releases, err := github.NewClient(
		cfg.GitHub.APIBaseURL,
		cfg.GitHub.UploadBaseURL,
		cfg.RepoOwner(),
		cfg.RepoName(),
		cfg.GitHubToken(),
		time.Duration(cfg.GitHub.RequestTimeout)*time.Second,
		nil,
	)
	if err != nil {
		return nil, err
	}

	var builder pkgbuild.Builder
	if cfg.Registry.Enabled && !opts.SkipUpload {
		client, err := pkgbuild.New(
			cfg.Registry.BuildCommand,
			cfg.Registry.UploadCommand,
			cfg.Registry.RepositoryURL,
			cfg.RegistryToken(),
			cfg.Registry.TimeoutSeconds,
		)
		if err != nil {
			return nil, err
		}
		builder = client
	}

	return release.New(cfg, store, notify.NewService(cfg), releases, builder, logger)
}
