package config

const (
	defaultStateDir           = "~/.local/share/relcut"
	defaultChangelogPath      = "CHANGELOG.md"
	defaultWorkflowsDir       = ".github/workflows"
	defaultGitHubAPIBaseURL   = "https://api.github.com"
	defaultGitHubUploadURL    = "https://uploads.github.com"
	defaultRegistryURL        = "https://upload.pypi.org/legacy/"
	defaultRequestTimeout     = 30
	defaultRegistryTimeout    = 600
	defaultDiscordUsername    = "relcut"
	defaultDiscordTimeout     = 10
	defaultDedupWindowSecs    = 600
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogRetentionDays   = 60
	defaultRegistryBuildCmd   = "python -m build"
	defaultRegistryUploadCmd  = "twine upload dist/*"
	githubTokenEnvVar         = "GITHUB_TOKEN"
	registryTokenEnvVar       = "PYPI_TOKEN"
	discordWebhookEnvVar      = "DISCORD_WEBHOOK"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:     defaultStateDir,
			Changelog:    defaultChangelogPath,
			WorkflowsDir: defaultWorkflowsDir,
		},
		GitHub: GitHub{
			APIBaseURL:     defaultGitHubAPIBaseURL,
			UploadBaseURL:  defaultGitHubUploadURL,
			RequestTimeout: defaultRequestTimeout,
		},
		Registry: Registry{
			RepositoryURL:  defaultRegistryURL,
			TimeoutSeconds: defaultRegistryTimeout,
		},
		Discord: Discord{
			Username:           defaultDiscordUsername,
			RequestTimeout:     defaultDiscordTimeout,
			Started:            true,
			Published:          true,
			Failures:           true,
			DedupWindowSeconds: defaultDedupWindowSecs,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
