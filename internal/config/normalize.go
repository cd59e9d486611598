package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeProject()
	c.normalizeGitHub()
	c.normalizeRegistry()
	c.normalizeDiscord()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.Changelog) == "" {
		c.Paths.Changelog = defaultChangelogPath
	}
	if c.Paths.Changelog, err = expandPath(c.Paths.Changelog); err != nil {
		return fmt.Errorf("paths.changelog: %w", err)
	}
	if strings.TrimSpace(c.Paths.WorkflowsDir) == "" {
		c.Paths.WorkflowsDir = defaultWorkflowsDir
	}
	if c.Paths.WorkflowsDir, err = expandPath(c.Paths.WorkflowsDir); err != nil {
		return fmt.Errorf("paths.workflows_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeProject() {
	c.Project.Name = strings.TrimSpace(c.Project.Name)
	c.Project.Repository = strings.Trim(strings.TrimSpace(c.Project.Repository), "/")
}

func (c *Config) normalizeGitHub() {
	c.GitHub.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.GitHub.APIBaseURL), "/")
	if c.GitHub.APIBaseURL == "" {
		c.GitHub.APIBaseURL = defaultGitHubAPIBaseURL
	}
	c.GitHub.UploadBaseURL = strings.TrimRight(strings.TrimSpace(c.GitHub.UploadBaseURL), "/")
	if c.GitHub.UploadBaseURL == "" {
		c.GitHub.UploadBaseURL = defaultGitHubUploadURL
	}
	if c.GitHub.RequestTimeout <= 0 {
		c.GitHub.RequestTimeout = defaultRequestTimeout
	}
	if value, ok := os.LookupEnv(githubTokenEnvVar); ok {
		c.githubToken = strings.TrimSpace(value)
	}
}

func (c *Config) normalizeRegistry() {
	c.Registry.RepositoryURL = strings.TrimSpace(c.Registry.RepositoryURL)
	if c.Registry.RepositoryURL == "" {
		c.Registry.RepositoryURL = defaultRegistryURL
	}
	if c.Registry.TimeoutSeconds <= 0 {
		c.Registry.TimeoutSeconds = defaultRegistryTimeout
	}
	if len(c.Registry.BuildCommand) == 0 {
		c.Registry.BuildCommand = strings.Fields(defaultRegistryBuildCmd)
	}
	if len(c.Registry.UploadCommand) == 0 {
		c.Registry.UploadCommand = strings.Fields(defaultRegistryUploadCmd)
	}
	if value, ok := os.LookupEnv(registryTokenEnvVar); ok {
		c.registryToken = strings.TrimSpace(value)
	}
}

func (c *Config) normalizeDiscord() {
	c.Discord.Username = strings.TrimSpace(c.Discord.Username)
	if c.Discord.Username == "" {
		c.Discord.Username = defaultDiscordUsername
	}
	c.Discord.AvatarURL = strings.TrimSpace(c.Discord.AvatarURL)
	if c.Discord.RequestTimeout <= 0 {
		c.Discord.RequestTimeout = defaultDiscordTimeout
	}
	if c.Discord.DedupWindowSeconds < 0 {
		c.Discord.DedupWindowSeconds = 0
	}
	if value, ok := os.LookupEnv(discordWebhookEnvVar); ok {
		c.discordWebhook = strings.TrimSpace(value)
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
