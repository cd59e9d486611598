package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file location configuration.
type Paths struct {
	StateDir     string `toml:"state_dir"`
	Changelog    string `toml:"changelog"`
	WorkflowsDir string `toml:"workflows_dir"`
}

// Project identifies the project relcut publishes.
type Project struct {
	Name       string `toml:"name"`
	Repository string `toml:"repository"`
}

// GitHub contains configuration for the GitHub release API. The API token is
// read from the GITHUB_TOKEN environment variable, never from this file.
type GitHub struct {
	APIBaseURL     string `toml:"api_base_url"`
	UploadBaseURL  string `toml:"upload_base_url"`
	RequestTimeout int    `toml:"request_timeout"`
	Draft          bool   `toml:"draft"`
}

// Registry contains configuration for the package build and upload step. The
// upload token is read from the PYPI_TOKEN environment variable.
type Registry struct {
	Enabled        bool     `toml:"enabled"`
	BuildCommand   []string `toml:"build_command"`
	UploadCommand  []string `toml:"upload_command"`
	RepositoryURL  string   `toml:"repository_url"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Discord contains configuration for webhook notifications. The webhook URL
// is read from the DISCORD_WEBHOOK environment variable.
type Discord struct {
	Username           string `toml:"username"`
	AvatarURL          string `toml:"avatar_url"`
	RequestTimeout     int    `toml:"request_timeout"`
	Started            bool   `toml:"started"`
	Published          bool   `toml:"published"`
	Failures           bool   `toml:"failures"`
	DedupWindowSeconds int    `toml:"dedup_window_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for relcut.
//
// Configuration sections by subsystem:
//   - Paths: state directory, changelog path, workflows directory
//   - Project: name and owner/repo release target
//   - GitHub: release API endpoints and timeouts
//   - Registry: package build/upload commands and repository URL
//   - Discord: webhook identity, per-event toggles, dedup window
//   - Logging: log format, level, and retention
type Config struct {
	Paths    Paths    `toml:"paths"`
	Project  Project  `toml:"project"`
	GitHub   GitHub   `toml:"github"`
	Registry Registry `toml:"registry"`
	Discord  Discord  `toml:"discord"`
	Logging  Logging  `toml:"logging"`

	githubToken    string
	registryToken  string
	discordWebhook string
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/relcut/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized, and secrets resolved
// from the environment.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("relcut.toml")
	if err != nil {
		return "", false, err
	}

	// A relcut.toml in the working directory wins over the home config so a
	// repository can pin its own release settings.
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	return defaultPath, false, nil
}

// Validate checks semantic constraints that normalization cannot repair.
func (c *Config) Validate() error {
	if repo := strings.TrimSpace(c.Project.Repository); repo != "" {
		parts := strings.Split(repo, "/")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return fmt.Errorf("project.repository: expected owner/repo, got %q", repo)
		}
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	if c.Registry.Enabled && len(c.Registry.UploadCommand) == 0 {
		return errors.New("registry.upload_command: required when registry.enabled is true")
	}
	return nil
}

// EnsureDirectories creates the state directory the store and logs live in.
func (c *Config) EnsureDirectories() error {
	if dir := strings.TrimSpace(c.Paths.StateDir); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// GitHubToken returns the release API token resolved from the environment.
func (c *Config) GitHubToken() string { return c.githubToken }

// RegistryToken returns the package upload token resolved from the environment.
func (c *Config) RegistryToken() string { return c.registryToken }

// DiscordWebhook returns the notification webhook URL resolved from the environment.
func (c *Config) DiscordWebhook() string { return c.discordWebhook }

// SetSecrets overrides the environment-resolved secrets. Intended for tests.
func (c *Config) SetSecrets(githubToken, registryToken, discordWebhook string) {
	c.githubToken = githubToken
	c.registryToken = registryToken
	c.discordWebhook = discordWebhook
}

// RepoOwner returns the owner half of project.repository.
func (c *Config) RepoOwner() string {
	owner, _, _ := strings.Cut(c.Project.Repository, "/")
	return owner
}

// RepoName returns the repository half of project.repository.
func (c *Config) RepoName() string {
	_, name, _ := strings.Cut(c.Project.Repository, "/")
	return name
}

// CreateSample writes the embedded sample configuration to the target path.
func CreateSample(target string) error {
	return os.WriteFile(target, []byte(sampleConfig), 0o644)
}

// ExpandPath resolves ~ prefixes and returns an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return home, nil
	}
	if strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", trimmed, err)
	}
	return abs, nil
}
