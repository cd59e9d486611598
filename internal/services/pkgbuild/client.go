package pkgbuild

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"relcut/internal/services"
)

// Builder defines the behaviour required by the build and upload stages.
type Builder interface {
	Build(ctx context.Context, dir string) ([]string, error)
	Upload(ctx context.Context, dir string, artifacts []string) error
}

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, dir string, argv []string, extraEnv []string) (string, error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps the build and upload tool invocations.
type Client struct {
	buildCmd  []string
	uploadCmd []string
	repoURL   string
	token     string
	timeout   time.Duration
	exec      Executor
}

// New constructs a build client from the configured commands.
func New(buildCmd, uploadCmd []string, repoURL, token string, timeoutSeconds int, opts ...Option) (*Client, error) {
	if len(buildCmd) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "build", "new client", "registry.build_command not configured", nil)
	}
	if len(uploadCmd) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "upload", "new client", "registry.upload_command not configured", nil)
	}
	client := &Client{
		buildCmd:  append([]string(nil), buildCmd...),
		uploadCmd: append([]string(nil), uploadCmd...),
		repoURL:   strings.TrimSpace(repoURL),
		token:     token,
		timeout:   time.Duration(timeoutSeconds) * time.Second,
		exec:      commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Build runs the build command in dir and returns the artifacts it produced
// under dir/dist, sorted.
func (c *Client) Build(ctx context.Context, dir string) ([]string, error) {
	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	output, err := c.exec.Run(runCtx, dir, c.buildCmd, nil)
	if err != nil {
		return nil, classifyExecErr("build", c.buildCmd[0], output, err)
	}

	distDir := filepath.Join(dir, "dist")
	entries, err := os.ReadDir(distDir)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "build", "collect artifacts",
			fmt.Sprintf("build produced no dist directory at %s", distDir), err)
	}
	var artifacts []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		artifacts = append(artifacts, filepath.Join(distDir, entry.Name()))
	}
	if len(artifacts) == 0 {
		return nil, services.Wrap(services.ErrExternalTool, "build", "collect artifacts", "dist directory is empty", nil)
	}
	sort.Strings(artifacts)
	return artifacts, nil
}

// Upload runs the upload command against the produced artifacts. The token
// is exposed to the child as TWINE_PASSWORD / PYPI_TOKEN.
func (c *Client) Upload(ctx context.Context, dir string, artifacts []string) error {
	if len(artifacts) == 0 {
		return errors.New("no artifacts to upload")
	}
	if strings.TrimSpace(c.token) == "" {
		return services.Wrap(services.ErrConfiguration, "upload", "check token", "PYPI_TOKEN not set", nil)
	}

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	argv := append([]string(nil), c.uploadCmd...)
	// A trailing dist/* placeholder in the configured command is replaced by
	// the real artifact paths so the shell never has to expand it.
	if last := argv[len(argv)-1]; last == "dist/*" || last == "dist/" {
		argv = append(argv[:len(argv)-1], artifacts...)
	}

	env := []string{
		"TWINE_USERNAME=__token__",
		"TWINE_PASSWORD=" + c.token,
		"PYPI_TOKEN=" + c.token,
		"TWINE_NON_INTERACTIVE=1",
	}
	if c.repoURL != "" {
		env = append(env, "TWINE_REPOSITORY_URL="+c.repoURL)
	}

	output, err := c.exec.Run(runCtx, dir, argv, env)
	if err != nil {
		return classifyExecErr("upload", c.uploadCmd[0], output, err)
	}
	return nil
}

func classifyExecErr(stage, binary, output string, err error) error {
	switch {
	case errors.Is(err, exec.ErrNotFound):
		return services.Wrap(services.ErrConfiguration, stage, "run "+binary, "binary not found in PATH", err)
	case errors.Is(err, context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, stage, "run "+binary, "timed out", err)
	default:
		return services.Wrap(services.ErrExternalTool, stage, "run "+binary, tail(output, 20), err)
	}
}

// tail returns the last n lines of output for error context.
func tail(output string, n int) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, dir string, argv []string, extraEnv []string) (string, error) {
	if len(argv) == 0 {
		return "", errors.New("empty command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), extraEnv...)

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	if ctx.Err() != nil {
		err = ctx.Err()
	}
	return buf.String(), err
}
