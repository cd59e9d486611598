package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	changelog  string
	workflows  string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "config.toml"),
		changelog:  filepath.Join(base, "CHANGELOG.md"),
		workflows:  filepath.Join(base, "workflows"),
	}

	content := fmt.Sprintf(`[paths]
state_dir = %q
changelog = %q
workflows_dir = %q

[project]
name = "demo"
repository = "acme/demo"
`, filepath.Join(base, "state"), env.changelog, env.workflows)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func (env *cliTestEnv) writeChangelog(t *testing.T, content string) {
	t.Helper()
	if err := os.WriteFile(env.changelog, []byte(content), 0o644); err != nil {
		t.Fatalf("write changelog: %v", err)
	}
}

func (env *cliTestEnv) writeWorkflow(t *testing.T, name, content string) {
	t.Helper()
	if err := os.MkdirAll(env.workflows, 0o755); err != nil {
		t.Fatalf("create workflows dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(env.workflows, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write workflow: %v", err)
	}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--config", env.configPath))
	err := cmd.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("output %q does not contain %q", output, want)
	}
}

const testChangelog = `# Changelog

## [Unreleased]

### Features

- Upcoming thing

## [1.0.0] - 2026-01-15

### Features

- First release
`

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, env, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, err = runCLI(t, env, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, err = runCLI(t, env, "config", "init", "--path", target); err == nil {
		t.Fatal("expected config init to refuse overwriting without --overwrite")
	}
}

func TestChangelogCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeChangelog(t, testChangelog)

	out, err := runCLI(t, env, "changelog", "lint")
	if err != nil {
		t.Fatalf("changelog lint: %v\n%s", err, out)
	}
	requireContains(t, out, "Changelog is clean")

	out, err = runCLI(t, env, "changelog", "show")
	if err != nil {
		t.Fatalf("changelog show: %v", err)
	}
	requireContains(t, out, "## [1.0.0] - 2026-01-15")
	requireContains(t, out, "- First release")

	out, err = runCLI(t, env, "changelog", "list")
	if err != nil {
		t.Fatalf("changelog list: %v", err)
	}
	requireContains(t, out, "Unreleased")
	requireContains(t, out, "1.0.0")

	out, err = runCLI(t, env, "changelog", "release", "1.1.0", "--date", "2026-02-01")
	if err != nil {
		t.Fatalf("changelog release: %v", err)
	}
	requireContains(t, out, "Released 1.1.0")

	out, err = runCLI(t, env, "changelog", "show", "1.1.0")
	if err != nil {
		t.Fatalf("changelog show after release: %v", err)
	}
	requireContains(t, out, "- Upcoming thing")
}

func TestChangelogLintReportsProblems(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeChangelog(t, "# Changelog\n\n## [v1.0.0] - 2026-01-15\n\n### Features\n\n- Thing\n")

	out, err := runCLI(t, env, "changelog", "lint")
	if err == nil {
		t.Fatal("expected changelog lint to fail")
	}
	requireContains(t, out, "version heading")
}

func TestWorkflowsCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeWorkflow(t, "publish.yml", `name: Publish
on:
  push:
    tags:
      - '*.*.*'
jobs:
  publish:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
      - run: twine upload dist/*
        env:
          TWINE_PASSWORD: ${{ secrets.PYPI_TOKEN }}
`)

	out, err := runCLI(t, env, "workflows", "lint")
	if err != nil {
		t.Fatalf("workflows lint: %v\n%s", err, out)
	}
	requireContains(t, out, "clean")

	out, err = runCLI(t, env, "workflows", "secrets")
	if err != nil {
		t.Fatalf("workflows secrets: %v", err)
	}
	requireContains(t, out, "PYPI_TOKEN")
}

func TestPlanCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeChangelog(t, testChangelog)

	out, err := runCLI(t, env, "plan", "1.0.0")
	if err != nil {
		t.Fatalf("plan: %v\n%s", err, out)
	}
	requireContains(t, out, "Version:    1.0.0 (stable)")
	requireContains(t, out, "- First release")

	if _, err := runCLI(t, env, "plan", "2.0.0"); err == nil {
		t.Fatal("expected plan to fail for a tag without a changelog entry")
	}
}

func TestPublishFailureReportsRetryability(t *testing.T) {
	env := setupCLITestEnv(t)
	env.writeChangelog(t, testChangelog)
	t.Setenv("GITHUB_TOKEN", "test-token")

	out, err := runCLI(t, env, "publish", "2.0.0")
	if err == nil {
		t.Fatal("expected publish to fail for a tag without a changelog entry")
	}
	requireContains(t, out, "Publish failed at status failed")
	requireContains(t, out, "Retryable: no")
}

func TestHistoryListEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, env, "history", "list")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "No publish runs recorded")
}

func TestVersionCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, env, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	requireContains(t, out, "relcut")
}
