// Package testsupport provides shared fixtures for package tests: configs
// seeded with per-test temp directories, open history stores, and changelog
// files on disk.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"relcut/internal/config"
	"relcut/internal/history"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.Changelog = filepath.Join(base, "CHANGELOG.md")
	cfg.Paths.WorkflowsDir = filepath.Join(base, "workflows")
	cfg.Project.Name = "testproj"
	cfg.Project.Repository = "example/testproj"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithRegistryEnabled turns on the package build/upload stages.
func WithRegistryEnabled() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Registry.Enabled = true
	}
}

// MustOpenStore opens a history store for the config and closes it with the test.
func MustOpenStore(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("open history store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// WriteChangelog writes content to the config's changelog path.
func WriteChangelog(t testing.TB, cfg *config.Config, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(cfg.Paths.Changelog), 0o755); err != nil {
		t.Fatalf("create changelog dir: %v", err)
	}
	if err := os.WriteFile(cfg.Paths.Changelog, []byte(content), 0o644); err != nil {
		t.Fatalf("write changelog: %v", err)
	}
}

// WriteWorkflow writes a workflow file into the config's workflows dir.
func WriteWorkflow(t testing.TB, cfg *config.Config, name, content string) string {
	t.Helper()
	if err := os.MkdirAll(cfg.Paths.WorkflowsDir, 0o755); err != nil {
		t.Fatalf("create workflows dir: %v", err)
	}
	path := filepath.Join(cfg.Paths.WorkflowsDir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write workflow: %v", err)
	}
	return path
}
