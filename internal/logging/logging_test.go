package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"relcut/internal/logging"
	"relcut/internal/services"
	"relcut/internal/testsupport"
)

func TestNewFromConfigWritesToStateDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	logger.Info("hello", logging.String("key", "value"))

	data, err := os.ReadFile(filepath.Join(cfg.Paths.StateDir, "relcut.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected log output in relcut.log")
	}
}

func TestJSONFormatCarriesContextFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Logging.Format = "json"

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}

	ctx := services.WithTag(context.Background(), "1.2.0")
	ctx = services.WithStage(ctx, "publish")
	ctx = services.WithRunID(ctx, 7)
	logging.WithContext(ctx, logger).Info("stage started")

	data, err := os.ReadFile(filepath.Join(cfg.Paths.StateDir, "relcut.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, data)
	}
	if entry[logging.FieldTag] != "1.2.0" {
		t.Errorf("tag field = %v, want 1.2.0", entry[logging.FieldTag])
	}
	if entry[logging.FieldStage] != "publish" {
		t.Errorf("stage field = %v, want publish", entry[logging.FieldStage])
	}
	if entry[logging.FieldRunID] != float64(7) {
		t.Errorf("run_id field = %v, want 7", entry[logging.FieldRunID])
	}
}

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "relcut-2025-01-01.log")
	active := filepath.Join(dir, "relcut.log")
	recent := filepath.Join(dir, "relcut-rotated.log")
	unrelated := filepath.Join(dir, "notes.txt")

	for _, path := range []string{old, active, recent, unrelated} {
		if err := os.WriteFile(path, []byte("log"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	stale := time.Now().AddDate(0, 0, -90)
	if err := os.Chtimes(old, stale, stale); err != nil {
		t.Fatalf("age %s: %v", old, err)
	}
	if err := os.Chtimes(active, stale, stale); err != nil {
		t.Fatalf("age %s: %v", active, err)
	}

	logging.CleanupOldLogs(logging.NewNop(), dir, 30)

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("expected the stale rotated log to be pruned")
	}
	for _, path := range []string{active, recent, unrelated} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected %s to survive pruning: %v", path, err)
		}
	}
}
