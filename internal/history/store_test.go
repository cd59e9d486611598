package history_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"relcut/internal/history"
	"relcut/internal/testsupport"
)

func TestOpenAppliesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	run, err := store.NewRun(ctx, "1.0.0", "1.0.0", "stable")
	if err != nil {
		t.Fatalf("NewRun failed: %v", err)
	}
	if run.ID == 0 {
		t.Fatal("expected run ID to be assigned")
	}
	if run.Status != history.StatusPending {
		t.Fatalf("new run status = %s, want pending", run.Status)
	}

	fetched, err := store.GetByID(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.TagName != "1.0.0" {
		t.Fatalf("unexpected fetched run: %#v", fetched)
	}

	byTag, err := store.GetByTag(ctx, "1.0.0")
	if err != nil {
		t.Fatalf("GetByTag failed: %v", err)
	}
	if byTag == nil || byTag.ID != run.ID {
		t.Fatalf("expected to find inserted run, got %#v", byTag)
	}
}

func TestActiveRunPerTagIsUnique(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first, err := store.NewRun(ctx, "1.0.0", "1.0.0", "stable")
	if err != nil {
		t.Fatalf("NewRun failed: %v", err)
	}

	if _, err := store.NewRun(ctx, "1.0.0", "1.0.0", "stable"); !errors.Is(err, history.ErrDuplicateRun) {
		t.Fatalf("second NewRun returned %v, want ErrDuplicateRun", err)
	}

	first.Status = history.StatusFailed
	first.ErrorMessage = "verify failed"
	if err := store.Update(ctx, first); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if _, err := store.NewRun(ctx, "1.0.0", "1.0.0", "stable"); err != nil {
		t.Fatalf("NewRun after failure returned %v, want retry to be allowed", err)
	}
}

func TestUpdateEnforcesTransitions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	run, err := store.NewRun(ctx, "1.0.0", "1.0.0", "stable")
	if err != nil {
		t.Fatalf("NewRun failed: %v", err)
	}

	run.Status = history.StatusNotified
	if err := store.Update(ctx, run); !errors.Is(err, history.ErrIllegalTransition) {
		t.Fatalf("pending->notified returned %v, want ErrIllegalTransition", err)
	}

	for _, status := range []history.Status{
		history.StatusPublishing,
		history.StatusPublished,
		history.StatusNotifying,
		history.StatusNotified,
	} {
		run.Status = status
		if err := store.Update(ctx, run); err != nil {
			t.Fatalf("transition to %s failed: %v", status, err)
		}
	}

	final, err := store.GetByID(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if final.PublishedAt == nil {
		t.Error("expected PublishedAt to be stamped")
	}
	if final.NotifiedAt == nil {
		t.Error("expected NotifiedAt to be stamped")
	}
}

func TestResetStuckRuns(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	cases := []struct {
		tag   string
		stuck history.Status
		want  history.Status
	}{
		{"1.0.0", history.StatusBuilding, history.StatusPending},
		{"1.1.0", history.StatusPublishing, history.StatusBuilt},
		{"1.2.0", history.StatusNotifying, history.StatusPublished},
	}
	advance := map[history.Status][]history.Status{
		history.StatusBuilding:   {history.StatusBuilding},
		history.StatusPublishing: {history.StatusPublishing},
		history.StatusNotifying:  {history.StatusPublishing, history.StatusPublished, history.StatusNotifying},
	}
	for _, tc := range cases {
		run, err := store.NewRun(ctx, tc.tag, tc.tag, "stable")
		if err != nil {
			t.Fatalf("NewRun(%s) failed: %v", tc.tag, err)
		}
		for _, status := range advance[tc.stuck] {
			run.Status = status
			if err := store.Update(ctx, run); err != nil {
				t.Fatalf("advance %s to %s failed: %v", tc.tag, status, err)
			}
		}
	}

	reset, err := store.ResetStuck(ctx)
	if err != nil {
		t.Fatalf("ResetStuck failed: %v", err)
	}
	if reset != int64(len(cases)) {
		t.Errorf("reset %d runs, want %d", reset, len(cases))
	}
	for _, tc := range cases {
		run, err := store.GetByTag(ctx, tc.tag)
		if err != nil {
			t.Fatalf("GetByTag(%s) failed: %v", tc.tag, err)
		}
		if run.Status != tc.want {
			t.Errorf("run %s status = %s, want %s", tc.tag, run.Status, tc.want)
		}
	}
}

func TestRecentNotification(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	run, err := store.NewRun(ctx, "1.0.0", "1.0.0", "stable")
	if err != nil {
		t.Fatalf("NewRun failed: %v", err)
	}

	recent, err := store.RecentNotification(ctx, "1.0.0", time.Hour)
	if err != nil {
		t.Fatalf("RecentNotification failed: %v", err)
	}
	if recent {
		t.Error("expected no recent notification before any run notified")
	}

	for _, status := range []history.Status{
		history.StatusPublishing,
		history.StatusPublished,
		history.StatusNotifying,
		history.StatusNotified,
	} {
		run.Status = status
		if err := store.Update(ctx, run); err != nil {
			t.Fatalf("transition to %s failed: %v", status, err)
		}
	}

	recent, err = store.RecentNotification(ctx, "1.0.0", time.Hour)
	if err != nil {
		t.Fatalf("RecentNotification failed: %v", err)
	}
	if !recent {
		t.Error("expected a recent notification inside the window")
	}

	recent, err = store.RecentNotification(ctx, "1.0.0", time.Nanosecond)
	if err != nil {
		t.Fatalf("RecentNotification failed: %v", err)
	}
	if recent {
		t.Error("expected the notification to fall outside a nanosecond window")
	}
}

func TestListReturnsNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	for _, tag := range []string{"1.0.0", "1.1.0", "1.2.0"} {
		if _, err := store.NewRun(ctx, tag, tag, "stable"); err != nil {
			t.Fatalf("NewRun(%s) failed: %v", tag, err)
		}
	}

	runs, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("List returned %d runs, want 2", len(runs))
	}
	if runs[0].ID <= runs[1].ID {
		t.Errorf("expected newest first, got IDs %d then %d", runs[0].ID, runs[1].ID)
	}
}

func TestStatusMachine(t *testing.T) {
	if !history.StatusPending.CanTransition(history.StatusPublishing) {
		t.Error("pending should move to publishing when no build is configured")
	}
	if history.StatusPending.CanTransition(history.StatusNotified) {
		t.Error("pending must not jump to notified")
	}
	if !history.StatusPublished.CanTransition(history.StatusFailed) {
		t.Error("published should be able to fail during notify")
	}
	if history.StatusFailed.CanTransition(history.StatusPending) {
		t.Error("failed is terminal")
	}
	if !history.StatusNotified.Terminal() || !history.StatusFailed.Terminal() {
		t.Error("notified and failed are the terminal statuses")
	}
}
