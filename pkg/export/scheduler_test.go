package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/tabular/pkg/catalog"
)

func TestScheduler_WritesScheduledExports(t *testing.T) {
	dir := t.TempDir()
	defaults := utf8Defaults()
	defaults.OutputDir = dir
	svc, rec := newTestService(t, defaults)

	s := NewScheduler(svc)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !s.IsRunning() {
		t.Fatal("expected scheduler to be running")
	}
	if jobs := s.Jobs(); len(jobs) != 1 || jobs[0] != "nightly" {
		t.Errorf("Jobs() = %v", jobs)
	}
	if next := s.NextRun("nightly"); next == nil || next.IsZero() {
		t.Error("expected a next run time")
	}
	if s.NextRun("customers") != nil {
		t.Error("unscheduled export should have no next run")
	}
	if err := s.Start(ctx); err == nil {
		t.Error("expected error starting twice")
	}

	path := filepath.Join(dir, "nightly.csv")
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("scheduled export not written: %v", err)
	}

	s.Stop()
	if s.IsRunning() {
		t.Error("expected scheduler to be stopped")
	}
	if got := rec.last(); got.trigger != "schedule" || got.export != "nightly" {
		t.Errorf("recorded run = %+v", got)
	}
}

func TestScheduler_Reschedule(t *testing.T) {
	svc, _ := newTestService(t, utf8Defaults())
	s := NewScheduler(svc)

	// Not running: nothing to do
	if err := s.Reschedule(); err != nil {
		t.Fatalf("Reschedule() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Reschedule(); err != nil {
		t.Fatalf("Reschedule() error = %v", err)
	}
	if len(s.Jobs()) != 1 {
		t.Errorf("Jobs() = %v after reschedule", s.Jobs())
	}

	cancel()
	deadline := time.Now().Add(2 * time.Second)
	for s.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.IsRunning() {
		t.Error("expected scheduler to stop when context is cancelled")
	}
}

func TestScheduler_RescheduleSeesReloadedCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exports.yaml")
	plain := `
exports:
  - name: customers
    query: SELECT id FROM customers
    columns: id
`
	if err := os.WriteFile(path, []byte(plain), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	var s *Scheduler
	store, err := catalog.NewStore(path, catalog.WithReloadFunc(func(_ int, err error) {
		if err == nil && s != nil {
			if err := s.Reschedule(); err != nil {
				t.Errorf("Reschedule() error = %v", err)
			}
		}
	}))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	s = NewScheduler(NewService(store, nil, utf8Defaults()))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()
	if jobs := s.Jobs(); len(jobs) != 0 {
		t.Fatalf("Jobs() = %v, want none", jobs)
	}

	scheduled := plain + `    schedule: "@hourly"
    output: customers.csv
`
	if err := os.WriteFile(path, []byte(scheduled), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := store.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if jobs := s.Jobs(); len(jobs) != 1 || jobs[0] != "customers" {
		t.Errorf("Jobs() after adding a schedule = %v, want [customers]", jobs)
	}

	if err := os.WriteFile(path, []byte(plain), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := store.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if jobs := s.Jobs(); len(jobs) != 0 {
		t.Errorf("Jobs() after removing the schedule = %v, want none", jobs)
	}
}
