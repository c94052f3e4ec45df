package catalog

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func writeCatalog(t *testing.T, path, name string) {
	t.Helper()
	data := "exports:\n  - name: " + name + "\n    query: SELECT 1 AS one\n    columns: one\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}
}

func TestStore_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exports.yaml")
	writeCatalog(t, path, "first")

	var reloads, failures atomic.Int32
	store, err := NewStore(path, WithReloadFunc(func(n int, err error) {
		reloads.Add(1)
		if err != nil {
			failures.Add(1)
		}
	}))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if _, err := store.Get("FIRST"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	writeCatalog(t, path, "second")
	if err := store.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if _, err := store.Get("second"); err != nil {
		t.Errorf("expected reloaded definition: %v", err)
	}

	if err := os.WriteFile(path, []byte("exports: ["), 0644); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}
	if err := store.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	if _, err := store.Get("second"); err != nil {
		t.Errorf("failed reload must keep the previous catalog: %v", err)
	}

	if reloads.Load() != 3 || failures.Load() != 1 {
		t.Errorf("reloads = %d, failures = %d", reloads.Load(), failures.Load())
	}
}

func TestStaticStore(t *testing.T) {
	c, err := New(&Definition{Name: "x", Query: "q", Columns: ColumnList{{Source: "a"}}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	store := NewStaticStore(c)
	if _, err := store.Get("X"); err != nil {
		t.Errorf("Get() error = %v", err)
	}
	if err := store.Reload(); err == nil {
		t.Error("expected static store reload to fail")
	}
	if _, err := NewWatcher(store, 0, nil); err == nil {
		t.Error("expected watcher on static store to fail")
	}
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exports.yaml")
	writeCatalog(t, path, "before")

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	w, err := NewWatcher(store, 20*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	// Give the watcher time to register
	time.Sleep(100 * time.Millisecond)
	writeCatalog(t, path, "after")

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := store.Get("after"); err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if _, err := store.Get("after"); err != nil {
		t.Errorf("catalog was not reloaded: %v", err)
	}

	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := <-done; err != nil {
		t.Errorf("Watch() error = %v", err)
	}
}

func TestDebouncer(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)

	var calls atomic.Int32
	for i := 0; i < 5; i++ {
		d.Trigger(func() { calls.Add(1) })
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(150 * time.Millisecond)

	if got := calls.Load(); got != 1 {
		t.Errorf("callback ran %d times, want 1", got)
	}

	d.Stop()
	d.Trigger(func() { calls.Add(1) })
	time.Sleep(60 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("callback ran after Stop, calls = %d", got)
	}
}

func TestStore_ReloadFuncSeesNewCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exports.yaml")
	writeCatalog(t, path, "first")

	var store *Store
	var seen []string
	store, err := NewStore(path, WithReloadFunc(func(n int, err error) {
		if store == nil {
			return
		}
		for _, def := range store.Catalog().List() {
			seen = append(seen, def.Name)
		}
	}))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	writeCatalog(t, path, "second")
	if err := store.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if len(seen) != 1 || seen[0] != "second" {
		t.Errorf("callback saw %v, want [second]", seen)
	}

	seen = nil
	if err := os.WriteFile(path, []byte("exports: ["), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := store.Reload(); err == nil {
		t.Fatal("expected reload error for invalid YAML")
	}
	if len(seen) != 1 || seen[0] != "second" {
		t.Errorf("callback on failure saw %v, want the previous catalog", seen)
	}
}
