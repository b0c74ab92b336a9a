package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu      sync.Mutex
	changed []string
	removed []string
}

func (r *recorder) onChange(path string) {
	r.mu.Lock()
	r.changed = append(r.changed, path)
	r.mu.Unlock()
}

func (r *recorder) onRemove(path string) {
	r.mu.Lock()
	r.removed = append(r.removed, path)
	r.mu.Unlock()
}

func (r *recorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.changed), len(r.removed)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWatcher_DebounceAndNameFilter(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	w := NewWatcher([]string{dir}, MatchName("index.json"), rec.onChange, rec.onRemove, WithDebounce(100*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	target := filepath.Join(dir, "index.json")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(target, []byte(`{"chunks":[]}`), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { c, _ := rec.counts(); return c >= 1 })
	time.Sleep(300 * time.Millisecond)
	changed, _ := rec.counts()
	if changed != 1 {
		t.Errorf("burst of writes should collapse to one change, got %d", changed)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if filepath.Base(rec.changed[0]) != "index.json" {
		t.Errorf("unexpected path %s", rec.changed[0])
	}
}

func TestWatcher_Remove(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "index.json")
	if err := os.WriteFile(target, []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	w := NewWatcher([]string{dir}, MatchName("index.json"), rec.onChange, rec.onRemove)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.Remove(target); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { _, r := rec.counts(); return r >= 1 })
}

func TestWatcher_RenameThenRecreateIsOneChange(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "index.json")
	if err := os.WriteFile(target, []byte(`{"chunks":[]}`), 0644); err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	w := NewWatcher([]string{dir}, MatchName("index.json"), rec.onChange, rec.onRemove, WithDebounce(150*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := os.Rename(target, target+".bak"); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(target, []byte(`{"chunks":[]}`), 0644); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { c, _ := rec.counts(); return c >= 1 })
	time.Sleep(300 * time.Millisecond)
	changed, removed := rec.counts()
	if changed != 1 || removed != 0 {
		t.Errorf("editor-style save: got %d changes, %d removes; want 1, 0", changed, removed)
	}
}

func TestWatcher_Start_createsMissingRootDirectory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "watch", "me")
	w := NewWatcher([]string{root}, nil, nil, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	if _, err := os.Stat(root); err != nil {
		t.Errorf("root directory should exist after Start: %v", err)
	}
	if dirs := w.Directories(); len(dirs) != 1 || dirs[0] != root {
		t.Errorf("Directories() = %v", dirs)
	}
}

func TestWatcher_StopIdempotent(t *testing.T) {
	w := NewWatcher([]string{t.TempDir()}, nil, nil, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}

func TestMatchName(t *testing.T) {
	m := MatchName("index.json")
	if !m("/data/index.json") || m("/data/index.json.tmp") {
		t.Error("MatchName should match the exact base name only")
	}
}

func TestInDir(t *testing.T) {
	tests := []struct {
		dir  string
		path string
		want bool
	}{
		{"/tmp/a", "/tmp/a", true},
		{"/tmp/a", "/tmp/a/b.txt", true},
		{"/tmp/a", "/tmp/b", false},
		{"/tmp/a", "/tmp/a/../b", false},
	}
	for _, tt := range tests {
		if got := inDir(tt.dir, tt.path); got != tt.want {
			t.Errorf("inDir(%q, %q) = %v, want %v", tt.dir, tt.path, got, tt.want)
		}
	}
}
