package index

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hyperjump/kotae/internal/models"
	"github.com/hyperjump/kotae/internal/watcher"
	"go.uber.org/zap"
)

// Store holds the current index snapshot. Snapshots are never mutated; a reload
// swaps in a new one, so concurrent readers each see a single consistent index.
type Store struct {
	path    string
	logger  *zap.Logger
	current atomic.Pointer[models.Index]
	reloads atomic.Int64
	watch   atomic.Pointer[watcher.Watcher]
	mu      sync.Mutex // serializes reloads
}

// Stats describes the current snapshot.
type Stats struct {
	Path        string    `json:"path,omitempty"`
	EmbModel    string    `json:"emb_model"`
	Chunks      int       `json:"chunks"`
	Dimension   int       `json:"dimension"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	LoadedAt    time.Time `json:"loaded_at"`
	Reloads     int64     `json:"reloads"`
	Watching    []string  `json:"watching,omitempty"`
}

// Open loads the index at path. A missing file is an empty index; a malformed one is an error.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	idx, err := Load(path)
	if err != nil {
		return nil, err
	}
	s := &Store{path: path, logger: logger}
	s.current.Store(idx)
	logger.Info("index loaded",
		zap.String("path", path),
		zap.String("emb_model", idx.EmbModel),
		zap.Int("chunks", len(idx.Chunks)),
		zap.Int("dimension", idx.Dimension()),
	)
	return s, nil
}

// FromIndex wraps an in-memory index. Reload is a no-op for such a store.
func FromIndex(idx *models.Index) *Store {
	if idx == nil {
		idx = &models.Index{}
	}
	s := &Store{logger: zap.NewNop()}
	s.current.Store(idx)
	return s
}

// Snapshot returns the current index. The result must be treated as read-only.
func (s *Store) Snapshot(ctx context.Context) (*models.Index, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.current.Load(), nil
}

// Reload re-reads the index file. On failure the previous snapshot stays in place.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, err := Load(s.path)
	if err != nil {
		s.logger.Warn("index reload failed, keeping previous snapshot", zap.String("path", s.path), zap.Error(err))
		return err
	}
	prev := s.current.Swap(idx)
	s.reloads.Add(1)
	if prev != nil && prev.Fingerprint == idx.Fingerprint {
		s.logger.Debug("index unchanged", zap.String("path", s.path))
		return nil
	}
	s.logger.Info("index reloaded",
		zap.String("path", s.path),
		zap.String("emb_model", idx.EmbModel),
		zap.Int("chunks", len(idx.Chunks)),
	)
	return nil
}

// Stats returns information about the current snapshot.
func (s *Store) Stats() Stats {
	idx := s.current.Load()
	st := Stats{
		Path:        s.path,
		EmbModel:    idx.EmbModel,
		Chunks:      len(idx.Chunks),
		Dimension:   idx.Dimension(),
		Fingerprint: idx.Fingerprint,
		LoadedAt:    idx.LoadedAt,
		Reloads:     s.reloads.Load(),
	}
	if w := s.watch.Load(); w != nil {
		st.Watching = w.Directories()
	}
	return st
}

// Watch reloads the store whenever the index file is written, replaced or removed.
// The returned watcher stops when ctx is cancelled.
func (s *Store) Watch(ctx context.Context, opts ...watcher.WatcherOption) (*watcher.Watcher, error) {
	abs, err := filepath.Abs(s.path)
	if err != nil {
		return nil, err
	}
	reload := func(string) { _ = s.Reload() }
	w := watcher.NewWatcher([]string{filepath.Dir(abs)}, watcher.MatchName(filepath.Base(abs)), reload, reload, opts...)
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	s.watch.Store(w)
	s.logger.Info("watching index", zap.String("path", abs))
	return w, nil
}
