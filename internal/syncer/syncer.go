// Package syncer mirrors locally published artifacts to the durable store as
// they appear on disk, with fsnotify watching and per-path debouncing.
package syncer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hikari/ronbun/internal/store"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Syncer watches the local artifact root and uploads changed files to the
// durable store. Uploads are best-effort: a failure is logged and the next
// write of the same file retries naturally.
type Syncer struct {
	layout   *store.Layout
	durable  store.ObjectStore
	debounce time.Duration
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	timers   map[string]*time.Timer
	done     chan struct{}
	started  bool
	stopOnce sync.Once
	logger   *zap.Logger
}

// New creates a syncer uploading files under layout's local root to durable.
func New(layout *store.Layout, durable store.ObjectStore, debounce time.Duration, logger *zap.Logger) *Syncer {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Syncer{
		layout:   layout,
		durable:  durable,
		debounce: debounce,
		timers:   make(map[string]*time.Timer),
		done:     make(chan struct{}),
		logger:   logger,
	}
}

// Start begins watching. It runs until ctx is cancelled or Stop is called.
func (s *Syncer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if err := os.MkdirAll(s.layout.LocalRoot, 0755); err != nil {
		_ = watcher.Close()
		s.mu.Unlock()
		return err
	}
	if err := addTree(watcher, s.layout.LocalRoot); err != nil {
		_ = watcher.Close()
		s.mu.Unlock()
		return err
	}
	s.watcher = watcher
	s.started = true
	s.mu.Unlock()

	s.logger.Info("artifact sync started", zap.String("root", s.layout.LocalRoot))
	go s.run(ctx)
	return nil
}

// addTree registers dir and all its subdirectories with the watcher.
func addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}

func (s *Syncer) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.Stop()
			return
		case <-s.done:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.handleEvent(ev)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				s.logger.Debug("watch error", zap.Error(err))
			}
		}
	}
}

func (s *Syncer) handleEvent(ev fsnotify.Event) {
	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) {
		return
	}
	path := ev.Name
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		if err := s.watcher.Add(path); err != nil {
			s.logger.Debug("failed to watch new directory", zap.String("path", path), zap.Error(err))
		}
		// Files may have landed before the watch was in place.
		s.scanDirectory(path)
		return
	}
	if !s.eligible(path) {
		return
	}
	s.schedule(path)
}

// scanDirectory schedules every eligible file already present in dir.
func (s *Syncer) scanDirectory(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if e.IsDir() {
			if err := s.watcher.Add(path); err == nil {
				s.scanDirectory(path)
			}
			continue
		}
		if s.eligible(path) {
			s.schedule(path)
		}
	}
}

// eligible filters out in-flight temp files and anything that does not map to
// a durable key.
func (s *Syncer) eligible(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.Contains(base, ".tmp") {
		return false
	}
	return s.layout.KeyForLocal(path) != ""
}

// schedule (re)arms the per-path debounce timer.
func (s *Syncer) schedule(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[path]; ok {
		t.Stop()
	}
	s.timers[path] = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		delete(s.timers, path)
		s.mu.Unlock()
		s.upload(path)
	})
}

func (s *Syncer) upload(path string) {
	key := s.layout.KeyForLocal(path)
	if key == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := s.durable.PutFile(ctx, key, path); err != nil {
		s.logger.Warn("artifact sync upload failed", zap.String("key", key), zap.Error(err))
		return
	}
	s.logger.Info("artifact synced", zap.String("key", key))
}

// SyncDir uploads every eligible file under dir to durable, skipping objects
// already present. Used after a parse drops several artifacts (markdown,
// middle json, images) into one paper directory at once.
func SyncDir(ctx context.Context, layout *store.Layout, durable store.ObjectStore, dir string, logger *zap.Logger) error {
	if durable == nil {
		return nil
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		base := filepath.Base(path)
		if strings.HasPrefix(base, ".") || strings.Contains(base, ".tmp") {
			return nil
		}
		key := layout.KeyForLocal(path)
		if key == "" {
			return nil
		}
		if ok, err := durable.Exists(ctx, key); err == nil && ok {
			return nil
		}
		if err := durable.PutFile(ctx, key, path); err != nil {
			logger.Warn("directory sync upload failed", zap.String("key", key), zap.Error(err))
			return nil
		}
		logger.Debug("artifact uploaded", zap.String("key", key))
		return nil
	})
}

// Stop halts watching and cancels pending uploads. Safe to call repeatedly.
func (s *Syncer) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.mu.Lock()
		defer s.mu.Unlock()
		for path, t := range s.timers {
			t.Stop()
			delete(s.timers, path)
		}
		if s.watcher != nil {
			_ = s.watcher.Close()
		}
	})
}
