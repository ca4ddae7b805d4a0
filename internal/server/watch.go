package server

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

type configWatcher struct {
	fsw  *fsnotify.Watcher
	dirs map[string]bool
}

// Watch re-applies project config files to their windows when they change
// on disk. The directories of loaded configs are watched, so editors that
// save by renaming a temp file are covered too. Watching stops with ctx.
func (s *Server) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	s.mu.Lock()
	s.watch = &configWatcher{fsw: fsw, dirs: make(map[string]bool)}
	s.syncWatch()
	s.mu.Unlock()

	go s.watchLoop(ctx, fsw)
	return nil
}

func (s *Server) watchLoop(ctx context.Context, fsw *fsnotify.Watcher) {
	defer fsw.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				s.reload(ctx, filepath.Clean(ev.Name))
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			s.logger.Warn("config watcher error", "error", err)
		}
	}
}

func (s *Server) reload(ctx context.Context, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.bridge.ReloadConfigFile(ctx, path); err != nil {
		s.logger.Warn("config reload failed", "path", path, "error", err)
	}
}

// syncWatch matches the watched directories to the configs windows have
// loaded. Callers hold s.mu.
func (s *Server) syncWatch() {
	w := s.watch
	if w == nil {
		return
	}

	want := make(map[string]bool)
	for _, p := range s.bridge.Windows().ConfigPaths() {
		want[filepath.Dir(p)] = true
	}
	for dir := range want {
		if w.dirs[dir] {
			continue
		}
		if err := w.fsw.Add(dir); err != nil {
			s.logger.Warn("watch config dir", "dir", dir, "error", err)
			continue
		}
		w.dirs[dir] = true
		s.logger.Debug("watching config dir", "dir", dir)
	}
	for dir := range w.dirs {
		if !want[dir] {
			_ = w.fsw.Remove(dir)
			delete(w.dirs, dir)
		}
	}
}
