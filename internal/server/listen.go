package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
)

// DefaultSocketPath is where serve --socket listens when no path is given.
func DefaultSocketPath() string {
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir != "" {
		return filepath.Join(runtimeDir, "zj-link", "zj-link.sock")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("zj-link-%d", os.Getuid()), "zj-link.sock")
}

// ListenUnix serves every connection on a unix stream socket at path until
// ctx is cancelled. The socket directory is private to the user and a stale
// socket file is replaced.
func (s *Server) ListenUnix(ctx context.Context, path string) error {
	if path == "" {
		return fmt.Errorf("socket path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create socket dir: %w", err)
	}
	if err := os.Chmod(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("chmod socket dir: %w", err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale socket: %w", err)
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "unix", path)
	if err != nil {
		return fmt.Errorf("listen unix: %w", err)
	}
	defer os.Remove(path)
	if err := os.Chmod(path, 0o600); err != nil {
		_ = ln.Close()
		return fmt.Errorf("chmod socket: %w", err)
	}
	s.logger.Info("listening", "socket", path)

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer conn.Close()
			closeOnCancel := context.AfterFunc(ctx, func() { _ = conn.Close() })
			defer closeOnCancel()

			s.logger.Debug("connection opened")
			if err := s.Serve(ctx, conn, conn); err != nil && ctx.Err() == nil {
				s.logger.Warn("connection ended", "error", err)
			}
		}()
	}
}
