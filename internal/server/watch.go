package server

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/dbiton/DoctorantMemory/internal/navtree"
)

// Loader reads the tree to serve.
type Loader func() (*navtree.Tree, error)

const reloadDelay = 100 * time.Millisecond

// Watch reloads the tree with load whenever the file at path is written
// and swaps it into s. It blocks until ctx is cancelled. The parent
// directory is watched so editors that save by renaming a temporary file
// are picked up too.
func (s *Server) Watch(ctx context.Context, path string, load Loader) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	s.log.Info("watching navigation tree", zap.String("file", target))

	debounce := time.NewTimer(time.Hour)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			debounce.Reset(reloadDelay)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("watch error", zap.Error(err))
		case <-debounce.C:
			s.reload(load)
		}
	}
}

// reload keeps the current tree when the new one cannot be loaded or is
// invalid.
func (s *Server) reload(load Loader) {
	tree, err := load()
	if err != nil {
		s.log.Warn("failed to reload navigation tree", zap.Error(err))
		return
	}
	if err := s.SetTree(tree); err != nil {
		s.log.Warn("ignoring reloaded navigation tree", zap.Error(err))
		return
	}
	s.log.Info("reloaded navigation tree",
		zap.String("var", tree.Name),
		zap.Int("nodes", navtree.Count(tree.Nodes)))
}
