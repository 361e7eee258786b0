package devindex

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const reloadDelay = 100 * time.Millisecond

// LoadFile loads a fixture file into the index.
func (ix *Index) LoadFile(path string) error {
	fx, err := LoadFixtures(path)
	if err != nil {
		return err
	}
	return ix.Load(fx)
}

// Watch reloads the fixture file whenever it changes until ctx is done.
// A file that fails to load leaves the previous data set in place.
func (ix *Index) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fixture watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			ix.logger.Warn("Failed to close fixture watcher", zap.Error(err))
		}
	}()

	// Editors replace files atomically, so watch the directory.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	target := filepath.Clean(path)
	ix.logger.Info("Watching fixtures for changes", zap.String("path", target))

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
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			time.Sleep(reloadDelay)
			if _, err := os.Stat(target); err != nil {
				ix.logger.Warn("Fixture file disappeared", zap.String("path", target), zap.Error(err))
				continue
			}
			if err := ix.LoadFile(target); err != nil {
				ix.logger.Error("Failed to reload fixtures", zap.String("path", target), zap.Error(err))
				continue
			}
			ix.logger.Info("Fixtures reloaded", zap.String("event", event.Op.String()))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			ix.logger.Warn("Fixture watcher error", zap.Error(err))
		}
	}
}
