package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/moxitooo/zzzmeika/internal/telemetry"
)

// Watch reloads path whenever it is written or recreated and hands the new
// configuration to apply. The directory is watched rather than the file so
// editors that replace the file atomically are still observed. Watch returns
// when ctx is done.
func Watch(ctx context.Context, path string, logger telemetry.Logger, apply func(Config)) error {
	if logger == nil {
		logger = telemetry.NopLogger()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", target, err)
	}

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
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := Load(target)
			if err != nil {
				logger.Printf("config reload failed: %v", err)
				continue
			}
			apply(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Printf("config watcher: %v", err)
		}
	}
}
