package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watch reloads path whenever it is written or replaced and passes every
// config that loads and validates to fn. Invalid edits are logged and
// skipped. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, fn func(Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config watch: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file, so watch its directory.
	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("config watch %s: %w", path, err)
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
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(target)
			if err != nil {
				log.Warn().Str("path", target).Err(err).Msg("config reload rejected")
				continue
			}
			log.Info().Str("path", target).Msg("config reloaded")
			fn(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("config watch error")
		}
	}
}
