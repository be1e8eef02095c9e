// internal/config/watcher.go
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// FlagWatcher hot-reloads feature flags from a YAML file. Each write to the
// file is parsed, validated, and handed to the apply callback; invalid flag
// sets are logged and skipped, the previous flags stay active.
type FlagWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	apply   func(FeatureFlags) error
	logger  *zap.Logger
}

// NewFlagWatcher creates a watcher for the given flags file.
func NewFlagWatcher(path string, apply func(FeatureFlags) error, logger *zap.Logger) (*FlagWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: create watcher: %w", err)
	}

	// Watch the directory so editors that replace the file are still seen.
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("config: watch %s: %w", path, err)
	}

	return &FlagWatcher{
		path:    path,
		watcher: w,
		apply:   apply,
		logger:  logger,
	}, nil
}

// Run processes file events until the context is cancelled.
func (fw *FlagWatcher) Run(ctx context.Context) {
	defer func() { _ = fw.watcher.Close() }()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(fw.path) {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			fw.reload()
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Error("flag watcher error", zap.Error(err))
		}
	}
}

func (fw *FlagWatcher) reload() {
	data, err := os.ReadFile(fw.path)
	if err != nil {
		fw.logger.Error("read flags file", zap.String("path", fw.path), zap.Error(err))
		return
	}

	var flags FeatureFlags
	if err := yaml.Unmarshal(data, &flags); err != nil {
		fw.logger.Error("parse flags file", zap.String("path", fw.path), zap.Error(err))
		return
	}

	if err := fw.apply(flags); err != nil {
		fw.logger.Error("rejected feature flag update", zap.Error(err))
		return
	}

	fw.logger.Info("feature flags reloaded", zap.String("path", fw.path))
}
