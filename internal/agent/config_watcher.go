package agent

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/camship/internal/cliconfig"
	"github.com/bft-labs/camship/pkg/log"
)

const reloadDebounce = 100 * time.Millisecond

// ConfigWatcher monitors the config file and invokes a callback with each
// freshly loaded file config. Only values that can change at runtime (the
// log level) take effect; anything else is logged as requiring a restart.
type ConfigWatcher struct {
	path    string
	onLoad  func(cliconfig.FileConfig)
	logger  log.Logger
	mu      sync.Mutex
	pending *time.Timer
}

// NewConfigWatcher watches the file at path. onLoad is called after each
// debounced change with the parsed file contents.
func NewConfigWatcher(path string, onLoad func(cliconfig.FileConfig), logger log.Logger) *ConfigWatcher {
	return &ConfigWatcher{path: path, onLoad: onLoad, logger: logger}
}

// Run blocks until the context is canceled. Editors replace files rather
// than write in place, so the parent directory is watched and events are
// filtered by name.
func (w *ConfigWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	name := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.debounceReload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("config watcher error", log.Err(err))
		}
	}
}

// debounceReload coalesces the event bursts editors produce on save.
func (w *ConfigWatcher) debounceReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending != nil {
		w.pending.Stop()
	}
	w.pending = time.AfterFunc(reloadDebounce, w.reload)
}

func (w *ConfigWatcher) reload() {
	fc, err := cliconfig.LoadFileConfig(w.path)
	if err != nil {
		w.logger.Warn("config reload failed", log.String("path", w.path), log.Err(err))
		return
	}
	w.logger.Info("config file reloaded", log.String("path", w.path))
	w.onLoad(fc)
}
