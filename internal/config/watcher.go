package config

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher watches a configuration file and notifies subscribers when it
// changes. Reloads never feed back into an in-flight resolution run; a run
// works on the config snapshot it was given.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	stopCh   chan struct{}
	stopOnce sync.Once

	mu       sync.RWMutex
	current  *Config
	onChange []func(*Config)
}

// NewWatcher loads the file once and starts watching its directory. Watching
// the directory instead of the file survives the rename-and-replace dance
// most editors and config management tools do.
func NewWatcher(path string, logger *zap.Logger) (*Watcher, error) {
	current, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial config: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	w := &Watcher{
		path:    path,
		watcher: fsw,
		logger:  logger,
		stopCh:  make(chan struct{}),
		current: current,
	}

	go w.loop()
	return w, nil
}

// Current returns the most recently loaded configuration.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// OnChange registers a callback invoked with each successfully reloaded
// configuration. Callbacks run on the watcher goroutine and should return
// quickly.
func (w *Watcher) OnChange(fn func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

// Stop shuts the watcher down. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
	})
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", zap.Error(err))
		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		// Keep serving the last good config.
		w.logger.Error("failed to reload config, keeping previous", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.current = cfg
	callbacks := make([]func(*Config), len(w.onChange))
	copy(callbacks, w.onChange)
	w.mu.Unlock()

	w.logger.Info("configuration reloaded", zap.String("path", w.path))
	for _, fn := range callbacks {
		fn(cfg)
	}
}
