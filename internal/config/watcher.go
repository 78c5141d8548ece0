// internal/config/watcher.go
//
// Hot-reload of the showroom catalog. Edits to config.yaml are picked up
// without a restart; subscribers receive the freshly parsed config. Reloads
// never interrupt an in-flight workflow; consumers apply the new catalog on
// their next request.
package config

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher watches the config file for changes and reloads it
type Watcher struct {
	watcher *fsnotify.Watcher
	log     zerolog.Logger

	mu       sync.RWMutex
	onReload []func(*Config)

	done chan struct{}
}

// NewWatcher creates a watcher over the configuration directory
func NewWatcher(log zerolog.Logger) (*Watcher, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(configDir); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		watcher: fw,
		log:     log,
		done:    make(chan struct{}),
	}

	go w.watchLoop()

	return w, nil
}

// OnReload registers a callback invoked with each successfully reloaded config
func (w *Watcher) OnReload(fn func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = append(w.onReload, fn)
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if filepath.Base(event.Name) != "config.yaml" {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("Config watcher error")
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load()
	if err != nil {
		w.log.Warn().Err(err).Msg("Config reload failed, keeping previous")
		return
	}

	w.log.Info().Int("collections", len(cfg.Stage.Collections)).Msg("Config reloaded")

	w.mu.RLock()
	callbacks := make([]func(*Config), len(w.onReload))
	copy(callbacks, w.onReload)
	w.mu.RUnlock()

	for _, fn := range callbacks {
		fn(cfg)
	}
}

// Close stops the watcher
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
