package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"menubard/internal/logging"
)

// debounceInterval coalesces the event bursts editors produce when saving.
const debounceInterval = 200 * time.Millisecond

// Watch reloads the settings file on external edits and delivers each valid
// reload to onChange. Invalid or unreadable edits are logged and the
// previous settings stay in effect. The returned stop function releases the
// watcher.
func Watch(path string, onChange func(Settings)) (func(), error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create settings watcher: %w", err)
	}
	// Watch the directory: editors replace the file by rename, which
	// drops a watch set on the file itself.
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch settings directory: %w", err)
	}

	log := logging.ForComponent(logging.CompConfig)
	var (
		mu      sync.Mutex
		pending *time.Timer
		stopped bool
	)

	reload := func() {
		mu.Lock()
		dead := stopped
		mu.Unlock()
		if dead {
			return
		}
		cfg, err := Load(path)
		if err != nil {
			log.Warn("settings reload failed, keeping previous settings", "error", err)
			return
		}
		log.Info("settings reloaded", "path", path)
		onChange(cfg)
	}

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(path) {
					continue
				}
				if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
					continue
				}
				mu.Lock()
				if pending != nil {
					pending.Stop()
				}
				pending = time.AfterFunc(debounceInterval, reload)
				mu.Unlock()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("settings watcher error", "error", err)
			}
		}
	}()

	return func() {
		mu.Lock()
		stopped = true
		if pending != nil {
			pending.Stop()
		}
		mu.Unlock()
		w.Close()
	}, nil
}
