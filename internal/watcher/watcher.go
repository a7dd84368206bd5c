// Package watcher turns edits of the configuration file into reload
// requests, so a saved file is picked up the same way as SIGHUP.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gitrgoliveira/tcp-sink/internal/interfaces"
)

// DefaultDebounce coalesces the burst of events an editor produces on save.
const DefaultDebounce = 200 * time.Millisecond

// Raiser receives reload requests.
type Raiser interface {
	Raise()
}

// Config holds watcher configuration
type Config struct {
	// Path is the configuration file to watch
	Path string

	// Debounce is how long the file must be quiet before a reload is requested
	Debounce time.Duration
}

// Watcher watches one file through its parent directory, so editors that
// replace the file by rename are still seen.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	raiser    Raiser
	logger    interfaces.Logger

	path     string
	dir      string
	debounce time.Duration

	last      fileState
	triggered atomic.Int64
}

type fileState struct {
	size    int64
	modTime time.Time
}

// NewWatcher creates a new config file watcher
func NewWatcher(cfg *Config, r Raiser, log interfaces.Logger) (*Watcher, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("config path is required")
	}
	if r == nil {
		return nil, fmt.Errorf("raiser is required")
	}

	path, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fs watcher: %w", err)
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		raiser:    r,
		logger:    log,
		path:      path,
		dir:       filepath.Dir(path),
		debounce:  debounce,
	}
	w.last, _ = stat(path)
	return w, nil
}

// Triggered returns how many reloads the watcher has requested.
func (w *Watcher) Triggered() int64 {
	return w.triggered.Load()
}

// Start watches until ctx is done. It closes the underlying watcher on
// return.
func (w *Watcher) Start(ctx context.Context) error {
	defer w.fsWatcher.Close()

	if err := w.fsWatcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch config directory: %w", err)
	}
	w.logger.Info("Watching configuration file", "file", w.path)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("Configuration file event", "file", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.settle()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", "error", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

// settle requests a reload if the file exists and differs from what the
// last request saw.
func (w *Watcher) settle() {
	state, err := stat(w.path)
	if err != nil {
		w.logger.Debug("Configuration file not readable yet", "file", w.path, "error", err)
		return
	}
	if state == w.last {
		return
	}
	w.last = state

	w.triggered.Add(1)
	w.logger.Info("Configuration file changed, requesting reload", "file", w.path)
	w.raiser.Raise()
}

func stat(path string) (fileState, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileState{}, err
	}
	return fileState{size: info.Size(), modTime: info.ModTime()}, nil
}
