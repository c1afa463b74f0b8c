package abbrev

import (
	"fmt"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/fsnotify.v1"
)

// Registry holds the current abbreviation table for a process. A base table
// (usually from the config file) is always applied first; rules from the
// watched file follow it.
type Registry struct {
	mu       sync.RWMutex
	base     Table
	file     Table
	path     string
	watcher  *fsnotify.Watcher
	stopChan chan struct{}
	doneChan chan struct{}
	onChange func(Table)
	logger   *zap.Logger
}

// NewRegistry creates a registry serving base until a file is loaded.
func NewRegistry(base Table, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{base: base, logger: logger}
}

// Table returns a snapshot of the current table.
func (r *Registry) Table() Table {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.base.Merge(r.file)
}

// LoadFile loads rules from path and remembers it for Watch.
func (r *Registry) LoadFile(path string) error {
	t, err := LoadFile(path)
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	r.mu.Lock()
	r.path = path
	r.file = t
	fn := r.onChange
	r.mu.Unlock()

	if fn != nil {
		fn(r.Table())
	}
	return nil
}

// SetOnChange sets a callback invoked with the merged table after each
// successful load, including the reloads done by Watch.
func (r *Registry) SetOnChange(fn func(Table)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

// Watch reloads the file whenever it is written or replaced. The containing
// directory is watched so editors that rename over the file are handled.
func (r *Registry) Watch() error {
	r.mu.RLock()
	path := r.path
	r.mu.RUnlock()

	if path == "" {
		return fmt.Errorf("no file configured for watching")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %s: %w", path, err)
	}

	r.watcher = watcher
	r.stopChan = make(chan struct{})
	r.doneChan = make(chan struct{})
	go r.watchLoop(filepath.Clean(path))
	return nil
}

func (r *Registry) watchLoop(path string) {
	defer close(r.doneChan)
	for {
		select {
		case <-r.stopChan:
			return

		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if err := r.LoadFile(path); err != nil {
				// Keep serving the previous table.
				r.logger.Warn("Abbreviation reload failed", zap.String("path", path), zap.Error(err))
				continue
			}
			r.logger.Info("Abbreviations reloaded", zap.String("path", path))

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			r.logger.Debug("Abbreviation watcher error", zap.Error(err))
		}
	}
}

// StopWatch stops watching and waits for the watch goroutine to exit.
func (r *Registry) StopWatch() {
	if r.stopChan == nil {
		return
	}
	close(r.stopChan)
	r.watcher.Close()
	<-r.doneChan
	r.stopChan = nil
}
