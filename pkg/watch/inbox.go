// Package watch turns a directory into an inbox: every matching file that
// appears or changes is handed to a handler once it has stopped changing.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gopkg.in/fsnotify.v1"
)

// Handler processes one settled file. Errors are logged and the file is not
// retried until it changes again.
type Handler func(ctx context.Context, path string) error

// InboxConfig configures an Inbox.
type InboxConfig struct {
	// Dir is the directory to watch. Subdirectories are ignored.
	Dir string

	// Patterns are glob patterns matched against file names. Empty means
	// *.pdf and *.txt.
	Patterns []string

	// Debounce is how long a file must stay unchanged before it is handled.
	Debounce time.Duration
}

// DefaultPatterns are the inputs the parser understands.
var DefaultPatterns = []string{"*.pdf", "*.txt"}

// Inbox watches a directory and dispatches settled files to a handler.
type Inbox struct {
	dir      string
	patterns []string
	debounce time.Duration
	handler  Handler
	logger   *zap.Logger
	now      func() time.Time

	pendingMu sync.Mutex
	pending   map[string]time.Time

	mu        sync.Mutex
	processed map[string]time.Time
}

// NewInbox creates an inbox. A nil logger discards log output.
func NewInbox(config InboxConfig, handler Handler, logger *zap.Logger) *Inbox {
	if len(config.Patterns) == 0 {
		config.Patterns = DefaultPatterns
	}
	if config.Debounce <= 0 {
		config.Debounce = 500 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inbox{
		dir:       config.Dir,
		patterns:  config.Patterns,
		debounce:  config.Debounce,
		handler:   handler,
		logger:    logger,
		now:       time.Now,
		pending:   make(map[string]time.Time),
		processed: make(map[string]time.Time),
	}
}

// Run queues the files already present, then watches for new ones until
// ctx is cancelled.
func (b *Inbox) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(b.dir); err != nil {
		return fmt.Errorf("watching %s: %w", b.dir, err)
	}

	if err := b.scan(); err != nil {
		return err
	}

	interval := b.debounce / 2
	if interval <= 0 {
		interval = b.debounce
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	b.logger.Info("Watching inbox", zap.String("dir", b.dir), zap.Strings("patterns", b.patterns))
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if b.matches(event.Name) {
				b.NotifyChange(event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			b.logger.Debug("Inbox watcher error", zap.Error(err))

		case <-ticker.C:
			b.dispatch(ctx, b.Due())
		}
	}
}

// scan queues every matching file already in the directory.
func (b *Inbox) scan() error {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", b.dir, err)
	}
	for _, e := range entries {
		path := filepath.Join(b.dir, e.Name())
		if !e.IsDir() && b.matches(path) {
			b.NotifyChange(path)
		}
	}
	return nil
}

func (b *Inbox) matches(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, pattern := range b.patterns {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}

// NotifyChange records a change to path and restarts its debounce window.
func (b *Inbox) NotifyChange(path string) {
	b.pendingMu.Lock()
	b.pending[filepath.Clean(path)] = b.now()
	b.pendingMu.Unlock()
}

// Due removes and returns the pending files whose debounce window has
// passed and whose content changed since they were last handled. Paths are
// sorted.
func (b *Inbox) Due() []string {
	threshold := b.now().Add(-b.debounce)

	b.pendingMu.Lock()
	var settled []string
	for path, changed := range b.pending {
		if changed.After(threshold) {
			continue
		}
		settled = append(settled, path)
		delete(b.pending, path)
	}
	b.pendingMu.Unlock()

	var due []string
	for _, path := range settled {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		b.mu.Lock()
		last, seen := b.processed[path]
		if !seen || info.ModTime().After(last) {
			b.processed[path] = info.ModTime()
			due = append(due, path)
		}
		b.mu.Unlock()
	}
	sort.Strings(due)
	return due
}

// Pending returns the number of files waiting for their debounce window.
func (b *Inbox) Pending() int {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()
	return len(b.pending)
}

func (b *Inbox) dispatch(ctx context.Context, paths []string) {
	for _, path := range paths {
		if ctx.Err() != nil {
			return
		}
		start := time.Now()
		if err := b.handler(ctx, path); err != nil {
			b.logger.Error("Inbox file failed", zap.String("path", path), zap.Error(err))
			continue
		}
		b.logger.Info("Inbox file processed", zap.String("path", path), zap.Duration("took", time.Since(start)))
	}
}
