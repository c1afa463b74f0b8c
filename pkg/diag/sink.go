// Package diag persists parse diagnostics outside the parse path. Delivery
// is best effort: reporting never blocks and sink failures are swallowed.
package diag

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// KeyLayout formats the date-derived key under which a day's diagnostics
// are stored.
const KeyLayout = "2006_01_02"

// DateKey returns the sink key for t.
func DateKey(t time.Time) string {
	return t.Format(KeyLayout)
}

// Sink persists a batch of diagnostics under a key.
type Sink interface {
	Write(key string, lines []string) error
}

// Reporter accepts diagnostics for background delivery.
type Reporter interface {
	Report(key string, lines []string)
}

// FileSink appends batches to "<dir>/<key>_errors.log".
type FileSink struct {
	dir string
	mu  sync.Mutex
}

// NewFileSink creates a sink writing under dir. An empty dir means the
// working directory.
func NewFileSink(dir string) *FileSink {
	if dir == "" {
		dir = "."
	}
	return &FileSink{dir: dir}
}

// Path returns the log file used for key.
func (s *FileSink) Path(key string) string {
	return filepath.Join(s.dir, key+"_errors.log")
}

// Write appends lines to the key's log file, one diagnostic per line group.
func (s *FileSink) Write(key string, lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(s.Path(key), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}

	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString("[ ERROR ] ")
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	if _, err := f.WriteString(sb.String()); err != nil {
		f.Close()
		return fmt.Errorf("writing log file: %w", err)
	}
	return f.Close()
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(key string, lines []string) error

// Write calls f.
func (f SinkFunc) Write(key string, lines []string) error {
	return f(key, lines)
}
