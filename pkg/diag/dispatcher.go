package diag

import (
	"sync"

	"go.uber.org/zap"
)

const defaultQueueSize = 16

type batch struct {
	key   string
	lines []string
}

// Dispatcher hands diagnostic batches to a Sink from a single background
// goroutine. Report never blocks; when the queue is full the batch is
// dropped.
type Dispatcher struct {
	sink   Sink
	logger *zap.Logger

	mu     sync.Mutex
	queue  chan batch
	closed bool
	done   chan struct{}
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the logger used for dropped batches and sink failures.
func WithLogger(logger *zap.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithQueueSize sets how many batches may wait for the sink.
func WithQueueSize(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queue = make(chan batch, n)
		}
	}
}

// NewDispatcher starts the delivery goroutine. Call Close to drain it.
func NewDispatcher(sink Sink, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		sink:   sink,
		logger: zap.NewNop(),
		queue:  make(chan batch, defaultQueueSize),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	go d.run()
	return d
}

// Report queues lines for delivery under key. The lines are copied.
func (d *Dispatcher) Report(key string, lines []string) {
	if len(lines) == 0 {
		return
	}
	b := batch{key: key, lines: append([]string(nil), lines...)}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.logger.Debug("Diagnostics dropped after close", zap.String("key", key), zap.Int("lines", len(lines)))
		return
	}
	select {
	case d.queue <- b:
	default:
		d.logger.Debug("Diagnostics queue full, batch dropped", zap.String("key", key), zap.Int("lines", len(lines)))
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for b := range d.queue {
		d.deliver(b)
	}
}

func (d *Dispatcher) deliver(b batch) {
	defer func() {
		if p := recover(); p != nil {
			d.logger.Debug("Diagnostics sink panicked", zap.Any("panic", p))
		}
	}()
	if err := d.sink.Write(b.key, b.lines); err != nil {
		d.logger.Debug("Diagnostics sink failed", zap.String("key", b.key), zap.Error(err))
	}
}

// Close stops accepting batches and waits until queued ones are delivered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()
	<-d.done
}
