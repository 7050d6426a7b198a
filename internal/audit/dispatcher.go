package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering.
type Config struct {
	Enabled    bool
	BufferSize int
	// DropIfFull makes Emit non-blocking; overflow is counted, not queued.
	DropIfFull bool
}

// secretKeys never leave the process through a sink, whatever the caller
// put in Metadata.
var secretKeys = map[string]struct{}{
	"code":     {},
	"otp":      {},
	"password": {},
	"confirm":  {},
	"phrase":   {},
	"words":    {},
}

const redacted = "[redacted]"

// Dispatcher hands events to a sink on a single worker goroutine so audit
// I/O never sits on a request path.
type Dispatcher struct {
	sink Sink
	ch   chan Event

	// mu guards closed and the close of ch against concurrent sends.
	mu     sync.RWMutex
	closed bool
	worker sync.WaitGroup

	dropIfFull bool
	delivered  atomic.Uint64
	dropped    atomic.Uint64
	panicked   atomic.Uint64
}

// NewDispatcher starts a dispatcher. It returns nil when cfg is disabled;
// every method is safe on a nil Dispatcher.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		sink:       sink,
		ch:         make(chan Event, cfg.BufferSize),
		dropIfFull: cfg.DropIfFull,
	}
	d.worker.Add(1)
	go d.drain()
	return d
}

func (d *Dispatcher) drain() {
	defer d.worker.Done()
	for event := range d.ch {
		d.forward(event)
	}
}

// forward isolates the worker from a panicking sink.
func (d *Dispatcher) forward(event Event) {
	defer func() {
		if r := recover(); r != nil {
			d.panicked.Add(1)
		}
	}()
	d.sink.Emit(context.Background(), event)
	d.delivered.Add(1)
}

// Emit queues event after scrubbing secret metadata. With DropIfFull a
// full buffer drops the event; otherwise Emit waits for room or ctx.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	event.Metadata = scrub(event.Metadata)

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	if d.dropIfFull {
		select {
		case d.ch <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.ch <- event:
	case <-ctx.Done():
		d.dropped.Add(1)
	}
}

// Close stops accepting events and waits for the queued ones to reach the
// sink.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.ch)
	d.mu.Unlock()

	d.worker.Wait()
}

// Dropped counts events lost to a full buffer or an expired context.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// Delivered counts events the sink accepted.
func (d *Dispatcher) Delivered() uint64 {
	if d == nil {
		return 0
	}
	return d.delivered.Load()
}

// SinkPanics counts events whose sink call panicked.
func (d *Dispatcher) SinkPanics() uint64 {
	if d == nil {
		return 0
	}
	return d.panicked.Load()
}

func scrub(meta map[string]string) map[string]string {
	if len(meta) == 0 {
		return meta
	}
	var out map[string]string
	for k := range meta {
		if _, secret := secretKeys[k]; !secret {
			continue
		}
		if out == nil {
			out = make(map[string]string, len(meta))
			for k2, v2 := range meta {
				out[k2] = v2
			}
		}
		out[k] = redacted
	}
	if out == nil {
		return meta
	}
	return out
}
