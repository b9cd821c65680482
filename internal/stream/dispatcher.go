package stream

import (
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/0fflineDocs/Cipher/internal/logging"
)

// Handler applies one event.
type Handler func(Event)

// Dispatcher routes events to one handler per Kind.
//
// Events are delivered strictly in the order Dispatch is called and never
// concurrently. A Dispatch issued while another is running (from a handler or
// from a second goroutine), or after Close, is logged and dropped. Events with
// no handler, including unknown types, are logged at WARN and otherwise
// ignored.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[Kind]Handler

	active    atomic.Bool
	closed    atomic.Bool
	delivered atomic.Int64
	unhandled atomic.Int64

	logger *logging.Logger
}

// NewDispatcher creates a Dispatcher. logger may be nil.
func NewDispatcher(logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Dispatcher{
		handlers: make(map[Kind]Handler),
		logger:   logger,
	}
}

// Handle installs the handler for kind, replacing any previous one.
func (d *Dispatcher) Handle(kind Kind, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[kind] = h
}

// Dispatch routes e to its handler.
func (d *Dispatcher) Dispatch(e Event) {
	if d.closed.Load() {
		d.logger.Warn("dropping event dispatched after close", "event_type", e.Type)
		return
	}
	if !d.active.CompareAndSwap(false, true) {
		d.logger.Error("dropping re-entrant or concurrent event dispatch", "event_type", e.Type)
		return
	}
	defer d.active.Store(false)

	d.delivered.Add(1)
	kind := e.Kind()

	d.mu.RLock()
	h, ok := d.handlers[kind]
	d.mu.RUnlock()

	if kind == KindUnknown || !ok {
		d.unhandled.Add(1)
		d.logger.Warn("unhandled stream event", "event_type", e.Type)
		return
	}
	d.safeCall(h, e)
}

func (d *Dispatcher) safeCall(h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("stream handler panicked",
				"event_type", e.Type,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
	}()
	h(e)
}

// Close stops delivery. Subsequent Dispatch calls are dropped.
func (d *Dispatcher) Close() {
	d.closed.Store(true)
}

// Closed reports whether Close has been called.
func (d *Dispatcher) Closed() bool {
	return d.closed.Load()
}

// Delivered returns the number of events accepted for routing, handled or not.
func (d *Dispatcher) Delivered() int {
	return int(d.delivered.Load())
}

// Unhandled returns the number of accepted events that had no handler.
func (d *Dispatcher) Unhandled() int {
	return int(d.unhandled.Load())
}
