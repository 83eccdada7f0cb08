package emitter

import (
	"log/slog"
	"runtime/debug"
	"sync"
)

// Handler is an event callback. Arguments are whatever the emitting side
// passed; handlers assert the shapes they expect.
type Handler func(args ...any)

// entry is one registered handler. The id makes removal exact even when
// the same function value is registered twice.
type entry struct {
	id   uint64
	fn   Handler
	once bool
}

// Emitter is an ordered, concurrency-safe event registry. Handlers for
// an event run in subscription order. A handler registered with Once is
// removed before its single invocation, so concurrent emits of the same
// event can never run it twice.
type Emitter struct {
	mu       sync.Mutex
	handlers map[string][]entry
	nextID   uint64
	logger   *slog.Logger
}

// New creates an emitter. The seed names pre-register known events so
// that lookups and counts treat them uniformly with subscribed ones.
// A nil logger falls back to slog.Default().
func New(logger *slog.Logger, seed ...string) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Emitter{
		handlers: make(map[string][]entry, len(seed)),
		logger:   logger,
	}
	for _, name := range seed {
		e.handlers[name] = nil
	}
	return e
}

// On registers a handler for the event and returns a function that
// removes it. The returned function is idempotent.
func (e *Emitter) On(event string, fn Handler) func() {
	return e.add(event, fn, false)
}

// Once registers a handler that runs at most once. The handler is
// removed from the registry before it is invoked.
func (e *Emitter) Once(event string, fn Handler) func() {
	return e.add(event, fn, true)
}

func (e *Emitter) add(event string, fn Handler, once bool) func() {
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.handlers[event] = append(e.handlers[event], entry{id: id, fn: fn, once: once})
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.remove(event, id)
	}
}

// remove drops the handler with the given id. Callers hold the mutex.
func (e *Emitter) remove(event string, id uint64) {
	list := e.handlers[event]
	for i := range list {
		if list[i].id == id {
			e.handlers[event] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// Off removes every handler for the event. The event stays known to the
// registry.
func (e *Emitter) Off(event string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.handlers[event]; ok {
		e.handlers[event] = nil
	}
}

// Reset drops all handlers and re-seeds the registry.
func (e *Emitter) Reset(seed ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = make(map[string][]entry, len(seed))
	for _, name := range seed {
		e.handlers[name] = nil
	}
}

// HandlerCount returns the number of handlers registered for the event.
func (e *Emitter) HandlerCount(event string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.handlers[event])
}

// Emit invokes the event's handlers in subscription order with the given
// arguments. Once-handlers are removed under the lock before any handler
// runs; the invocations themselves happen outside the lock, so handlers
// may subscribe, unsubscribe, and emit reentrantly.
func (e *Emitter) Emit(event string, args ...any) {
	e.mu.Lock()
	list := e.handlers[event]
	snapshot := make([]entry, len(list))
	copy(snapshot, list)

	for _, ent := range list {
		if ent.once {
			e.remove(event, ent.id)
		}
	}
	e.mu.Unlock()

	for _, ent := range snapshot {
		e.safeInvoke(event, ent.fn, args)
	}
}

// safeInvoke runs a handler with panic recovery, so one failing handler
// cannot stop the ones after it.
func (e *Emitter) safeInvoke(event string, fn Handler, args []any) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			e.logger.Error("event handler panic",
				"event", event,
				"panic", r,
				"stack", string(stack))
		}
	}()
	fn(args...)
}
