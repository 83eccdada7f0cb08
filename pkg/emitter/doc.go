// Package emitter provides the ordered event registry that routes
// decoded packets and lifecycle notifications to application callbacks.
//
// Handlers for an event run in the order they were subscribed. Each
// subscription returns its own removal function, so the same handler
// can be registered several times and removed exactly. A panicking
// handler is recovered and logged without disturbing the handlers
// queued after it.
//
//	em := emitter.New(nil, "connect", "close")
//	off := em.On("message", func(args ...any) {
//	    // handle
//	})
//	em.Emit("message", payload)
//	off()
package emitter
