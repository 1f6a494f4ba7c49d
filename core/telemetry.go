package core

import (
	"sync"
	"sync/atomic"
	"time"
)

// TelemetryHook receives one event per network attempt.
//
// Events carry operational metadata only. The auth token, request payloads and
// response bodies are never included, so events can be logged or exported
// as-is.
//
// Every attempt yields exactly one event, and the last event of a request has
// Final set. An attempt that will be retried is reported after the backoff
// wait, once the next attempt is certain to start.
//
// OnAttempt is called on the dispatching goroutine. Implementations that may
// block (network exporters, slow writers) should be wrapped with NewAsyncHook.
type TelemetryHook interface {
	OnAttempt(e AttemptEvent)
}

// AttemptEvent describes one finished attempt.
type AttemptEvent struct {
	Operation  string        // Logical operation (e.g. "like")
	RequestID  string        // Shared by all attempts of one Execute call
	Attempt    int           // 1-based
	Kind       ErrorKind     // KindNone on success
	StatusCode int           // Zero when no response was received
	Ambiguous  bool          // Failure without a confirmed response
	Elapsed    time.Duration // Duration of the network exchange
	Wait       time.Duration // Backoff before the next attempt; zero when final
	Final      bool          // No further attempt follows
}

// Success reports whether the attempt succeeded.
func (e AttemptEvent) Success() bool {
	return e.Kind == KindNone
}

// NoopTelemetryHook discards events.
type NoopTelemetryHook struct{}

// OnAttempt does nothing.
func (NoopTelemetryHook) OnAttempt(AttemptEvent) {}

// MultiHook fans events out to several hooks in order.
type MultiHook []TelemetryHook

// OnAttempt forwards e to every hook.
func (m MultiHook) OnAttempt(e AttemptEvent) {
	for _, h := range m {
		if h != nil {
			h.OnAttempt(e)
		}
	}
}

// AsyncHook decouples the dispatcher from a slow sink. Events are queued on a
// bounded buffer and delivered by a single goroutine; when the buffer is full
// the event is dropped and counted instead of blocking the caller.
type AsyncHook struct {
	next    TelemetryHook
	events  chan AttemptEvent
	done    chan struct{}
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

// NewAsyncHook starts a delivery goroutine for next. Call Close to stop it.
func NewAsyncHook(next TelemetryHook, buffer int) *AsyncHook {
	if buffer <= 0 {
		buffer = 256
	}
	h := &AsyncHook{
		next:   next,
		events: make(chan AttemptEvent, buffer),
		done:   make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *AsyncHook) run() {
	defer close(h.done)
	for e := range h.events {
		h.next.OnAttempt(e)
	}
}

// OnAttempt enqueues e without blocking.
func (h *AsyncHook) OnAttempt(e AttemptEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	select {
	case h.events <- e:
	default:
		h.dropped.Add(1)
	}
}

// Dropped returns the number of events discarded because the buffer was full.
func (h *AsyncHook) Dropped() uint64 {
	return h.dropped.Load()
}

// Close stops accepting events and waits for queued ones to be delivered.
func (h *AsyncHook) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		<-h.done
		return
	}
	h.closed = true
	close(h.events)
	h.mu.Unlock()
	<-h.done
}
