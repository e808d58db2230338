// Package broadcast fans out a session's outbound event stream to its
// subscribers without ever blocking the publisher. It is a narrowed,
// single-event-type form of the observer/filter pattern used elsewhere in
// this codebase: one session has exactly one kernel, and every gateway
// connection attached to that session subscribes to its events.
package broadcast

import (
	"sync"

	"github.com/carter293/Carter-Querio-notebook-sub004/internal/logger"
)

// Broadcaster fans out values of type T to subscriber channels without
// blocking the publisher. A slow or dead subscriber only drops its own
// notifications; it never backs up the publisher's draining loop. The
// coordinator instantiates one over coordinator.ServerEvent; the kernel's raw
// CellNotification stream never reaches a subscriber directly — the
// coordinator's draining task translates first (spec.md §4.5).
type Broadcaster[T any] struct {
	mu          sync.RWMutex
	subscribers map[int]chan T
	nextID      int
	bufferSize  int
	log         *logger.Logger
}

// Option configures a Broadcaster.
type Option[T any] func(*Broadcaster[T])

// WithLogger sets the logger used to report dropped notifications.
func WithLogger[T any](l *logger.Logger) Option[T] {
	return func(b *Broadcaster[T]) { b.log = l }
}

// WithBufferSize sets each subscriber channel's buffer size.
func WithBufferSize[T any](size int) Option[T] {
	return func(b *Broadcaster[T]) { b.bufferSize = size }
}

// New returns an empty Broadcaster.
func New[T any](opts ...Option[T]) *Broadcaster[T] {
	b := &Broadcaster[T]{
		subscribers: make(map[int]chan T),
		bufferSize:  64,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a new subscriber and returns its receive channel and
// an id to later Unsubscribe with.
func (b *Broadcaster[T]) Subscribe() (id int, ch <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id = b.nextID
	b.nextID++
	out := make(chan T, b.bufferSize)
	b.subscribers[id] = out
	return id, out
}

// Unsubscribe removes and closes the subscriber's channel.
func (b *Broadcaster[T]) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subscribers[id]; ok {
		close(ch)
		delete(b.subscribers, id)
	}
}

// Publish fans event out to every subscriber. A subscriber whose buffer is
// full has its event dropped rather than blocking the publisher.
func (b *Broadcaster[T]) Publish(event T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			if b.log != nil {
				b.log.Warn("dropped broadcast event: subscriber buffer full", "subscriber", id)
			}
		}
	}
}

// Count reports the number of active subscribers.
func (b *Broadcaster[T]) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
