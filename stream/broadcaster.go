// Package stream provides a hot, multicast value stream.
//
// A Broadcaster holds the latest value and fans it out to any number of
// subscribers. Every subscriber receives the current value on subscribe and
// then each published value; a slow subscriber only ever sees the most
// recent value (older undelivered values are replaced).
package stream

import (
	"context"
	"sync"
)

// Broadcaster multicasts the latest value of type T.
type Broadcaster[T any] struct {
	mu      sync.Mutex
	current T
	subs    map[uint64]chan T
	nextID  uint64
	closed  bool
	done    chan struct{}
}

// NewBroadcaster returns a Broadcaster seeded with initial.
func NewBroadcaster[T any](initial T) *Broadcaster[T] {
	return &Broadcaster[T]{
		current: initial,
		subs:    make(map[uint64]chan T),
		done:    make(chan struct{}),
	}
}

// Current returns the latest published value.
func (b *Broadcaster[T]) Current() T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Publish stores v as the current value and delivers it to every
// subscriber. It returns false once the broadcaster is closed.
func (b *Broadcaster[T]) Publish(v T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return false
	}

	b.current = v
	for _, ch := range b.subs {
		offer(ch, v)
	}
	return true
}

// Update applies fn to the current value under the broadcaster lock. The
// result is published only when fn reports a change.
func (b *Broadcaster[T]) Update(fn func(T) (T, bool)) (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return b.current, false
	}

	next, changed := fn(b.current)
	if !changed {
		return b.current, false
	}

	b.current = next
	for _, ch := range b.subs {
		offer(ch, next)
	}
	return next, true
}

// Subscribe returns a channel that receives the current value followed by
// every later value. The channel is closed when ctx is done or the
// broadcaster is closed.
func (b *Broadcaster[T]) Subscribe(ctx context.Context) <-chan T {
	ch := make(chan T, 1)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	ch <- b.current
	b.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			b.unsubscribe(id)
		case <-b.done:
		}
	}()

	return ch
}

// Subscribers returns the number of live subscriptions.
func (b *Broadcaster[T]) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close closes every subscriber channel. Later publishes are dropped.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
	close(b.done)
}

// Done is closed when the broadcaster is closed.
func (b *Broadcaster[T]) Done() <-chan struct{} {
	return b.done
}

func (b *Broadcaster[T]) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[id]; ok {
		close(ch)
		delete(b.subs, id)
	}
}

// offer replaces any undelivered value with v. Only the publisher sends on
// ch and it holds the lock, so the second send cannot block.
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- v
}
