// Package watch provides observable values: subscribers receive the latest
// value on subscription and every later value until they unsubscribe.
//
// Delivery is latest-wins. A slow subscriber never blocks Set; it skips
// intermediate values and reads the most recent one.
package watch

import (
	"context"
	"sync"
)

// Value is an observable value safe for concurrent use.
type Value[T any] struct {
	mu   sync.Mutex
	v    T
	subs map[*Subscription[T]]struct{}
}

// Subscription receives values from a Value until Close is called.
type Subscription[T any] struct {
	ch     chan T
	parent *Value[T]
	once   sync.Once
}

func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		v:    initial,
		subs: make(map[*Subscription[T]]struct{}),
	}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.v
}

// Set stores x and notifies every subscriber.
func (v *Value[T]) Set(x T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.v = x
	v.broadcast(x)
}

// Update applies fn to the current value atomically and returns the result.
func (v *Value[T]) Update(fn func(T) T) T {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.v = fn(v.v)
	v.broadcast(v.v)
	return v.v
}

// must hold v.mu
func (v *Value[T]) broadcast(x T) {
	for s := range v.subs {
		// Only broadcast sends, always under v.mu, so after draining the
		// single slot the send cannot block.
		select {
		case <-s.ch:
		default:
		}
		s.ch <- x
	}
}

// Subscribe registers a subscriber. The current value is immediately
// available on the returned subscription's channel.
func (v *Value[T]) Subscribe() *Subscription[T] {
	s := &Subscription[T]{ch: make(chan T, 1), parent: v}
	v.mu.Lock()
	defer v.mu.Unlock()
	s.ch <- v.v
	v.subs[s] = struct{}{}
	return s
}

// Observe subscribes for the lifetime of ctx. The channel is closed once ctx
// is done.
func (v *Value[T]) Observe(ctx context.Context) <-chan T {
	s := v.Subscribe()
	context.AfterFunc(ctx, s.Close)
	return s.C()
}

// Subscribers returns the number of active subscriptions.
func (v *Value[T]) Subscribers() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.subs)
}

// C returns the delivery channel. It is closed by Close.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Close unsubscribes. It is safe to call more than once.
func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		s.parent.mu.Lock()
		defer s.parent.mu.Unlock()
		delete(s.parent.subs, s)
		close(s.ch)
	})
}
