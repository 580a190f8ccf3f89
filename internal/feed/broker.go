// Package feed carries change notifications for logs: a generic broker,
// SQLite-backed summary and entries feeds, and a file watcher that notices
// writes made by other processes.
package feed

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Subscription is the cancellation handle returned by every Subscribe call.
type Subscription interface {
	ID() uuid.UUID
	Unsubscribe()
}

// Broker fans values out to subscribers. Handlers run on the publishing
// goroutine in subscription order and must not publish or subscribe on the
// same broker.
type Broker[T any] struct {
	mu     sync.Mutex
	subs   []*subscription[T]
	latest T
	has    bool
	closed bool
	replay bool

	deliver sync.Mutex
}

func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{}
}

// NewReplayBroker returns a broker that hands each new subscriber the latest
// published value before anything else.
func NewReplayBroker[T any]() *Broker[T] {
	return &Broker[T]{replay: true}
}

type subscription[T any] struct {
	id     uuid.UUID
	fn     func(T)
	active atomic.Bool
	drop   func(uuid.UUID)
}

func (s *subscription[T]) ID() uuid.UUID { return s.id }

func (s *subscription[T]) Unsubscribe() {
	if s.active.CompareAndSwap(true, false) {
		s.drop(s.id)
	}
}

func (b *Broker[T]) Subscribe(fn func(T)) Subscription {
	s := &subscription[T]{id: uuid.New(), fn: fn, drop: b.remove}

	b.deliver.Lock()
	defer b.deliver.Unlock()

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return s
	}
	s.active.Store(true)
	b.subs = append(b.subs, s)
	latest, has := b.latest, b.has && b.replay
	b.mu.Unlock()

	if has {
		fn(latest)
	}
	return s
}

func (b *Broker[T]) Publish(v T) {
	b.deliver.Lock()
	defer b.deliver.Unlock()

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.latest, b.has = v, true
	subs := append([]*subscription[T](nil), b.subs...)
	b.mu.Unlock()

	for _, s := range subs {
		if s.active.Load() {
			s.fn(v)
		}
	}
}

// Latest returns the most recently published value.
func (b *Broker[T]) Latest() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latest, b.has
}

func (b *Broker[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close drops every subscriber. Later publishes are ignored and later
// subscriptions are inert.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	subs := b.subs
	b.subs = nil
	b.closed = true
	b.mu.Unlock()
	for _, s := range subs {
		s.active.Store(false)
	}
}

func (b *Broker[T]) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *Broker[T]) remove(id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}
