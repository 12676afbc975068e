// Package observable provides a replay-latest publish/subscribe primitive.
//
// A Subject remembers the last published value. New subscribers receive it
// immediately, then every later value in publish order. Each subscriber is
// served by its own goroutine through a one-slot mailbox: if it falls
// behind, intermediate values are replaced by the newest one, so Publish
// never waits on a subscriber.
package observable

import "sync"

// Subject broadcasts values of type T to its subscribers
type Subject[T any] struct {
	mu     sync.Mutex
	latest T
	has    bool
	closed bool
	subs   map[*Subscription[T]]struct{}
}

// New creates a subject with no value
func New[T any]() *Subject[T] {
	return &Subject[T]{subs: make(map[*Subscription[T]]struct{})}
}

// NewWithValue creates a subject that already holds v
func NewWithValue[T any](v T) *Subject[T] {
	s := New[T]()
	s.latest = v
	s.has = true
	return s
}

// Publish stores v as the latest value and offers it to every subscriber.
// Values published after Close are dropped.
func (s *Subject[T]) Publish(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.latest = v
	s.has = true
	for sub := range s.subs {
		sub.offer(v)
	}
}

// Latest returns the most recent value, if any
func (s *Subject[T]) Latest() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.has
}

// Subscribe registers fn. If the subject holds a value, fn receives it
// first. fn runs on the subscription's own goroutine, never concurrently
// with itself.
func (s *Subject[T]) Subscribe(fn func(T)) *Subscription[T] {
	sub := &Subscription[T]{
		subject: s,
		fn:      fn,
		signal:  make(chan struct{}, 1),
		stop:    make(chan struct{}),
		finish:  make(chan struct{}),
		done:    make(chan struct{}),
	}

	s.mu.Lock()
	if s.has {
		sub.offer(s.latest)
	}
	if s.closed {
		sub.finishOnce.Do(func() { close(sub.finish) })
	} else {
		s.subs[sub] = struct{}{}
	}
	s.mu.Unlock()

	go sub.run()
	return sub
}

// Len returns the number of active subscriptions
func (s *Subject[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Close stops accepting values. Every subscription delivers the value it
// still holds, if any, and then ends.
func (s *Subject[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for sub := range s.subs {
		sub.finishOnce.Do(func() { close(sub.finish) })
		delete(s.subs, sub)
	}
}

func (s *Subject[T]) remove(sub *Subscription[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, sub)
}

// Subscription is a revocable registration on a Subject
type Subscription[T any] struct {
	subject *Subject[T]
	fn      func(T)

	mu         sync.Mutex
	pending    T
	hasPending bool

	signal     chan struct{}
	stop       chan struct{}
	finish     chan struct{}
	done       chan struct{}
	stopOnce   sync.Once
	finishOnce sync.Once
}

// Unsubscribe stops further deliveries to this subscription. A delivery
// already in progress completes. It is safe to call from inside the
// subscriber callback and more than once.
func (sub *Subscription[T]) Unsubscribe() {
	sub.stopOnce.Do(func() {
		sub.subject.remove(sub)
		close(sub.stop)
	})
}

// Done is closed when the subscription goroutine has exited
func (sub *Subscription[T]) Done() <-chan struct{} {
	return sub.done
}

// offer replaces the mailbox content with v and wakes the goroutine
func (sub *Subscription[T]) offer(v T) {
	sub.mu.Lock()
	sub.pending = v
	sub.hasPending = true
	sub.mu.Unlock()

	select {
	case sub.signal <- struct{}{}:
	default:
	}
}

func (sub *Subscription[T]) take() (T, bool) {
	sub.mu.Lock()
	defer sub.mu.Unlock()

	v, ok := sub.pending, sub.hasPending
	var zero T
	sub.pending = zero
	sub.hasPending = false
	return v, ok
}

func (sub *Subscription[T]) run() {
	defer close(sub.done)

	for {
		select {
		case <-sub.stop:
			return
		case <-sub.signal:
			sub.deliver()
		case <-sub.finish:
			sub.deliver()
			return
		}
	}
}

func (sub *Subscription[T]) deliver() {
	v, ok := sub.take()
	if !ok {
		return
	}
	select {
	case <-sub.stop:
		return
	default:
	}
	sub.fn(v)
}
