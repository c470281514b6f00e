package eventbus

import (
	"sync"
	"sync/atomic"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 256

type subscriber[T any] struct {
	ch       chan T
	blocking bool
	quit     chan struct{}
	stop     sync.Once
}

func (s *subscriber[T]) release() { s.stop.Do(func() { close(s.quit) }) }

// TypedBus is a type-safe publish/subscribe bus for events of type T.
type TypedBus[T any] struct {
	mu   sync.RWMutex
	subs []*subscriber[T]
	// qmu guards quits, which is read without mu so that a subscriber can
	// release publishers blocked on it while they hold the read lock.
	qmu     sync.Mutex
	quits   map[<-chan T]*subscriber[T]
	closed  bool
	buffer  int
	dropped atomic.Uint64
}

// NewTyped creates a new TypedBus with DefaultBuffer capacity per subscriber.
func NewTyped[T any]() *TypedBus[T] { return NewTypedWithBuffer[T](DefaultBuffer) }

// NewTypedWithBuffer creates a TypedBus with the given subscriber capacity.
func NewTypedWithBuffer[T any](buffer int) *TypedBus[T] {
	if buffer < 0 {
		buffer = 0
	}
	return &TypedBus[T]{buffer: buffer, quits: make(map[<-chan T]*subscriber[T])}
}

// Publish sends the event to all subscribers. Delivery to a Subscribe
// channel is non-blocking and an event that does not fit its buffer is
// dropped for that subscriber. Delivery to a SubscribeBlocking channel waits
// until the subscriber receives it or unsubscribes.
func (b *TypedBus[T]) Publish(e T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, s := range b.subs {
		if s.blocking {
			select {
			case s.ch <- e:
			case <-s.quit:
				b.dropped.Add(1)
			}
			continue
		}
		select {
		case s.ch <- e:
		default:
			b.dropped.Add(1)
		}
	}
}

// Subscribe registers a lossy subscriber and returns its channel.
func (b *TypedBus[T]) Subscribe() <-chan T { return b.subscribe(false) }

// SubscribeBlocking registers a subscriber that never misses an event.
// Publishers wait on it, so it must keep draining its channel until it
// unsubscribes or the bus is closed.
func (b *TypedBus[T]) SubscribeBlocking() <-chan T { return b.subscribe(true) }

func (b *TypedBus[T]) subscribe(blocking bool) <-chan T {
	s := &subscriber[T]{ch: make(chan T, b.buffer), blocking: blocking, quit: make(chan struct{})}
	b.mu.Lock()
	if b.closed {
		close(s.ch)
	} else {
		b.subs = append(b.subs, s)
		b.qmu.Lock()
		b.quits[s.ch] = s
		b.qmu.Unlock()
	}
	b.mu.Unlock()
	return s.ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *TypedBus[T]) Unsubscribe(sub <-chan T) {
	b.qmu.Lock()
	if s, ok := b.quits[sub]; ok {
		s.release()
		delete(b.quits, sub)
	}
	b.qmu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(s.ch)
			}
			return
		}
	}
}

// Dropped returns how many deliveries were dropped because a subscriber was
// full or had left.
func (b *TypedBus[T]) Dropped() uint64 { return b.dropped.Load() }

// Close closes the bus and all subscriber channels. Publishers still
// blocked on a subscriber are released first.
func (b *TypedBus[T]) Close() {
	b.qmu.Lock()
	for ch, s := range b.quits {
		s.release()
		delete(b.quits, ch)
	}
	b.qmu.Unlock()

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, s := range b.subs {
		close(s.ch)
	}
	b.subs = nil
	b.mu.Unlock()
}
