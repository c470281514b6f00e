package eventbus

// Event represents an arbitrary event passed on the bus.
type Event interface{}

// EventBus implements a simple publish/subscribe event bus.
type EventBus interface {
	Publish(Event)
	Subscribe() <-chan Event
	SubscribeBlocking() <-chan Event
	Unsubscribe(<-chan Event)
	Dropped() uint64
	Close()
}

// Bus is the default EventBus implementation using fan-out channels.
type Bus = TypedBus[Event]

// New creates a new Bus.
func New() *Bus { return NewTyped[Event]() }

// NopBus discards every event.
type NopBus struct{}

func (NopBus) Publish(Event) {}
func (NopBus) Subscribe() <-chan Event {
	ch := make(chan Event)
	close(ch)
	return ch
}
func (b NopBus) SubscribeBlocking() <-chan Event { return b.Subscribe() }
func (NopBus) Unsubscribe(<-chan Event)          {}
func (NopBus) Dropped() uint64                   { return 0 }
func (NopBus) Close()                            {}
