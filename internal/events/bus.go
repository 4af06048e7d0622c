package events

import (
	"sync"
	"time"
)

// Handler receives events from the bus. Handlers run on the emitting goroutine
// and must not block.
type Handler func(event *Event)

// Bus fans events out to subscribers
type Bus struct {
	mu          sync.RWMutex
	nextID      int
	subscribers map[int]Handler
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{subscribers: make(map[int]Handler)}
}

// Subscribe registers a handler and returns a function that removes it
func (b *Bus) Subscribe(handler Handler) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subscribers[id] = handler
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers an event to every subscriber
func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subscribers))
	for _, h := range b.subscribers {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}

// Emit builds and publishes an event
func (b *Bus) Emit(eventType EventType, module, scope string, data map[string]interface{}) {
	b.Publish(&Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Module:    module,
		Scope:     scope,
		Data:      data,
	})
}

// SubscriberCount returns the number of registered handlers
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
