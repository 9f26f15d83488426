package event

import (
	"reflect"
	"sync"
)

// Bus is a double-buffered event bus. Events emitted during tick N are
// delivered in tick N+1, in emission order, by EventDispatchSystem which calls
// SwapBuffers then DispatchAll on the tick goroutine. Emit may be called from
// any goroutine (command handlers, the bulk importer); handlers always run on
// the tick goroutine.
type Bus struct {
	mu       sync.Mutex // protects back and handlers
	front    []any
	back     []any
	handlers map[reflect.Type][]any
}

func NewBus() *Bus {
	return &Bus{
		front:    make([]any, 0, 64),
		back:     make([]any, 0, 64),
		handlers: make(map[reflect.Type][]any),
	}
}

// Emit queues an event into the back buffer (will be readable next tick).
// A nil bus drops the event.
func Emit[T any](b *Bus, event T) {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.back = append(b.back, event)
	b.mu.Unlock()
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.handlers[t] = append(b.handlers[t], fn)
}

// SwapBuffers rotates back→front and clears the new back buffer.
// Called once at tick start.
func (b *Bus) SwapBuffers() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.front, b.back = b.back, b.front[:0]
}

// Pending returns the number of events waiting in the back buffer.
func (b *Bus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.back)
}

// DispatchAll delivers all front-buffer events to their subscribed handlers.
func (b *Bus) DispatchAll() {
	b.mu.Lock()
	handlers := make(map[reflect.Type][]any, len(b.handlers))
	for t, hs := range b.handlers {
		handlers[t] = append([]any(nil), hs...)
	}
	b.mu.Unlock()

	for _, ev := range b.front {
		for _, h := range handlers[reflect.TypeOf(ev)] {
			// Safe: Subscribe keys by T and Emit stores a T.
			callHandler(h, ev)
		}
	}
}

func callHandler(handler any, event any) {
	reflect.ValueOf(handler).Call([]reflect.Value{reflect.ValueOf(event)})
}
