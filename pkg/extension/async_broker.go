package extension

import (
	"errors"
	"time"
)

// AsyncEventBroker maintains a list of listeners interested in a specific type of event.  Events
// are sent in parallel to all listeners, and no result is returned.
type AsyncEventBroker[E any] struct {
	l listeners[func(E)]
}

// Emit sends the provided event to each registered listener in parallel.
func (eb *AsyncEventBroker[E]) Emit(event *E) {
	for _, f := range eb.l.snapshot() {
		go f(*event)
	}
}

// AddListener registers the named listener, replacing one with a duplicate name if present.
func (eb *AsyncEventBroker[E]) AddListener(name string, listener func(E)) {
	eb.l.add(name, listener)
}

// RemoveListener unregisters the named listener.
func (eb *AsyncEventBroker[E]) RemoveListener(name string) {
	eb.l.remove(name)
}

// AsyncTestListener returns a func that will wait for an event and return it, or timeout with an
// error.  The listener unregisters itself after capacity events have been returned.
func (eb *AsyncEventBroker[E]) AsyncTestListener(name string, capacity int) func() (*E, error) {
	events := make(chan E, capacity)
	eb.AddListener(name, func(ev E) {
		events <- ev
	})

	count := 0
	return func() (*E, error) {
		count++
		defer func() {
			if count >= capacity {
				eb.RemoveListener(name)
			}
		}()

		select {
		case ev := <-events:
			return &ev, nil
		case <-time.After(2 * time.Second):
			return nil, errors.New("timeout waiting for event")
		}
	}
}
