// Package msghub relays metadata of recently normalized messages to monitor listeners.
package msghub

import (
	"container/ring"
	"context"

	"github.com/inbucket/inbound/pkg/extension"
	"github.com/inbucket/inbound/pkg/extension/event"
)

// Length of msghub operation queue
const opChanLen = 100

// Listener receives the contents of the history buffer, followed by new messages.  A Listener
// returning an error is unregistered.
type Listener interface {
	Receive(msg event.MessageMetadata) error
}

// Hub relays messages on to its listeners.  All state is owned by the goroutine running Start;
// other methods queue operations for it.
type Hub struct {
	// history points at the slot for the next message; the following non-nil entry is the oldest.
	history   *ring.Ring
	listeners map[Listener]struct{}
	opChan    chan func(h *Hub)
}

// New constructs a Hub which will cache historyLen messages for playback to future listeners.  The
// hub subscribes to AfterMessageNormalized on the extension host.
func New(historyLen int, extHost *extension.Host) *Hub {
	hub := &Hub{
		listeners: make(map[Listener]struct{}),
		opChan:    make(chan func(h *Hub), opChanLen),
	}
	if historyLen > 0 {
		hub.history = ring.New(historyLen)
	}
	extHost.Events.AfterMessageNormalized.AddListener("msghub",
		func(msg event.MessageMetadata) {
			hub.Dispatch(msg)
		})
	return hub
}

// Start runs the hub processing loop until ctx is canceled.
func (hub *Hub) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case op := <-hub.opChan:
			op(hub)
		}
	}
}

// Dispatch queues a message for broadcast.  The message is placed into the history buffer and then
// relayed to all registered listeners.
func (hub *Hub) Dispatch(msg event.MessageMetadata) {
	hub.opChan <- func(h *Hub) {
		if h.history != nil {
			h.history.Value = msg
			h.history = h.history.Next()
		}
		for l := range h.listeners {
			if err := l.Receive(msg); err != nil {
				delete(h.listeners, l)
			}
		}
	}
}

// AddListener registers a listener, first playing back the history buffer to it.
func (hub *Hub) AddListener(l Listener) {
	hub.opChan <- func(h *Hub) {
		if h.history != nil {
			failed := false
			h.history.Do(func(v any) {
				if v != nil && !failed {
					failed = l.Receive(v.(event.MessageMetadata)) != nil
				}
			})
			if failed {
				return
			}
		}
		h.listeners[l] = struct{}{}
	}
}

// RemoveListener deletes a listener registration, it will cease to receive messages.
func (hub *Hub) RemoveListener(l Listener) {
	hub.opChan <- func(h *Hub) {
		delete(h.listeners, l)
	}
}

// Sync blocks until the hub has processed its queue up to this point, useful for unit tests.
func (hub *Hub) Sync() {
	done := make(chan struct{})
	hub.opChan <- func(h *Hub) {
		close(done)
	}
	<-done
}
