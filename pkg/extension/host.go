package extension

import (
	"github.com/inbucket/inbound/pkg/extension/event"
)

// Host defines extension points for the inbound pipeline.
type Host struct {
	Events *Events
}

// Events defines all the event types supported by the extension host.
//
// Before-events provide an opportunity for extensions to alter how a normalized message is
// handled.  These events are processed synchronously, inside the webhook request; expensive
// operations will delay the provider's delivery acknowledgement.  The first listener in the list
// to respond with a non-nil value will determine the response, and the remaining listeners will
// not be called.
//
// After-events allow extensions to take an action after an event has completed.  These events are
// processed asynchronously with respect to the webhook request.
type Events struct {
	AfterEventRejected     AsyncEventBroker[event.RejectedEvent]
	AfterMessageNormalized AsyncEventBroker[event.MessageMetadata]
	BeforeMessageHandled   EventBroker[event.MessageMetadata, event.HandleResponse]
}

// NewHost creates a new extension host.
func NewHost() *Host {
	return &Host{Events: &Events{}}
}
