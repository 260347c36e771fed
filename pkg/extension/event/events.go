package event

import (
	"time"
)

// MessageMetadata summarizes a normalized message for events and monitors.
type MessageMetadata struct {
	Batch            string
	Index            int
	From             string
	To               []string
	CC               []string
	BCC              []string
	Subject          string
	ReceivingAddress string
	Attachments      int
	Date             time.Time
}

// RejectedEvent describes an inbound event dropped before normalization.
type RejectedEvent struct {
	Batch     string
	Index     int
	Reason    string
	SPFResult string
	FromEmail string
	Email     string
}

// HandleResponse allows an extension to stop a normalized message from reaching the downstream
// handler.
type HandleResponse struct {
	Skip   bool
	Reason string
}
