// Package model holds the JSON documents served and accepted by the REST API.
package model

import "time"

// JSONBatchResultV1 is the response to a webhook delivery.
type JSONBatchResultV1 struct {
	Batch    string                `json:"batch"`
	Accepted int                   `json:"accepted"`
	Skipped  int                   `json:"skipped"`
	Rejected int                   `json:"rejected"`
	Ignored  int                   `json:"ignored"`
	Failed   int                   `json:"failed"`
	Failures []*JSONEventFailureV1 `json:"failures,omitempty"`
}

// JSONEventFailureV1 reports an inbound event that could not be normalized.
type JSONEventFailureV1 struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// JSONMessageSummaryV1 describes a normalized message without its content.
type JSONMessageSummaryV1 struct {
	Batch            string    `json:"batch"`
	Index            int       `json:"index"`
	From             string    `json:"from"`
	To               []string  `json:"to"`
	CC               []string  `json:"cc"`
	BCC              []string  `json:"bcc"`
	Subject          string    `json:"subject"`
	ReceivingAddress string    `json:"email"`
	Attachments      int       `json:"attachments"`
	Date             time.Time `json:"date"`
}

// JSONMonitorEventV1 is sent to monitor websocket clients.
type JSONMonitorEventV1 struct {
	Variant string                `json:"variant"`
	Message *JSONMessageSummaryV1 `json:"message,omitempty"`
}
