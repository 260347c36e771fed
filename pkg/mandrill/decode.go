// Package mandrill normalizes Mandrill inbound webhook events into canonical messages.
package mandrill

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
)

// InboundEventType is the envelope event tag for a received message.
const InboundEventType = "inbound"

// envelope is one element of the webhook's event array.
type envelope struct {
	Event string          `json:"event"`
	Msg   json.RawMessage `json:"msg"`
}

// Event is the message payload of an inbound envelope.  Field names are matched without regard to
// case.  Absent fields are left at their zero value.
type Event struct {
	To          []Contact   `json:"to"`
	CC          []Contact   `json:"cc"`
	FromEmail   string      `json:"from_email"`
	FromName    string      `json:"from_name"`
	Headers     Header      `json:"headers"`
	Subject     string      `json:"subject"`
	Text        string      `json:"text"`
	HTML        string      `json:"html"`
	RawMsg      string      `json:"raw_msg"`
	Email       string      `json:"email"`
	SPF         *SPF        `json:"spf"`
	DKIM        *DKIM       `json:"dkim"`
	SpamReport  *SpamReport `json:"spam_report"`
	Attachments Attachments `json:"attachments"`
}

// SPF is the provider's sender authentication result.
type SPF struct {
	Result string `json:"result"`
	Detail string `json:"detail"`
}

// DKIM is the provider's signature verification result.
type DKIM struct {
	Signed bool `json:"signed"`
	Valid  bool `json:"valid"`
}

// SpamReport is the provider's spam assessment.
type SpamReport struct {
	Score float64 `json:"score"`
}

// Contact is an address and optional display name, encoded as ["addr", "name"].
type Contact struct {
	Address string
	Name    string
}

// UnmarshalJSON accepts a [address, name] pair, where name may be null or missing, or a bare
// address string.
func (c *Contact) UnmarshalJSON(data []byte) error {
	*c = Contact{}
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte(`"`)) {
		return json.Unmarshal(data, &c.Address)
	}
	var pair []*string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) > 0 && pair[0] != nil {
		c.Address = *pair[0]
	}
	if len(pair) > 1 && pair[1] != nil {
		c.Name = *pair[1]
	}
	return nil
}

// Header maps a header name to its values.
type Header map[string][]string

// UnmarshalJSON accepts header values that are either a string or an array of strings.
func (h *Header) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*h = nil
		return nil
	}
	out := make(Header, len(raw))
	for k, v := range raw {
		var values []string
		if err := json.Unmarshal(v, &values); err == nil {
			out[k] = values
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			out[k] = []string{s}
			continue
		}
		// Numbers and other scalars are kept as written.
		out[k] = []string{string(bytes.TrimSpace(v))}
	}
	*h = out
	return nil
}

// Attachment describes one attachment carried inline in the event.
type Attachment struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Content string `json:"content"`
	Base64  bool   `json:"base64"`
}

// Attachments is an ordered list of attachment descriptors.
type Attachments []*Attachment

// UnmarshalJSON accepts either an array of descriptors, or an object keyed by attachment name or
// index.  Object members are kept in document order.
func (a *Attachments) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*a = nil
		return nil
	case bytes.HasPrefix(data, []byte("[")):
		var list []*Attachment
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*a = Attachments{}
		for _, att := range list {
			if att != nil {
				*a = append(*a, att)
			}
		}
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if t, err := dec.Token(); err != nil {
		return err
	} else if t != json.Delim('{') {
		return fmt.Errorf("attachments: unexpected %v", t)
	}
	list := Attachments{}
	for dec.More() {
		// Skip the member key.
		if _, err := dec.Token(); err != nil {
			return err
		}
		att := &Attachment{}
		if err := dec.Decode(att); err != nil {
			return err
		}
		list = append(list, att)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*a = list
	return nil
}

// Decode parses a webhook payload, returning the inbound events in payload order.  Envelopes of
// other event types are dropped.
func Decode(payload []byte) ([]*Event, error) {
	events, _, err := decode(payload)
	return events, err
}

// decode also reports the number of envelopes dropped for their event type.
func decode(payload []byte) (events []*Event, ignored int, err error) {
	var envelopes []envelope
	dec := json.NewDecoder(bytes.NewReader(payload))
	if err := dec.Decode(&envelopes); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, 0, fmt.Errorf("%w: trailing data after event array", ErrDecode)
	}
	if envelopes == nil {
		return nil, 0, fmt.Errorf("%w: payload is not an event array", ErrDecode)
	}
	events = make([]*Event, 0, len(envelopes))
	for i, env := range envelopes {
		if env.Event != InboundEventType {
			log.Debug().Str("module", "mandrill").Int("index", i).Str("event", env.Event).
				Msg("Ignoring non-inbound event")
			ignored++
			continue
		}
		ev := &Event{}
		if len(env.Msg) > 0 {
			if err := json.Unmarshal(env.Msg, ev); err != nil {
				return nil, 0, fmt.Errorf("%w: event %d: %v", ErrDecode, i, err)
			}
		}
		events = append(events, ev)
	}
	return events, ignored, nil
}

// structurallyIncomplete is true when the provider omitted the headers or recipients of the event.
// The structured body fields of such events cannot be trusted.
func (e *Event) structurallyIncomplete() bool {
	return len(e.Headers) == 0 || len(e.To) == 0
}
