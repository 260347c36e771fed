package mandrill

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/inbucket/inbound/pkg/extension"
	"github.com/inbucket/inbound/pkg/extension/event"
	"github.com/inbucket/inbound/pkg/message"
	"github.com/inbucket/inbound/pkg/policy"
	"github.com/inbucket/inbound/pkg/rawmime"
	"github.com/inbucket/inbound/pkg/sanitize"
	"github.com/inbucket/inbound/pkg/stringutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Normalizer turns webhook payloads into canonical messages.  It holds no per-call state, so one
// Normalizer may serve concurrent payloads as long as its Store does.
type Normalizer struct {
	SPF         SPFPolicy
	Attachments *Materializer
	// RequireSender fails events whose sender cannot be determined, instead of leaving From empty.
	RequireSender bool
	// Domains, if set, drops events whose receiving address domain it does not accept.
	Domains *policy.Domains
	// SanitizeHTML passes the resolved HTML body through sanitize.HTML.
	SanitizeHTML bool
	// Extensions, if set, receives AfterEventRejected and AfterMessageNormalized events.
	Extensions *extension.Host
}

// Batch is the result of normalizing one webhook payload.
type Batch struct {
	ID       string
	Messages []*message.Message
	// Events holds the inbound event index of each message in Messages.
	Events []int
	// Ignored counts envelopes that were not inbound events.
	Ignored int
	// Rejected counts inbound events that failed the SPF or domain policy.
	Rejected int
	// Failures holds the events that could not be normalized; they have no message.
	Failures []*EventError
}

// Close releases the attachments of every message in the batch.
func (b *Batch) Close() error {
	var errs []error
	for _, m := range b.Messages {
		if err := m.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Normalize decodes the payload and normalizes every inbound event passing the SPF and domain
// policies, in payload order.  Only a malformed payload returns an error; a failure normalizing
// one event is recorded in Batch.Failures and does not affect the others.
func (n *Normalizer) Normalize(payload []byte) (*Batch, error) {
	events, ignored, err := decode(payload)
	if err != nil {
		return nil, err
	}
	b := &Batch{ID: uuid.NewString(), Ignored: ignored}
	logger := log.With().Str("module", "mandrill").Str("batch", b.ID).Logger()
	for i, ev := range events {
		if reason := n.reject(ev); reason != "" {
			b.Rejected++
			logger.Debug().Int("index", i).Str("reason", reason).Str("spf", ev.spfResult()).
				Str("email", ev.Email).Str("from", ev.FromEmail).Msg("Dropping event")
			n.emitRejected(&event.RejectedEvent{
				Batch:     b.ID,
				Index:     i,
				Reason:    reason,
				SPFResult: ev.spfResult(),
				FromEmail: ev.FromEmail,
				Email:     ev.Email,
			})
			continue
		}
		msg, err := n.normalizeEvent(ev, &logger)
		if err != nil {
			logger.Warn().Int("index", i).Err(err).Msg("Failed to normalize event")
			b.Failures = append(b.Failures, &EventError{Index: i, Err: err})
			continue
		}
		b.Messages = append(b.Messages, msg)
		b.Events = append(b.Events, i)
		if n.Extensions != nil {
			md := msg.Metadata(b.ID, i)
			n.Extensions.Events.AfterMessageNormalized.Emit(&md)
		}
	}
	logger.Debug().Int("messages", len(b.Messages)).Int("ignored", b.Ignored).
		Int("rejected", b.Rejected).Int("failed", len(b.Failures)).Msg("Normalized batch")
	return b, nil
}

// reject returns why the event is dropped before normalization, or "" to keep it.
func (n *Normalizer) reject(ev *Event) string {
	if !n.SPF.Accept(ev) {
		return "spf"
	}
	if n.Domains != nil && !n.Domains.ShouldAccept(ev.Email) {
		return "domain"
	}
	return ""
}

// NormalizeEvent builds the canonical message for a single event, without applying the SPF or
// domain policies.
func (n *Normalizer) NormalizeEvent(ev *Event) (*message.Message, error) {
	logger := log.With().Str("module", "mandrill").Logger()
	return n.normalizeEvent(ev, &logger)
}

func (n *Normalizer) normalizeEvent(ev *Event, logger *zerolog.Logger) (*message.Message, error) {
	// The raw message is parsed at most once, and shared by body and sender resolution.
	parts := parseRaw(ev, logger)
	from, err := n.resolveFrom(ev, parts, logger)
	if err != nil {
		return nil, err
	}
	text, html := resolveContent(ev, parts)
	if n.SanitizeHTML && html != "" {
		if html, err = sanitize.HTML(html); err != nil {
			return nil, fmt.Errorf("sanitizing html: %w", err)
		}
	}
	headers := map[string][]string(ev.Headers)
	if headers == nil {
		headers = make(map[string][]string)
	}
	// Attachments go last, so an earlier failure cannot strand their files.
	var atts []*message.Attachment
	if len(ev.Attachments) > 0 {
		if atts, err = n.Attachments.Materialize(ev.Attachments); err != nil {
			return nil, err
		}
	} else {
		atts = []*message.Attachment{}
	}
	return &message.Message{
		To:               resolveTo(ev),
		CC:               formatContacts(ev.CC),
		BCC:              InferBCC(ev.To, ev.CC, ev.Email),
		Headers:          headers,
		From:             from,
		Subject:          ev.Subject,
		Text:             text,
		HTML:             html,
		RawBody:          ev.RawMsg,
		Attachments:      atts,
		ReceivingAddress: ev.Email,
	}, nil
}

func (n *Normalizer) emitRejected(ev *event.RejectedEvent) {
	if n.Extensions != nil {
		n.Extensions.Events.AfterEventRejected.Emit(ev)
	}
}

// resolveTo lists the explicit recipients, falling back to the receiving address.
func resolveTo(ev *Event) []string {
	if len(ev.To) > 0 {
		return formatContacts(ev.To)
	}
	if ev.Email != "" {
		return []string{ev.Email}
	}
	return []string{}
}

// resolveFrom prefers the structured sender and falls back to the raw message.
func (n *Normalizer) resolveFrom(ev *Event, parts *rawmime.Parts, logger *zerolog.Logger) (
	string, error) {
	if ev.FromEmail != "" {
		return stringutil.FormatAddress(ev.FromEmail, ev.FromName), nil
	}
	if addr := parts.FirstFrom(); addr != "" {
		return addr, nil
	}
	if n.RequireSender {
		return "", ErrMissingRawMessage
	}
	logger.Debug().Str("email", ev.Email).Msg("No sender available, leaving from empty")
	return "", nil
}

// resolveContent picks the text and HTML bodies.  Structurally incomplete events take their bodies
// from the raw message.  Otherwise the structured fields are used, but only for body types the raw
// message actually contains; the provider's fields can be stale.
func resolveContent(ev *Event, parts *rawmime.Parts) (text, html string) {
	if parts == nil {
		parts = &rawmime.Parts{}
	}
	if ev.structurallyIncomplete() {
		return bodyContent(parts.Text), bodyContent(parts.HTML)
	}
	if parts.Text != nil {
		text = ev.Text
	}
	if parts.HTML != nil {
		html = ev.HTML
	}
	return text, html
}

func bodyContent(b *rawmime.Body) string {
	if b == nil {
		return ""
	}
	return b.Content
}

// parseRaw parses the event's raw message, returning nil if it is absent or unparsable.
func parseRaw(ev *Event, logger *zerolog.Logger) *rawmime.Parts {
	if ev.RawMsg == "" {
		return nil
	}
	parts, err := rawmime.Parse(ev.RawMsg)
	if err != nil {
		logger.Warn().Err(err).Str("email", ev.Email).Msg("Failed to parse raw message")
		return nil
	}
	return parts
}
