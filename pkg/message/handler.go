package message

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Handler is the downstream consumer of normalized messages.  The message's attachments remain
// valid until Handle returns; a Handler that needs them longer must copy them.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// HandlerFunc adapts a func to the Handler interface.
type HandlerFunc func(ctx context.Context, msg *Message) error

// Handle calls f(ctx, msg).
func (f HandlerFunc) Handle(ctx context.Context, msg *Message) error {
	return f(ctx, msg)
}

// LogHandler logs a summary of each message it receives.
type LogHandler struct{}

var _ Handler = LogHandler{}

// Handle logs msg.
func (LogHandler) Handle(ctx context.Context, msg *Message) error {
	names := make([]string, len(msg.Attachments))
	for i, a := range msg.Attachments {
		names[i] = a.Filename
	}
	log.Ctx(ctx).Info().Str("module", "message").Str("from", msg.From).Strs("to", msg.To).
		Strs("cc", msg.CC).Strs("bcc", msg.BCC).Str("email", msg.ReceivingAddress).
		Str("subject", msg.Subject).Strs("attachments", names).Msg("Received message")
	return nil
}
