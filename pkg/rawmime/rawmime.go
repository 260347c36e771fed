// Package rawmime extracts the body parts and sender of a raw MIME message.
package rawmime

import (
	"strings"

	"github.com/jhillyerd/enmime/v2"
)

// Body is the decoded content of a text or HTML part.
type Body struct {
	Content string
}

// Parts is the inventory of a raw message needed during normalization.  A nil Text or HTML means
// the message has no such part.
type Parts struct {
	Text *Body
	HTML *Body
	// From lists the address component of each From header address.
	From []string
}

// Parse reads a raw MIME message.  Part bodies are transfer-decoded and converted to UTF-8.
func Parse(raw string) (*Parts, error) {
	env, err := enmime.ReadEnvelope(strings.NewReader(raw))
	if err != nil {
		return nil, err
	}
	parts := &Parts{
		Text: findBody(env.Root, "text/plain"),
		HTML: findBody(env.Root, "text/html"),
	}
	if parts.Text == nil && isBareRoot(env.Root) && env.Text != "" {
		// Messages without MIME headers are plain text.
		parts.Text = &Body{Content: env.Text}
	}
	if addrs, err := env.AddressList("From"); err == nil {
		for _, a := range addrs {
			parts.From = append(parts.From, a.Address)
		}
	}
	return parts, nil
}

// FirstFrom returns the first From address, or "" if there is none.
func (p *Parts) FirstFrom() string {
	if p == nil || len(p.From) == 0 {
		return ""
	}
	return p.From[0]
}

// findBody locates the first non-attachment part of the given media type, searching breadth first
// from the root.  The root itself is considered, so single part messages have a body.
func findBody(root *enmime.Part, mediaType string) *Body {
	if root == nil {
		return nil
	}
	match := root.BreadthMatchFirst(func(p *enmime.Part) bool {
		return strings.EqualFold(p.ContentType, mediaType) && !isAttachment(p)
	})
	if match == nil {
		return nil
	}
	return &Body{Content: string(match.Content)}
}

func isAttachment(p *enmime.Part) bool {
	return strings.EqualFold(p.Disposition, "attachment") || p.FileName != ""
}

func isBareRoot(root *enmime.Part) bool {
	return root != nil && root.FirstChild == nil && root.ContentType == ""
}
