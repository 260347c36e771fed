// Package message contains the canonical form of a normalized inbound message.
package message

import (
	"errors"
	"time"

	"github.com/inbucket/inbound/pkg/extension/event"
	"github.com/inbucket/inbound/pkg/tempstore"
)

// Message is the canonical, provider independent representation of a received email.  Address
// fields hold formatted addresses: "Display Name <addr>" or a bare address.
type Message struct {
	To               []string            `json:"to"`
	CC               []string            `json:"cc"`
	BCC              []string            `json:"bcc"`
	Headers          map[string][]string `json:"headers"`
	From             string              `json:"from"`
	Subject          string              `json:"subject"`
	Text             string              `json:"text"`
	HTML             string              `json:"html"`
	RawBody          string              `json:"raw_body"`
	Attachments      []*Attachment       `json:"attachments"`
	ReceivingAddress string              `json:"email"`
}

// Attachment associates a file name and MIME type with the temporary storage holding the decoded
// attachment content.  The file is positioned at its start when handed off.
type Attachment struct {
	Filename    string         `json:"filename"`
	ContentType string         `json:"type"`
	File        tempstore.File `json:"-"`
	store       tempstore.Store
}

// NewAttachment creates an Attachment whose File is owned by store.
func NewAttachment(filename, contentType string, f tempstore.File, store tempstore.Store) *Attachment {
	return &Attachment{Filename: filename, ContentType: contentType, File: f, store: store}
}

// Close releases the attachment's temporary storage.  It is safe to call more than once.
func (a *Attachment) Close() error {
	if a.File == nil {
		return nil
	}
	var err error
	if a.store != nil {
		err = a.store.Remove(a.File)
	} else {
		err = a.File.Close()
	}
	a.File = nil
	return err
}

// Close releases the temporary storage of every attachment.
func (m *Message) Close() error {
	var errs []error
	for _, a := range m.Attachments {
		if err := a.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Metadata summarizes the message for extension events and monitors.
func (m *Message) Metadata(batch string, index int) event.MessageMetadata {
	return event.MessageMetadata{
		Batch:            batch,
		Index:            index,
		From:             m.From,
		To:               m.To,
		CC:               m.CC,
		BCC:              m.BCC,
		Subject:          m.Subject,
		ReceivingAddress: m.ReceivingAddress,
		Attachments:      len(m.Attachments),
		Date:             time.Now(),
	}
}
