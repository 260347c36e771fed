package mandrill

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/inbucket/inbound/pkg/message"
	"github.com/inbucket/inbound/pkg/tempstore"
	"github.com/rs/zerolog/log"
)

var filenameReplacer = strings.NewReplacer("/", "_", `\`, "_")

// SanitizeFilename replaces path separators in name, making it safe to use as a file name.
func SanitizeFilename(name string) string {
	return filenameReplacer.Replace(name)
}

// Materializer writes attachment descriptors into temporary storage.
type Materializer struct {
	Store tempstore.Store
}

// Materialize converts each attachment into a file backed message.Attachment, preserving order.
// If any attachment fails, the files created so far are released and the error is returned; the
// caller owns the returned attachments otherwise.
func (m *Materializer) Materialize(atts []*Attachment) ([]*message.Attachment, error) {
	handles := make([]*message.Attachment, 0, len(atts))
	for _, a := range atts {
		h, err := m.materialize(a)
		if err != nil {
			for _, made := range handles {
				if cerr := made.Close(); cerr != nil {
					log.Warn().Str("module", "mandrill").Str("file", made.Filename).Err(cerr).
						Msg("Failed to release attachment")
				}
			}
			return nil, err
		}
		handles = append(handles, h)
	}
	return handles, nil
}

func (m *Materializer) materialize(a *Attachment) (*message.Attachment, error) {
	if m == nil || m.Store == nil {
		return nil, errors.New("no attachment store configured")
	}
	content := []byte(a.Content)
	if a.Base64 {
		var err error
		content, err = decodeBase64(a.Content)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrAttachmentDecode, a.Name, err)
		}
	}
	name := SanitizeFilename(a.Name)
	f, err := m.Store.Create(name)
	if err != nil {
		return nil, fmt.Errorf("creating file for attachment %q: %w", a.Name, err)
	}
	if _, err := f.Write(content); err != nil {
		_ = m.Store.Remove(f)
		return nil, fmt.Errorf("writing attachment %q: %w", a.Name, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		_ = m.Store.Remove(f)
		return nil, fmt.Errorf("rewinding attachment %q: %w", a.Name, err)
	}
	return message.NewAttachment(name, a.Type, f, m.Store), nil
}

// decodeBase64 decodes standard base64, tolerating line breaks, other whitespace and missing
// padding.
func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}
