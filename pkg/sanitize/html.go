// Package sanitize strips active content from inbound HTML bodies while keeping inline styling.
package sanitize

import (
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// policy runs after style attributes have been filtered by sanitizeStyle, so any remaining style
// value is allowed through.
var policy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("center", "font")
	p.AllowAttrs("color", "face", "size").OnElements("font")
	p.AllowAttrs("style").Matching(regexp.MustCompile(`.*`)).Globally()
	return p
}()

// HTML sanitizes the provided HTML document or fragment.
func HTML(input string) (string, error) {
	filtered := &bytes.Buffer{}
	if err := filterStyles(filtered, strings.NewReader(input)); err != nil {
		return "", err
	}
	return policy.Sanitize(filtered.String()), nil
}

// filterStyles copies tokens from r to w, rewriting each style attribute to contain only allowed
// CSS properties.  Empty style attributes are dropped.
func filterStyles(w *bytes.Buffer, r io.Reader) error {
	z := html.NewTokenizer(r)
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return err
			}
			return nil
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if !hasAttr {
				w.Write(z.Raw())
				continue
			}
			w.WriteByte('<')
			w.Write(name)
			for more := true; more; {
				var key, val []byte
				key, val, more = z.TagAttr()
				value := string(val)
				if strings.EqualFold(string(key), "style") {
					if value = sanitizeStyle(value); value == "" {
						continue
					}
				}
				w.WriteByte(' ')
				w.Write(key)
				w.WriteString(`="`)
				w.WriteString(html.EscapeString(value))
				w.WriteByte('"')
			}
			if tt == html.SelfClosingTagToken {
				w.WriteByte('/')
			}
			w.WriteByte('>')
		default:
			w.Write(z.Raw())
		}
	}
}
