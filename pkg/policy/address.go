// Package policy decides which receiving addresses the webhook accepts.
package policy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/inbucket/inbound/pkg/config"
	"github.com/inbucket/inbound/pkg/stringutil"
)

// Domains filters inbound events by the domain of their receiving address.
type Domains struct {
	DefaultAccept bool
	// Accept lists the domains accepted when DefaultAccept is false.
	Accept []string
	// Reject lists the domains refused when DefaultAccept is true.
	Reject []string
}

// NewDomains creates a Domains policy from the webhook configuration.
func NewDomains(c config.Webhook) *Domains {
	d := &Domains{
		DefaultAccept: c.DefaultAccept,
		Accept:        append([]string(nil), c.AcceptDomains...),
		Reject:        append([]string(nil), c.RejectDomains...),
	}
	stringutil.SliceToLower(d.Accept)
	stringutil.SliceToLower(d.Reject)
	return d
}

// ShouldAcceptDomain indicates if mail received for the specified domain is processed.
func (d *Domains) ShouldAcceptDomain(domain string) bool {
	domain = strings.ToLower(domain)
	if d.DefaultAccept {
		return !stringutil.SliceContains(d.Reject, domain)
	}
	return stringutil.SliceContains(d.Accept, domain)
}

// ShouldAccept judges a receiving address by its domain.  An address that cannot be parsed has
// no domain, so only a default accept policy lets it through.
func (d *Domains) ShouldAccept(address string) bool {
	_, domain, err := ParseEmailAddress(address)
	if err != nil {
		return d.DefaultAccept
	}
	return d.ShouldAcceptDomain(domain)
}

// ParseEmailAddress unescapes an email address, and splits the local part from the domain part.
// An error is returned if the local or domain parts fail validation following the guidelines
// in RFC3696.
func ParseEmailAddress(address string) (local string, domain string, err error) {
	at, err := scanLocalPart(address)
	if err != nil {
		return "", "", err
	}
	if at < 0 {
		return "", "", errors.New("missing @ and domain part")
	}
	domain = address[at+1:]
	if !ValidateDomainPart(domain) {
		return "", "", fmt.Errorf("domain part %q failed validation", domain)
	}
	local, err = unquoteLocalPart(address[:at])
	return local, domain, err
}

// ValidateDomainPart returns true if the domain part complies to RFC3696, RFC1035.
func ValidateDomainPart(domain string) bool {
	if domain == "" || len(domain) > 255 {
		return false
	}
	domain = strings.TrimSuffix(domain, ".")
	for _, label := range strings.Split(domain, ".") {
		if !validLabel(label) {
			return false
		}
	}
	return true
}

func validLabel(label string) bool {
	if label == "" || len(label) > 63 {
		return false
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}
	hasAlphaNum := false
	for i := 0; i < len(label); i++ {
		c := label[i]
		switch {
		case isAlphaNum(c) || c == '_':
			hasAlphaNum = true
		case c == '-':
		default:
			return false
		}
	}
	return hasAlphaNum
}

// localSpecials may appear unquoted in a local part.
const localSpecials = "!#$%&'*+-/=?^_`{|}~"

func isAlphaNum(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// scanLocalPart validates the local part of address and returns the index of the @ that ends it,
// or -1 if there is none.
func scanLocalPart(address string) (int, error) {
	switch {
	case address == "":
		return -1, errors.New("empty address")
	case len(address) > 320:
		return -1, errors.New("address exceeds 320 characters")
	case address[0] == '@':
		return -1, errors.New("address cannot start with @ symbol")
	case address[0] == '.':
		return -1, errors.New("address cannot start with a period")
	}
	prev := byte('.')
	escaped, quoted := false, false
	for i := 0; i < len(address); i++ {
		c := address[i]
		if c > 127 {
			return -1, errors.New("characters outside of US-ASCII range not permitted")
		}
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			if !quoted && i != 0 {
				return -1, errors.New("quoted string can only begin at start of address")
			}
			quoted = !quoted
		case quoted:
		case c == '@':
			if i > 128 {
				return -1, errors.New("local part must not exceed 128 characters")
			}
			if prev == '.' {
				return -1, errors.New("local part cannot end with a period")
			}
			return i, nil
		case c == '.':
			if prev == '.' {
				return -1, errors.New("sequence of periods is not permitted")
			}
		case isAlphaNum(c) || strings.IndexByte(localSpecials, c) >= 0:
		default:
			return -1, fmt.Errorf("character %q must be quoted", c)
		}
		prev = c
	}
	if escaped {
		return -1, errors.New("cannot end address with unterminated quoted-pair")
	}
	if quoted {
		return -1, errors.New("cannot end address with unterminated string quote")
	}
	return -1, nil
}

// unquoteLocalPart removes quoted-pair escapes and string quotes from a validated local part.
func unquoteLocalPart(local string) (string, error) {
	var b strings.Builder
	escaped := false
	for i := 0; i < len(local); i++ {
		c := local[i]
		switch {
		case escaped:
			b.WriteByte(c)
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
		default:
			b.WriteByte(c)
		}
	}
	if b.Len() == 0 {
		return "", errors.New("empty local part")
	}
	return b.String(), nil
}
