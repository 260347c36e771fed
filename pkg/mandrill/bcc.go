package mandrill

import (
	"github.com/inbucket/inbound/pkg/stringutil"
)

// InferBCC returns the implicit BCC recipient of a message.  The provider folds the receiving
// address into BCC without reporting it, so when receiving is not the address of any to or cc
// contact it must have been a blind recipient.  The result is empty otherwise.
func InferBCC(to, cc []Contact, receiving string) []string {
	if receiving == "" || hasAddress(to, receiving) || hasAddress(cc, receiving) {
		return []string{}
	}
	return []string{stringutil.FormatAddress(receiving, stringutil.LocalPart(receiving))}
}

func hasAddress(contacts []Contact, address string) bool {
	for _, c := range contacts {
		if c.Address == address {
			return true
		}
	}
	return false
}

// formatContacts renders each contact with stringutil.FormatAddress.
func formatContacts(contacts []Contact) []string {
	out := make([]string, len(contacts))
	for i, c := range contacts {
		out[i] = stringutil.FormatAddress(c.Address, c.Name)
	}
	return out
}
