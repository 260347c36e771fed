package main

import (
	"testing"

	"github.com/inbucket/inbound/pkg/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMatch(t *testing.T) {
	msg := &message.Message{
		From:    "Sender <sender@example.com>",
		Subject: "Invoice 42",
		To:      []string{"a@example.com", "Billing <billing@example.com>"},
	}
	tests := []struct {
		name              string
		from, subject, to string
		want              bool
	}{
		{name: "no criteria", want: true},
		{name: "from", from: `@example\.com>$`, want: true},
		{name: "from mismatch", from: "^nobody", want: false},
		{name: "subject", subject: `Invoice \d+`, want: true},
		{name: "to any", to: "^Billing", want: true},
		{name: "to none", to: "^zed", want: false},
		{name: "all", from: "sender", subject: "42", to: "a@", want: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			n := &normalizeCmd{}
			require.NoError(t, n.from.Set(tc.from))
			require.NoError(t, n.subject.Set(tc.subject))
			require.NoError(t, n.to.Set(tc.to))
			assert.Equal(t, tc.want, n.match(msg))
		})
	}
}

func TestRegexFlagRejectsInvalid(t *testing.T) {
	var r regexFlag
	assert.Error(t, r.Set("("))
	assert.False(t, r.Defined())
	assert.Equal(t, "", r.String())
}
