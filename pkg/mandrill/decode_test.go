package mandrill_test

import (
	"testing"

	"github.com/inbucket/inbound/pkg/mandrill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeKeepsOnlyInboundEvents(t *testing.T) {
	payload := `[
		{"event": "send", "msg": {"subject": "outbound"}},
		{"event": "inbound", "msg": {"subject": "first"}},
		{"event": "hard_bounce"},
		{"event": "inbound", "msg": {"subject": "second"}}
	]`
	events, err := mandrill.Decode([]byte(payload))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "first", events[0].Subject)
	assert.Equal(t, "second", events[1].Subject)
}

func TestDecodeFields(t *testing.T) {
	payload := `[{"event": "inbound", "msg": {
		"to": [["a@x.com", "A"], ["b@x.com", null], ["c@x.com"]],
		"cc": [["d@x.com", "D"]],
		"from_email": "sender@y.com",
		"from_name": "Sender",
		"headers": {"Subject": "hi", "Received": ["one", "two"], "X-Count": 3},
		"subject": "hi",
		"text": "body",
		"html": "<p>body</p>",
		"raw_msg": "raw",
		"email": "recv@x.com",
		"spf": {"result": "pass", "detail": "sender SPF authorized"},
		"dkim": {"signed": true, "valid": false},
		"spam_report": {"score": 1.5},
		"attachments": {"one.txt": {"name": "one.txt", "type": "text/plain", "content": "1", "base64": false}}
	}}]`
	events, err := mandrill.Decode([]byte(payload))
	require.NoError(t, err)
	require.Len(t, events, 1)
	ev := events[0]

	assert.Equal(t, []mandrill.Contact{
		{Address: "a@x.com", Name: "A"},
		{Address: "b@x.com"},
		{Address: "c@x.com"},
	}, ev.To)
	assert.Equal(t, []mandrill.Contact{{Address: "d@x.com", Name: "D"}}, ev.CC)
	assert.Equal(t, "sender@y.com", ev.FromEmail)
	assert.Equal(t, "Sender", ev.FromName)
	assert.Equal(t, mandrill.Header{
		"Subject":  {"hi"},
		"Received": {"one", "two"},
		"X-Count":  {"3"},
	}, ev.Headers)
	assert.Equal(t, "body", ev.Text)
	assert.Equal(t, "<p>body</p>", ev.HTML)
	assert.Equal(t, "raw", ev.RawMsg)
	assert.Equal(t, "recv@x.com", ev.Email)
	require.NotNil(t, ev.SPF)
	assert.Equal(t, "pass", ev.SPF.Result)
	require.NotNil(t, ev.DKIM)
	assert.True(t, ev.DKIM.Signed)
	assert.False(t, ev.DKIM.Valid)
	require.NotNil(t, ev.SpamReport)
	assert.Equal(t, 1.5, ev.SpamReport.Score)
	require.Len(t, ev.Attachments, 1)
	assert.Equal(t, &mandrill.Attachment{Name: "one.txt", Type: "text/plain", Content: "1"},
		ev.Attachments[0])
}

func TestDecodeKeysAreCaseInsensitive(t *testing.T) {
	payload := `[{"event": "inbound", "msg": {"SUBJECT": "loud", "From_Email": "a@b.c",
		"SPF": {"Result": "neutral"}}}]`
	events, err := mandrill.Decode([]byte(payload))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "loud", events[0].Subject)
	assert.Equal(t, "a@b.c", events[0].FromEmail)
	require.NotNil(t, events[0].SPF)
	assert.Equal(t, "neutral", events[0].SPF.Result)
}

func TestDecodeAbsentFields(t *testing.T) {
	events, err := mandrill.Decode([]byte(`[{"event": "inbound", "msg": {}}]`))
	require.NoError(t, err)
	require.Len(t, events, 1)
	ev := events[0]
	assert.Nil(t, ev.To)
	assert.Nil(t, ev.Headers)
	assert.Nil(t, ev.SPF)
	assert.Nil(t, ev.Attachments)
	assert.Equal(t, "", ev.RawMsg)
}

func TestDecodeAttachmentsKeepDocumentOrder(t *testing.T) {
	payload := `[{"event": "inbound", "msg": {"attachments": {
		"zeta.txt": {"name": "zeta.txt"},
		"alpha.txt": {"name": "alpha.txt"},
		"mid.txt": {"name": "mid.txt"}
	}}}]`
	events, err := mandrill.Decode([]byte(payload))
	require.NoError(t, err)
	var names []string
	for _, a := range events[0].Attachments {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"zeta.txt", "alpha.txt", "mid.txt"}, names)
}

func TestDecodeAttachmentsArray(t *testing.T) {
	payload := `[{"event": "inbound", "msg": {"attachments": [
		{"name": "a", "base64": true, "content": "YQ=="},
		{"name": "b"}
	]}}]`
	events, err := mandrill.Decode([]byte(payload))
	require.NoError(t, err)
	require.Len(t, events[0].Attachments, 2)
	assert.True(t, events[0].Attachments[0].Base64)
	assert.Equal(t, "b", events[0].Attachments[1].Name)
}

func TestDecodeBareAddressContact(t *testing.T) {
	events, err := mandrill.Decode([]byte(`[{"event": "inbound", "msg": {"to": ["a@x.com"]}}]`))
	require.NoError(t, err)
	assert.Equal(t, []mandrill.Contact{{Address: "a@x.com"}}, events[0].To)
}

func TestDecodeEmptyArray(t *testing.T) {
	events, err := mandrill.Decode([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestDecodeMalformed(t *testing.T) {
	testCases := []struct {
		name, payload string
	}{
		{"empty", ``},
		{"not json", `mandrill_events=`},
		{"truncated", `[{"event": "inbound", "msg": {`},
		{"object", `{"event": "inbound"}`},
		{"null", `null`},
		{"trailing", `[] []`},
		{"bad envelope", `[42]`},
		{"bad msg", `[{"event": "inbound", "msg": {"to": 7}}]`},
		{"bad attachments", `[{"event": "inbound", "msg": {"attachments": "x"}}]`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := mandrill.Decode([]byte(tc.payload))
			assert.ErrorIs(t, err, mandrill.ErrDecode)
		})
	}
}

func TestDecodeIgnoresMalformedMsgOfOtherEvents(t *testing.T) {
	// Messages of non-inbound events are never decoded.
	events, err := mandrill.Decode([]byte(`[{"event": "send", "msg": {"to": 7}}]`))
	require.NoError(t, err)
	assert.Empty(t, events)
}
