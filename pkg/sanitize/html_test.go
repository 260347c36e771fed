package sanitize_test

import (
	"testing"

	"github.com/inbucket/inbound/pkg/sanitize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLPassthrough(t *testing.T) {
	testStrings := []string{
		"",
		"plain string",
		"one &lt; two",
		"<p>paragraph</p>",
		"<b>bold</b>",
		"<div><span>text</span></div>",
		"<center>text</center>",
		`<div style="color: red;">styled</div>`,
		`<span style="color: rgb(1,2,3);">fn</span>`,
	}
	for _, ts := range testStrings {
		t.Run(ts, func(t *testing.T) {
			got, err := sanitize.HTML(ts)
			require.NoError(t, err)
			assert.Equal(t, ts, got)
		})
	}
}

func TestHTMLRemovesActiveContent(t *testing.T) {
	testCases := []struct {
		input, want string
	}{
		{`safe<script>nope</script>`, `safe`},
		{`<a onclick="evil()" href="http://x.org/">link</a>`,
			`<a href="http://x.org/" rel="nofollow">link</a>`},
		{`<img src="x" onerror="evil()">`, `<img src="x">`},
		{`<iframe src="http://evil"></iframe>ok`, `ok`},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := sanitize.HTML(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestHTMLFiltersStyles(t *testing.T) {
	testCases := []struct {
		input, want string
	}{
		{`<div style="color: red; position: absolute;">x</div>`,
			`<div style="color: red;">x</div>`},
		{`<div style="position: fixed; top: 0;">x</div>`, `<div>x</div>`},
		{`<span style="background: url(http://tracker/)">x</span>`, `<span>x</span>`},
		{`<span style="color: expression(alert(1))">x</span>`, `<span>x</span>`},
		{`<p STYLE="margin: 0;">x</p>`, `<p style="margin: 0;">x</p>`},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := sanitize.HTML(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
