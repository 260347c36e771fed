package mandrill_test

import (
	"encoding/base64"
	"errors"
	"io"
	"testing"

	"github.com/inbucket/inbound/pkg/mandrill"
	"github.com/inbucket/inbound/pkg/message"
	"github.com/inbucket/inbound/pkg/tempstore/mem"
	"github.com/inbucket/inbound/pkg/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, a *message.Attachment) string {
	t.Helper()
	b, err := io.ReadAll(a.File)
	require.NoError(t, err)
	return string(b)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "report.pdf", mandrill.SanitizeFilename("report.pdf"))
	assert.Equal(t, "a_b_c.txt", mandrill.SanitizeFilename(`a/b\c.txt`))
	assert.Equal(t, ".._.._etc_passwd", mandrill.SanitizeFilename("../../etc/passwd"))
}

func TestMaterializeBase64RoundTrip(t *testing.T) {
	store := mem.NewStore()
	m := &mandrill.Materializer{Store: store}
	atts, err := m.Materialize([]*mandrill.Attachment{{
		Name:    "dir/data.bin",
		Type:    "application/octet-stream",
		Content: base64.StdEncoding.EncodeToString([]byte("data")),
		Base64:  true,
	}})
	require.NoError(t, err)
	require.Len(t, atts, 1)

	a := atts[0]
	assert.Equal(t, "dir_data.bin", a.Filename)
	assert.Equal(t, "application/octet-stream", a.ContentType)
	assert.Equal(t, "data", readAll(t, a))

	require.NoError(t, a.Close())
	assert.Equal(t, 0, store.Len())
}

func TestMaterializeVerbatimContent(t *testing.T) {
	m := &mandrill.Materializer{Store: mem.NewStore()}
	atts, err := m.Materialize([]*mandrill.Attachment{{
		Name: "notes.txt", Type: "text/plain", Content: "ZGF0YQ==",
	}})
	require.NoError(t, err)
	require.Len(t, atts, 1)
	assert.Equal(t, "ZGF0YQ==", readAll(t, atts[0]), "content must not be decoded")
}

func TestMaterializeToleratesWrappedBase64(t *testing.T) {
	m := &mandrill.Materializer{Store: mem.NewStore()}
	atts, err := m.Materialize([]*mandrill.Attachment{
		{Name: "wrapped", Content: "aGVsbG8g\r\nd29ybGQ=\n", Base64: true},
		{Name: "unpadded", Content: "ZGF0YQ", Base64: true},
	})
	require.NoError(t, err)
	require.Len(t, atts, 2)
	assert.Equal(t, "hello world", readAll(t, atts[0]))
	assert.Equal(t, "data", readAll(t, atts[1]))
}

func TestMaterializePreservesOrder(t *testing.T) {
	m := &mandrill.Materializer{Store: mem.NewStore()}
	atts, err := m.Materialize([]*mandrill.Attachment{
		{Name: "3.txt", Content: "three"},
		{Name: "1.txt", Content: "one"},
		{Name: "2.txt", Content: "two"},
	})
	require.NoError(t, err)
	require.Len(t, atts, 3)
	assert.Equal(t, "3.txt", atts[0].Filename)
	assert.Equal(t, "1.txt", atts[1].Filename)
	assert.Equal(t, "2.txt", atts[2].Filename)
	assert.Equal(t, "one", readAll(t, atts[1]))
}

func TestMaterializeBadBase64ReleasesEarlierFiles(t *testing.T) {
	store := mem.NewStore()
	m := &mandrill.Materializer{Store: store}
	atts, err := m.Materialize([]*mandrill.Attachment{
		{Name: "good.txt", Content: "fine"},
		{Name: "bad.bin", Content: "!!!not base64!!!", Base64: true},
		{Name: "never.txt", Content: "unreached"},
	})
	assert.ErrorIs(t, err, mandrill.ErrAttachmentDecode)
	assert.Contains(t, err.Error(), "bad.bin")
	assert.Nil(t, atts)
	assert.Equal(t, 0, store.Len())
}

func TestMaterializeWithoutStore(t *testing.T) {
	m := &mandrill.Materializer{}
	_, err := m.Materialize([]*mandrill.Attachment{{Name: "x"}})
	assert.Error(t, err)

	atts, err := m.Materialize(nil)
	require.NoError(t, err)
	assert.Empty(t, atts)
}

func TestMaterializeStoreFailureReleasesEarlierFiles(t *testing.T) {
	first, err := mem.NewStore().Create("first.txt")
	require.NoError(t, err)
	store := &test.MockStore{}
	store.On("Create", "first.txt").Return(first, nil)
	store.On("Create", "second.txt").Return(nil, errors.New("disk full"))
	store.On("Remove", first).Return(nil)
	m := &mandrill.Materializer{Store: store}

	atts, err := m.Materialize([]*mandrill.Attachment{
		{Name: "first.txt", Content: "one"},
		{Name: "second.txt", Content: "two"},
	})

	assert.ErrorContains(t, err, "disk full")
	assert.Nil(t, atts)
	store.AssertCalled(t, "Remove", first)
	store.AssertNumberOfCalls(t, "Create", 2)
}

func TestMaterializeHandsOffSanitizedName(t *testing.T) {
	f, err := mem.NewStore().Create("x")
	require.NoError(t, err)
	store := &test.MockStore{}
	store.On("Create", mock.AnythingOfType("string")).Return(f, nil)
	m := &mandrill.Materializer{Store: store}

	atts, err := m.Materialize([]*mandrill.Attachment{{Name: "../evil.sh", Content: "x"}})
	require.NoError(t, err)
	require.Len(t, atts, 1)
	store.AssertCalled(t, "Create", ".._evil.sh")
	assert.Equal(t, ".._evil.sh", atts[0].Filename)
}
