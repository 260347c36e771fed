package mem

import (
	"io"
	"testing"

	"github.com/inbucket/inbound/pkg/config"
	"github.com/inbucket/inbound/pkg/tempstore"
	"github.com/inbucket/inbound/pkg/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSuite runs the tempstore test suite on the memory store.
func TestSuite(t *testing.T) {
	test.StoreSuite(t, func(t *testing.T) (tempstore.Store, func()) {
		s := NewStore()
		destroy := func() {
			assert.Equal(t, 0, s.Len(), "files left in store")
		}
		return s, destroy
	})
}

func TestNewFromConfig(t *testing.T) {
	s, err := New(config.Storage{Type: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &Store{}, s)
}

func TestSeekPastEndThenWrite(t *testing.T) {
	s := NewStore()
	f, err := s.Create("sparse")
	require.NoError(t, err)

	_, err = f.Seek(3, io.SeekStart)
	require.NoError(t, err)
	_, err = f.Write([]byte("x"))
	require.NoError(t, err)

	end, err := f.Seek(0, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(4), end)
	_, err = f.Seek(-1, io.SeekCurrent)
	require.NoError(t, err)
	b, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "x", string(b))

	_, err = f.Seek(-10, io.SeekStart)
	assert.Error(t, err)
}

func TestRemoveUnknownFile(t *testing.T) {
	a := NewStore()
	b := NewStore()
	f, err := a.Create("x")
	require.NoError(t, err)
	assert.Error(t, b.Remove(f))
	assert.Equal(t, 1, a.Len())
}
