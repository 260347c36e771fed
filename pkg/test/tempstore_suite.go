package test

import (
	"io"
	"sync"
	"testing"

	"github.com/inbucket/inbound/pkg/tempstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StoreFactory returns a new store for the test suite.
type StoreFactory func(t *testing.T) (store tempstore.Store, destroy func())

// StoreSuite runs a set of general tests on the provided Store.
func StoreSuite(t *testing.T, factory StoreFactory) {
	testCases := []struct {
		name string
		test func(*testing.T, tempstore.Store)
	}{
		{"write rewind read", testWriteRewindRead},
		{"unique names", testUniqueNames},
		{"hostile names", testHostileNames},
		{"remove", testRemove},
		{"concurrent create", testConcurrentCreate},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store, destroy := factory(t)
			tc.test(t, store)
			destroy()
		})
	}
}

// testWriteRewindRead verifies content survives a write, rewind and read.
func testWriteRewindRead(t *testing.T, store tempstore.Store) {
	f, err := store.Create("report.pdf")
	require.NoError(t, err)
	defer func() { _ = store.Remove(f) }()

	_, err = io.WriteString(f, "first ")
	require.NoError(t, err)
	_, err = io.WriteString(f, "second")
	require.NoError(t, err)
	pos, err := f.Seek(0, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos)

	got, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "first second", string(got))
}

// testUniqueNames verifies files created with the same suggested name do not collide.
func testUniqueNames(t *testing.T, store tempstore.Store) {
	a, err := store.Create("same.txt")
	require.NoError(t, err)
	b, err := store.Create("same.txt")
	require.NoError(t, err)
	assert.NotEqual(t, a.Name(), b.Name())

	_, err = io.WriteString(a, "aaa")
	require.NoError(t, err)
	_, err = io.WriteString(b, "b")
	require.NoError(t, err)
	_, _ = a.Seek(0, io.SeekStart)
	got, err := io.ReadAll(a)
	require.NoError(t, err)
	assert.Equal(t, "aaa", string(got))

	require.NoError(t, store.Remove(a))
	require.NoError(t, store.Remove(b))
}

// testHostileNames verifies suggested names are never interpreted as paths or patterns.
func testHostileNames(t *testing.T, store tempstore.Store) {
	for _, name := range []string{"", "a*b", "../../etc/passwd", `dir\file`} {
		f, err := store.Create(name)
		require.NoError(t, err, "name %q", name)
		require.NoError(t, store.Remove(f))
	}
}

// testRemove verifies a removed file is no longer usable.
func testRemove(t *testing.T, store tempstore.Store) {
	f, err := store.Create("gone.bin")
	require.NoError(t, err)
	require.NoError(t, store.Remove(f))

	_, err = f.Write([]byte("x"))
	assert.Error(t, err)
}

// testConcurrentCreate creates files from multiple goroutines, checking for name collisions.
func testConcurrentCreate(t *testing.T, store tempstore.Store) {
	const n = 20
	names := make(chan string, n)
	wg := &sync.WaitGroup{}
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			f, err := store.Create("attachment.dat")
			if err != nil {
				t.Error(err)
				return
			}
			names <- f.Name()
			_ = store.Remove(f)
		}()
	}
	wg.Wait()
	close(names)
	seen := make(map[string]bool)
	for name := range names {
		if seen[name] {
			t.Errorf("Duplicate file name %q", name)
		}
		seen[name] = true
	}
}
