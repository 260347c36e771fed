// Package mem implements an in-memory tempstore, useful for tests and dry runs.
package mem

import (
	"fmt"
	"sync"

	"github.com/inbucket/inbound/pkg/config"
	"github.com/inbucket/inbound/pkg/tempstore"
)

// Store holds files in memory until they are removed.
type Store struct {
	sync.Mutex
	files map[string]*File
	seq   int
}

var _ tempstore.Store = &Store{}

// New creates an empty in-memory store.
func New(_ config.Storage) (tempstore.Store, error) {
	return NewStore(), nil
}

// NewStore creates an empty in-memory store, typed for callers that need Len.
func NewStore() *Store {
	return &Store{files: make(map[string]*File)}
}

// Create allocates a new empty file.
func (s *Store) Create(name string) (tempstore.File, error) {
	s.Lock()
	defer s.Unlock()

	s.seq++
	f := &File{name: fmt.Sprintf("mem-%d-%s", s.seq, name)}
	s.files[f.name] = f
	return f, nil
}

// Remove closes the file and drops its contents.
func (s *Store) Remove(f tempstore.File) error {
	s.Lock()
	defer s.Unlock()

	mf, ok := s.files[f.Name()]
	if !ok {
		return fmt.Errorf("file %q not in store", f.Name())
	}
	delete(s.files, mf.name)
	return mf.Close()
}

// Len returns the number of files not yet removed.
func (s *Store) Len() int {
	s.Lock()
	defer s.Unlock()

	return len(s.files)
}
