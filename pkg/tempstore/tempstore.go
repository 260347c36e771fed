// Package tempstore provides the temporary storage attachments are materialized into.
package tempstore

import (
	"errors"
	"fmt"
	"io"

	"github.com/inbucket/inbound/pkg/config"
)

// ErrClosed indicates the file has been closed or removed.
var ErrClosed = errors.New("temporary file closed")

// File is a writable, rewindable piece of temporary storage.
type File interface {
	io.ReadWriteSeeker
	io.Closer
	// Name identifies the file within its Store.
	Name() string
}

// Store allocates and releases temporary files.  Each call to Create must return a file that does
// not collide with any other live file, including those created by concurrent callers.  The
// creator of a file owns it until it is handed off, and the final owner must call Remove.
type Store interface {
	Create(name string) (File, error)
	Remove(f File) error
}

// Constructor creates a Store from the storage configuration.
type Constructor func(c config.Storage) (Store, error)

// Constructors maps storage type names to their constructor.
var Constructors = make(map[string]Constructor)

// FromConfig creates the Store named by c.Type.
func FromConfig(c config.Storage) (Store, error) {
	if constructor, ok := Constructors[c.Type]; ok {
		return constructor(c)
	}
	return nil, fmt.Errorf("unknown storage type configured: %q", c.Type)
}
