package mem

import (
	"errors"
	"io"
	"sync"

	"github.com/inbucket/inbound/pkg/tempstore"
)

// File is an in-memory tempstore.File.
type File struct {
	mu     sync.Mutex
	name   string
	data   []byte
	off    int64
	closed bool
}

var _ tempstore.File = &File{}

// Name of the file within its store.
func (f *File) Name() string {
	return f.name
}

// Read implements io.Reader.
func (f *File) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, tempstore.ErrClosed
	}
	if f.off >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.data[f.off:])
	f.off += int64(n)
	return n, nil
}

// Write implements io.Writer, growing the file as needed.
func (f *File) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, tempstore.ErrClosed
	}
	end := f.off + int64(len(p))
	if end > int64(len(f.data)) {
		grown := make([]byte, end)
		copy(grown, f.data)
		f.data = grown
	}
	copy(f.data[f.off:], p)
	f.off = end
	return len(p), nil
}

// Seek implements io.Seeker.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, tempstore.ErrClosed
	}
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = f.off + offset
	case io.SeekEnd:
		abs = int64(len(f.data)) + offset
	default:
		return 0, errors.New("mem.File.Seek: invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("mem.File.Seek: negative position")
	}
	f.off = abs
	return abs, nil
}

// Close marks the file closed; further reads and writes fail.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	return nil
}
