// Package file implements a tempstore backed by files in a local directory.
package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/inbucket/inbound/pkg/config"
	"github.com/inbucket/inbound/pkg/tempstore"
	"github.com/rs/zerolog/log"
)

// Longest portion of the suggested name carried into the file name.
const maxNameLen = 100

// filePrefix starts the name of every file the store creates.
const filePrefix = "inbound-"

// defaultDirName is the subdirectory of the system temp directory used when none is configured.
const defaultDirName = "inbound"

// Store creates temporary files in a directory.
type Store struct {
	dir string
}

var _ tempstore.Store = &Store{}

// New creates a Store using the configured directory, or an inbound directory under the system
// temp directory when none is configured.  The directory is created if missing.
func New(c config.Storage) (tempstore.Store, error) {
	dir := storeDir(c)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating temp dir %q: %w", dir, err)
	}
	log.Debug().Str("module", "tempstore").Str("dir", dir).Msg("Using file attachment store")
	return &Store{dir: dir}, nil
}

// Create opens a new, uniquely named file in the store directory.  The suggested name is kept as
// a suffix so the file remains recognizable.
func (s *Store) Create(name string) (tempstore.File, error) {
	f, err := os.CreateTemp(s.dir, filePrefix+"*-"+patternSafe(name))
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Remove closes and deletes the file.
func (s *Store) Remove(f tempstore.File) error {
	if err := f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	if err := os.Remove(f.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// storeDir is the directory files are created in for c.
func storeDir(c config.Storage) string {
	if c.TempDir == "" {
		return filepath.Join(os.TempDir(), defaultDirName)
	}
	return c.TempDir
}

// patternSafe makes name usable in an os.CreateTemp pattern.
func patternSafe(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '*', 0:
			return '_'
		}
		return r
	}, name)
	if len(name) > maxNameLen {
		start := len(name) - maxNameLen
		for start < len(name) && !utf8.RuneStart(name[start]) {
			start++
		}
		name = name[start:]
	}
	return name
}
