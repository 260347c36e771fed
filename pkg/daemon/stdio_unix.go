//go:build unix

package daemon

import (
	"os"

	"github.com/rs/zerolog/log"
)

func closeStdin() {
	if err := os.Stdin.Close(); err != nil {
		log.Warn().Str("module", "daemon").Err(err).Msg("Failed to close stdin")
	}
}

// redirectStdio points fds 1 and 2 at logf, see https://github.com/golang/go/issues/325
func redirectStdio(logf *os.File) error {
	fd := int(logf.Fd())
	if err := dup(fd, 1); err != nil {
		return err
	}
	return dup(fd, 2)
}
