// Package daemon holds process level helpers for the long running server.
package daemon

import (
	"os"

	"github.com/rs/zerolog/log"
)

// Detach closes stdin and points stdout and stderr at logf, so that stray output and panics end up
// in the log file rather than a terminal that may be gone.
func Detach(logf *os.File) {
	closeStdin()
	if err := redirectStdio(logf); err != nil {
		// Not considered fatal
		log.Error().Str("module", "daemon").Err(err).Msg("Failed to redirect stdout to logfile")
	}
}
