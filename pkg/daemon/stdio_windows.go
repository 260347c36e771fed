package daemon

import (
	"os"
)

// closeStdin does nothing on Windows, it would always fail
func closeStdin() {}

// redirectStdio replaces the std* streams with logf on systems without dup2.  Panic output will be
// lost.
func redirectStdio(logf *os.File) error {
	if err := os.Stderr.Close(); err != nil {
		return err
	}
	os.Stdout = logf
	os.Stderr = logf
	return nil
}
