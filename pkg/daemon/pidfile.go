package daemon

import (
	"fmt"
	"os"
)

// PIDFile is the path of a file holding the process ID; the empty PIDFile is a no-op.
type PIDFile string

// Write records the current process ID.
func (p PIDFile) Write() error {
	if p == "" {
		return nil
	}
	pidf, err := os.Create(string(p))
	if err != nil {
		return err
	}
	fmt.Fprintf(pidf, "%v\n", os.Getpid())
	return pidf.Close()
}

// Remove deletes the file if one was configured.
func (p PIDFile) Remove() error {
	if p == "" {
		return nil
	}
	return os.Remove(string(p))
}
