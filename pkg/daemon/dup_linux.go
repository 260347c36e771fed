package daemon

import "golang.org/x/sys/unix"

// dup uses Dup3, linux/arm64 has no dup2 syscall.
func dup(oldfd, newfd int) error {
	return unix.Dup3(oldfd, newfd, 0)
}
