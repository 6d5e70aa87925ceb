//go:build unix

package process

import (
	"golang.org/x/sys/unix"
)

// Signal 0 performs the existence and permission checks of kill(2) without
// delivering anything. EPERM means the process exists but belongs to another
// user, so it counts as alive. ESRCH (or any other error) means it is gone.
func signalZero(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}
