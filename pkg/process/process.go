// Package process answers liveness questions about OS processes by pid.
package process

// Checker reports whether the process with the given pid is alive.
// Components that reconcile session state take a Checker so tests can
// substitute a deterministic answer.
type Checker func(pid int) bool

// IsAlive checks if a process with the given PID is still running.
// Non-positive pids are never alive.
func IsAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return signalZero(pid)
}
