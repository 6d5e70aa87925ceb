package errors

import (
	"fmt"
	"os/exec"
)

// DetailSessionID is the detail key under which session errors carry their id.
const DetailSessionID = "sessionId"

// InvalidSessionID is returned before any filesystem access when an id is
// empty or contains characters outside [A-Za-z0-9_-].
func InvalidSessionID(id string) *Error {
	return New(ErrCodeInvalidSessionID,
		fmt.Sprintf("invalid session id %q: only letters, digits, '_' and '-' are allowed", id)).
		WithDetail(DetailSessionID, id)
}

// SessionNotFound creates a session not found error
func SessionNotFound(id string) *Error {
	return New(ErrCodeSessionNotFound, fmt.Sprintf("session '%s' not found", id)).
		WithDetail(DetailSessionID, id)
}

// SessionExists is returned when creating a session whose record already exists.
func SessionExists(id string) *Error {
	return New(ErrCodeSessionExists, fmt.Sprintf("session '%s' already exists", id)).
		WithDetail(DetailSessionID, id)
}

// SessionDirDeleted reports that the session directory vanished between the
// temp write and the rename of a save.
func SessionDirDeleted(id string) *Error {
	return New(ErrCodeSessionDirDeleted,
		fmt.Sprintf("session '%s' directory was deleted during save", id)).
		WithDetail(DetailSessionID, id)
}

// SaveSessionFailed wraps an I/O failure while persisting a session record.
func SaveSessionFailed(id string, err error) *Error {
	return Wrap(err, ErrCodeSaveSessionFailed, fmt.Sprintf("failed to save session '%s'", id)).
		WithDetail(DetailSessionID, id)
}

// StdinWriteFailed wraps a failure to deliver input to a session's stdin channel.
func StdinWriteFailed(id string, err error) *Error {
	return Wrap(err, ErrCodeStdinWriteFailed, fmt.Sprintf("failed to write to stdin of session '%s'", id)).
		WithDetail(DetailSessionID, id)
}

// CleanupFailed wraps a failure to remove a session directory.
func CleanupFailed(id string, err error) *Error {
	return Wrap(err, ErrCodeCleanupFailed, fmt.Sprintf("failed to clean up session '%s'", id)).
		WithDetail(DetailSessionID, id)
}

// ListSessionsFailed wraps a failure to read the control root itself.
func ListSessionsFailed(root string, err error) *Error {
	return Wrap(err, ErrCodeListSessionsFailed, fmt.Sprintf("failed to list sessions in %s", root)).
		WithDetail("controlDir", root)
}

// SpawnFailed creates a PTY spawn failure error
func SpawnFailed(id string, argv []string, err error) *Error {
	vtErr := Wrap(err, ErrCodeSpawnFailed, fmt.Sprintf("failed to spawn %v for session '%s'", argv, id)).
		WithDetail(DetailSessionID, id)

	if exitErr, ok := err.(*exec.ExitError); ok {
		vtErr = vtErr.WithDetail("exitCode", exitErr.ExitCode())
	}

	return vtErr
}

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *Error {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *Error {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// DaemonNotRunning creates an error for commands that need the monitor daemon.
func DaemonNotRunning(socket string) *Error {
	return New(ErrCodeDaemonNotRunning, "session monitor daemon is not running").
		WithDetail("socket", socket)
}

// DaemonAlreadyRunning is returned when the pid file names a live process.
func DaemonAlreadyRunning(pid int) *Error {
	return New(ErrCodeDaemonAlreadyRunning, fmt.Sprintf("daemon already running with PID %d", pid)).
		WithDetail("pid", pid)
}
