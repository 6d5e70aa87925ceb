package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode identifies a failure kind. Codes are stable and safe to match on
// from scripts and from other processes reading JSON output.
type ErrorCode string

const (
	// Session store errors
	ErrCodeInvalidSessionID   ErrorCode = "INVALID_SESSION_ID"
	ErrCodeSessionNotFound    ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeSessionExists      ErrorCode = "SESSION_EXISTS"
	ErrCodeSessionDirDeleted  ErrorCode = "SESSION_DIR_DELETED"
	ErrCodeSaveSessionFailed  ErrorCode = "SAVE_SESSION_FAILED"
	ErrCodeStdinWriteFailed   ErrorCode = "STDIN_WRITE_FAILED"
	ErrCodeCleanupFailed      ErrorCode = "CLEANUP_FAILED"
	ErrCodeListSessionsFailed ErrorCode = "LIST_SESSIONS_FAILED"

	// PTY host errors
	ErrCodeSpawnFailed ErrorCode = "SPAWN_FAILED"

	// Configuration errors
	ErrCodeConfigNotFound ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  ErrorCode = "CONFIG_INVALID"

	// Daemon errors
	ErrCodeDaemonNotRunning     ErrorCode = "DAEMON_NOT_RUNNING"
	ErrCodeDaemonAlreadyRunning ErrorCode = "DAEMON_ALREADY_RUNNING"

	// General errors
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Error is a structured error carrying a stable code, a human message and
// optional details such as the session id it concerns.
type Error struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// SessionID returns the session id attached to the error, if any.
func (e *Error) SessionID() string {
	if id, ok := e.Details[DetailSessionID].(string); ok {
		return id
	}
	return ""
}

// ToJSON converts the error to JSON
func (e *Error) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new Error
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an Error
func Wrap(err error, code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is checks if an error is a specific Error code
func Is(err error, code ErrorCode) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	if vtErr, ok := As(err); ok {
		return vtErr.Code
	}
	return ""
}

// As returns the first *Error in the chain of err. Joined errors are
// searched in order.
func As(err error) (*Error, bool) {
	for err != nil {
		if vtErr, ok := err.(*Error); ok {
			return vtErr, true
		}
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				if vtErr, ok := As(e); ok {
					return vtErr, true
				}
			}
			return nil, false
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = unwrapper.Unwrap()
	}
	return nil, false
}
