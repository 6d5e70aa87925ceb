// Package daemon provides a client for the session monitor daemon (vtd).
// It implements a transparent fallback pattern: if the daemon is running,
// requests go over its unix socket; if not, the same calls run directly
// against the control directory.
package daemon

import (
	"context"
	"time"

	"github.com/dairui1/vibetunnel/pkg/sessions"
)

// Client defines the interface for reading and managing sessions, either
// through the daemon (RemoteClient) or in-process (LocalClient).
type Client interface {
	// ListSessions returns every session, newest first.
	ListSessions(ctx context.Context) ([]*sessions.Session, error)

	// GetSession returns one session or SESSION_NOT_FOUND.
	GetSession(ctx context.Context, id string) (*sessions.Session, error)

	// CleanupSession removes a session directory. Missing sessions are fine.
	CleanupSession(ctx context.Context, id string) error

	// CleanupExited removes every exited session and returns the removed ids.
	CleanupExited(ctx context.Context) ([]string, error)

	// StreamSessions subscribes to session list updates. Only the daemon can
	// stream; LocalClient returns DAEMON_NOT_RUNNING.
	StreamSessions(ctx context.Context) (<-chan StateUpdate, error)

	// GetConfig returns the settings the daemon is running with.
	GetConfig(ctx context.Context) (*RunningConfig, error)

	// IsRunning returns true if the daemon is available and responding.
	IsRunning() bool

	// Close cleans up any resources used by the client.
	Close() error
}

// StateUpdate is one event on the daemon's stream.
type StateUpdate struct {
	Sessions   []*sessions.Session `json:"sessions,omitempty"`
	Removed    []string            `json:"removed,omitempty"`
	UpdateType string              `json:"updateType"` // "initial", "sessions", "removed"
	Source     string              `json:"source,omitempty"`
	Scanned    int                 `json:"scanned,omitempty"`
}

// RunningConfig holds the settings the daemon is running with. It is served
// at /api/config so clients can check what is active.
type RunningConfig struct {
	ControlDir      string        `json:"controlDir"`
	Socket          string        `json:"socket"`
	MonitorInterval time.Duration `json:"monitorInterval"`
	Watch           bool          `json:"watch"`
	Debounce        time.Duration `json:"debounce"`
	Collectors      []string      `json:"collectors"`
	Pid             int           `json:"pid"`
	StartedAt       time.Time     `json:"startedAt"`
}

// CleanupResult is the body returned by POST /api/cleanup-exited.
type CleanupResult struct {
	Removed []string `json:"removed"`
	Errors  []string `json:"errors,omitempty"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
