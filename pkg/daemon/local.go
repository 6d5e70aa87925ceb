package daemon

import (
	"context"

	"github.com/dairui1/vibetunnel/errors"
	"github.com/dairui1/vibetunnel/pkg/sessions"
)

// LocalClient implements Client by calling the session manager directly.
// This is used when the daemon is not running, providing the same API
// but executing all operations in-process.
type LocalClient struct {
	mgr    *sessions.Manager
	socket string
}

// NewLocalClient creates a LocalClient over mgr. socket is only used to
// describe where the daemon would be.
func NewLocalClient(mgr *sessions.Manager, socket string) *LocalClient {
	return &LocalClient{mgr: mgr, socket: socket}
}

// ListSessions lists the control directory, reconciling on the way.
func (c *LocalClient) ListSessions(ctx context.Context) ([]*sessions.Session, error) {
	return c.mgr.List()
}

// GetSession returns one session.
func (c *LocalClient) GetSession(ctx context.Context, id string) (*sessions.Session, error) {
	return c.mgr.Get(id)
}

// CleanupSession removes one session directory.
func (c *LocalClient) CleanupSession(ctx context.Context, id string) error {
	return c.mgr.Cleanup(id)
}

// CleanupExited removes every exited session.
func (c *LocalClient) CleanupExited(ctx context.Context) ([]string, error) {
	return c.mgr.CleanupExited()
}

// StreamSessions returns an error for LocalClient since streaming is only available via daemon.
func (c *LocalClient) StreamSessions(ctx context.Context) (<-chan StateUpdate, error) {
	return nil, errors.DaemonNotRunning(c.socket).
		WithDetail("hint", "start the daemon with 'vt daemon start' for live updates")
}

// GetConfig returns an error for LocalClient since config is only available via daemon.
func (c *LocalClient) GetConfig(ctx context.Context) (*RunningConfig, error) {
	return nil, errors.DaemonNotRunning(c.socket)
}

// IsRunning returns false since this is the local fallback client.
func (c *LocalClient) IsRunning() bool {
	return false
}

// Close is a no-op for LocalClient.
func (c *LocalClient) Close() error {
	return nil
}

// Ensure LocalClient implements Client interface.
var _ Client = (*LocalClient)(nil)
