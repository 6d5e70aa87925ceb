package daemon

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/dairui1/vibetunnel/pkg/sessions"
)

// New returns a Client that will use the daemon listening on socket if
// available and watching the same control directory as mgr, otherwise falls
// back to a LocalClient over mgr.
//
// Callers don't need to know whether the daemon is running or not. The same
// API works in both modes.
func New(mgr *sessions.Manager, socket string) Client {
	if _, err := os.Stat(socket); err == nil {
		conn, err := net.DialTimeout("unix", socket, 100*time.Millisecond)
		if err == nil {
			conn.Close()
			if client, err := NewRemoteClient(socket); err == nil {
				if sameControlDir(client, mgr.Root()) {
					return client
				}
				client.Close()
			}
		}
	}

	return NewLocalClient(mgr, socket)
}

func sameControlDir(client *RemoteClient, root string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cfg, err := client.GetConfig(ctx)
	if err != nil {
		return false
	}
	return filepath.Clean(cfg.ControlDir) == filepath.Clean(root)
}
