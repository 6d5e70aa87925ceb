package server

import (
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dairui1/vibetunnel/errors"
	"github.com/dairui1/vibetunnel/internal/daemon/engine"
	"github.com/dairui1/vibetunnel/internal/daemon/store"
	"github.com/dairui1/vibetunnel/pkg/daemon"
	"github.com/dairui1/vibetunnel/pkg/sessions"
	"github.com/dairui1/vibetunnel/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	mgr    *sessions.Manager
	root   string
	eng    *engine.Engine
	client *daemon.RemoteClient
	socket string
}

// startServer runs a daemon API on a fresh socket with no collectors, so
// tests control exactly what the store holds.
func startServer(t *testing.T) *fixture {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	entry := logger.WithField("component", "server-test")

	root := testutil.NewControlRoot(t)
	mgr, err := sessions.NewManager(root,
		sessions.WithLogger(entry),
		sessions.WithLivenessChecker(func(pid int) bool { return pid == 10 }),
	)
	require.NoError(t, err)

	// Unix socket paths are length-limited; keep this one short.
	sockDir, err := os.MkdirTemp("", "vtd")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(sockDir) })
	socket := filepath.Join(sockDir, "vtd.sock")

	eng := engine.New(store.New(), entry)
	srv := New(mgr, entry)
	srv.SetEngine(eng)
	srv.SetRunningConfig(&daemon.RunningConfig{
		ControlDir:      root,
		Socket:          socket,
		MonitorInterval: time.Second,
		Watch:           true,
		Pid:             os.Getpid(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	go eng.Start(ctx)

	listener, err := net.Listen("unix", socket)
	require.NoError(t, err)
	go func() { _ = srv.Serve(listener) }()

	t.Cleanup(func() {
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
		defer done()
		_ = srv.Shutdown(shutdownCtx)
	})

	client, err := daemon.NewRemoteClient(socket)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	require.Eventually(t, client.IsRunning, 2*time.Second, 10*time.Millisecond)
	return &fixture{mgr: mgr, root: root, eng: eng, client: client, socket: socket}
}

func TestListAndGetSessions(t *testing.T) {
	f := startServer(t)
	ctx := context.Background()

	testutil.WriteRecord(t, f.root, "alive", map[string]interface{}{"status": "running", "pid": 10, "startedAt": "2024-02-01T00:00:00Z"})
	testutil.WriteRecord(t, f.root, "dead", map[string]interface{}{"status": "running", "pid": 20, "startedAt": "2024-01-01T00:00:00Z"})

	// Nothing collected yet, so the control directory is read directly.
	list, err := f.client.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alive", list[0].ID)
	assert.Equal(t, sessions.StatusExited, list[1].Record.Status)

	s, err := f.client.GetSession(ctx, "alive")
	require.NoError(t, err)
	assert.Equal(t, sessions.StatusRunning, s.Record.Status)
	assert.Equal(t, 10, *s.Record.Pid)

	_, err = f.client.GetSession(ctx, "missing")
	assert.True(t, errors.Is(err, errors.ErrCodeSessionNotFound))

	_, err = f.client.GetSession(ctx, "bad id")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidSessionID))
}

func TestListNeverServesStaleSnapshot(t *testing.T) {
	f := startServer(t)
	ctx := context.Background()

	testutil.WriteRecord(t, f.root, "dead", map[string]interface{}{"status": "running", "pid": 20, "startedAt": "2024-01-01T00:00:00Z"})
	f.eng.Publish(store.Update{Type: store.UpdateSessions, Source: "test", Payload: []*sessions.Session{
		{ID: "dead", Record: &sessions.Record{Status: sessions.StatusRunning, Pid: intPtr(20)}},
		{ID: "gone", Record: &sessions.Record{Status: sessions.StatusExited}},
	}})

	list, err := f.client.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "dead", list[0].ID)
	assert.Equal(t, sessions.StatusExited, list[0].Record.Status)
	assert.Equal(t, 1, *list[0].Record.ExitCode)

	require.Eventually(t, func() bool {
		_, cached := f.eng.Store().GetSession("gone")
		s, ok := f.eng.Store().GetSession("dead")
		return !cached && ok && s.Record.Status == sessions.StatusExited
	}, 2*time.Second, 10*time.Millisecond)
}

func intPtr(v int) *int { return &v }

func TestCleanupEndpoints(t *testing.T) {
	f := startServer(t)
	ctx := context.Background()

	_, err := f.mgr.Create(sessions.CreateOptions{ID: "abc-123"})
	require.NoError(t, err)
	testutil.WriteRecord(t, f.root, "done-1", map[string]interface{}{"status": "exited", "exitCode": 0})
	testutil.WriteRecord(t, f.root, "done-2", map[string]interface{}{"status": "exited", "exitCode": 1})

	require.NoError(t, f.client.CleanupSession(ctx, "abc-123"))
	require.NoError(t, f.client.CleanupSession(ctx, "abc-123"))
	_, err = os.Stat(filepath.Join(f.root, "abc-123"))
	assert.True(t, os.IsNotExist(err))

	removed, err := f.client.CleanupExited(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"done-1", "done-2"}, removed)

	removed, err = f.client.CleanupExited(ctx)
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestStreamSessions(t *testing.T) {
	f := startServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := f.client.StreamSessions(ctx)
	require.NoError(t, err)

	first := <-updates
	assert.Equal(t, "initial", first.UpdateType)

	// Wait until the stream handler has subscribed before publishing.
	time.Sleep(50 * time.Millisecond)
	f.eng.Publish(store.Update{Type: store.UpdateSessions, Source: "test", Payload: []*sessions.Session{
		{ID: "streamed", Record: &sessions.Record{Status: sessions.StatusStarting}},
	}})
	f.eng.Publish(store.Update{Type: store.UpdateRemoved, Source: "api", Payload: []string{"streamed"}})

	var got []daemon.StateUpdate
	timeout := time.After(3 * time.Second)
	for len(got) < 2 {
		select {
		case u, ok := <-updates:
			require.True(t, ok, "stream closed early")
			got = append(got, u)
		case <-timeout:
			t.Fatalf("received %d updates, want 2", len(got))
		}
	}

	assert.Equal(t, "sessions", got[0].UpdateType)
	require.Len(t, got[0].Sessions, 1)
	assert.Equal(t, "streamed", got[0].Sessions[0].ID)
	assert.Equal(t, "removed", got[1].UpdateType)
	assert.Equal(t, []string{"streamed"}, got[1].Removed)
}

func TestGetConfig(t *testing.T) {
	f := startServer(t)

	cfg, err := f.client.GetConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, f.root, cfg.ControlDir)
	assert.Equal(t, time.Second, cfg.MonitorInterval)
	assert.True(t, cfg.Watch)
}

func TestFactoryPicksRemoteForSameRoot(t *testing.T) {
	f := startServer(t)

	client := daemon.New(f.mgr, f.socket)
	defer client.Close()
	assert.True(t, client.IsRunning())

	other, err := sessions.NewManager(testutil.NewControlRoot(t))
	require.NoError(t, err)
	local := daemon.New(other, f.socket)
	assert.False(t, local.IsRunning(), "a daemon watching another root is not used")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, 404, statusFor(errors.ErrCodeSessionNotFound))
	assert.Equal(t, 400, statusFor(errors.ErrCodeInvalidSessionID))
	assert.Equal(t, 409, statusFor(errors.ErrCodeSessionExists))
	assert.Equal(t, 500, statusFor(errors.ErrCodeCleanupFailed))
}
