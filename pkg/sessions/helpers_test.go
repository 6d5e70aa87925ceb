package sessions

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/dairui1/vibetunnel/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger.WithField("component", "sessions-test")
}

// fakeProcs is a liveness checker whose answers tests control.
type fakeProcs struct {
	mu    sync.Mutex
	alive map[int]bool
}

func newFakeProcs(pids ...int) *fakeProcs {
	f := &fakeProcs{alive: make(map[int]bool)}
	for _, pid := range pids {
		f.alive[pid] = true
	}
	return f
}

func (f *fakeProcs) check(pid int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alive[pid]
}

func (f *fakeProcs) kill(pid int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.alive, pid)
}

func newTestManager(t *testing.T, procs *fakeProcs) (*Manager, string) {
	t.Helper()

	root := testutil.NewControlRoot(t)
	if procs == nil {
		procs = newFakeProcs()
	}
	m, err := NewManager(root,
		WithLogger(quietLogger()),
		WithLivenessChecker(procs.check),
		WithClock(func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }),
	)
	require.NoError(t, err)
	return m, root
}

func intPtr(v int) *int { return &v }
