package pidfile

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/dairui1/vibetunnel/errors"
	"github.com/dairui1/vibetunnel/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "vtd.pid")

	require.NoError(t, Acquire(path))
	pid, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)

	running, got, err := IsRunning(path)
	require.NoError(t, err)
	assert.True(t, running)
	assert.Equal(t, os.Getpid(), got)

	require.NoError(t, Release(path))
	require.NoError(t, Release(path))

	running, _, err = IsRunning(path)
	require.NoError(t, err)
	assert.False(t, running)
}

func TestAcquireReplacesStaleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vtd.pid")
	dead := testutil.DeadPID(t)
	require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(dead)), 0644))

	require.NoError(t, Acquire(path))
	pid, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
}

func TestAcquireRefusesLiveOwner(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vtd.pid")
	// The parent of the test binary is alive for the duration of the test.
	require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(os.Getppid())), 0644))

	err := Acquire(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeDaemonAlreadyRunning))
}

func TestIsRunningGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vtd.pid")
	require.NoError(t, os.WriteFile(path, []byte("not a pid"), 0644))

	running, pid, err := IsRunning(path)
	require.NoError(t, err)
	assert.False(t, running)
	assert.Zero(t, pid)
}
