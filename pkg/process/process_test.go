package process

import (
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAlive(t *testing.T) {
	assert.True(t, IsAlive(os.Getpid()), "current process should be alive")
	assert.False(t, IsAlive(0))
	assert.False(t, IsAlive(-1))
}

func TestIsAliveAfterExit(t *testing.T) {
	cmd := exec.Command("true")
	require.NoError(t, cmd.Run())

	// The child has been reaped by Run, so its pid no longer names a process.
	assert.False(t, IsAlive(cmd.Process.Pid))
}

func TestCheckerType(t *testing.T) {
	var check Checker = IsAlive
	assert.True(t, check(os.Getpid()))
}

func TestIsAliveOtherUsersProcess(t *testing.T) {
	// pid 1 always exists; for a non-root user the signal check fails with a
	// permission error, which still means alive.
	assert.True(t, IsAlive(1))
}
