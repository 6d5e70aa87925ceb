package sessions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dairui1/vibetunnel/errors"
	"github.com/dairui1/vibetunnel/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileDemotesDeadProcess(t *testing.T) {
	procs := newFakeProcs()
	m, root := newTestManager(t, procs)
	testutil.WriteRecord(t, root, "abc-123", map[string]interface{}{
		"status":    "running",
		"pid":       777,
		"startedAt": "2024-05-01T10:00:00Z",
		"cmdline":   []string{"bash"},
	})

	rec, err := m.Store().Load("abc-123")
	require.NoError(t, err)

	updated, changed, err := m.Reconciler().Reconcile("abc-123", rec)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, StatusExited, updated.Status)
	assert.Equal(t, DefaultExitCode, *updated.ExitCode)
	assert.Equal(t, StatusRunning, rec.Status, "input record is not mutated")

	onDisk := testutil.ReadJSON(t, filepath.Join(root, "abc-123", MetadataFile))
	assert.Equal(t, "exited", onDisk["status"])
	assert.EqualValues(t, 1, onDisk["exitCode"])
	assert.EqualValues(t, 777, onDisk["pid"])
	assert.Equal(t, "2024-05-01T10:00:00Z", onDisk["startedAt"])

	// A second pass has nothing to do.
	again, changed, err := m.Reconciler().Reconcile("abc-123", updated)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Same(t, updated, again)
}

func TestReconcileKeepsRecordedExitCode(t *testing.T) {
	m, root := newTestManager(t, nil)
	testutil.WriteRecord(t, root, "abc-123", map[string]interface{}{
		"status":   "running",
		"pid":      777,
		"exitCode": 42,
	})

	rec, err := m.Store().Load("abc-123")
	require.NoError(t, err)
	updated, changed, err := m.Reconciler().Reconcile("abc-123", rec)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 42, *updated.ExitCode)
}

func TestReconcileLeavesOtherRecordsAlone(t *testing.T) {
	procs := newFakeProcs(555)
	m, _ := newTestManager(t, procs)

	tests := []struct {
		name string
		rec  *Record
	}{
		{"alive", &Record{Status: StatusRunning, Pid: intPtr(555)}},
		{"starting", &Record{Status: StatusStarting}},
		{"exited", &Record{Status: StatusExited, Pid: intPtr(9), ExitCode: intPtr(0)}},
		{"running without pid", &Record{Status: StatusRunning}},
		{"nil", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed, err := m.Reconciler().Reconcile("abc-123", tt.rec)
			require.NoError(t, err)
			assert.False(t, changed)
			assert.Same(t, tt.rec, got)
		})
	}

	// Nothing was written for any of them.
	_, err := os.Stat(filepath.Join(m.Root(), "abc-123"))
	assert.True(t, os.IsNotExist(err))
}

func TestReconcileDoesNotResurrectDeletedSession(t *testing.T) {
	m, root := newTestManager(t, nil)
	rec := &Record{Status: StatusRunning, Pid: intPtr(777)}

	_, changed, err := m.Reconciler().Reconcile("gone", rec)
	require.Error(t, err)
	assert.False(t, changed)
	assert.True(t, errors.Is(err, errors.ErrCodeSessionDirDeleted))

	_, statErr := os.Stat(filepath.Join(root, "gone"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestReconcileAll(t *testing.T) {
	procs := newFakeProcs(100)
	m, root := newTestManager(t, procs)

	testutil.WriteRecord(t, root, "alive", map[string]interface{}{"status": "running", "pid": 100})
	testutil.WriteRecord(t, root, "dead-1", map[string]interface{}{"status": "running", "pid": 200})
	testutil.WriteRecord(t, root, "dead-2", map[string]interface{}{"status": "running", "pid": 300})
	testutil.WriteRecord(t, root, "done", map[string]interface{}{"status": "exited", "exitCode": 0})
	testutil.WriteRaw(t, root, "corrupt", MetadataFile, "{")
	testutil.WriteRaw(t, root, "bad name!", MetadataFile, `{"status":"running","pid":400}`)

	demoted, err := m.ReconcileAll()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"dead-1", "dead-2"}, demoted)

	alive, err := m.Store().Load("alive")
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, alive.Status)

	// Idempotent once everything is settled.
	demoted, err = m.ReconcileAll()
	require.NoError(t, err)
	assert.Empty(t, demoted)

	// A process dying later is picked up by the next pass.
	procs.kill(100)
	demoted, err = m.ReconcileAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"alive"}, demoted)
}

func TestReconcileAllMissingRoot(t *testing.T) {
	m, root := newTestManager(t, nil)
	require.NoError(t, os.RemoveAll(root))

	demoted, err := m.ReconcileAll()
	require.NoError(t, err)
	assert.Empty(t, demoted)
}

func TestReconcileWithRealProcess(t *testing.T) {
	root := testutil.NewControlRoot(t)
	m, err := NewManager(root, WithLogger(quietLogger()))
	require.NoError(t, err)

	pid := testutil.DeadPID(t)
	testutil.WriteRecord(t, root, "real", map[string]interface{}{"status": "running", "pid": pid})
	testutil.WriteRecord(t, root, "self", map[string]interface{}{"status": "running", "pid": os.Getpid()})

	demoted, err := m.ReconcileAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"real"}, demoted)
}
