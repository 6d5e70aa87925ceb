package sessions

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dairui1/vibetunnel/errors"
	"github.com/dairui1/vibetunnel/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(sessions []*Session) []string {
	out := make([]string, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.ID)
	}
	return out
}

func TestListSortsNewestFirst(t *testing.T) {
	m, root := newTestManager(t, nil)

	testutil.WriteRecord(t, root, "old", map[string]interface{}{"status": "exited", "startedAt": "2024-01-01T00:00:00Z"})
	testutil.WriteRecord(t, root, "new", map[string]interface{}{"status": "exited", "startedAt": "2024-03-01T00:00:00Z"})
	testutil.WriteRecord(t, root, "mid", map[string]interface{}{"status": "exited", "startedAt": "2024-02-01T00:00:00Z"})
	testutil.WriteRecord(t, root, "undated", map[string]interface{}{"status": "starting"})

	sessions, err := m.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "mid", "old", "undated"}, ids(sessions))
}

func TestListKeepsUnparsableStartedAt(t *testing.T) {
	m, root := newTestManager(t, nil)

	testutil.WriteRecord(t, root, "numeric", map[string]interface{}{"status": "exited", "exitCode": 0, "startedAt": 1714564800000})
	testutil.WriteRecord(t, root, "garbage", map[string]interface{}{"status": "exited", "exitCode": 0, "startedAt": "yesterday"})
	testutil.WriteRecord(t, root, "dated", map[string]interface{}{"status": "exited", "exitCode": 0, "startedAt": "2024-01-01T00:00:00Z"})

	sessions, err := m.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"dated", "garbage", "numeric"}, ids(sessions))
}

func TestListTiesBreakByID(t *testing.T) {
	m, root := newTestManager(t, nil)
	for _, id := range []string{"c", "a", "b"} {
		testutil.WriteRecord(t, root, id, map[string]interface{}{"status": "exited", "startedAt": "2024-01-01T00:00:00Z"})
	}

	sessions, err := m.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids(sessions))
}

func TestListLastModified(t *testing.T) {
	m, root := newTestManager(t, nil)

	testutil.WriteRecord(t, root, "with-output", map[string]interface{}{"status": "exited", "startedAt": "2024-01-01T00:00:00Z"})
	mtime := time.Date(2024, 4, 1, 8, 30, 0, 0, time.UTC)
	testutil.Touch(t, filepath.Join(root, "with-output", StdoutFile), mtime)

	testutil.WriteRecord(t, root, "no-output", map[string]interface{}{"status": "exited", "startedAt": "2024-01-02T00:00:00Z"})

	withOutput, err := m.Get("with-output")
	require.NoError(t, err)
	assert.True(t, mtime.Equal(withOutput.LastModified))

	noOutput, err := m.Get("no-output")
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).Equal(noOutput.LastModified))
}

func TestListSkipsJunk(t *testing.T) {
	m, root := newTestManager(t, nil)

	testutil.WriteRecord(t, root, "good", map[string]interface{}{"status": "exited"})
	testutil.WriteRaw(t, root, "corrupt", MetadataFile, "not json at all")
	testutil.WriteRecord(t, root, "has.dot", map[string]interface{}{"status": "exited"})
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "stray-file"), []byte("x"), 0644))

	sessions, err := m.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"good"}, ids(sessions))
}

func TestListReconcilesDeadSessions(t *testing.T) {
	procs := newFakeProcs(10)
	m, root := newTestManager(t, procs)

	testutil.WriteRecord(t, root, "alive", map[string]interface{}{"status": "running", "pid": 10, "startedAt": "2024-01-02T00:00:00Z"})
	testutil.WriteRecord(t, root, "dead", map[string]interface{}{"status": "running", "pid": 20, "startedAt": "2024-01-01T00:00:00Z"})

	sessions, err := m.List()
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, StatusRunning, sessions[0].Record.Status)
	assert.Equal(t, StatusExited, sessions[1].Record.Status)
	assert.Equal(t, 1, *sessions[1].Record.ExitCode)

	onDisk := testutil.ReadJSON(t, filepath.Join(root, "dead", MetadataFile))
	assert.Equal(t, "exited", onDisk["status"])
}

func TestListEmptyAndMissingRoot(t *testing.T) {
	m, root := newTestManager(t, nil)

	sessions, err := m.List()
	require.NoError(t, err)
	assert.Empty(t, sessions)

	require.NoError(t, os.RemoveAll(root))
	sessions, err = m.List()
	require.NoError(t, err)
	assert.NotNil(t, sessions)
	assert.Empty(t, sessions)
}

func TestListUnreadableRoot(t *testing.T) {
	m, root := newTestManager(t, nil)
	require.NoError(t, os.RemoveAll(root))
	require.NoError(t, os.WriteFile(root, []byte("not a directory"), 0644))

	_, err := m.List()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeListSessionsFailed))
}

func TestGetMissing(t *testing.T) {
	m, _ := newTestManager(t, nil)
	_, err := m.Get("nope")
	assert.True(t, errors.Is(err, errors.ErrCodeSessionNotFound))
}

func TestSortSessions(t *testing.T) {
	at := func(s string) time.Time {
		ts, err := time.Parse(time.RFC3339, s)
		require.NoError(t, err)
		return ts
	}
	sessions := []*Session{
		{ID: "b", Record: &Record{}},
		{ID: "x", Record: &Record{StartedAt: at("2023-06-01T00:00:00Z")}},
		{ID: "a", Record: &Record{}},
		{ID: "y", Record: &Record{StartedAt: at("2024-06-01T00:00:00Z")}},
	}
	SortSessions(sessions)
	assert.Equal(t, []string{"y", "x", "a", "b"}, ids(sessions))
}
