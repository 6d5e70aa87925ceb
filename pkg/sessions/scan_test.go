package sessions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dairui1/vibetunnel/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kindsByID(diags []Diagnostic) map[string][]DiagnosticKind {
	out := make(map[string][]DiagnosticKind)
	for _, d := range diags {
		out[d.ID] = append(out[d.ID], d.Kind)
	}
	return out
}

func TestScan(t *testing.T) {
	procs := newFakeProcs(1)
	m, root := newTestManager(t, procs)

	_, err := m.Create(CreateOptions{ID: "healthy"})
	require.NoError(t, err)

	testutil.WriteRecord(t, root, "stale", map[string]interface{}{"status": "running", "pid": 99})
	testutil.WriteRaw(t, root, "stale", StdinFile, "")

	testutil.WriteRaw(t, root, "corrupt", MetadataFile, "{")
	testutil.WriteRaw(t, root, "corrupt", StdinFile, "")

	testutil.WriteRecord(t, root, "odd", map[string]interface{}{"status": "paused"})
	testutil.WriteRaw(t, root, "odd", StdinFile, "")
	testutil.WriteRaw(t, root, "odd", MetadataFile+".tmp", "{}")

	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "not valid"), 0755))

	before, err := os.ReadDir(root)
	require.NoError(t, err)

	diags, err := m.Scan()
	require.NoError(t, err)
	got := kindsByID(diags)

	assert.NotContains(t, got, "healthy")
	assert.Equal(t, []DiagnosticKind{DiagStaleRunning}, got["stale"])
	assert.Equal(t, []DiagnosticKind{DiagCorruptMetadata}, got["corrupt"])
	assert.ElementsMatch(t, []DiagnosticKind{DiagOrphanTemp, DiagSchemaViolation}, got["odd"])
	assert.ElementsMatch(t, []DiagnosticKind{DiagMissingStdin, DiagMissingMetadata}, got["empty"])
	assert.Equal(t, []DiagnosticKind{DiagInvalidID}, got["not valid"])

	// Scanning is read-only: the stale record is still running on disk.
	onDisk := testutil.ReadJSON(t, filepath.Join(root, "stale", MetadataFile))
	assert.Equal(t, "running", onDisk["status"])
	after, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Equal(t, len(before), len(after))
}

func TestScanMissingRoot(t *testing.T) {
	m, root := newTestManager(t, nil)
	require.NoError(t, os.RemoveAll(root))

	diags, err := m.Scan()
	require.NoError(t, err)
	assert.Empty(t, diags)
}
