// Package testutil holds helpers shared by tests that build control
// directories by hand.
package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// NewControlRoot returns a fresh, existing control root inside t.TempDir().
func NewControlRoot(t *testing.T) string {
	t.Helper()

	root := filepath.Join(t.TempDir(), "control")
	require.NoError(t, os.MkdirAll(root, 0755))
	return root
}

// WriteRaw writes content to <root>/<id>/<name>, creating the session
// directory if needed, and returns the file path.
func WriteRaw(t *testing.T, root, id, name, content string) string {
	t.Helper()

	dir := filepath.Join(root, id)
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// WriteRecord writes fields as <root>/<id>/session.json.
func WriteRecord(t *testing.T, root, id string, fields map[string]interface{}) string {
	t.Helper()

	data, err := json.MarshalIndent(fields, "", "  ")
	require.NoError(t, err)
	return WriteRaw(t, root, id, "session.json", string(data))
}

// ReadJSON decodes the JSON file at path into a generic map.
func ReadJSON(t *testing.T, path string) map[string]interface{} {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

// Touch sets the modification time of path, creating it if missing.
func Touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		require.NoError(t, os.WriteFile(path, nil, 0644))
	}
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

// DeadPID returns the pid of a process that has already exited and been
// reaped, so it does not name a live process.
func DeadPID(t *testing.T) int {
	t.Helper()

	cmd := exec.Command("true")
	require.NoError(t, cmd.Run())
	return cmd.Process.Pid
}

// UniqueID returns a session id that is unique across test runs.
func UniqueID(t *testing.T, prefix string) string {
	t.Helper()

	buf := make([]byte, 4)
	_, err := rand.Read(buf)
	require.NoError(t, err)
	return prefix + "-" + hex.EncodeToString(buf)
}
