package sessions

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dairui1/vibetunnel/errors"
	"github.com/dairui1/vibetunnel/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "control")
	m, err := NewManager(root, WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.Equal(t, root, m.Root())
	assert.DirExists(t, root)

	_, err = NewManager("", WithLogger(quietLogger()))
	assert.Error(t, err)
}

func TestCreate(t *testing.T) {
	m, root := newTestManager(t, nil)

	s, err := m.Create(CreateOptions{
		ID:      "abc-123",
		Name:    "shell",
		Cmdline: []string{"bash", "-l"},
		Cwd:     "/home/dev",
	})
	require.NoError(t, err)
	assert.Equal(t, "abc-123", s.ID)
	assert.Equal(t, StatusStarting, s.Record.Status)
	assert.True(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC).Equal(s.Record.StartedAt))

	dir := filepath.Join(root, "abc-123")
	assert.FileExists(t, filepath.Join(dir, MetadataFile))
	assert.FileExists(t, filepath.Join(dir, StdoutFile))
	_, err = os.Stat(filepath.Join(dir, StdinFile))
	assert.NoError(t, err)

	onDisk := testutil.ReadJSON(t, filepath.Join(dir, MetadataFile))
	assert.Equal(t, "starting", onDisk["status"])
	assert.Equal(t, "shell", onDisk["name"])
	assert.Equal(t, "/home/dev", onDisk["cwd"])
	assert.Equal(t, []interface{}{"bash", "-l"}, onDisk["cmdline"])
	assert.NotContains(t, onDisk, "pid")
	assert.NotContains(t, onDisk, "exitCode")

	_, err = m.Create(CreateOptions{ID: "abc-123"})
	assert.True(t, errors.Is(err, errors.ErrCodeSessionExists))
}

func TestCreateDerivesID(t *testing.T) {
	m, _ := newTestManager(t, nil)

	named, err := m.Create(CreateOptions{Name: "My Build"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(named.ID, "my-build-"), named.ID)
	assert.NoError(t, ValidateID(named.ID))

	anon, err := m.Create(CreateOptions{})
	require.NoError(t, err)
	assert.NoError(t, ValidateID(anon.ID))
	assert.NotEqual(t, named.ID, anon.ID)
}

// Mirrors the life of a session from a PTY host's point of view.
func TestSessionLifecycle(t *testing.T) {
	procs := newFakeProcs(4242)
	m, root := newTestManager(t, procs)

	_, err := m.Create(CreateOptions{ID: "abc-123", Cmdline: []string{"bash"}})
	require.NoError(t, err)

	_, err = m.UpdateStatus("abc-123", StatusRunning, intPtr(4242), nil)
	require.NoError(t, err)

	s, err := m.Get("abc-123")
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, s.Record.Status)

	_, err = m.UpdateName("abc-123", "main shell")
	require.NoError(t, err)

	// The host's process dies without a final status write.
	procs.kill(4242)
	s, err = m.Get("abc-123")
	require.NoError(t, err)
	assert.Equal(t, StatusExited, s.Record.Status)
	assert.Equal(t, 1, *s.Record.ExitCode)
	assert.Equal(t, "main shell", s.Record.Name)

	removed, err := m.CleanupExited()
	require.NoError(t, err)
	assert.Equal(t, []string{"abc-123"}, removed)

	_, err = os.Stat(filepath.Join(root, "abc-123"))
	assert.True(t, os.IsNotExist(err))
}

func TestPaths(t *testing.T) {
	m, root := newTestManager(t, nil)
	p, err := m.Paths("abc-123")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "abc-123"), p.Dir)
	assert.Equal(t, filepath.Join(root, "abc-123", "session.json"), p.Metadata)
	assert.Equal(t, filepath.Join(root, "abc-123", "stdin"), p.Stdin)
	assert.Equal(t, filepath.Join(root, "abc-123", "stdout"), p.Stdout)
	assert.Equal(t, filepath.Join(root, "abc-123", "session.json.tmp"), p.TempMetadata())
}

func TestKeySequence(t *testing.T) {
	tests := map[string]string{
		"enter":      "\r",
		"ctrl_c":     "\x03",
		"escape":     "\x1b",
		"arrow_up":   "\x1b[A",
		"arrow_left": "\x1b[D",
	}
	for name, want := range tests {
		got, err := KeySequence(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, string(got), name)
	}

	_, err := KeySequence("f13")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}
