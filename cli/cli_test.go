package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dairui1/vibetunnel/errors"
	"github.com/dairui1/vibetunnel/pkg/paths"
	"github.com/dairui1/vibetunnel/pkg/sessions"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardFlags(t *testing.T) {
	cmd := NewStandardCommand("vt", "test")
	cmd.RunE = func(*cobra.Command, []string) error { return nil }
	cmd.SetArgs([]string{"-v", "--json", "--control-dir", "/tmp/ctl", "-c", "/tmp/vt.yml"})
	require.NoError(t, cmd.Execute())

	opts := GetOptions(cmd)
	assert.True(t, opts.Verbose)
	assert.True(t, opts.JSONOutput)
	assert.Equal(t, "/tmp/ctl", opts.ControlDir)
	assert.Equal(t, "/tmp/vt.yml", opts.ConfigFile)
}

func TestResolveControlDirPrecedence(t *testing.T) {
	home := t.TempDir()
	t.Setenv(paths.EnvHome, home)

	cmd := NewStandardCommand("vt", "test")
	cmd.RunE = func(*cobra.Command, []string) error { return nil }
	cmd.SetArgs([]string{"--control-dir", "/tmp/explicit"})
	require.NoError(t, cmd.Execute())

	root, cfg, err := ResolveControlDir(cmd)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "/tmp/explicit", root)
}

func TestExactArgsIsCoded(t *testing.T) {
	cmd := &cobra.Command{Use: "show <id>", Args: ExactArgs(1), RunE: func(*cobra.Command, []string) error { return nil }}
	cmd.SetArgs([]string{})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))
}

func TestErrorHandler(t *testing.T) {
	t.Run("prints code and hint", func(t *testing.T) {
		var buf bytes.Buffer
		h := &ErrorHandler{Out: &buf}
		err := errors.SessionNotFound("abc-123")
		assert.Same(t, err, h.Handle(err))

		out := buf.String()
		assert.Contains(t, out, "SESSION_NOT_FOUND")
		assert.Contains(t, out, "abc-123")
		assert.Contains(t, out, "vt list")
		assert.NotContains(t, out, "Error details")
	})

	t.Run("verbose adds details", func(t *testing.T) {
		var buf bytes.Buffer
		h := &ErrorHandler{Verbose: true, Out: &buf}
		h.Handle(errors.StdinWriteFailed("abc-123", assert.AnError))
		assert.Contains(t, buf.String(), "Error details")
		assert.Contains(t, buf.String(), `"sessionId": "abc-123"`)
	})

	t.Run("json wraps plain errors", func(t *testing.T) {
		var buf bytes.Buffer
		h := &ErrorHandler{JSON: true, Out: &buf}
		h.Handle(fmt.Errorf("boom"))

		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, "INTERNAL_ERROR", decoded["code"])
	})

	t.Run("nil", func(t *testing.T) {
		var buf bytes.Buffer
		assert.NoError(t, (&ErrorHandler{Out: &buf}).Handle(nil))
		assert.Empty(t, buf.String())
	})
}

func TestStyledHelp(t *testing.T) {
	root := NewStandardCommand("vt", "Manage terminal sessions")
	child := &cobra.Command{
		Use:   "send <id> [text]",
		Short: "Send input to a session",
		Long: `Send input to a session.

Examples:
  # send a line
  vt send abc-123 'ls'`,
		RunE: func(*cobra.Command, []string) error { return nil },
	}
	child.Flags().String("key", "", "Send a named key")
	root.AddCommand(child)
	ApplyStyledHelpRecursive(root)
	SetStyledHelpWithExtras(child, func(w io.Writer) {
		fmt.Fprintln(w, SectionTitle("KEYS"))
	})

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"send", "--help"})
	require.NoError(t, root.Execute())

	out := buf.String()
	assert.Contains(t, out, "VT SEND")
	assert.Contains(t, out, "USAGE")
	assert.Contains(t, out, "--key")
	assert.Contains(t, out, "EXAMPLES")
	assert.Contains(t, out, "# send a line")
	assert.Contains(t, out, "KEYS")
}

func TestWrapText(t *testing.T) {
	wrapped := wrapText("one two three four five", 9)
	for _, line := range strings.Split(wrapped, "\n") {
		assert.LessOrEqual(t, len(line), 9)
	}
	assert.Equal(t, "a\nb", wrapText("a\nb", 10))
}

func TestSessionTable(t *testing.T) {
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	pid := 4242
	code := 3
	list := []*sessions.Session{
		{ID: "abc-123", Record: &sessions.Record{Name: "build", Status: sessions.StatusRunning, Pid: &pid, Cmdline: []string{"make", "all"}, StartedAt: now.Add(-5 * time.Minute)}},
		{ID: "def-456", Record: &sessions.Record{Status: sessions.StatusExited, ExitCode: &code, StartedAt: now.Add(-3 * time.Hour)}},
	}

	out := SessionTable(list, now)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "abc-123")
	assert.Contains(t, out, "4242")
	assert.Contains(t, out, "make all")
	assert.Contains(t, out, "5m ago")
	assert.Contains(t, out, "exit 3")
	assert.Contains(t, out, "3h ago")
	assert.Less(t, strings.Index(out, "abc-123"), strings.Index(out, "def-456"))
}

func TestFormatAge(t *testing.T) {
	now := time.Now()
	assert.Equal(t, "-", formatAge(now, time.Time{}))
	assert.Equal(t, "just now", formatAge(now, now.Add(-time.Second)))
	assert.Equal(t, "2d ago", formatAge(now, now.Add(-49*time.Hour)))
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintJSON(&buf, map[string]int{"a": 1}))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}
