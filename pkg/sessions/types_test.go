package sessions

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordPreservesUnknownKeys(t *testing.T) {
	input := `{
  "status": "running",
  "pid": 4242,
  "startedAt": "2024-05-01T12:00:00Z",
  "cmdline": ["bash", "-l"],
  "cwd": "/home/me",
  "term": "xterm-256color",
  "spawn_type": "pty"
}`

	var rec Record
	require.NoError(t, json.Unmarshal([]byte(input), &rec))
	assert.Equal(t, StatusRunning, rec.Status)
	require.NotNil(t, rec.Pid)
	assert.Equal(t, 4242, *rec.Pid)
	assert.Equal(t, []string{"bash", "-l"}, rec.Cmdline)
	assert.Equal(t, "/home/me", rec.Cwd)
	assert.True(t, rec.StartedAt.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))
	assert.Len(t, rec.Extra, 2)

	rec.Name = "renamed"
	out, err := json.Marshal(rec)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "xterm-256color", decoded["term"])
	assert.Equal(t, "pty", decoded["spawn_type"])
	assert.Equal(t, "renamed", decoded["name"])
	assert.Equal(t, "2024-05-01T12:00:00Z", decoded["startedAt"])
	assert.NotContains(t, decoded, "exitCode")
}

func TestRecordMissingStartedAt(t *testing.T) {
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(`{"status":"exited","startedAt":"yesterday"}`), &rec))
	assert.True(t, rec.StartedAt.IsZero())
	assert.True(t, rec.sortTime().Equal(time.Unix(0, 0)))
}

func TestRecordNonStringStartedAt(t *testing.T) {
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(`{"status":"exited","exitCode":0,"startedAt":1714564800000}`), &rec))
	assert.True(t, rec.StartedAt.IsZero())
	assert.Equal(t, StatusExited, rec.Status)

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"startedAt":1714564800000`)

	rec.StartedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	data, err = json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"startedAt":"2024-05-01T12:00:00Z"`)
}

func TestRecordClone(t *testing.T) {
	rec := &Record{Status: StatusRunning, Pid: intPtr(7), Cmdline: []string{"sh"}}
	c := rec.Clone()
	*c.Pid = 8
	c.Cmdline[0] = "zsh"
	assert.Equal(t, 7, *rec.Pid)
	assert.Equal(t, "sh", rec.Cmdline[0])
	assert.Nil(t, (*Record)(nil).Clone())
}

func TestSessionJSON(t *testing.T) {
	s := Session{
		ID:           "abc-123",
		Record:       &Record{Status: StatusExited, ExitCode: intPtr(0), Extra: map[string]json.RawMessage{"term": json.RawMessage(`"xterm"`)}},
		LastModified: time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC),
	}

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var back Session
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "abc-123", back.ID)
	assert.Equal(t, StatusExited, back.Record.Status)
	assert.Equal(t, 0, *back.Record.ExitCode)
	assert.True(t, back.LastModified.Equal(s.LastModified))
	assert.Equal(t, json.RawMessage(`"xterm"`), back.Record.Extra["term"])
	assert.NotContains(t, back.Record.Extra, "id")
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("running")
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, s)

	_, err = ParseStatus("paused")
	assert.Error(t, err)
}
