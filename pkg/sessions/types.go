package sessions

import (
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/dairui1/vibetunnel/errors"
)

// File names inside a session directory.
const (
	MetadataFile = "session.json"
	StdinFile    = "stdin"
	StdoutFile   = "stdout"
	tempSuffix   = ".tmp"
)

// DefaultExitCode is recorded when a running session is found dead and its
// real exit status is unknown.
const DefaultExitCode = 1

// Status is the lifecycle state of a session.
type Status string

const (
	StatusStarting Status = "starting"
	StatusRunning  Status = "running"
	StatusExited   Status = "exited"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusStarting, StatusRunning, StatusExited:
		return true
	}
	return false
}

// ParseStatus converts user input into a Status.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.Valid() {
		return "", errors.New(errors.ErrCodeInvalidInput, "unknown session status: "+s).
			WithDetail("status", s)
	}
	return status, nil
}

// Record is the durable per-session metadata stored in session.json.
//
// Keys this package does not know about are kept in Extra and written back
// unchanged, so records produced by other tools survive a load-modify-save.
type Record struct {
	Cmdline   []string
	Cwd       string
	Name      string
	Status    Status
	Pid       *int
	ExitCode  *int
	StartedAt time.Time

	Extra map[string]json.RawMessage
}

// recordKeys are the JSON keys owned by Record.
var recordKeys = []string{"cmdline", "cwd", "name", "status", "pid", "exitCode", "startedAt"}

type recordFields struct {
	Cmdline   []string        `json:"cmdline,omitempty"`
	Cwd       string          `json:"cwd,omitempty"`
	Name      string          `json:"name,omitempty"`
	Status    Status          `json:"status"`
	Pid       *int            `json:"pid,omitempty"`
	ExitCode  *int            `json:"exitCode,omitempty"`
	StartedAt json.RawMessage `json:"startedAt,omitempty"`
}

// fields flattens the record into a map suitable for json.Marshal.
func (r *Record) fields() map[string]interface{} {
	out := make(map[string]interface{}, len(r.Extra)+len(recordKeys))
	for k, v := range r.Extra {
		out[k] = v
	}
	if len(r.Cmdline) > 0 {
		out["cmdline"] = r.Cmdline
	}
	if r.Cwd != "" {
		out["cwd"] = r.Cwd
	}
	if r.Name != "" {
		out["name"] = r.Name
	}
	out["status"] = r.Status
	if r.Pid != nil {
		out["pid"] = *r.Pid
	}
	if r.ExitCode != nil {
		out["exitCode"] = *r.ExitCode
	}
	if !r.StartedAt.IsZero() {
		out["startedAt"] = r.StartedAt.UTC().Format(time.RFC3339Nano)
	}
	return out
}

// MarshalJSON implements json.Marshaler.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.fields())
}

// UnmarshalJSON implements json.Unmarshaler. A missing or unparsable
// startedAt leaves StartedAt zero, which sorts as the epoch.
func (r *Record) UnmarshalJSON(data []byte) error {
	var known recordFields
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, k := range recordKeys {
		delete(raw, k)
	}

	*r = Record{
		Cmdline:  known.Cmdline,
		Cwd:      known.Cwd,
		Name:     known.Name,
		Status:   known.Status,
		Pid:      known.Pid,
		ExitCode: known.ExitCode,
	}
	if len(known.StartedAt) > 0 && string(known.StartedAt) != "null" {
		if t, ok := parseStartedAt(known.StartedAt); ok {
			r.StartedAt = t
		} else {
			// Kept verbatim so a rewrite does not lose what another writer put there.
			raw["startedAt"] = known.StartedAt
		}
	}
	if len(raw) > 0 {
		r.Extra = raw
	}
	return nil
}

func parseStartedAt(raw json.RawMessage) (time.Time, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	if r.Cmdline != nil {
		c.Cmdline = append([]string(nil), r.Cmdline...)
	}
	if r.Pid != nil {
		pid := *r.Pid
		c.Pid = &pid
	}
	if r.ExitCode != nil {
		code := *r.ExitCode
		c.ExitCode = &code
	}
	if r.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(r.Extra))
		for k, v := range r.Extra {
			c.Extra[k] = v
		}
	}
	return &c
}

// sortTime is the startedAt used for ordering; unset times count as the epoch.
func (r *Record) sortTime() time.Time {
	if r.StartedAt.IsZero() {
		return time.Unix(0, 0)
	}
	return r.StartedAt
}

// Session is the listing view of a record: the record plus its id and the
// time its output last changed.
type Session struct {
	ID           string
	Record       *Record
	LastModified time.Time
}

// MarshalJSON implements json.Marshaler. The record's keys are inlined next
// to id and lastModified.
func (s Session) MarshalJSON() ([]byte, error) {
	var out map[string]interface{}
	if s.Record != nil {
		out = s.Record.fields()
	} else {
		out = make(map[string]interface{})
	}
	out["id"] = s.ID
	out["lastModified"] = s.LastModified.UTC().Format(time.RFC3339Nano)
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Session) UnmarshalJSON(data []byte) error {
	var view struct {
		ID           string    `json:"id"`
		LastModified time.Time `json:"lastModified"`
	}
	if err := json.Unmarshal(data, &view); err != nil {
		return err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	delete(rec.Extra, "id")
	delete(rec.Extra, "lastModified")
	if len(rec.Extra) == 0 {
		rec.Extra = nil
	}

	s.ID = view.ID
	s.LastModified = view.LastModified
	s.Record = &rec
	return nil
}

// Paths are the filesystem locations derived from a control root and an id.
type Paths struct {
	Dir      string `json:"dir"`
	Metadata string `json:"metadata"`
	Stdin    string `json:"stdin"`
	Stdout   string `json:"stdout"`
}

func pathsFor(root, id string) Paths {
	dir := filepath.Join(root, id)
	return Paths{
		Dir:      dir,
		Metadata: filepath.Join(dir, MetadataFile),
		Stdin:    filepath.Join(dir, StdinFile),
		Stdout:   filepath.Join(dir, StdoutFile),
	}
}

// TempMetadata is the path a save writes before renaming onto Metadata.
func (p Paths) TempMetadata() string {
	return p.Metadata + tempSuffix
}
