package sessions

import (
	"encoding/json"
	"os"

	"github.com/dairui1/vibetunnel/errors"
)

// DiagnosticKind names a problem found by Scan.
type DiagnosticKind string

const (
	DiagInvalidID       DiagnosticKind = "invalid_id"
	DiagMissingMetadata DiagnosticKind = "missing_metadata"
	DiagCorruptMetadata DiagnosticKind = "corrupt_metadata"
	DiagSchemaViolation DiagnosticKind = "schema_violation"
	DiagOrphanTemp      DiagnosticKind = "orphan_temp"
	DiagStaleRunning    DiagnosticKind = "stale_running"
	DiagMissingStdin    DiagnosticKind = "missing_stdin"
)

// Diagnostic is one problem found in the control directory.
type Diagnostic struct {
	ID     string         `json:"id"`
	Kind   DiagnosticKind `json:"kind"`
	Detail string         `json:"detail,omitempty"`
}

// Scan walks the control root like List but reports what List silently
// skips. It never modifies anything.
func (m *Manager) Scan() ([]Diagnostic, error) {
	entries, err := os.ReadDir(m.dir.Root())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.ListSessionsFailed(m.dir.Root(), err)
	}

	var diags []Diagnostic
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id := entry.Name()
		if ValidateID(id) != nil {
			diags = append(diags, Diagnostic{ID: id, Kind: DiagInvalidID, Detail: "directory name is not a valid session id"})
			continue
		}
		diags = append(diags, m.scanOne(id)...)
	}
	return diags, nil
}

func (m *Manager) scanOne(id string) []Diagnostic {
	var diags []Diagnostic
	paths := m.dir.Paths(id)

	if _, err := os.Stat(paths.TempMetadata()); err == nil {
		diags = append(diags, Diagnostic{ID: id, Kind: DiagOrphanTemp, Detail: paths.TempMetadata()})
	}
	if _, err := os.Stat(paths.Stdin); err != nil {
		diags = append(diags, Diagnostic{ID: id, Kind: DiagMissingStdin, Detail: paths.Stdin})
	}

	data, err := os.ReadFile(paths.Metadata)
	if err != nil {
		return append(diags, Diagnostic{ID: id, Kind: DiagMissingMetadata, Detail: err.Error()})
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return append(diags, Diagnostic{ID: id, Kind: DiagCorruptMetadata, Detail: err.Error()})
	}

	if err := ValidateRecordJSON(data); err != nil {
		diags = append(diags, Diagnostic{ID: id, Kind: DiagSchemaViolation, Detail: err.Error()})
	}

	if rec.Status == StatusRunning && rec.Pid != nil && !m.reconciler.alive(*rec.Pid) {
		diags = append(diags, Diagnostic{ID: id, Kind: DiagStaleRunning, Detail: "process is no longer alive"})
	}
	return diags
}
