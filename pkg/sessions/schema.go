package sessions

import (
	"encoding/json"
	"sync"

	"github.com/dairui1/vibetunnel/schema"
	"github.com/invopop/jsonschema"
)

// recordDocument mirrors the JSON shape of session.json for schema generation.
type recordDocument struct {
	Status    string   `json:"status" jsonschema:"enum=starting,enum=running,enum=exited,description=Lifecycle state"`
	Pid       int      `json:"pid,omitempty" jsonschema:"minimum=1,description=Process id of the PTY-hosted command"`
	ExitCode  int      `json:"exitCode,omitempty" jsonschema:"description=Exit code once the session has exited"`
	Name      string   `json:"name,omitempty" jsonschema:"description=Display label"`
	StartedAt string   `json:"startedAt,omitempty" jsonschema:"format=date-time,description=Creation time; never changes"`
	Cmdline   []string `json:"cmdline,omitempty" jsonschema:"description=Command and arguments"`
	Cwd       string   `json:"cwd,omitempty" jsonschema:"description=Working directory of the command"`
}

// RecordSchema returns the JSON Schema for session.json. Unknown keys are
// allowed because other tools may add their own.
func RecordSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		ExpandedStruct:            true,
	}

	s := r.Reflect(&recordDocument{})
	s.Title = "vibetunnel session record"
	s.Description = "Contents of <control dir>/<session id>/session.json."

	return json.MarshalIndent(s, "", "  ")
}

var (
	recordValidator     *schema.Validator
	recordValidatorErr  error
	recordValidatorOnce sync.Once
)

// ValidateRecordJSON checks raw session.json content against RecordSchema.
func ValidateRecordJSON(data []byte) error {
	recordValidatorOnce.Do(func() {
		doc, err := RecordSchema()
		if err != nil {
			recordValidatorErr = err
			return
		}
		recordValidator, recordValidatorErr = schema.NewValidator("session.json", doc)
	})
	if recordValidatorErr != nil {
		return recordValidatorErr
	}
	return recordValidator.ValidateJSON(data)
}
