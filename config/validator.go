package config

import (
	"sync"

	"github.com/dairui1/vibetunnel/schema"
)

var (
	configValidator     *schema.Validator
	configValidatorErr  error
	configValidatorOnce sync.Once
)

// SchemaValidator validates configuration against the generated JSON Schema.
type SchemaValidator struct {
	validator *schema.Validator
}

// NewSchemaValidator returns a validator for the config schema. The schema is
// generated and compiled once per process.
func NewSchemaValidator() (*SchemaValidator, error) {
	configValidatorOnce.Do(func() {
		data, err := GenerateSchema()
		if err != nil {
			configValidatorErr = err
			return
		}
		configValidator, configValidatorErr = schema.NewValidator("vibetunnel.json", data)
	})
	if configValidatorErr != nil {
		return nil, configValidatorErr
	}
	return &SchemaValidator{validator: configValidator}, nil
}

// Validate validates configuration data against the schema.
func (v *SchemaValidator) Validate(configData interface{}) error {
	return v.validator.Validate(configData)
}
