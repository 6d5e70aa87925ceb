// Command schema-generator writes the JSON Schemas for vibetunnel.yml, its
// logging section and session.json into schema/definitions.
package main

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"github.com/dairui1/vibetunnel/config"
	"github.com/dairui1/vibetunnel/logging"
	"github.com/dairui1/vibetunnel/pkg/sessions"
	"github.com/invopop/jsonschema"
)

const outputDir = "schema/definitions"

func main() {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		log.Fatalf("Error creating schema directory: %v", err)
	}

	generators := map[string]func() ([]byte, error){
		"config.schema.json":  config.GenerateSchema,
		"logging.schema.json": loggingSchema,
		"session.schema.json": sessions.RecordSchema,
	}

	for name, generate := range generators {
		data, err := generate()
		if err != nil {
			log.Fatalf("Error generating %s: %v", name, err)
		}
		outputPath := filepath.Join(outputDir, name)
		if err := os.WriteFile(outputPath, append(data, '\n'), 0644); err != nil {
			log.Fatalf("Error writing schema file: %v", err)
		}
		log.Printf("Generated %s", outputPath)
	}
}

// loggingSchema describes the logging section of vibetunnel.yml. Every field
// is optional.
func loggingSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		ExpandedStruct:            true,
		FieldNameTag:              "yaml",
	}

	schema := r.Reflect(&logging.Config{})
	schema.Title = "vibetunnel logging configuration"
	schema.Description = "Schema for the 'logging' section of vibetunnel.yml."
	schema.Required = nil

	return json.MarshalIndent(schema, "", "  ")
}
