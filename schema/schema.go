// Package schema reflects the crack snapshot payload into a JSON schema so
// viewer tooling can validate broadcast frames and /cracks responses.
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"fracturelab/server"
)

// Build reflects the snapshot message into a schema document.
func Build() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	schema := reflector.Reflect(new(server.CrackMessage))
	schema.Title = "Fracture Lab Crack Snapshot"
	schema.Description = "Validates crack snapshot frames served on /cracks and broadcast over /ws"
	return schema
}

// Write renders the schema to outPath, replacing any existing file
// atomically.
func Write(outPath string, schema *jsonschema.Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}

	return nil
}
