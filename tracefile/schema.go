package tracefile

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const (
	// SchemaVersion identifies the layout of trace documents.
	SchemaVersion = "https://go-dhttrace/trace.schema.json.1.0"

	schemaFile = "schema.json"
)

//go:embed schema.json
var Schema string

// ValidateSchema checks an encoded trace document against the schema.
func ValidateSchema(data []byte) error {
	sch, err := jsonschema.CompileString(schemaFile, Schema)
	if err != nil {
		return fmt.Errorf("compile trace json schema: %w", err)
	}
	var v any
	if err = json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal trace data: %w", err)
	}
	if err = sch.Validate(v); err != nil {
		return fmt.Errorf("validate trace data: %w", err)
	}
	return nil
}
