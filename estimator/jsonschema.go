package estimator

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const (
	schemaManifest    = "manifest.schema.json"
	schemaCategories  = "categories.schema.json"
	schemaFrequency   = "frequency.schema.json"
	schemaLinearModel = "linear_model.schema.json"
)

// validateJSON checks a JSON artifact against one of the embedded schemas.
func validateJSON(schemaName string, data []byte) error {
	schema, err := schemaFS.ReadFile("schemas/" + schemaName)
	if err != nil {
		return fmt.Errorf("load schema %s: %w", schemaName, err)
	}
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("does not match %s: %s", schemaName, strings.Join(errs, "; "))
	}
	return nil
}

// decodeJSONArtifact validates data against the schema, then decodes it.
func decodeJSONArtifact(schemaName string, data []byte, v any) error {
	if err := validateJSON(schemaName, data); err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
