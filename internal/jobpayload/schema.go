// Package jobpayload validates the opaque payload blobs carried on
// Job rows and the free-form metadata map carried on Document rows
// against JSON Schemas, grounded on the teacher's
// internal/core/llm/validate.go (ValidateJSONAgainstSchema) and
// internal/llm/schema.go (schema built as a map[string]any).
package jobpayload

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ConvertPayloadSchema constrains the payload of a convert job: the blob
// key to fetch and the document's declared MIME type.
func ConvertPayloadSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"blob_key":  map[string]any{"type": "string", "minLength": 1},
			"mime_type": map[string]any{"type": "string", "minLength": 1},
			"filename":  map[string]any{"type": "string", "minLength": 1},
		},
		"required": []string{"blob_key", "mime_type", "filename"},
	}
}

// ArchivePayloadSchema constrains the payload of an archive job: the
// documents/-prefixed original key archive will rewrite.
func ArchivePayloadSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"original_key": map[string]any{"type": "string", "minLength": 1},
		},
		"required": []string{"original_key"},
	}
}

// DocumentMetadataSchema constrains the metadata a worker attaches to a
// completed document (§4.4 step 5): model, extracted page count,
// processing time, blob size, and whether a temp file was used.
func DocumentMetadataSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": true,
		"properties": map[string]any{
			"model":              map[string]any{"type": "string"},
			"extracted_pages":    map[string]any{"type": "integer", "minimum": 0},
			"processing_time_ms": map[string]any{"type": "integer", "minimum": 0},
			"blob_size":          map[string]any{"type": "integer", "minimum": 0},
			"used_temp_file":     map[string]any{"type": "boolean"},
		},
	}
}

// Validate checks data against schemaMap, following the teacher's
// compile-then-validate pattern.
func Validate(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("payload does not match schema: %w", err)
	}
	return nil
}

// ValidateConvertPayload validates a convert job's payload blob.
func ValidateConvertPayload(data []byte) error {
	return Validate(ConvertPayloadSchema(), data)
}

// ValidateArchivePayload validates an archive job's payload blob.
func ValidateArchivePayload(data []byte) error {
	return Validate(ArchivePayloadSchema(), data)
}

// ValidateDocumentMetadata validates a document's metadata map against
// DocumentMetadataSchema before it round-trips through the store.
func ValidateDocumentMetadata(metadata map[string]any) error {
	b, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal document metadata: %w", err)
	}
	return Validate(DocumentMetadataSchema(), b)
}
