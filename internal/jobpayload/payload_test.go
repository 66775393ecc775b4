package jobpayload

import (
	"strings"
	"testing"
)

func TestConvertPayloadRoundTrip(t *testing.T) {
	p := ConvertPayload{BlobKey: "documents/abc.pdf", MimeType: "application/pdf", Filename: "abc.pdf"}
	data, err := p.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := DecodeConvertPayload(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != p {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", got, p)
	}
}

func TestConvertPayloadMarshalRejectsMissingFields(t *testing.T) {
	p := ConvertPayload{BlobKey: "documents/abc.pdf"}
	if _, err := p.Marshal(); err == nil {
		t.Fatalf("expected validation error for missing mime_type/filename")
	}
}

func TestDecodeConvertPayloadRejectsUnknownField(t *testing.T) {
	data := []byte(`{"blob_key":"x","mime_type":"y","filename":"z","extra":"nope"}`)
	if _, err := DecodeConvertPayload(data); err == nil {
		t.Fatalf("expected rejection of an additional property")
	}
}

func TestArchivePayloadRoundTrip(t *testing.T) {
	p := ArchivePayload{OriginalKey: "documents/abc.pdf"}
	data, err := p.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := DecodeArchivePayload(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != p {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", got, p)
	}
}

func TestArchivePayloadRejectsEmptyOriginalKey(t *testing.T) {
	p := ArchivePayload{}
	if _, err := p.Marshal(); err == nil {
		t.Fatalf("expected validation error for empty original_key")
	}
}

func TestDocumentMetadataSchemaAllowsAdditionalProperties(t *testing.T) {
	data := []byte(`{"model":"docmark-ocr-v1","extracted_pages":3,"processing_time_ms":120,"blob_size":4096,"used_temp_file":false,"custom_field":"ok"}`)
	if err := Validate(DocumentMetadataSchema(), data); err != nil {
		t.Fatalf("expected metadata with an extra field to validate, got %v", err)
	}
}

func TestDocumentMetadataSchemaRejectsWrongType(t *testing.T) {
	data := []byte(`{"extracted_pages":"three"}`)
	err := Validate(DocumentMetadataSchema(), data)
	if err == nil {
		t.Fatalf("expected a type mismatch error")
	}
	if !strings.Contains(err.Error(), "schema") {
		t.Fatalf("expected a schema-related error message, got %v", err)
	}
}

func TestValidateDocumentMetadataAcceptsAWorkerBuiltMap(t *testing.T) {
	metadata := map[string]any{
		"model":              "docmark-ocr-v1",
		"extracted_pages":    2,
		"processing_time_ms": int64(340),
		"blob_size":          int64(2048),
		"used_temp_file":     false,
	}
	if err := ValidateDocumentMetadata(metadata); err != nil {
		t.Fatalf("expected a well-formed metadata map to validate, got %v", err)
	}
}

func TestValidateDocumentMetadataRejectsWrongType(t *testing.T) {
	metadata := map[string]any{"extracted_pages": "three"}
	if err := ValidateDocumentMetadata(metadata); err == nil {
		t.Fatalf("expected a type mismatch error")
	}
}
