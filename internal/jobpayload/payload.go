package jobpayload

import "encoding/json"

// ConvertPayload is the typed form of a convert job's payload blob.
type ConvertPayload struct {
	BlobKey  string `json:"blob_key"`
	MimeType string `json:"mime_type"`
	Filename string `json:"filename"`
}

// Marshal validates p against ConvertPayloadSchema and serializes it.
func (p ConvertPayload) Marshal() ([]byte, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	if err := ValidateConvertPayload(b); err != nil {
		return nil, err
	}
	return b, nil
}

// DecodeConvertPayload validates then unmarshals a convert job's payload.
func DecodeConvertPayload(data []byte) (ConvertPayload, error) {
	var p ConvertPayload
	if err := ValidateConvertPayload(data); err != nil {
		return p, err
	}
	err := json.Unmarshal(data, &p)
	return p, err
}

// ArchivePayload is the typed form of an archive job's payload blob.
type ArchivePayload struct {
	OriginalKey string `json:"original_key"`
}

// Marshal validates p against ArchivePayloadSchema and serializes it.
func (p ArchivePayload) Marshal() ([]byte, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	if err := ValidateArchivePayload(b); err != nil {
		return nil, err
	}
	return b, nil
}

// DecodeArchivePayload validates then unmarshals an archive job's payload.
func DecodeArchivePayload(data []byte) (ArchivePayload, error) {
	var p ArchivePayload
	if err := ValidateArchivePayload(data); err != nil {
		return p, err
	}
	err := json.Unmarshal(data, &p)
	return p, err
}
