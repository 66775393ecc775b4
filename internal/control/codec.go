package control

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// jsonCodec implements encoding.Codec over encoding/json in place of the
// generated protobuf marshaling this package's messages don't have.
type jsonCodec struct{ name string }

func (c jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (c jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (c jsonCodec) Name() string { return c.name }

func init() {
	// Registered under "json" for clients that request the "json"
	// content-subtype, and under "proto" so a client that sends no
	// content-subtype (grpc-go's default) still decodes correctly —
	// this service has no protobuf-generated codec to fall back to.
	encoding.RegisterCodec(jsonCodec{name: "json"})
	encoding.RegisterCodec(jsonCodec{name: "proto"})
}
