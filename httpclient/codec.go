package httpclient

import "encoding/json"

// Codec serializes request bodies and deserializes response bodies.
// The client treats it as opaque: a failing Marshal surfaces as an
// encoding error, a failing Unmarshal as a decoding error. Codecs that
// need custom key casing or date handling implement this interface and
// are passed via Config.Codec.
type Codec interface {
	// ContentType is the Content-Type value for bodies this codec produces.
	ContentType() string
	// Marshal serializes v into bytes.
	Marshal(v any) ([]byte, error)
	// Unmarshal deserializes data into v.
	Unmarshal(data []byte, v any) error
}

// JSONCodec is the default codec, backed by encoding/json.
type JSONCodec struct {
	// Indent enables pretty-printed request bodies.
	Indent bool
}

// ContentType returns application/json.
func (c JSONCodec) ContentType() string {
	return "application/json"
}

// Marshal serializes v as JSON.
func (c JSONCodec) Marshal(v any) ([]byte, error) {
	if c.Indent {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// Unmarshal deserializes JSON data into v.
func (c JSONCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
