package storage

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Codec is a named, reversible encoding applied to the serialized history.
type Codec struct {
	Name   string
	Encode func(data []byte) string
	Decode func(text string) ([]byte, error)
}

// PlainJSON stores the JSON text unchanged.
var PlainJSON = Codec{
	Name:   "json",
	Encode: func(data []byte) string { return string(data) },
	Decode: func(text string) ([]byte, error) { return []byte(text), nil },
}

// TextSafe stores the JSON text base64-encoded so the record holds only
// ASCII.
var TextSafe = Codec{
	Name:   "text-safe",
	Encode: func(data []byte) string { return base64.StdEncoding.EncodeToString(data) },
	Decode: func(text string) ([]byte, error) {
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(text))
		if err != nil {
			return nil, fmt.Errorf("decode text-safe record: %w", err)
		}
		return data, nil
	},
}

// CodecByName resolves a configured codec name.
func CodecByName(name string) (Codec, error) {
	switch name {
	case PlainJSON.Name:
		return PlainJSON, nil
	case TextSafe.Name:
		return TextSafe, nil
	default:
		return Codec{}, fmt.Errorf("unknown codec %q", name)
	}
}

// detectCodec picks the codec a stored record was written with. Records
// written by the quota retry are always plain JSON regardless of the
// configured codec, so reads cannot trust configuration alone.
func detectCodec(text string) Codec {
	if strings.HasPrefix(strings.TrimSpace(text), "[") {
		return PlainJSON
	}
	return TextSafe
}
