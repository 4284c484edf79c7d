package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

func registerUUID(r *Registry) {
	r.Register(&Codec{
		OID: OIDUUID, Kind: KindScalar, Name: "uuid", PreferredFormat: FormatBinary,
		Encode: func(v any, format Format) ([]byte, error) {
			var id uuid.UUID
			switch u := v.(type) {
			case uuid.UUID:
				id = u
			case string:
				parsed, err := uuid.Parse(u)
				if err != nil {
					return nil, &TypeMismatchError{OID: OIDUUID, Expected: "uuid", Got: v}
				}
				id = parsed
			case [16]byte:
				id = uuid.UUID(u)
			default:
				return nil, &TypeMismatchError{OID: OIDUUID, Expected: "uuid.UUID or string", Got: v}
			}
			if format == FormatText {
				return []byte(id.String()), nil
			}
			b := id[:]
			out := make([]byte, 16)
			copy(out, b)
			return out, nil
		},
		Decode: func(data []byte, format Format) (any, error) {
			if data == nil {
				return nil, nil
			}
			if format == FormatText {
				return uuid.Parse(strings.TrimSpace(string(data)))
			}
			if len(data) != 16 {
				return nil, fmt.Errorf("uuid: expected 16 bytes, got %d", len(data))
			}
			var id uuid.UUID
			copy(id[:], data)
			return id, nil
		},
	})
}

// registerJSON covers json and jsonb. Per spec.md §4.2 both default to
// text: the value crossing the codec boundary is the raw JSON text
// (json.RawMessage), letting callers layer their own struct
// (un)marshaling on top via RegisterJSONCodec (see S4 in spec.md §8).
// jsonb additionally strips/adds the version-byte binary framing when a
// binary codec is requested.
func registerJSON(r *Registry) {
	textCodec := func(oid OID, name string) *Codec {
		return &Codec{
			OID: oid, Kind: KindScalar, Name: name, PreferredFormat: FormatText,
			Encode: func(v any, format Format) ([]byte, error) {
				raw, err := toJSONBytes(v)
				if err != nil {
					return nil, err
				}
				return raw, nil
			},
			Decode: func(data []byte, format Format) (any, error) {
				if data == nil {
					return nil, nil
				}
				out := make(json.RawMessage, len(data))
				copy(out, data)
				return out, nil
			},
		}
	}
	r.Register(textCodec(OIDJSON, "json"))

	jsonb := textCodec(OIDJSONB, "jsonb")
	jsonb.PreferredFormat = FormatBinary
	baseEncode := jsonb.Encode
	baseDecode := jsonb.Decode
	jsonb.Encode = func(v any, format Format) ([]byte, error) {
		raw, err := baseEncode(v, format)
		if err != nil {
			return nil, err
		}
		if format == FormatBinary {
			return append([]byte{1}, raw...), nil
		}
		return raw, nil
	}
	jsonb.Decode = func(data []byte, format Format) (any, error) {
		if data == nil {
			return nil, nil
		}
		if format == FormatBinary {
			if len(data) < 1 {
				return nil, fmt.Errorf("jsonb: missing version byte")
			}
			if data[0] != 1 {
				return nil, fmt.Errorf("jsonb: unsupported version byte %d", data[0])
			}
			data = data[1:]
		}
		return baseDecode(data, FormatText)
	}
	r.Register(jsonb)
}

// toJSONBytes accepts either pre-encoded JSON (string, []byte,
// json.RawMessage) or an arbitrary Go value to be marshaled, matching
// the flexible-input convention libpq-style drivers use for $N::json
// parameters (spec.md §8 S4).
func toJSONBytes(v any) ([]byte, error) {
	switch t := v.(type) {
	case json.RawMessage:
		return []byte(t), nil
	case []byte:
		return t, nil
	case string:
		return []byte(t), nil
	default:
		return json.Marshal(v)
	}
}
