package types

// RegisterCodec installs a user-supplied encoder/decoder pair for oid
// into reg, the top-level escape hatch spec.md requires for types the
// built-in registry does not cover (a custom domain-specific enum, a
// JSON binding to a concrete Go struct, etc.). format is what Bind uses
// when the caller does not ask for a specific wire format.
func RegisterCodec(reg *Registry, oid OID, name string, format Format, encode EncodeFunc, decode DecodeFunc) {
	reg.Register(&Codec{
		OID:             oid,
		Kind:            KindScalar,
		Name:            name,
		PreferredFormat: format,
		Encode:          encode,
		Decode:          decode,
	})
}

// RegisterJSONCodec is a convenience wrapper over RegisterCodec for the
// common case of binding oid (typically a jsonb or json column) to a
// concrete Go type via arbitrary serialize/deserialize functions, e.g.
// encoding/json's Marshal/Unmarshal or a generated codec.
func RegisterJSONCodec(reg *Registry, oid OID, name string, serialize func(any) ([]byte, error), deserialize func([]byte) (any, error)) {
	RegisterCodec(reg, oid, name, FormatBinary,
		func(v any, format Format) ([]byte, error) {
			raw, err := serialize(v)
			if err != nil {
				return nil, err
			}
			if oid == OIDJSONB && format == FormatBinary {
				return append([]byte{1}, raw...), nil
			}
			return raw, nil
		},
		func(data []byte, format Format) (any, error) {
			if data == nil {
				return nil, nil
			}
			if oid == OIDJSONB && format == FormatBinary && len(data) > 0 {
				data = data[1:]
			}
			return deserialize(data)
		},
	)
}
