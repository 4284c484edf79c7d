package types

import "fmt"

// RegisterEnumCodec builds and registers an enum codec for oid with the
// given ordered label set. Enums are always text on the wire — the
// label itself is the representation — so there is no binary form to
// implement; PreferredFormat stays FormatText.
func RegisterEnumCodec(reg *Registry, oid OID, name string, labels []string) {
	valid := make(map[string]bool, len(labels))
	for _, l := range labels {
		valid[l] = true
	}
	reg.Register(&Codec{
		OID: oid, Kind: KindEnum, Name: name, Labels: labels,
		PreferredFormat: FormatText,
		Encode: func(v any, format Format) ([]byte, error) {
			s, ok := v.(string)
			if !ok {
				return nil, &TypeMismatchError{OID: oid, Expected: "string", Got: v}
			}
			if !valid[s] {
				return nil, fmt.Errorf("enum %s: %q is not a valid label", name, s)
			}
			return []byte(s), nil
		},
		Decode: func(data []byte, format Format) (any, error) {
			if data == nil {
				return nil, nil
			}
			return string(data), nil
		},
	})
}

// RegisterDomainCodec registers oid as a domain over baseOID: encoding
// and decoding are delegated straight through to the base type's codec,
// resolved through reg at call time so a domain-over-domain chain (or a
// domain over a not-yet-registered composite discovered later in the
// same introspection pass) still resolves correctly.
func RegisterDomainCodec(reg *Registry, oid, baseOID OID, name string) {
	reg.Register(&Codec{
		OID: oid, Kind: KindDomain, Name: name, BaseOID: baseOID,
		PreferredFormat: FormatBinary,
		Encode: func(v any, format Format) ([]byte, error) {
			base, ok := reg.Lookup(baseOID)
			if !ok {
				return nil, &UnknownOIDError{OID: baseOID}
			}
			return base.Encode(v, format)
		},
		Decode: func(data []byte, format Format) (any, error) {
			base, ok := reg.Lookup(baseOID)
			if !ok {
				return nil, &UnknownOIDError{OID: baseOID}
			}
			return base.Decode(data, format)
		},
	})
}
