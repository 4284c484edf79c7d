package types

import (
	"fmt"

	"pgnative/wire"
)

// Composite is the Go-side representation of a row (composite) type
// value: field values in declaration order, alongside the OID each
// field was encoded/decoded with for diagnostics.
type Composite struct {
	Fields []CompositeField
	Values []any
}

// Get returns the value of the named field, or (nil, false) if no field
// by that name exists.
func (c Composite) Get(name string) (any, bool) {
	for i, f := range c.Fields {
		if f.Name == name {
			return c.Values[i], true
		}
	}
	return nil, false
}

// RegisterCompositeCodec builds and registers a composite codec for oid
// whose fields are described by fields, resolving each field's codec
// through reg at call time (see RegisterArrayCodec for why: this lets
// introspection register field types after, or in the same pass as, the
// composite itself, without caring about ordering).
func RegisterCompositeCodec(reg *Registry, oid OID, name string, fields []CompositeField) {
	reg.Register(&Codec{
		OID: oid, Kind: KindComposite, Name: name, Fields: fields,
		PreferredFormat: FormatBinary,
		Encode:          compositeEncoder(reg, fields),
		Decode:          compositeDecoder(reg, fields),
	})
}

func compositeEncoder(reg *Registry, fields []CompositeField) EncodeFunc {
	return func(v any, format Format) ([]byte, error) {
		comp, ok := v.(Composite)
		if !ok {
			return nil, fmt.Errorf("composite: expected Composite, got %T", v)
		}
		if len(comp.Values) != len(fields) {
			return nil, fmt.Errorf("composite: expected %d fields, got %d", len(fields), len(comp.Values))
		}
		b := wire.NewBuilder()
		b.Int32(int32(len(fields)))
		for i, f := range fields {
			codec, ok := reg.Lookup(f.OID)
			if !ok {
				return nil, &UnknownOIDError{OID: f.OID}
			}
			b.Int32(int32(f.OID))
			if comp.Values[i] == nil {
				b.Int32(-1)
				continue
			}
			ev, err := codec.Encode(comp.Values[i], codec.PreferredFormat)
			if err != nil {
				return nil, err
			}
			b.LengthPrefixedBytes(ev)
		}
		return b.Bytes(), nil
	}
}

func compositeDecoder(reg *Registry, fields []CompositeField) DecodeFunc {
	return func(data []byte, format Format) (any, error) {
		if data == nil {
			return nil, nil
		}
		s := wire.NewScanner(data)
		n, err := s.Int32()
		if err != nil {
			return nil, err
		}
		values := make([]any, n)
		for i := 0; i < int(n); i++ {
			fieldOID, err := s.Int32()
			if err != nil {
				return nil, err
			}
			raw, err := s.LengthPrefixedBytes()
			if err != nil {
				return nil, err
			}
			if raw == nil {
				values[i] = nil
				continue
			}
			codec, ok := reg.Lookup(OID(fieldOID))
			if !ok {
				return nil, &UnknownOIDError{OID: OID(fieldOID)}
			}
			v, err := codec.Decode(raw, codec.PreferredFormat)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		return Composite{Fields: fields, Values: values}, nil
	}
}
