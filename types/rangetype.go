package types

import (
	"pgnative/wire"
)

// Range flag bits, per spec.md §4.2.
const (
	rangeEmpty  byte = 0x01
	rangeLBInc  byte = 0x02
	rangeUBInc  byte = 0x04
	rangeLBInf  byte = 0x08
	rangeUBInf  byte = 0x10
)

// Range is the Go-side representation of a range type value.
type Range struct {
	Empty               bool
	LowerInclusive       bool
	UpperInclusive       bool
	LowerInfinite        bool
	UpperInfinite        bool
	Lower, Upper         any // nil when the corresponding *Infinite flag is set
}

// RegisterRangeCodec builds and registers a range codec for oid over
// elements of type elemOID.
func RegisterRangeCodec(reg *Registry, oid, elemOID OID, name string) {
	reg.Register(&Codec{
		OID: oid, Kind: KindRange, Name: name, ElemOID: elemOID,
		PreferredFormat: FormatBinary,
		Encode:          rangeEncoder(reg, elemOID),
		Decode:          rangeDecoder(reg, elemOID),
	})
}

func rangeEncoder(reg *Registry, elemOID OID) EncodeFunc {
	return func(v any, format Format) ([]byte, error) {
		rng, ok := v.(Range)
		if !ok {
			return nil, &TypeMismatchError{OID: elemOID, Expected: "Range", Got: v}
		}
		var flags byte
		if rng.Empty {
			flags |= rangeEmpty
		}
		if rng.LowerInclusive {
			flags |= rangeLBInc
		}
		if rng.UpperInclusive {
			flags |= rangeUBInc
		}
		if rng.LowerInfinite {
			flags |= rangeLBInf
		}
		if rng.UpperInfinite {
			flags |= rangeUBInf
		}
		b := wire.NewBuilder()
		b.Byte(flags)
		if rng.Empty {
			return b.Bytes(), nil
		}
		elemCodec, ok := reg.Lookup(elemOID)
		if !ok {
			return nil, &UnknownOIDError{OID: elemOID}
		}
		if !rng.LowerInfinite {
			lv, err := elemCodec.Encode(rng.Lower, elemCodec.PreferredFormat)
			if err != nil {
				return nil, err
			}
			b.LengthPrefixedBytes(lv)
		}
		if !rng.UpperInfinite {
			uv, err := elemCodec.Encode(rng.Upper, elemCodec.PreferredFormat)
			if err != nil {
				return nil, err
			}
			b.LengthPrefixedBytes(uv)
		}
		return b.Bytes(), nil
	}
}

func rangeDecoder(reg *Registry, elemOID OID) DecodeFunc {
	return func(data []byte, format Format) (any, error) {
		if data == nil {
			return nil, nil
		}
		s := wire.NewScanner(data)
		flags, err := s.Byte()
		if err != nil {
			return nil, err
		}
		rng := Range{
			Empty:          flags&rangeEmpty != 0,
			LowerInclusive: flags&rangeLBInc != 0,
			UpperInclusive: flags&rangeUBInc != 0,
			LowerInfinite:  flags&rangeLBInf != 0,
			UpperInfinite:  flags&rangeUBInf != 0,
		}
		if rng.Empty {
			return rng, nil
		}
		elemCodec, ok := reg.Lookup(elemOID)
		if !ok {
			return nil, &UnknownOIDError{OID: elemOID}
		}
		if !rng.LowerInfinite {
			raw, err := s.LengthPrefixedBytes()
			if err != nil {
				return nil, err
			}
			v, err := elemCodec.Decode(raw, elemCodec.PreferredFormat)
			if err != nil {
				return nil, err
			}
			rng.Lower = v
		}
		if !rng.UpperInfinite {
			raw, err := s.LengthPrefixedBytes()
			if err != nil {
				return nil, err
			}
			v, err := elemCodec.Decode(raw, elemCodec.PreferredFormat)
			if err != nil {
				return nil, err
			}
			rng.Upper = v
		}
		return rng, nil
	}
}
