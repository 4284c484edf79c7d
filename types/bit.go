package types

import (
	"fmt"
	"strings"

	"pgnative/wire"
)

// Bits is the Go-side representation of bit(n) and varbit values: a
// packed, MSB-first byte slice plus the exact bit length (which is not
// always a multiple of 8).
type Bits struct {
	Len   int
	Bytes []byte
}

func (b Bits) String() string {
	var sb strings.Builder
	for i := 0; i < b.Len; i++ {
		byteIdx, bitIdx := i/8, 7-(i%8)
		if byteIdx < len(b.Bytes) && b.Bytes[byteIdx]&(1<<bitIdx) != 0 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

func parseBitsText(s string) (Bits, error) {
	bits := Bits{Len: len(s), Bytes: make([]byte, (len(s)+7)/8)}
	for i, c := range s {
		if c != '0' && c != '1' {
			return Bits{}, fmt.Errorf("bit: invalid character %q", c)
		}
		if c == '1' {
			bits.Bytes[i/8] |= 1 << (7 - (i % 8))
		}
	}
	return bits, nil
}

func registerBit(r *Registry) {
	reg := func(oid OID, name string) {
		r.Register(&Codec{
			OID: oid, Kind: KindScalar, Name: name, PreferredFormat: FormatBinary,
			Encode: func(v any, format Format) ([]byte, error) {
				bits, err := toBits(v)
				if err != nil {
					return nil, &TypeMismatchError{OID: oid, Expected: "Bits/string", Got: v}
				}
				if format == FormatText {
					return []byte(bits.String()), nil
				}
				b := wire.NewBuilder()
				b.Int32(int32(bits.Len))
				b.RawBytes(bits.Bytes)
				return b.Bytes(), nil
			},
			Decode: func(data []byte, format Format) (any, error) {
				if data == nil {
					return nil, nil
				}
				if format == FormatText {
					return parseBitsText(strings.TrimSpace(string(data)))
				}
				s := wire.NewScanner(data)
				n, err := s.Int32()
				if err != nil {
					return nil, err
				}
				raw, err := s.RawBytes((int(n) + 7) / 8)
				if err != nil {
					return nil, err
				}
				out := make([]byte, len(raw))
				copy(out, raw)
				return Bits{Len: int(n), Bytes: out}, nil
			},
		})
	}
	reg(OIDBit, "bit")
	reg(OIDVarbit, "varbit")
}

func toBits(v any) (Bits, error) {
	switch t := v.(type) {
	case Bits:
		return t, nil
	case string:
		return parseBitsText(t)
	}
	return Bits{}, fmt.Errorf("not a bit value: %T", v)
}
