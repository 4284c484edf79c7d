package types

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

func buildDefaultRegistry() *Registry {
	r := NewRegistry(nil)
	registerBool(r)
	registerIntegers(r)
	registerFloats(r)
	registerText(r)
	registerBytea(r)
	registerUUID(r)
	registerJSON(r)
	registerNumeric(r)
	registerDateTime(r)
	registerNetwork(r)
	registerBit(r)
	registerGeometric(r)
	registerArrays(r)
	return r
}

func asBytesEqual(a, b byte) bool { return a == b }

func registerBool(r *Registry) {
	r.Register(&Codec{
		OID: OIDBool, Kind: KindScalar, Name: "bool", PreferredFormat: FormatBinary,
		Encode: func(v any, format Format) ([]byte, error) {
			b, ok := v.(bool)
			if !ok {
				return nil, &TypeMismatchError{OID: OIDBool, Expected: "bool", Got: v}
			}
			if format == FormatBinary {
				if b {
					return []byte{1}, nil
				}
				return []byte{0}, nil
			}
			if b {
				return []byte("t"), nil
			}
			return []byte("f"), nil
		},
		Decode: func(data []byte, format Format) (any, error) {
			if data == nil {
				return nil, nil
			}
			if format == FormatBinary {
				if len(data) != 1 {
					return nil, fmt.Errorf("bool: expected 1 byte, got %d", len(data))
				}
				return data[0] != 0, nil
			}
			return asBytesEqual(data[0], 't'), nil
		},
	})
}

func registerIntegers(r *Registry) {
	reg := func(oid OID, name string, size int) {
		r.Register(&Codec{
			OID: oid, Kind: KindScalar, Name: name, PreferredFormat: FormatBinary,
			Encode: func(v any, format Format) ([]byte, error) {
				n, err := toInt64(v)
				if err != nil {
					return nil, &TypeMismatchError{OID: oid, Expected: name, Got: v}
				}
				if format == FormatText {
					return []byte(strconv.FormatInt(n, 10)), nil
				}
				buf := make([]byte, size)
				switch size {
				case 2:
					binary.BigEndian.PutUint16(buf, uint16(int16(n)))
				case 4:
					binary.BigEndian.PutUint32(buf, uint32(int32(n)))
				case 8:
					binary.BigEndian.PutUint64(buf, uint64(n))
				}
				return buf, nil
			},
			Decode: func(data []byte, format Format) (any, error) {
				if data == nil {
					return nil, nil
				}
				if format == FormatText {
					n, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
					if err != nil {
						return nil, err
					}
					return n, nil
				}
				switch size {
				case 2:
					if len(data) != 2 {
						return nil, fmt.Errorf("%s: expected 2 bytes", name)
					}
					return int64(int16(binary.BigEndian.Uint16(data))), nil
				case 4:
					if len(data) != 4 {
						return nil, fmt.Errorf("%s: expected 4 bytes", name)
					}
					return int64(int32(binary.BigEndian.Uint32(data))), nil
				case 8:
					if len(data) != 8 {
						return nil, fmt.Errorf("%s: expected 8 bytes", name)
					}
					return int64(binary.BigEndian.Uint64(data)), nil
				}
				return nil, fmt.Errorf("unreachable int size %d", size)
			},
		})
	}
	reg(OIDInt2, "int2", 2)
	reg(OIDInt4, "int4", 4)
	reg(OIDInt8, "int8", 8)
	reg(OIDOID, "oid", 4)
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint32:
		return int64(n), nil
	}
	return 0, fmt.Errorf("not an integer: %T", v)
}

func registerFloats(r *Registry) {
	r.Register(&Codec{
		OID: OIDFloat4, Kind: KindScalar, Name: "float4", PreferredFormat: FormatBinary,
		Encode: func(v any, format Format) ([]byte, error) {
			f, err := toFloat64(v)
			if err != nil {
				return nil, &TypeMismatchError{OID: OIDFloat4, Expected: "float32/float64", Got: v}
			}
			if format == FormatText {
				return []byte(strconv.FormatFloat(f, 'g', -1, 32)), nil
			}
			buf := make([]byte, 4)
			binary.BigEndian.PutUint32(buf, math.Float32bits(float32(f)))
			return buf, nil
		},
		Decode: func(data []byte, format Format) (any, error) {
			if data == nil {
				return nil, nil
			}
			if format == FormatText {
				f, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 32)
				return float32(f), err
			}
			if len(data) != 4 {
				return nil, fmt.Errorf("float4: expected 4 bytes")
			}
			return math.Float32frombits(binary.BigEndian.Uint32(data)), nil
		},
	})
	r.Register(&Codec{
		OID: OIDFloat8, Kind: KindScalar, Name: "float8", PreferredFormat: FormatBinary,
		Encode: func(v any, format Format) ([]byte, error) {
			f, err := toFloat64(v)
			if err != nil {
				return nil, &TypeMismatchError{OID: OIDFloat8, Expected: "float32/float64", Got: v}
			}
			if format == FormatText {
				return []byte(strconv.FormatFloat(f, 'g', -1, 64)), nil
			}
			buf := make([]byte, 8)
			binary.BigEndian.PutUint64(buf, math.Float64bits(f))
			return buf, nil
		},
		Decode: func(data []byte, format Format) (any, error) {
			if data == nil {
				return nil, nil
			}
			if format == FormatText {
				return strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
			}
			if len(data) != 8 {
				return nil, fmt.Errorf("float8: expected 8 bytes")
			}
			return math.Float64frombits(binary.BigEndian.Uint64(data)), nil
		},
	})
}

func toFloat64(v any) (float64, error) {
	switch f := v.(type) {
	case float32:
		return float64(f), nil
	case float64:
		return f, nil
	case int:
		return float64(f), nil
	case int64:
		return float64(f), nil
	}
	return 0, fmt.Errorf("not a float: %T", v)
}

// registerText covers text, varchar, bpchar(n), name, xml, money — every
// type spec.md says may be handled "as text" and every plain string
// type, all of which share an identical wire shape.
func registerText(r *Registry) {
	reg := func(oid OID, name string) {
		r.Register(&Codec{
			OID: oid, Kind: KindScalar, Name: name, PreferredFormat: FormatText,
			Encode: func(v any, format Format) ([]byte, error) {
				s, ok := v.(string)
				if !ok {
					return nil, &TypeMismatchError{OID: oid, Expected: "string", Got: v}
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
	reg(OIDText, "text")
	reg(OIDVarchar, "varchar")
	reg(OIDBpchar, "bpchar")
	reg(OIDName, "name")
	reg(OIDChar, "char")
	reg(OIDXML, "xml")
	reg(OIDMoney, "money")
	reg(OIDUnknown, "unknown")
}

func registerBytea(r *Registry) {
	r.Register(&Codec{
		OID: OIDBytea, Kind: KindScalar, Name: "bytea", PreferredFormat: FormatBinary,
		Encode: func(v any, format Format) ([]byte, error) {
			b, ok := v.([]byte)
			if !ok {
				return nil, &TypeMismatchError{OID: OIDBytea, Expected: "[]byte", Got: v}
			}
			if format == FormatText {
				return []byte("\\x" + hexEncode(b)), nil
			}
			return b, nil
		},
		Decode: func(data []byte, format Format) (any, error) {
			if data == nil {
				return nil, nil
			}
			if format == FormatText {
				if len(data) >= 2 && data[0] == '\\' && data[1] == 'x' {
					return hexDecode(string(data[2:]))
				}
				return data, nil
			}
			out := make([]byte, len(data))
			copy(out, data)
			return out, nil
		},
	})
}

func hexEncode(b []byte) string {
	const digits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = digits[c>>4]
		out[i*2+1] = digits[c&0xf]
	}
	return string(out)
}

func hexDecode(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("bytea hex: odd length")
	}
	out := make([]byte, len(s)/2)
	for i := range out {
		hi, err := hexVal(s[i*2])
		if err != nil {
			return nil, err
		}
		lo, err := hexVal(s[i*2+1])
		if err != nil {
			return nil, err
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexVal(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	}
	return 0, fmt.Errorf("bytea hex: invalid digit %q", c)
}
