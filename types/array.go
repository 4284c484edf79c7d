package types

import (
	"fmt"

	"pgnative/wire"
)

// Array is the Go-side representation of any PostgreSQL array value,
// carrying its own dimensionality so that multi-dimensional (rectangular)
// arrays round-trip exactly. Elements is stored flattened, row-major, to
// avoid forcing a fixed Go array/slice shape on every possible
// dimensionality.
type Array struct {
	Dims        []int32 // length of each dimension
	LowerBounds []int32 // PostgreSQL lower bound per dimension, usually 1
	Elements    []any   // flattened, row-major; nil entries are SQL NULL
}

// NewArray1D builds a one-dimensional Array with the conventional lower
// bound of 1, the common case for values built by application code.
func NewArray1D(elements []any) Array {
	return Array{
		Dims:        []int32{int32(len(elements))},
		LowerBounds: []int32{1},
		Elements:    elements,
	}
}

func (a Array) elementCount() int {
	n := 1
	for _, d := range a.Dims {
		n *= int(d)
	}
	if len(a.Dims) == 0 {
		return 0
	}
	return n
}

// RegisterArrayCodec builds and registers the array codec for arrayOID
// whose elements have type elemOID, resolving the element codec through
// reg at call time so that later registrations (including ones made
// after this call, e.g. via later introspection) are honored.
func RegisterArrayCodec(reg *Registry, arrayOID, elemOID OID, name string) {
	reg.Register(&Codec{
		OID: arrayOID, Kind: KindArray, Name: name, ElemOID: elemOID,
		PreferredFormat: FormatBinary,
		Encode:          arrayEncoder(reg, elemOID),
		Decode:          arrayDecoder(reg, elemOID),
	})
}

func arrayEncoder(reg *Registry, elemOID OID) EncodeFunc {
	return func(v any, format Format) ([]byte, error) {
		arr, err := toArray(v)
		if err != nil {
			return nil, &TypeMismatchError{OID: elemOID, Expected: "Array/[]any", Got: v}
		}
		if err := validateRectangular(arr); err != nil {
			return nil, err
		}
		elemCodec, ok := reg.Lookup(elemOID)
		if !ok {
			return nil, &UnknownOIDError{OID: elemOID}
		}
		if format == FormatText {
			return encodeArrayText(arr, elemCodec)
		}
		hasNulls := int32(0)
		for _, e := range arr.Elements {
			if e == nil {
				hasNulls = 1
				break
			}
		}
		b := wire.NewBuilder()
		b.Int32(int32(len(arr.Dims)))
		b.Int32(hasNulls)
		b.Int32(int32(elemOID))
		for i := range arr.Dims {
			b.Int32(arr.Dims[i])
			b.Int32(arr.LowerBounds[i])
		}
		for _, e := range arr.Elements {
			if e == nil {
				b.Int32(-1)
				continue
			}
			ev, err := elemCodec.Encode(e, elemCodec.PreferredFormat)
			if err != nil {
				return nil, err
			}
			b.LengthPrefixedBytes(ev)
		}
		return b.Bytes(), nil
	}
}

func arrayDecoder(reg *Registry, elemOID OID) DecodeFunc {
	return func(data []byte, format Format) (any, error) {
		if data == nil {
			return nil, nil
		}
		elemCodec, ok := reg.Lookup(elemOID)
		if !ok {
			return nil, &UnknownOIDError{OID: elemOID}
		}
		if format == FormatText {
			return decodeArrayText(string(data), elemCodec)
		}
		s := wire.NewScanner(data)
		ndim, err := s.Int32()
		if err != nil {
			return nil, err
		}
		if _, err := s.Int32(); err != nil { // has_nulls, informational only
			return nil, err
		}
		if _, err := s.Int32(); err != nil { // element OID, already known
			return nil, err
		}
		arr := Array{Dims: make([]int32, ndim), LowerBounds: make([]int32, ndim)}
		for i := 0; i < int(ndim); i++ {
			length, err := s.Int32()
			if err != nil {
				return nil, err
			}
			lower, err := s.Int32()
			if err != nil {
				return nil, err
			}
			arr.Dims[i] = length
			arr.LowerBounds[i] = lower
		}
		n := arr.elementCount()
		arr.Elements = make([]any, n)
		for i := 0; i < n; i++ {
			raw, err := s.LengthPrefixedBytes()
			if err != nil {
				return nil, err
			}
			if raw == nil {
				arr.Elements[i] = nil
				continue
			}
			ev, err := elemCodec.Decode(raw, elemCodec.PreferredFormat)
			if err != nil {
				return nil, err
			}
			arr.Elements[i] = ev
		}
		return arr, nil
	}
}

func toArray(v any) (Array, error) {
	switch t := v.(type) {
	case Array:
		return t, nil
	case []any:
		return NewArray1D(t), nil
	}
	return Array{}, fmt.Errorf("not an array value: %T", v)
}

// validateRectangular checks that the flattened Elements length agrees
// with the declared Dims product, the invariant a ragged (jagged)
// two-level Go slice would violate.
func validateRectangular(a Array) error {
	if len(a.Elements) != a.elementCount() {
		return &InvalidArrayError{Reason: fmt.Sprintf(
			"declared dimensions imply %d elements, got %d", a.elementCount(), len(a.Elements))}
	}
	return nil
}

func encodeArrayText(a Array, elemCodec *Codec) ([]byte, error) {
	out := []byte{'{'}
	for i, e := range a.Elements {
		if i > 0 {
			out = append(out, ',')
		}
		if e == nil {
			out = append(out, "NULL"...)
			continue
		}
		ev, err := elemCodec.Encode(e, FormatText)
		if err != nil {
			return nil, err
		}
		out = append(out, quoteArrayElement(ev)...)
	}
	out = append(out, '}')
	return out, nil
}

func quoteArrayElement(v []byte) []byte {
	needsQuote := len(v) == 0
	for _, c := range v {
		if c == ',' || c == '{' || c == '}' || c == '"' || c == '\\' || c == ' ' {
			needsQuote = true
			break
		}
	}
	if !needsQuote {
		return v
	}
	out := []byte{'"'}
	for _, c := range v {
		if c == '"' || c == '\\' {
			out = append(out, '\\')
		}
		out = append(out, c)
	}
	out = append(out, '"')
	return out
}

// decodeArrayText parses PostgreSQL's braces-and-commas array literal
// format, handling quoted elements but assuming a single dimension
// (the common case for text-format results; binary format is preferred
// whenever the element codec supports it, so this path mainly serves
// simple-query results).
func decodeArrayText(s string, elemCodec *Codec) (any, error) {
	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return nil, fmt.Errorf("array: malformed literal %q", s)
	}
	inner := s[1 : len(s)-1]
	var elements []any
	var cur []byte
	inQuotes := false
	escaped := false
	flush := func() error {
		text := string(cur)
		cur = cur[:0]
		if !inQuotes && text == "NULL" {
			elements = append(elements, nil)
			return nil
		}
		v, err := elemCodec.Decode([]byte(text), FormatText)
		if err != nil {
			return err
		}
		elements = append(elements, v)
		return nil
	}
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		switch {
		case escaped:
			cur = append(cur, c)
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			if err := flush(); err != nil {
				return nil, err
			}
		default:
			cur = append(cur, c)
		}
	}
	if len(inner) > 0 {
		if err := flush(); err != nil {
			return nil, err
		}
	}
	return NewArray1D(elements), nil
}

func registerArrays(r *Registry) {
	pairs := []struct {
		arr, elem OID
		name      string
	}{
		{OIDBoolArray, OIDBool, "_bool"},
		{OIDInt2Array, OIDInt2, "_int2"},
		{OIDInt4Array, OIDInt4, "_int4"},
		{OIDInt8Array, OIDInt8, "_int8"},
		{OIDFloat4Array, OIDFloat4, "_float4"},
		{OIDFloat8Array, OIDFloat8, "_float8"},
		{OIDTextArray, OIDText, "_text"},
		{OIDVarcharArray, OIDVarchar, "_varchar"},
		{OIDUUIDArray, OIDUUID, "_uuid"},
		{OIDJSONArray, OIDJSON, "_json"},
		{OIDJSONBArray, OIDJSONB, "_jsonb"},
		{OIDNumericArray, OIDNumeric, "_numeric"},
		{OIDTimestampArray, OIDTimestamp, "_timestamp"},
		{OIDTimestamptzArray, OIDTimestamptz, "_timestamptz"},
	}
	for _, p := range pairs {
		RegisterArrayCodec(r, p.arr, p.elem, p.name)
	}
}
