package types

import "testing"

func TestArray_BinaryRoundTrip(t *testing.T) {
	reg := Default()
	arrCodec, ok := reg.Lookup(OIDInt4Array)
	if !ok {
		t.Fatalf("no codec for _int4")
	}

	in := NewArray1D([]any{int64(1), int64(2), nil, int64(4)})
	encoded, err := arrCodec.Encode(in, FormatBinary)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := arrCodec.Decode(encoded, FormatBinary)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	out, ok := decoded.(Array)
	if !ok {
		t.Fatalf("decoded value is %T, want Array", decoded)
	}
	if len(out.Elements) != len(in.Elements) {
		t.Fatalf("got %d elements, want %d", len(out.Elements), len(in.Elements))
	}
	for i, want := range in.Elements {
		if out.Elements[i] != want {
			t.Fatalf("element %d = %v, want %v", i, out.Elements[i], want)
		}
	}
}

func TestArray_RaggedRejected(t *testing.T) {
	reg := Default()
	arrCodec, _ := reg.Lookup(OIDInt4Array)

	bad := Array{
		Dims:        []int32{3},
		LowerBounds: []int32{1},
		Elements:    []any{int64(1), int64(2)}, // declares 3, provides 2
	}
	if _, err := arrCodec.Encode(bad, FormatBinary); err == nil {
		t.Fatalf("Encode(ragged array): expected error, got nil")
	}
}

func TestArray_TextRoundTrip(t *testing.T) {
	reg := Default()
	arrCodec, _ := reg.Lookup(OIDTextArray)

	in := NewArray1D([]any{"a", "b,c", `has "quotes"`, nil})
	encoded, err := arrCodec.Encode(in, FormatText)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := arrCodec.Decode(encoded, FormatText)
	if err != nil {
		t.Fatalf("Decode(%q): %v", encoded, err)
	}
	out := decoded.(Array)
	for i, want := range in.Elements {
		if out.Elements[i] != want {
			t.Fatalf("element %d = %v, want %v", i, out.Elements[i], want)
		}
	}
}
