package types

import "testing"

func TestComposite_RoundTrip(t *testing.T) {
	reg := Default().Fork()
	const compositeOID OID = 50001

	fields := []CompositeField{
		{Name: "id", OID: OIDInt4},
		{Name: "label", OID: OIDText},
	}
	RegisterCompositeCodec(reg, compositeOID, "labeled_id", fields)

	codec, ok := reg.Lookup(compositeOID)
	if !ok {
		t.Fatalf("composite codec not registered")
	}

	in := Composite{Fields: fields, Values: []any{int64(7), "seven"}}
	encoded, err := codec.Encode(in, FormatBinary)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := codec.Decode(encoded, FormatBinary)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	out := decoded.(Composite)

	label, ok := out.Get("label")
	if !ok || label != "seven" {
		t.Fatalf("Get(label) = %v, %v; want seven, true", label, ok)
	}
	if _, ok := out.Get("nonexistent"); ok {
		t.Fatalf("Get(nonexistent) reported ok=true")
	}
}

func TestRange_EmptyAndBounded(t *testing.T) {
	reg := Default().Fork()
	const rangeOID OID = 50002
	RegisterRangeCodec(reg, rangeOID, OIDInt4, "int4range")
	codec, _ := reg.Lookup(rangeOID)

	empty := Range{Empty: true}
	encoded, err := codec.Encode(empty, FormatBinary)
	if err != nil {
		t.Fatalf("Encode(empty): %v", err)
	}
	decoded, err := codec.Decode(encoded, FormatBinary)
	if err != nil {
		t.Fatalf("Decode(empty): %v", err)
	}
	if !decoded.(Range).Empty {
		t.Fatalf("decoded range not marked empty")
	}

	bounded := Range{LowerInclusive: true, Lower: int64(1), Upper: int64(10)}
	encoded, err = codec.Encode(bounded, FormatBinary)
	if err != nil {
		t.Fatalf("Encode(bounded): %v", err)
	}
	decoded, err = codec.Decode(encoded, FormatBinary)
	if err != nil {
		t.Fatalf("Decode(bounded): %v", err)
	}
	out := decoded.(Range)
	if out.Lower != int64(1) || out.Upper != int64(10) || !out.LowerInclusive {
		t.Fatalf("decoded bounded range = %+v", out)
	}
}

func TestEnum_ValidatesLabel(t *testing.T) {
	reg := Default().Fork()
	const enumOID OID = 50003
	RegisterEnumCodec(reg, enumOID, "mood", []string{"sad", "ok", "happy"})
	codec, _ := reg.Lookup(enumOID)

	encoded, err := codec.Encode("happy", FormatText)
	if err != nil {
		t.Fatalf("Encode(happy): %v", err)
	}
	decoded, err := codec.Decode(encoded, FormatText)
	if err != nil || decoded != "happy" {
		t.Fatalf("round trip = %v, %v; want happy, nil", decoded, err)
	}

	if _, err := codec.Encode("furious", FormatText); err == nil {
		t.Fatalf("Encode(furious): expected error for invalid label")
	}
}

func TestDomain_DelegatesToBase(t *testing.T) {
	reg := Default().Fork()
	const domainOID OID = 50004
	RegisterDomainCodec(reg, domainOID, OIDInt4, "positive_int")
	codec, _ := reg.Lookup(domainOID)

	encoded, err := codec.Encode(int64(5), FormatBinary)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := codec.Decode(encoded, FormatBinary)
	if err != nil || decoded != int64(5) {
		t.Fatalf("round trip = %v, %v; want 5, nil", decoded, err)
	}
}
