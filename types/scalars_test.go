package types

import (
	"bytes"
	"testing"
)

func TestScalarCodecs_BinaryRoundTrip(t *testing.T) {
	reg := Default()
	tests := []struct {
		name string
		oid  OID
		in   any
	}{
		{"bool true", OIDBool, true},
		{"bool false", OIDBool, false},
		{"int2", OIDInt2, int64(-42)},
		{"int4", OIDInt4, int64(123456)},
		{"int8", OIDInt8, int64(-9000000000)},
		{"float4", OIDFloat4, float32(3.5)},
		{"float8", OIDFloat8, float64(2.71828)},
		{"text", OIDText, "hello, world"},
		{"bytea", OIDBytea, []byte{0x00, 0xff, 0x10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec, ok := reg.Lookup(tt.oid)
			if !ok {
				t.Fatalf("no codec for OID %d", tt.oid)
			}
			encoded, err := codec.Encode(tt.in, FormatBinary)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, err := codec.Decode(encoded, FormatBinary)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			switch want := tt.in.(type) {
			case []byte:
				gb, ok := got.([]byte)
				if !ok || !bytes.Equal(gb, want) {
					t.Fatalf("round trip = %v, want %v", got, want)
				}
			default:
				if got != tt.in {
					t.Fatalf("round trip = %v (%T), want %v (%T)", got, got, tt.in, tt.in)
				}
			}
		})
	}
}

func TestScalarCodecs_NullDecodesToNil(t *testing.T) {
	reg := Default()
	codec, ok := reg.Lookup(OIDInt4)
	if !ok {
		t.Fatalf("no codec for int4")
	}
	v, err := codec.Decode(nil, FormatBinary)
	if err != nil {
		t.Fatalf("Decode(nil): %v", err)
	}
	if v != nil {
		t.Fatalf("Decode(nil) = %v, want nil", v)
	}
}

func TestScalarCodecs_TypeMismatch(t *testing.T) {
	reg := Default()
	codec, ok := reg.Lookup(OIDBool)
	if !ok {
		t.Fatalf("no codec for bool")
	}
	if _, err := codec.Encode("not a bool", FormatBinary); err == nil {
		t.Fatalf("Encode(string) into bool codec: expected error, got nil")
	}
}

func TestRegistry_ForkOverridesWithoutMutatingParent(t *testing.T) {
	base := Default()
	fork := base.Fork()

	var called bool
	RegisterCodec(fork, OIDText, "text", FormatText,
		func(v any, format Format) ([]byte, error) { called = true; return []byte(v.(string)), nil },
		func(data []byte, format Format) (any, error) { return string(data), nil },
	)

	forkCodec, _ := fork.Lookup(OIDText)
	if _, err := forkCodec.Encode("x", FormatText); err != nil {
		t.Fatalf("Encode via fork: %v", err)
	}
	if !called {
		t.Fatalf("fork's overridden codec was not invoked")
	}

	baseCodec, _ := base.Lookup(OIDText)
	if baseCodec == forkCodec {
		t.Fatalf("base registry codec pointer changed after Fork+Register; copy-on-write violated")
	}
}
