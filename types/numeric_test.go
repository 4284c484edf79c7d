package types

import "testing"

func TestNumeric_BinaryRoundTrip(t *testing.T) {
	reg := Default()
	codec, ok := reg.Lookup(OIDNumeric)
	if !ok {
		t.Fatalf("no codec for numeric")
	}

	tests := []string{
		"0",
		"123",
		"-123",
		"123.45",
		"-0.001",
		"10000",
		"0.00010000",
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			encoded, err := codec.Encode(Numeric(in), FormatBinary)
			if err != nil {
				t.Fatalf("Encode(%q): %v", in, err)
			}
			decoded, err := codec.Decode(encoded, FormatBinary)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			got := string(decoded.(Numeric))
			if got != in {
				t.Fatalf("round trip %q -> %q, want %q", in, got, in)
			}
		})
	}
}

func TestNumeric_SpecialValues(t *testing.T) {
	reg := Default()
	codec, _ := reg.Lookup(OIDNumeric)

	tests := map[string]string{
		"NaN":      "NaN",
		"Infinity": "Infinity",
		"-Infinity": "-Infinity",
	}
	for in, want := range tests {
		encoded, err := codec.Encode(Numeric(in), FormatBinary)
		if err != nil {
			t.Fatalf("Encode(%q): %v", in, err)
		}
		decoded, err := codec.Decode(encoded, FormatBinary)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if string(decoded.(Numeric)) != want {
			t.Fatalf("round trip %q -> %q, want %q", in, decoded, want)
		}
	}
}
