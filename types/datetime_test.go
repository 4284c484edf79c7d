package types

import (
	"testing"
	"time"
)

func TestTimestamp_BinaryRoundTrip(t *testing.T) {
	reg := Default()
	codec, ok := reg.Lookup(OIDTimestamp)
	if !ok {
		t.Fatalf("no codec for timestamp")
	}

	in := time.Date(2024, 3, 15, 12, 30, 45, 123000000, time.UTC)
	encoded, err := codec.Encode(in, FormatBinary)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := codec.Decode(encoded, FormatBinary)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got := decoded.(time.Time)
	if !got.Equal(in) {
		t.Fatalf("round trip = %v, want %v", got, in)
	}
}

func TestTimestamp_Infinity(t *testing.T) {
	reg := Default()
	codec, _ := reg.Lookup(OIDTimestamp)

	for _, in := range []time.Time{PosInfinity, NegInfinity} {
		encoded, err := codec.Encode(in, FormatBinary)
		if err != nil {
			t.Fatalf("Encode(%v): %v", in, err)
		}
		decoded, err := codec.Decode(encoded, FormatBinary)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if !decoded.(time.Time).Equal(in) {
			t.Fatalf("round trip = %v, want %v", decoded, in)
		}
	}
}

func TestDate_BinaryRoundTrip(t *testing.T) {
	reg := Default()
	codec, ok := reg.Lookup(OIDDate)
	if !ok {
		t.Fatalf("no codec for date")
	}

	in := time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC)
	encoded, err := codec.Encode(in, FormatBinary)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := codec.Decode(encoded, FormatBinary)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !decoded.(time.Time).Equal(in) {
		t.Fatalf("round trip = %v, want %v", decoded, in)
	}
}

func TestInterval_BinaryRoundTrip(t *testing.T) {
	reg := Default()
	codec, ok := reg.Lookup(OIDInterval)
	if !ok {
		t.Fatalf("no codec for interval")
	}

	in := Interval{Microseconds: 1500000, Days: 3, Months: 14}
	encoded, err := codec.Encode(in, FormatBinary)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := codec.Decode(encoded, FormatBinary)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if decoded.(Interval) != in {
		t.Fatalf("round trip = %+v, want %+v", decoded, in)
	}
}
