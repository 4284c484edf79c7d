package wire

import (
	"bytes"
	"testing"
)

func TestBuilder_DeferredLengthPatch(t *testing.T) {
	b := NewBuilder()
	at := b.BeginMessage('Q')
	b.CString("select 1")
	b.FinishMessage(at)

	got := b.Bytes()
	if got[0] != 'Q' {
		t.Fatalf("tag byte = %q, want 'Q'", got[0])
	}
	// length covers itself + the CString, not the leading tag byte.
	wantLen := 4 + len("select 1") + 1
	s := NewScanner(got[1:])
	length, err := s.Int32()
	if err != nil {
		t.Fatalf("Int32: %v", err)
	}
	if int(length) != wantLen {
		t.Fatalf("patched length = %d, want %d", length, wantLen)
	}
}

func TestBuilder_LengthPrefixedBytes_NilIsMinusOne(t *testing.T) {
	b := NewBuilder()
	b.LengthPrefixedBytes(nil)

	s := NewScanner(b.Bytes())
	n, err := s.Int32()
	if err != nil {
		t.Fatalf("Int32: %v", err)
	}
	if n != -1 {
		t.Fatalf("length = %d, want -1 for nil", n)
	}
}

func TestScanner_RoundTripsBuilderOutput(t *testing.T) {
	b := NewBuilder()
	b.Byte(0x42)
	b.Int16(-7)
	b.Int32(123456)
	b.Int64(-9000000000)
	b.CString("hello")
	b.LengthPrefixedBytes([]byte("payload"))

	s := NewScanner(b.Bytes())
	if v, err := s.Byte(); err != nil || v != 0x42 {
		t.Fatalf("Byte() = %v, %v", v, err)
	}
	if v, err := s.Int16(); err != nil || v != -7 {
		t.Fatalf("Int16() = %v, %v", v, err)
	}
	if v, err := s.Int32(); err != nil || v != 123456 {
		t.Fatalf("Int32() = %v, %v", v, err)
	}
	if v, err := s.Int64(); err != nil || v != -9000000000 {
		t.Fatalf("Int64() = %v, %v", v, err)
	}
	if v, err := s.CString(); err != nil || v != "hello" {
		t.Fatalf("CString() = %q, %v", v, err)
	}
	v, err := s.LengthPrefixedBytes()
	if err != nil || !bytes.Equal(v, []byte("payload")) {
		t.Fatalf("LengthPrefixedBytes() = %q, %v", v, err)
	}
	if s.Remaining() != 0 {
		t.Fatalf("Remaining() = %d, want 0", s.Remaining())
	}
}

func TestScanner_ShortRead(t *testing.T) {
	s := NewScanner([]byte{0x01})
	if _, err := s.Int32(); err == nil {
		t.Fatalf("Int32() on a 1-byte buffer: expected ShortReadError, got nil")
	}
}
