// Package wire implements the PostgreSQL frontend/backend wire protocol,
// version 3.0: message framing, the buffer codec primitives messages are
// built from, and the full client-side message catalog.
package wire

import (
	"encoding/binary"
	"fmt"
)

// MaxMessageLength bounds the length field of any message payload. The
// real backend never sends anything close to this; it exists to reject
// corrupt or hostile framing before an attacker-controlled length causes
// an oversized allocation.
const MaxMessageLength = 1<<31 - 1 // 2 GiB - 1

// ShortReadError is returned when a message's declared length promises
// more bytes than the underlying stream actually delivered.
type ShortReadError struct {
	Wanted, Got int
}

func (e *ShortReadError) Error() string {
	return fmt.Sprintf("short read: wanted %d bytes, got %d", e.Wanted, e.Got)
}

// IntegerOverflowError is returned when a length field exceeds MaxMessageLength.
type IntegerOverflowError struct {
	Length int32
}

func (e *IntegerOverflowError) Error() string {
	return fmt.Sprintf("implausible length field: %d", e.Length)
}

// Builder incrementally assembles a single wire message into a growable
// byte buffer. It supports deferred length patching: many messages are
// written field-by-field before their total length is known, so callers
// reserve four bytes up front and patch them once the payload is
// complete. Builder is reused across messages via Reset to avoid
// reallocating on every call, mirroring the teacher's beginMessage/
// finishMessage buffer-reuse pattern.
type Builder struct {
	buf []byte
}

// NewBuilder returns a Builder with a small pre-sized backing array.
func NewBuilder() *Builder {
	return &Builder{buf: make([]byte, 0, 256)}
}

// Reset clears the builder for reuse without releasing its backing array.
func (b *Builder) Reset() {
	b.buf = b.buf[:0]
}

// Bytes returns the bytes written so far.
func (b *Builder) Bytes() []byte {
	return b.buf
}

// Byte appends a single byte.
func (b *Builder) Byte(v byte) {
	b.buf = append(b.buf, v)
}

// Int16 appends a big-endian int16.
func (b *Builder) Int16(v int16) {
	b.buf = binary.BigEndian.AppendUint16(b.buf, uint16(v))
}

// Int32 appends a big-endian int32.
func (b *Builder) Int32(v int32) {
	b.buf = binary.BigEndian.AppendUint32(b.buf, uint32(v))
}

// Int64 appends a big-endian int64.
func (b *Builder) Int64(v int64) {
	b.buf = binary.BigEndian.AppendUint64(b.buf, uint64(v))
}

// RawBytes appends raw bytes with no length prefix.
func (b *Builder) RawBytes(v []byte) {
	b.buf = append(b.buf, v...)
}

// CString appends a null-terminated string.
func (b *Builder) CString(s string) {
	b.buf = append(b.buf, s...)
	b.buf = append(b.buf, 0)
}

// LengthPrefixedBytes appends a 4-byte signed length followed by the
// bytes. A nil slice is encoded as length -1 (SQL NULL), matching the
// wire representation for NULL column values and NULL parameters.
func (b *Builder) LengthPrefixedBytes(v []byte) {
	if v == nil {
		b.Int32(-1)
		return
	}
	b.Int32(int32(len(v)))
	b.buf = append(b.buf, v...)
}

// ReserveLength reserves four bytes for a length field to be patched in
// later via PatchLength, and returns the offset of the reservation.
func (b *Builder) ReserveLength() int {
	at := len(b.buf)
	b.buf = append(b.buf, 0, 0, 0, 0)
	return at
}

// PatchLength writes the number of bytes written since at (inclusive of
// the reserved 4-byte field itself) into the reservation made by
// ReserveLength.
func (b *Builder) PatchLength(at int) {
	length := uint32(len(b.buf) - at)
	binary.BigEndian.PutUint32(b.buf[at:at+4], length)
}

// BeginMessage starts a tagged message: writes the tag byte and reserves
// the length field, returning the reservation offset for FinishMessage.
func (b *Builder) BeginMessage(tag byte) int {
	b.Byte(tag)
	return b.ReserveLength()
}

// FinishMessage patches the length field reserved by BeginMessage. The
// length covers the length field itself and everything after it, but
// not the leading tag byte, per the protocol's framing rule.
func (b *Builder) FinishMessage(at int) {
	b.PatchLength(at)
}

// Scanner reads primitives out of a fixed byte slice representing one
// message payload (the tag and length have already been consumed by the
// caller). It never blocks on I/O; the caller is responsible for
// assembling the full payload before handing it to a Scanner.
type Scanner struct {
	b   []byte
	pos int
}

// NewScanner wraps a payload for sequential reads.
func NewScanner(b []byte) *Scanner {
	return &Scanner{b: b}
}

// Remaining reports how many unread bytes are left.
func (s *Scanner) Remaining() int {
	return len(s.b) - s.pos
}

// Byte reads a single byte.
func (s *Scanner) Byte() (byte, error) {
	if s.Remaining() < 1 {
		return 0, &ShortReadError{Wanted: 1, Got: s.Remaining()}
	}
	v := s.b[s.pos]
	s.pos++
	return v, nil
}

// Int16 reads a big-endian int16.
func (s *Scanner) Int16() (int16, error) {
	if s.Remaining() < 2 {
		return 0, &ShortReadError{Wanted: 2, Got: s.Remaining()}
	}
	v := int16(binary.BigEndian.Uint16(s.b[s.pos:]))
	s.pos += 2
	return v, nil
}

// Int32 reads a big-endian int32.
func (s *Scanner) Int32() (int32, error) {
	if s.Remaining() < 4 {
		return 0, &ShortReadError{Wanted: 4, Got: s.Remaining()}
	}
	v := int32(binary.BigEndian.Uint32(s.b[s.pos:]))
	s.pos += 4
	return v, nil
}

// Int64 reads a big-endian int64.
func (s *Scanner) Int64() (int64, error) {
	if s.Remaining() < 8 {
		return 0, &ShortReadError{Wanted: 8, Got: s.Remaining()}
	}
	v := int64(binary.BigEndian.Uint64(s.b[s.pos:]))
	s.pos += 8
	return v, nil
}

// RawBytes reads exactly n raw bytes.
func (s *Scanner) RawBytes(n int) ([]byte, error) {
	if n < 0 || s.Remaining() < n {
		return nil, &ShortReadError{Wanted: n, Got: s.Remaining()}
	}
	v := s.b[s.pos : s.pos+n]
	s.pos += n
	return v, nil
}

// Rest returns every remaining unread byte.
func (s *Scanner) Rest() []byte {
	v := s.b[s.pos:]
	s.pos = len(s.b)
	return v
}

// CString reads a null-terminated string.
func (s *Scanner) CString() (string, error) {
	for i := s.pos; i < len(s.b); i++ {
		if s.b[i] == 0 {
			v := string(s.b[s.pos:i])
			s.pos = i + 1
			return v, nil
		}
	}
	return "", &ShortReadError{Wanted: 1, Got: 0}
}

// LengthPrefixedBytes reads a 4-byte signed length followed by that many
// bytes; a length of -1 yields a nil slice (SQL NULL).
func (s *Scanner) LengthPrefixedBytes() ([]byte, error) {
	n, err := s.Int32()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, nil
	}
	if n > MaxMessageLength {
		return nil, &IntegerOverflowError{Length: n}
	}
	return s.RawBytes(int(n))
}
