package wire

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// Reader reads backend messages from the server. It is the client-side
// mirror of the teacher's pgwire.Reader, which reads frontend messages;
// the framing rule (1-byte tag, 4-byte length inclusive of itself,
// payload) is identical in both directions.
type Reader struct {
	r *bufio.Reader
}

// NewReader wraps an io.Reader for reading backend protocol messages.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Message is one decoded backend message: its tag and raw payload bytes.
// Callers construct a *Scanner over Payload to decode message-specific
// fields.
type Message struct {
	Type    byte
	Payload []byte
}

// ReadMessage reads one typed backend message (tag + int32 length +
// payload). It fails with ShortReadError if the stream closes inside the
// payload and IntegerOverflowError if the declared length is implausible.
func (r *Reader) ReadMessage() (Message, error) {
	tag, err := r.r.ReadByte()
	if err != nil {
		return Message{}, err
	}

	var length int32
	if err := binary.Read(r.r, binary.BigEndian, &length); err != nil {
		return Message{}, fmt.Errorf("read message length: %w", err)
	}
	if length < 4 {
		return Message{}, fmt.Errorf("message length too short: %d", length)
	}
	if length > MaxMessageLength {
		return Message{}, &IntegerOverflowError{Length: length}
	}

	payloadLen := int(length) - 4
	payload := make([]byte, payloadLen)
	if payloadLen > 0 {
		if n, err := io.ReadFull(r.r, payload); err != nil {
			if err == io.ErrUnexpectedEOF || err == io.EOF {
				return Message{}, &ShortReadError{Wanted: payloadLen, Got: n}
			}
			return Message{}, fmt.Errorf("read message payload: %w", err)
		}
	}
	return Message{Type: tag, Payload: payload}, nil
}

// ReadSSLResponse reads the single-byte reply ('S', 'N', or 'E') to a
// client-issued SSLRequest, sent before any typed message framing
// applies.
func (r *Reader) ReadSSLResponse() (byte, error) {
	return r.r.ReadByte()
}

// DecodeRowDescription parses a RowDescription ('T') payload into column
// descriptions.
func DecodeRowDescription(payload []byte) ([]ColumnDescription, error) {
	s := NewScanner(payload)
	n, err := s.Int16()
	if err != nil {
		return nil, err
	}
	cols := make([]ColumnDescription, n)
	for i := range cols {
		name, err := s.CString()
		if err != nil {
			return nil, err
		}
		tableOID, err := s.Int32()
		if err != nil {
			return nil, err
		}
		attr, err := s.Int16()
		if err != nil {
			return nil, err
		}
		typeOID, err := s.Int32()
		if err != nil {
			return nil, err
		}
		typeSize, err := s.Int16()
		if err != nil {
			return nil, err
		}
		typeMod, err := s.Int32()
		if err != nil {
			return nil, err
		}
		format, err := s.Int16()
		if err != nil {
			return nil, err
		}
		cols[i] = ColumnDescription{
			Name: name, TableOID: tableOID, ColumnAttr: attr,
			DataTypeOID: typeOID, DataTypeSize: typeSize,
			TypeModifier: typeMod, FormatCode: format,
		}
	}
	return cols, nil
}

// DecodeDataRow parses a DataRow ('D') payload into a slice of raw
// column values; a nil entry represents SQL NULL.
func DecodeDataRow(payload []byte) ([][]byte, error) {
	s := NewScanner(payload)
	n, err := s.Int16()
	if err != nil {
		return nil, err
	}
	values := make([][]byte, n)
	for i := range values {
		v, err := s.LengthPrefixedBytes()
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// DecodeErrorFields parses the field list shared by ErrorResponse and
// NoticeResponse payloads.
func DecodeErrorFields(payload []byte) (ErrorFields, error) {
	s := NewScanner(payload)
	fields := make(ErrorFields)
	for {
		tag, err := s.Byte()
		if err != nil {
			return nil, err
		}
		if tag == 0 {
			break
		}
		val, err := s.CString()
		if err != nil {
			return nil, err
		}
		fields[tag] = val
	}
	return fields, nil
}

// DecodeParameterStatus parses a ParameterStatus ('S') payload.
func DecodeParameterStatus(payload []byte) (name, value string, err error) {
	s := NewScanner(payload)
	if name, err = s.CString(); err != nil {
		return "", "", err
	}
	if value, err = s.CString(); err != nil {
		return "", "", err
	}
	return name, value, nil
}

// DecodeBackendKeyData parses a BackendKeyData ('K') payload.
func DecodeBackendKeyData(payload []byte) (pid, secret int32, err error) {
	s := NewScanner(payload)
	if pid, err = s.Int32(); err != nil {
		return 0, 0, err
	}
	if secret, err = s.Int32(); err != nil {
		return 0, 0, err
	}
	return pid, secret, nil
}

// DecodeNotificationResponse parses an 'A' payload.
func DecodeNotificationResponse(payload []byte) (pid int32, channel, extra string, err error) {
	s := NewScanner(payload)
	if pid, err = s.Int32(); err != nil {
		return 0, "", "", err
	}
	if channel, err = s.CString(); err != nil {
		return 0, "", "", err
	}
	if extra, err = s.CString(); err != nil {
		return 0, "", "", err
	}
	return pid, channel, extra, nil
}

// DecodeParameterDescription parses a ParameterDescription ('t') payload
// into the ordered list of input parameter type OIDs.
func DecodeParameterDescription(payload []byte) ([]int32, error) {
	s := NewScanner(payload)
	n, err := s.Int16()
	if err != nil {
		return nil, err
	}
	oids := make([]int32, n)
	for i := range oids {
		oid, err := s.Int32()
		if err != nil {
			return nil, err
		}
		oids[i] = oid
	}
	return oids, nil
}

// DecodeAuthentication parses the leading sub-type of an Authentication
// ('R') message and returns the remainder of the payload (e.g. the MD5
// salt, or the SASL mechanism list).
func DecodeAuthentication(payload []byte) (subType int32, rest []byte, err error) {
	s := NewScanner(payload)
	if subType, err = s.Int32(); err != nil {
		return 0, nil, err
	}
	return subType, s.Rest(), nil
}
