package types

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// TextTranscoder converts bytes on the wire to and from UTF-8 for a
// server whose client_encoding is not UTF8. Most deployments run
// UTF8 and never need one of these; it exists for the server_encoding
// values PostgreSQL still supports for legacy databases.
type TextTranscoder struct {
	enc encoding.Encoding
}

// LookupTextTranscoder resolves a PostgreSQL client_encoding name (as
// reported in a ParameterStatus message) to a transcoder, or reports ok
// = false for UTF8/unrecognized names, in which case no transcoding is
// necessary.
func LookupTextTranscoder(pgEncodingName string) (*TextTranscoder, bool) {
	enc, ok := pgEncodingToGo[pgEncodingName]
	if !ok {
		return nil, false
	}
	return &TextTranscoder{enc: enc}, true
}

// ToUTF8 converts server-encoded bytes into UTF-8 for use by text-format
// codecs, which otherwise assume UTF-8 throughout.
func (t *TextTranscoder) ToUTF8(data []byte) ([]byte, error) {
	out, err := t.enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("transcode to utf8: %w", err)
	}
	return out, nil
}

// FromUTF8 converts UTF-8 bytes into the server's encoding before they
// are sent as a text-format parameter value.
func (t *TextTranscoder) FromUTF8(data []byte) ([]byte, error) {
	out, err := t.enc.NewEncoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("transcode from utf8: %w", err)
	}
	return out, nil
}

// pgEncodingToGo maps the client_encoding names PostgreSQL reports to
// their golang.org/x/text equivalents. UTF8 is deliberately absent:
// callers treat its absence from this map as "no transcoding needed".
var pgEncodingToGo = map[string]encoding.Encoding{
	"LATIN1":     charmap.ISO8859_1,
	"LATIN2":     charmap.ISO8859_2,
	"LATIN9":     charmap.ISO8859_15,
	"WIN1250":    charmap.Windows1250,
	"WIN1251":    charmap.Windows1251,
	"WIN1252":    charmap.Windows1252,
	"WIN866":     charmap.CodePage866,
	"KOI8R":      charmap.KOI8R,
	"SJIS":       japanese.ShiftJIS,
	"EUC_JP":     japanese.EUCJP,
	"EUC_KR":     korean.EUCKR,
	"EUC_CN":     simplifiedchinese.GBK,
	"GBK":        simplifiedchinese.GBK,
	"GB18030":    simplifiedchinese.GB18030,
	"EUC_TW":     traditionalchinese.Big5,
	"BIG5":       traditionalchinese.Big5,
}
