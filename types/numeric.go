package types

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"pgnative/wire"
)

// Numeric wraps the text form of an arbitrary-precision decimal value.
// PostgreSQL's numeric can carry more precision than any Go builtin, so
// the codec exchanges the canonical decimal string rather than lossily
// collapsing it into a float64; callers that want a float can convert
// via strconv themselves.
type Numeric string

const (
	numericSignPositive int16 = 0x0000
	numericSignNegative int16 = 0x4000
	numericSignNaN      int16 = -16384 // 0xC000
	numericSignPosInf   int16 = -12288 // 0xD000
	numericSignNegInf   int16 = -4096  // 0xF000
)

func registerNumeric(r *Registry) {
	r.Register(&Codec{
		OID: OIDNumeric, Kind: KindScalar, Name: "numeric", PreferredFormat: FormatBinary,
		Encode: encodeNumeric,
		Decode: decodeNumeric,
	})
}

func encodeNumeric(v any, format Format) ([]byte, error) {
	s, err := numericText(v)
	if err != nil {
		return nil, err
	}
	if format == FormatText {
		return []byte(s), nil
	}
	return encodeNumericBinary(s)
}

func numericText(v any) (string, error) {
	switch n := v.(type) {
	case Numeric:
		return string(n), nil
	case string:
		return n, nil
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32), nil
	case int64:
		return strconv.FormatInt(n, 10), nil
	case int:
		return strconv.Itoa(n), nil
	}
	return "", &TypeMismatchError{OID: OIDNumeric, Expected: "Numeric/string/float/int", Got: v}
}

func encodeNumericBinary(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "nan":
		return packNumeric(0, 0, numericSignNaN, 0, nil), nil
	case "inf", "infinity", "+infinity":
		return packNumeric(0, 0, numericSignPosInf, 0, nil), nil
	case "-inf", "-infinity":
		return packNumeric(0, 0, numericSignNegInf, 0, nil), nil
	}

	sign := numericSignPositive
	if strings.HasPrefix(s, "-") {
		sign = numericSignNegative
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}

	intPart, fracPart := s, ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart, fracPart = s[:dot], s[dot+1:]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, c := range intPart + fracPart {
		if c < '0' || c > '9' {
			return nil, fmt.Errorf("numeric: invalid digit %q in %q", c, s)
		}
	}
	dscale := int16(len(fracPart))

	prefixPad := (4 - len(intPart)%4) % 4
	suffixPad := (4 - len(fracPart)%4) % 4
	padded := strings.Repeat("0", prefixPad) + intPart + fracPart + strings.Repeat("0", suffixPad)
	weight := int16(len(strings.Repeat("0", prefixPad)+intPart)/4 - 1)

	groups := make([]int16, len(padded)/4)
	for i := range groups {
		chunk := padded[i*4 : i*4+4]
		n, _ := strconv.Atoi(chunk)
		groups[i] = int16(n)
	}

	// Trim trailing all-zero groups (doesn't affect weight or dscale).
	end := len(groups)
	for end > 0 && groups[end-1] == 0 {
		end--
	}
	groups = groups[:end]

	// Trim leading all-zero groups, decrementing weight per trim.
	start := 0
	for start < len(groups) && groups[start] == 0 {
		start++
		weight--
	}
	groups = groups[start:]

	return packNumeric(int16(len(groups)), weight, sign, dscale, groups), nil
}

func packNumeric(ndigits, weight, sign, dscale int16, digits []int16) []byte {
	b := wire.NewBuilder()
	b.Int16(ndigits)
	b.Int16(weight)
	b.Int16(sign)
	b.Int16(dscale)
	for _, d := range digits {
		b.Int16(d)
	}
	return b.Bytes()
}

func decodeNumeric(data []byte, format Format) (any, error) {
	if data == nil {
		return nil, nil
	}
	if format == FormatText {
		return Numeric(strings.TrimSpace(string(data))), nil
	}
	s := wire.NewScanner(data)
	ndigits, err := s.Int16()
	if err != nil {
		return nil, err
	}
	weight, err := s.Int16()
	if err != nil {
		return nil, err
	}
	sign, err := s.Int16()
	if err != nil {
		return nil, err
	}
	dscale, err := s.Int16()
	if err != nil {
		return nil, err
	}
	switch sign {
	case numericSignNaN:
		return Numeric("NaN"), nil
	case numericSignPosInf:
		return Numeric("Infinity"), nil
	case numericSignNegInf:
		return Numeric("-Infinity"), nil
	}

	digits := make([]int16, ndigits)
	for i := range digits {
		d, err := s.Int16()
		if err != nil {
			return nil, err
		}
		digits[i] = d
	}

	value := new(big.Int)
	base := big.NewInt(10000)
	for _, d := range digits {
		value.Mul(value, base)
		value.Add(value, big.NewInt(int64(d)))
	}

	scaleExp := 4 * (int(weight) - (len(digits) - 1))
	if len(digits) == 0 {
		scaleExp = 0
	}

	var out string
	if scaleExp >= 0 {
		value.Mul(value, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(scaleExp)), nil))
		out = value.String()
		if dscale > 0 {
			out += "." + strings.Repeat("0", int(dscale))
		}
	} else {
		numFrac := -scaleExp
		digitsStr := value.String()
		for len(digitsStr) <= numFrac {
			digitsStr = "0" + digitsStr
		}
		intStr := digitsStr[:len(digitsStr)-numFrac]
		fracStr := digitsStr[len(digitsStr)-numFrac:]
		if int(dscale) < numFrac {
			fracStr = fracStr[:dscale]
		} else if int(dscale) > numFrac {
			fracStr += strings.Repeat("0", int(dscale)-numFrac)
		}
		if fracStr == "" {
			out = intStr
		} else {
			out = intStr + "." + fracStr
		}
	}

	if sign == numericSignNegative && value.Sign() != 0 {
		out = "-" + out
	}
	return Numeric(out), nil
}
