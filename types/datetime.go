package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"pgnative/wire"
)

// pgEpoch is the zero point PostgreSQL's binary date/time formats are
// measured from: 2000-01-01 00:00:00 UTC.
var pgEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

const (
	infinityMicros    = math.MaxInt64
	negInfinityMicros = math.MinInt64
	infinityDays      = math.MaxInt32
	negInfinityDays   = math.MinInt32
)

// PosInfinity and NegInfinity are the sentinel values spec.md §4.2
// requires timestamp codecs to map +/-Infinity to and from.
var (
	PosInfinity = time.Date(294276, 12, 31, 23, 59, 59, 999999000, time.UTC)
	NegInfinity = time.Date(-4713, 11, 24, 0, 0, 0, 0, time.UTC)
)

// Interval is the Go-side representation of PostgreSQL's interval type.
// It is kept as three independent components, exactly as the wire
// format carries them, rather than collapsed into a single duration:
// months and days do not have a fixed length (a month varies, a day can
// be 23-25 hours across a DST transition), so collapsing would lose
// information that decode(encode(v)) == v depends on.
type Interval struct {
	Microseconds int64
	Days         int32
	Months       int32
}

func registerDateTime(r *Registry) {
	registerTimestamp(r, OIDTimestamp, "timestamp")
	registerTimestamp(r, OIDTimestamptz, "timestamptz")
	registerDate(r)
	registerTime(r)
	registerTimetz(r)
	registerInterval(r)
}

func registerTimestamp(r *Registry, oid OID, name string) {
	r.Register(&Codec{
		OID: oid, Kind: KindScalar, Name: name, PreferredFormat: FormatBinary,
		Encode: func(v any, format Format) ([]byte, error) {
			t, ok := v.(time.Time)
			if !ok {
				return nil, &TypeMismatchError{OID: oid, Expected: "time.Time", Got: v}
			}
			if format == FormatText {
				return []byte(t.UTC().Format("2006-01-02 15:04:05.999999Z07")), nil
			}
			var micros int64
			switch {
			case t.Equal(PosInfinity):
				micros = infinityMicros
			case t.Equal(NegInfinity):
				micros = negInfinityMicros
			default:
				micros = t.UTC().Sub(pgEpoch).Microseconds()
			}
			b := wire.NewBuilder()
			b.Int64(micros)
			return b.Bytes(), nil
		},
		Decode: func(data []byte, format Format) (any, error) {
			if data == nil {
				return nil, nil
			}
			if format == FormatText {
				return parseTimestampText(string(data))
			}
			s := wire.NewScanner(data)
			micros, err := s.Int64()
			if err != nil {
				return nil, err
			}
			switch micros {
			case infinityMicros:
				return PosInfinity, nil
			case negInfinityMicros:
				return NegInfinity, nil
			}
			return pgEpoch.Add(time.Duration(micros) * time.Microsecond), nil
		},
	})
}

func parseTimestampText(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "infinity":
		return PosInfinity, nil
	case "-infinity":
		return NegInfinity, nil
	}
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999Z07:00",
		"2006-01-02 15:04:05.999999",
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("timestamp: cannot parse %q", s)
}

func registerDate(r *Registry) {
	r.Register(&Codec{
		OID: OIDDate, Kind: KindScalar, Name: "date", PreferredFormat: FormatBinary,
		Encode: func(v any, format Format) ([]byte, error) {
			t, ok := v.(time.Time)
			if !ok {
				return nil, &TypeMismatchError{OID: OIDDate, Expected: "time.Time", Got: v}
			}
			if format == FormatText {
				return []byte(t.Format("2006-01-02")), nil
			}
			var days int32
			switch {
			case t.Equal(PosInfinity):
				days = infinityDays
			case t.Equal(NegInfinity):
				days = negInfinityDays
			default:
				days = int32(t.UTC().Sub(pgEpoch).Hours() / 24)
			}
			b := wire.NewBuilder()
			b.Int32(days)
			return b.Bytes(), nil
		},
		Decode: func(data []byte, format Format) (any, error) {
			if data == nil {
				return nil, nil
			}
			if format == FormatText {
				s := strings.TrimSpace(string(data))
				if s == "infinity" {
					return PosInfinity, nil
				}
				if s == "-infinity" {
					return NegInfinity, nil
				}
				return time.Parse("2006-01-02", s)
			}
			s := wire.NewScanner(data)
			days, err := s.Int32()
			if err != nil {
				return nil, err
			}
			switch days {
			case infinityDays:
				return PosInfinity, nil
			case negInfinityDays:
				return NegInfinity, nil
			}
			return pgEpoch.AddDate(0, 0, int(days)), nil
		},
	})
}

func registerTime(r *Registry) {
	r.Register(&Codec{
		OID: OIDTime, Kind: KindScalar, Name: "time", PreferredFormat: FormatBinary,
		Encode: func(v any, format Format) ([]byte, error) {
			t, ok := v.(time.Time)
			if !ok {
				return nil, &TypeMismatchError{OID: OIDTime, Expected: "time.Time", Got: v}
			}
			micros := microsSinceMidnight(t)
			if format == FormatText {
				return []byte(time.Unix(0, 0).UTC().Add(time.Duration(micros) * time.Microsecond).Format("15:04:05.999999")), nil
			}
			b := wire.NewBuilder()
			b.Int64(micros)
			return b.Bytes(), nil
		},
		Decode: func(data []byte, format Format) (any, error) {
			if data == nil {
				return nil, nil
			}
			if format == FormatText {
				t, err := time.Parse("15:04:05.999999", strings.TrimSpace(string(data)))
				if err != nil {
					return nil, err
				}
				return midnightUTC().Add(t.Sub(midnightParsedBase())), nil
			}
			s := wire.NewScanner(data)
			micros, err := s.Int64()
			if err != nil {
				return nil, err
			}
			return midnightUTC().Add(time.Duration(micros) * time.Microsecond), nil
		},
	})
}

func midnightUTC() time.Time      { return time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC) }
func midnightParsedBase() time.Time {
	t, _ := time.Parse("15:04:05.999999", "00:00:00")
	return t
}

func microsSinceMidnight(t time.Time) int64 {
	h, m, s := t.Clock()
	return int64(h)*3600e6 + int64(m)*60e6 + int64(s)*1e6 + int64(t.Nanosecond())/1000
}

func registerTimetz(r *Registry) {
	r.Register(&Codec{
		OID: OIDTimetz, Kind: KindScalar, Name: "timetz", PreferredFormat: FormatBinary,
		Encode: func(v any, format Format) ([]byte, error) {
			t, ok := v.(time.Time)
			if !ok {
				return nil, &TypeMismatchError{OID: OIDTimetz, Expected: "time.Time", Got: v}
			}
			_, offset := t.Zone()
			micros := microsSinceMidnight(t)
			if format == FormatText {
				return []byte(fmt.Sprintf("%s%+03d", time.Unix(0, 0).UTC().Add(time.Duration(micros)*time.Microsecond).Format("15:04:05.999999"), offset/3600)), nil
			}
			b := wire.NewBuilder()
			b.Int64(micros)
			b.Int32(int32(-offset))
			return b.Bytes(), nil
		},
		Decode: func(data []byte, format Format) (any, error) {
			if data == nil {
				return nil, nil
			}
			if format == FormatText {
				return parseTimestampText(string(data))
			}
			s := wire.NewScanner(data)
			micros, err := s.Int64()
			if err != nil {
				return nil, err
			}
			zoneOffsetWest, err := s.Int32()
			if err != nil {
				return nil, err
			}
			loc := time.FixedZone("", -int(zoneOffsetWest))
			return midnightUTC().In(loc).Add(time.Duration(micros) * time.Microsecond), nil
		},
	})
}

func registerInterval(r *Registry) {
	r.Register(&Codec{
		OID: OIDInterval, Kind: KindScalar, Name: "interval", PreferredFormat: FormatBinary,
		Encode: func(v any, format Format) ([]byte, error) {
			iv, ok := v.(Interval)
			if !ok {
				return nil, &TypeMismatchError{OID: OIDInterval, Expected: "Interval", Got: v}
			}
			if format == FormatText {
				return []byte(fmt.Sprintf("%d months %d days %d microseconds", iv.Months, iv.Days, iv.Microseconds)), nil
			}
			b := wire.NewBuilder()
			b.Int64(iv.Microseconds)
			b.Int32(iv.Days)
			b.Int32(iv.Months)
			return b.Bytes(), nil
		},
		Decode: func(data []byte, format Format) (any, error) {
			if data == nil {
				return nil, nil
			}
			if format == FormatText {
				return parseIntervalText(string(data))
			}
			s := wire.NewScanner(data)
			micros, err := s.Int64()
			if err != nil {
				return nil, err
			}
			days, err := s.Int32()
			if err != nil {
				return nil, err
			}
			months, err := s.Int32()
			if err != nil {
				return nil, err
			}
			return Interval{Microseconds: micros, Days: days, Months: months}, nil
		},
	})
}

// parseIntervalText understands the "N months N days N microseconds"
// form this codec emits itself. It is not a full PostgreSQL interval
// literal parser (that grammar has many equivalent spellings); server
// output normally arrives in this shape when IntervalStyle=postgres.
func parseIntervalText(s string) (Interval, error) {
	var iv Interval
	fields := strings.Fields(s)
	for i := 0; i+1 < len(fields); i += 2 {
		n, err := strconv.ParseInt(fields[i], 10, 64)
		if err != nil {
			continue
		}
		switch strings.TrimSuffix(fields[i+1], "s") {
		case "month":
			iv.Months = int32(n)
		case "day":
			iv.Days = int32(n)
		case "microsecond":
			iv.Microseconds = n
		}
	}
	return iv, nil
}
