package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"pgnative/wire"
)

// Point is the Go-side representation of the point type. PostgreSQL
// transmits it in binary as two float8s, so unlike the other geometric
// types below it gets a real binary codec.
type Point struct{ X, Y float64 }

// Line, Lseg, Box, Path, Polygon, Circle are transmitted as text only by
// this registry (spec.md lists them for text coverage; PostgreSQL's own
// binary send/recv functions for these are rarely exercised by clients
// and are not required here).
type (
	Line    struct{ A, B, C float64 }
	Lseg    struct{ P1, P2 Point }
	Box     struct{ High, Low Point }
	Path    struct {
		Closed bool
		Points []Point
	}
	Polygon struct{ Points []Point }
	Circle  struct {
		Center Point
		Radius float64
	}
)

func registerGeometric(r *Registry) {
	registerPoint(r)
	registerTextGeom(r, OIDLine, "line", formatLine, parseLine)
	registerTextGeom(r, OIDLseg, "lseg", formatLseg, parseLseg)
	registerTextGeom(r, OIDBox, "box", formatBox, parseBox)
	registerTextGeom(r, OIDPath, "path", formatPath, parsePath)
	registerTextGeom(r, OIDPolygon, "polygon", formatPolygon, parsePolygon)
	registerTextGeom(r, OIDCircle, "circle", formatCircle, parseCircle)
}

func registerPoint(r *Registry) {
	r.Register(&Codec{
		OID: OIDPoint, Kind: KindScalar, Name: "point", PreferredFormat: FormatBinary,
		Encode: func(v any, format Format) ([]byte, error) {
			p, ok := v.(Point)
			if !ok {
				return nil, &TypeMismatchError{OID: OIDPoint, Expected: "Point", Got: v}
			}
			if format == FormatText {
				return []byte(formatPoint(p)), nil
			}
			b := wire.NewBuilder()
			b.Int64(int64(math.Float64bits(p.X)))
			b.Int64(int64(math.Float64bits(p.Y)))
			return b.Bytes(), nil
		},
		Decode: func(data []byte, format Format) (any, error) {
			if data == nil {
				return nil, nil
			}
			if format == FormatText {
				return parsePoint(strings.TrimSpace(string(data)))
			}
			s := wire.NewScanner(data)
			x, err := s.Int64()
			if err != nil {
				return nil, err
			}
			y, err := s.Int64()
			if err != nil {
				return nil, err
			}
			return Point{X: math.Float64frombits(uint64(x)), Y: math.Float64frombits(uint64(y))}, nil
		},
	})
}

func registerTextGeom(r *Registry, oid OID, name string, format func(any) string, parse func(string) (any, error)) {
	r.Register(&Codec{
		OID: oid, Kind: KindScalar, Name: name, PreferredFormat: FormatText,
		Encode: func(v any, f Format) ([]byte, error) {
			return []byte(format(v)), nil
		},
		Decode: func(data []byte, f Format) (any, error) {
			if data == nil {
				return nil, nil
			}
			return parse(strings.TrimSpace(string(data)))
		},
	})
}

func formatPoint(v any) string {
	p := v.(Point)
	return fmt.Sprintf("(%s,%s)", trimFloat(p.X), trimFloat(p.Y))
}

func parsePoint(s string) (any, error) {
	s = strings.Trim(s, "()")
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("point: cannot parse %q", s)
	}
	x, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return nil, err
	}
	y, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return nil, err
	}
	return Point{X: x, Y: y}, nil
}

func trimFloat(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

func formatLine(v any) string {
	l := v.(Line)
	return fmt.Sprintf("{%s,%s,%s}", trimFloat(l.A), trimFloat(l.B), trimFloat(l.C))
}

func parseLine(s string) (any, error) {
	s = strings.Trim(s, "{}")
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("line: cannot parse %q", s)
	}
	vals := make([]float64, 3)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		vals[i] = f
	}
	return Line{A: vals[0], B: vals[1], C: vals[2]}, nil
}

func formatLseg(v any) string {
	l := v.(Lseg)
	return fmt.Sprintf("[%s,%s]", formatPoint(l.P1), formatPoint(l.P2))
}

func parseLseg(s string) (any, error) {
	pts, err := parsePointList(strings.Trim(s, "[]"))
	if err != nil || len(pts) != 2 {
		return nil, fmt.Errorf("lseg: cannot parse %q", s)
	}
	return Lseg{P1: pts[0], P2: pts[1]}, nil
}

func formatBox(v any) string {
	b := v.(Box)
	return fmt.Sprintf("%s,%s", formatPoint(b.High), formatPoint(b.Low))
}

func parseBox(s string) (any, error) {
	pts, err := parsePointList(s)
	if err != nil || len(pts) != 2 {
		return nil, fmt.Errorf("box: cannot parse %q", s)
	}
	return Box{High: pts[0], Low: pts[1]}, nil
}

func formatPath(v any) string {
	p := v.(Path)
	open, close := "(", ")"
	if !p.Closed {
		open, close = "[", "]"
	}
	parts := make([]string, len(p.Points))
	for i, pt := range p.Points {
		parts[i] = formatPoint(pt)
	}
	return open + strings.Join(parts, ",") + close
}

func parsePath(s string) (any, error) {
	closed := strings.HasPrefix(s, "(")
	inner := strings.Trim(s, "()[]")
	pts, err := parsePointList(inner)
	if err != nil {
		return nil, fmt.Errorf("path: cannot parse %q", s)
	}
	return Path{Closed: closed, Points: pts}, nil
}

func formatPolygon(v any) string {
	p := v.(Polygon)
	parts := make([]string, len(p.Points))
	for i, pt := range p.Points {
		parts[i] = formatPoint(pt)
	}
	return "(" + strings.Join(parts, ",") + ")"
}

func parsePolygon(s string) (any, error) {
	pts, err := parsePointList(strings.Trim(s, "()"))
	if err != nil {
		return nil, fmt.Errorf("polygon: cannot parse %q", s)
	}
	return Polygon{Points: pts}, nil
}

func formatCircle(v any) string {
	c := v.(Circle)
	return fmt.Sprintf("<%s,%s>", formatPoint(c.Center), trimFloat(c.Radius))
}

func parseCircle(s string) (any, error) {
	s = strings.Trim(s, "<>")
	idx := strings.LastIndex(s, ",")
	if idx < 0 {
		return nil, fmt.Errorf("circle: cannot parse %q", s)
	}
	center, err := parsePoint(s[:idx])
	if err != nil {
		return nil, err
	}
	radius, err := strconv.ParseFloat(s[idx+1:], 64)
	if err != nil {
		return nil, err
	}
	return Circle{Center: center.(Point), Radius: radius}, nil
}

// parsePointList splits a comma-joined run of "(x,y)" groups, tolerating
// the fact that each point itself contains a comma.
func parsePointList(s string) ([]Point, error) {
	var pts []Point
	depth := 0
	start := -1
	for i, c := range s {
		switch c {
		case '(':
			if depth == 0 {
				start = i
			}
			depth++
		case ')':
			depth--
			if depth == 0 && start >= 0 {
				p, err := parsePoint(s[start : i+1])
				if err != nil {
					return nil, err
				}
				pts = append(pts, p.(Point))
				start = -1
			}
		}
	}
	return pts, nil
}
