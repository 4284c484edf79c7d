package types

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"pgnative/wire"
)

// Inet is the Go-side representation of both inet and cidr values. The
// OID determines which wire type is meant; the Go shape is identical.
type Inet struct {
	IP   net.IP
	Bits int // prefix length; -1 means "host route", i.e. /32 or /128
}

const (
	afINET  = 1
	afINET6 = 2
)

func registerNetwork(r *Registry) {
	registerInetLike(r, OIDInet, "inet", false)
	registerInetLike(r, OIDCIDR, "cidr", true)
	registerMacaddr(r)
}

func registerInetLike(r *Registry, oid OID, name string, isCIDR bool) {
	r.Register(&Codec{
		OID: oid, Kind: KindScalar, Name: name, PreferredFormat: FormatBinary,
		Encode: func(v any, format Format) ([]byte, error) {
			inet, err := toInet(v)
			if err != nil {
				return nil, &TypeMismatchError{OID: oid, Expected: "Inet/string/net.IP", Got: v}
			}
			if format == FormatText {
				return []byte(inetText(inet)), nil
			}
			family := afINET
			addr := inet.IP.To4()
			if addr == nil {
				family = afINET6
				addr = inet.IP.To16()
				if addr == nil {
					return nil, fmt.Errorf("inet: invalid IP %v", inet.IP)
				}
			}
			bits := inet.Bits
			if bits < 0 {
				bits = len(addr) * 8
			}
			b := wire.NewBuilder()
			b.Byte(byte(family))
			b.Byte(byte(bits))
			if isCIDR {
				b.Byte(1)
			} else {
				b.Byte(0)
			}
			b.Byte(byte(len(addr)))
			b.RawBytes(addr)
			return b.Bytes(), nil
		},
		Decode: func(data []byte, format Format) (any, error) {
			if data == nil {
				return nil, nil
			}
			if format == FormatText {
				return parseInetText(string(data))
			}
			s := wire.NewScanner(data)
			_, err := s.Byte() // family, implied by addrlen below
			if err != nil {
				return nil, err
			}
			bits, err := s.Byte()
			if err != nil {
				return nil, err
			}
			if _, err := s.Byte(); err != nil { // is_cidr
				return nil, err
			}
			addrLen, err := s.Byte()
			if err != nil {
				return nil, err
			}
			addr, err := s.RawBytes(int(addrLen))
			if err != nil {
				return nil, err
			}
			ip := make(net.IP, len(addr))
			copy(ip, addr)
			full := len(addr) * 8
			result := Inet{IP: ip, Bits: -1}
			if int(bits) != full {
				result.Bits = int(bits)
			}
			return result, nil
		},
	})
}

func toInet(v any) (Inet, error) {
	switch t := v.(type) {
	case Inet:
		return t, nil
	case net.IP:
		return Inet{IP: t, Bits: -1}, nil
	case *net.IPNet:
		ones, _ := t.Mask.Size()
		return Inet{IP: t.IP, Bits: ones}, nil
	case string:
		return parseInetText(t)
	}
	return Inet{}, fmt.Errorf("not an inet value: %T", v)
}

func inetText(i Inet) string {
	if i.Bits < 0 {
		return i.IP.String()
	}
	return fmt.Sprintf("%s/%d", i.IP.String(), i.Bits)
}

func parseInetText(s string) (Inet, error) {
	s = strings.TrimSpace(s)
	if slash := strings.IndexByte(s, '/'); slash >= 0 {
		bits, err := strconv.Atoi(s[slash+1:])
		if err != nil {
			return Inet{}, fmt.Errorf("inet: bad prefix in %q", s)
		}
		ip := net.ParseIP(s[:slash])
		if ip == nil {
			return Inet{}, fmt.Errorf("inet: bad address in %q", s)
		}
		return Inet{IP: ip, Bits: bits}, nil
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return Inet{}, fmt.Errorf("inet: bad address %q", s)
	}
	return Inet{IP: ip, Bits: -1}, nil
}

func registerMacaddr(r *Registry) {
	r.Register(&Codec{
		OID: OIDMacaddr, Kind: KindScalar, Name: "macaddr", PreferredFormat: FormatBinary,
		Encode: func(v any, format Format) ([]byte, error) {
			var hw net.HardwareAddr
			switch t := v.(type) {
			case net.HardwareAddr:
				hw = t
			case string:
				parsed, err := net.ParseMAC(t)
				if err != nil {
					return nil, &TypeMismatchError{OID: OIDMacaddr, Expected: "macaddr", Got: v}
				}
				hw = parsed
			default:
				return nil, &TypeMismatchError{OID: OIDMacaddr, Expected: "net.HardwareAddr/string", Got: v}
			}
			if len(hw) != 6 {
				return nil, fmt.Errorf("macaddr: expected 6 bytes, got %d", len(hw))
			}
			if format == FormatText {
				return []byte(hw.String()), nil
			}
			out := make([]byte, 6)
			copy(out, hw)
			return out, nil
		},
		Decode: func(data []byte, format Format) (any, error) {
			if data == nil {
				return nil, nil
			}
			if format == FormatText {
				return net.ParseMAC(strings.TrimSpace(string(data)))
			}
			if len(data) != 6 {
				return nil, fmt.Errorf("macaddr: expected 6 bytes, got %d", len(data))
			}
			hw := make(net.HardwareAddr, 6)
			copy(hw, data)
			return hw, nil
		},
	})
}
