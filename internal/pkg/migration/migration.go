package migration

import (
	"encoding/base64"
	"errors"
	"net/url"
	"strings"

	"github.com/shandysiswandi/sigil/internal/pkg/otp"
	"github.com/shandysiswandi/sigil/internal/pkg/otpauth"
)

// Scheme is the URI scheme of a migration export.
const Scheme = "otpauth-migration"

// ErrMalformedPayload is returned for any payload that cannot be decoded in
// full. No partial result is ever returned with it.
var ErrMalformedPayload = errors.New("migration: malformed payload")

// Type is the OTP kind carried by an exported entry.
type Type int

const (
	TypeTOTP Type = iota
	TypeHOTP
)

func (t Type) String() string {
	if t == TypeHOTP {
		return "hotp"
	}
	return "totp"
}

// Parameters is one exported account.
type Parameters struct {
	Secret    []byte
	Name      string
	Issuer    string
	Algorithm otp.Algorithm
	Digits    int
	Type      Type
	Counter   uint64
}

// Key converts the entry to a provisioning key with a base32 secret. The
// migration format has no period, so the default applies.
func (p Parameters) Key() *otpauth.Key {
	return &otpauth.Key{
		Issuer:    p.Issuer,
		Label:     p.Name,
		Secret:    otp.EncodeSecret(p.Secret),
		Algorithm: p.Algorithm,
		Digits:    p.Digits,
		Period:    otp.DefaultPeriod,
	}
}

// ParseURL decodes an otpauth-migration:// URI.
func ParseURL(raw string) ([]Parameters, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !strings.EqualFold(u.Scheme, Scheme) {
		return nil, ErrMalformedPayload
	}

	q, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return nil, ErrMalformedPayload
	}

	data := q.Get("data")
	if data == "" {
		return nil, ErrMalformedPayload
	}

	buf, err := decodeBase64(data)
	if err != nil {
		return nil, ErrMalformedPayload
	}

	return Decode(buf)
}

// decodeBase64 accepts both alphabets, padded or not. Query decoding turns an
// unescaped '+' into a space, so spaces are mapped back first.
func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimRight(strings.ReplaceAll(s, " ", "+"), "=")
	if strings.ContainsAny(s, "-_") {
		return base64.RawURLEncoding.DecodeString(s)
	}
	return base64.RawStdEncoding.DecodeString(s)
}

// Decode reads the top-level MigrationPayload message.
func Decode(buf []byte) ([]Parameters, error) {
	r := &reader{buf: buf}
	out := make([]Parameters, 0)

	for !r.done() {
		field, wire, err := r.tag()
		if err != nil {
			return nil, err
		}

		if field == 1 && wire == wireBytes {
			msg, err := r.bytes()
			if err != nil {
				return nil, err
			}
			p, err := decodeParameters(msg)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
			continue
		}

		// version, batch size, batch index, batch id
		if err := r.skip(wire); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func decodeParameters(buf []byte) (Parameters, error) {
	r := &reader{buf: buf}
	p := Parameters{Algorithm: otp.AlgorithmSHA1, Digits: 6, Type: TypeTOTP}

	for !r.done() {
		field, wire, err := r.tag()
		if err != nil {
			return Parameters{}, err
		}

		switch {
		case field == 1 && wire == wireBytes:
			b, err := r.bytes()
			if err != nil {
				return Parameters{}, err
			}
			p.Secret = append([]byte(nil), b...)
		case field == 2 && wire == wireBytes:
			b, err := r.bytes()
			if err != nil {
				return Parameters{}, err
			}
			p.Name = string(b)
		case field == 3 && wire == wireBytes:
			b, err := r.bytes()
			if err != nil {
				return Parameters{}, err
			}
			p.Issuer = string(b)
		case field >= 4 && field <= 7 && wire == wireVarint:
			v, err := r.varint()
			if err != nil {
				return Parameters{}, err
			}
			p.setEnum(field, v)
		default:
			if err := r.skip(wire); err != nil {
				return Parameters{}, err
			}
		}
	}

	return p, nil
}

func (p *Parameters) setEnum(field, v uint64) {
	switch field {
	case 4:
		switch v {
		case 2:
			p.Algorithm = otp.AlgorithmSHA256
		case 3:
			p.Algorithm = otp.AlgorithmSHA512
		case 4:
			p.Algorithm = otp.AlgorithmMD5
		default:
			p.Algorithm = otp.AlgorithmSHA1
		}
	case 5:
		if v == 2 {
			p.Digits = 8
		} else {
			p.Digits = 6
		}
	case 6:
		if v == 1 {
			p.Type = TypeHOTP
		} else {
			p.Type = TypeTOTP
		}
	case 7:
		p.Counter = v
	}
}
